package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pharmetra/careplan-api/internal/handler"
	"github.com/pharmetra/careplan-api/internal/middleware"
)

// Handler registers its routes on the engine.
type Handler interface {
	RegisterRoutes(*gin.Engine)
}

type Config struct {
	RateLimit    rate.Limit
	RateBurst    int
	TemplateGlob string
}

type Router struct {
	engine *gin.Engine
}

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "careplan",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careplan",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "path", "status"})
)

func NewRouter(cfg Config, careplanH Handler, healthH *handler.HealthHandler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		instrument(),
		middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst).RateLimit(),
	)

	if cfg.TemplateGlob != "" {
		engine.LoadHTMLGlob(cfg.TemplateGlob)
	}

	careplanH.RegisterRoutes(engine)
	engine.GET("/health", healthH.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
