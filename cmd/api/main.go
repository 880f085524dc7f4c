package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pharmetra/careplan-api/internal/config"
	"github.com/pharmetra/careplan-api/internal/handler"
	careplanHandler "github.com/pharmetra/careplan-api/internal/handler/careplan"
	"github.com/pharmetra/careplan-api/internal/repository/cache"
	"github.com/pharmetra/careplan-api/internal/repository/sqlite"
	"github.com/pharmetra/careplan-api/internal/router"
	careplanService "github.com/pharmetra/careplan-api/internal/service/careplan"
	"github.com/pharmetra/careplan-api/internal/service/planner"
	"github.com/pharmetra/careplan-api/pkg/logger"
	"github.com/pharmetra/careplan-api/pkg/validator"
)

const providerCacheTTL = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := sqlite.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	// Repositories
	planRepo := sqlite.NewCarePlanRepository(db)
	providerRepo := cache.NewProviderRepository(sqlite.NewProviderRepository(db), providerCacheTTL)

	// Services
	planGenerator := planner.New(planner.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, appLogger)

	engine := careplanService.NewEngine(planRepo, providerRepo)
	careplanSvc := careplanService.NewService(engine, planRepo, providerRepo, validator.New(), planGenerator, appLogger)

	// Handlers and router
	careplanH := careplanHandler.NewHandler(careplanSvc, appLogger)
	healthH := handler.NewHealthHandler(db)

	r := router.NewRouter(router.Config{
		RateLimit:    rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:    cfg.RateLimit.Burst,
		TemplateGlob: "web/templates/*",
	}, careplanH, healthH)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
