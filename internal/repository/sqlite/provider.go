package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pharmetra/careplan-api/internal/model"
	"github.com/pharmetra/careplan-api/internal/repository"
)

type providerRepository struct {
	db *sqlx.DB
}

func NewProviderRepository(db *sqlx.DB) repository.ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) FindByNPI(ctx context.Context, npi string) (*model.Provider, error) {
	query := `SELECT * FROM providers WHERE npi = ?`
	return r.findOne(ctx, query, npi)
}

func (r *providerRepository) FindByName(ctx context.Context, name string) (*model.Provider, error) {
	query := `SELECT * FROM providers WHERE LOWER(name) = LOWER(?)`
	return r.findOne(ctx, query, name)
}

func (r *providerRepository) Insert(ctx context.Context, provider *model.Provider) (bool, error) {
	if provider.CreatedAt.IsZero() {
		provider.CreatedAt = time.Now().UTC()
	}

	// First write wins; the NPI uniqueness constraint makes this safe
	// under concurrent registrations.
	query := `INSERT INTO providers (name, npi, created_at) VALUES (?, ?, ?) ON CONFLICT(npi) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, provider.Name, provider.NPI, provider.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert provider: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read provider insert result: %w", err)
	}
	return rows > 0, nil
}

func (r *providerRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Provider, error) {
	var provider model.Provider
	err := r.db.GetContext(ctx, &provider, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query provider: %w", err)
	}
	return &provider, nil
}
