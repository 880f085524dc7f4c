// Package sqlite implements the record store on an embedded sqlite
// database via the pure-Go modernc driver.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS care_plans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_first_name TEXT NOT NULL,
	patient_last_name TEXT NOT NULL,
	referring_provider TEXT NOT NULL,
	referring_provider_npi TEXT NOT NULL,
	patient_mrn TEXT NOT NULL,
	primary_diagnosis TEXT NOT NULL,
	medication_name TEXT NOT NULL,
	additional_diagnoses TEXT NOT NULL DEFAULT '',
	medication_history TEXT NOT NULL DEFAULT '',
	patient_records TEXT NOT NULL DEFAULT '',
	generated_plan TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_care_plans_mrn ON care_plans(patient_mrn);
CREATE INDEX IF NOT EXISTS idx_care_plans_created_at ON care_plans(created_at);

CREATE TABLE IF NOT EXISTS providers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	npi TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL
);
`

// NewDB opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for tests.
func NewDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Single connection: sqlite serializes writers anyway and the shared
	// in-memory database disappears when its last connection closes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}
