package repository

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		most_recent_i94_number TEXT,
		most_recent_entry_date DATE,
		alien_registration_number TEXT,
		authorized_stay_until DATE,
		ead_expiry_date DATE,
		visa_expiry_date DATE,
		passport_number TEXT,
		passport_expiry_date DATE,
		passport_country TEXT,
		current_status_code TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		document_type TEXT NOT NULL,
		detection_method TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		metadata JSONB NOT NULL,
		warnings JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_profile_hash_idx ON documents (profile_id, content_hash)`,
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id UUID PRIMARY KEY,
		document_id UUID REFERENCES documents(id) ON DELETE SET NULL,
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		format TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		error_message TEXT,
		confidence DOUBLE PRECISION,
		needs_review BOOLEAN NOT NULL DEFAULT FALSE,
		ocr_text TEXT,
		extracted_json JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS priority_dates (
		id UUID PRIMARY KEY,
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		document_id UUID REFERENCES documents(id) ON DELETE SET NULL,
		date DATE NOT NULL,
		document_type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (profile_id, date, document_type)
	)`,
}

// modernc returns DATE and TIMESTAMP columns as time.Time.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		most_recent_i94_number TEXT,
		most_recent_entry_date DATE,
		alien_registration_number TEXT,
		authorized_stay_until DATE,
		ead_expiry_date DATE,
		visa_expiry_date DATE,
		passport_number TEXT,
		passport_expiry_date DATE,
		passport_country TEXT,
		current_status_code TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		document_type TEXT NOT NULL,
		detection_method TEXT NOT NULL,
		confidence REAL NOT NULL,
		metadata TEXT NOT NULL,
		warnings TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_profile_hash_idx ON documents (profile_id, content_hash)`,
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id TEXT PRIMARY KEY,
		document_id TEXT REFERENCES documents(id) ON DELETE SET NULL,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		format TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		status TEXT NOT NULL,
		error_message TEXT,
		confidence REAL,
		needs_review INTEGER NOT NULL DEFAULT 0,
		ocr_text TEXT,
		extracted_json TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS priority_dates (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		document_id TEXT REFERENCES documents(id) ON DELETE SET NULL,
		date DATE NOT NULL,
		document_type TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (profile_id, date, document_type)
	)`,
}

// Migrate creates the tables for the handle's dialect. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if db.dialect == SQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	db.logger.Info("database migrated", "dialect", db.dialect, "statements", len(stmts))
	return nil
}
