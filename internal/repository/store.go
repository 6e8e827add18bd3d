package repository

import (
	"context"
	"fmt"
	"log/slog"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	Profiles      ProfileRepository
	Documents     DocumentRepository
	Jobs          ExtractJobRepository
	PriorityDates PriorityDateRepository

	db     *DB
	logger *slog.Logger
}

func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return newStore(db, conn{x: db.DB, dialect: db.dialect}, logger)
}

func newStore(db *DB, c conn, logger *slog.Logger) *Store {
	return &Store{
		Profiles:      &profileRepository{c: c, logger: logger},
		Documents:     &documentRepository{c: c, logger: logger},
		Jobs:          &extractJobRepo{c: c, log: logger},
		PriorityDates: &priorityDateRepo{c: c, logger: logger},
		db:            db,
		logger:        logger,
	}
}

// WithTx runs fn against a Store bound to one transaction, committing when
// fn returns nil and rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newStore(s.db, conn{x: tx, dialect: s.db.dialect}, s.logger)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("tx rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
