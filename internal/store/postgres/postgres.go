// Package postgres is the durable Repository. Counters live in a small
// upsert table keyed by calendar day; documents are stored as JSONB rows
// so the journal survives restarts without a per-field schema.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"seikyu/backend/internal/domain"
	"seikyu/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS invoice_counters (
			day_key TEXT PRIMARY KEY,
			value   INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS documents (
			seq        BIGSERIAL PRIMARY KEY,
			number     TEXT NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS documents_number_idx ON documents (number);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) IncrementDayCounter(ctx context.Context, dateKey string) (int, error) {
	var value int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO invoice_counters (day_key, value)
		VALUES ($1, 1)
		ON CONFLICT (day_key)
		DO UPDATE SET value = invoice_counters.value + 1
		RETURNING value
	`, dateKey).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (s *Store) AppendDocument(ctx context.Context, doc domain.Document) error {
	if doc.Number == "" {
		return store.ErrInvalidDocument
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (number, payload, created_at)
		VALUES ($1, $2, $3)
	`, doc.Number, payload, doc.CreatedAt)
	if err != nil {
		return err
	}

	// Keep only the newest entries; the journal is bounded.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM documents
		WHERE seq NOT IN (
			SELECT seq FROM documents ORDER BY seq DESC LIMIT $1
		)
	`, store.HistoryLimit)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM documents
		ORDER BY seq DESC
		LIMIT $1
	`, store.HistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]domain.Document, 0, store.HistoryLimit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc domain.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			// A malformed row must not block the rest of the journal.
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) GetDocumentByNumber(ctx context.Context, number string) (*domain.Document, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM documents
		WHERE number = $1
		ORDER BY seq DESC
		LIMIT 1
	`, number).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var doc domain.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", number, err)
	}
	return &doc, nil
}

func (s *Store) RemoveDocumentAt(ctx context.Context, index int) error {
	if index < 0 {
		return store.ErrIndexOutOfRange
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Index 0 is the most recent entry.
	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT seq
		FROM documents
		ORDER BY seq DESC
		OFFSET $1
		LIMIT 1
	`, index).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrIndexOutOfRange
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE seq = $1`, seq); err != nil {
		return err
	}
	return tx.Commit()
}
