// Package redis persists the journal and counters in a key-value store,
// mirroring the layout the browser edition of this tool used in
// localStorage: one counter key per calendar day and a single JSON array
// for the whole history.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"seikyu/backend/internal/domain"
	"seikyu/backend/internal/store"
)

const (
	counterKeyPrefix = "invoice_counter_"
	historyKey       = "invoice_history"
)

type Store struct {
	client *goredis.Client
}

func New(addr string, password string, db int) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) IncrementDayCounter(ctx context.Context, dateKey string) (int, error) {
	value, err := s.client.Incr(ctx, counterKeyPrefix+dateKey).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s%s: %w", counterKeyPrefix, dateKey, err)
	}
	return int(value), nil
}

func (s *Store) AppendDocument(ctx context.Context, doc domain.Document) error {
	if doc.Number == "" {
		return store.ErrInvalidDocument
	}

	history, err := s.loadHistory(ctx)
	if err != nil {
		return err
	}

	history = append([]domain.Document{doc}, history...)
	history = store.Prune(history)
	return s.saveHistory(ctx, history)
}

func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.loadHistory(ctx)
}

func (s *Store) GetDocumentByNumber(ctx context.Context, number string) (*domain.Document, error) {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].Number == number {
			doc := history[i]
			return &doc, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) RemoveDocumentAt(ctx context.Context, index int) error {
	history, err := s.loadHistory(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(history) {
		return store.ErrIndexOutOfRange
	}
	history = append(history[:index], history[index+1:]...)
	return s.saveHistory(ctx, history)
}

// loadHistory reads the journal key. A missing key is an empty journal; a
// corrupted payload also decodes as empty rather than failing the caller.
func (s *Store) loadHistory(ctx context.Context) ([]domain.Document, error) {
	raw, err := s.client.Get(ctx, historyKey).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", historyKey, err)
	}
	return store.DecodeHistory(raw), nil
}

func (s *Store) saveHistory(ctx context.Context, history []domain.Document) error {
	payload, err := store.EncodeHistory(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.client.Set(ctx, historyKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", historyKey, err)
	}
	return nil
}
