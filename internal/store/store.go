package store

import (
	"context"
	"encoding/json"
	"errors"

	"seikyu/backend/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrIndexOutOfRange = errors.New("history index out of range")
	ErrInvalidDocument = errors.New("invalid document")
)

// HistoryLimit bounds the journal: the oldest entries are evicted once more
// than this many documents have been appended.
const HistoryLimit = 100

// Repository persists the history journal and the per-day number counters.
// Every mutation is persisted before the call returns.
type Repository interface {
	IncrementDayCounter(ctx context.Context, dateKey string) (int, error)
	AppendDocument(ctx context.Context, doc domain.Document) error
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetDocumentByNumber(ctx context.Context, number string) (*domain.Document, error)
	RemoveDocumentAt(ctx context.Context, index int) error
}

// DecodeHistory parses a persisted journal. Corrupted or non-JSON payloads
// decode as an empty journal rather than an error: a broken store must never
// block document generation.
func DecodeHistory(raw []byte) []domain.Document {
	if len(raw) == 0 {
		return nil
	}
	var docs []domain.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil
	}
	return docs
}

// EncodeHistory serializes the journal for key-value backends.
func EncodeHistory(docs []domain.Document) ([]byte, error) {
	return json.Marshal(docs)
}

// Prune truncates a most-recent-first journal to the history limit.
func Prune(docs []domain.Document) []domain.Document {
	if len(docs) > HistoryLimit {
		return docs[:HistoryLimit]
	}
	return docs
}
