// Package numbering derives sequential, date-scoped document numbers from
// persisted per-day counters.
package numbering

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	invoicePrefix = "INV"
	receiptPrefix = "REC"
)

// CounterStore increments and returns the per-day counter backing invoice
// numbers. Counters are never decremented, so a number is never reused even
// when its document is deleted from history.
type CounterStore interface {
	IncrementDayCounter(ctx context.Context, dateKey string) (int, error)
}

type Service struct {
	counters CounterStore
	now      func() time.Time
}

func New(counters CounterStore) *Service {
	return &Service{counters: counters, now: time.Now}
}

// NewWithClock is used by tests that need a fixed current date for the
// receipt fallback number.
func NewWithClock(counters CounterStore, now func() time.Time) *Service {
	return &Service{counters: counters, now: now}
}

// NextInvoiceNumber increments the counter for the issue date and formats
// INV-YYYYMMDD-NNN. The first invoice of a day gets sequence 1; the
// sequence resets each calendar day, so uniqueness across days comes from
// the date segment alone.
func (s *Service) NextInvoiceNumber(ctx context.Context, issueDate string) (string, error) {
	dateKey := DateKey(issueDate)
	seq, err := s.counters.IncrementDayCounter(ctx, dateKey)
	if err != nil {
		return "", fmt.Errorf("increment counter for %s: %w", dateKey, err)
	}
	return fmt.Sprintf("%s-%s-%03d", invoicePrefix, dateKey, seq), nil
}

// ReceiptNumber derives a receipt number from its parent invoice number by
// swapping the prefix; the sequence is shared, not separately counted. When
// no parent number exists the fallback uses the current date, not the
// invoice's issue date.
func (s *Service) ReceiptNumber(parentInvoiceNumber string) string {
	if parentInvoiceNumber != "" {
		return strings.Replace(parentInvoiceNumber, invoicePrefix, receiptPrefix, 1)
	}
	today := s.now().Format("2006-01-02")
	return fmt.Sprintf("%s-%s-001", receiptPrefix, DateKey(today))
}

// DateKey collapses an ISO date (2024-05-01) to its YYYYMMDD counter key.
func DateKey(isoDate string) string {
	return strings.ReplaceAll(isoDate, "-", "")
}
