package numbering

import (
	"context"
	"testing"
	"time"
)

type fakeCounters struct {
	byDay map[string]int
}

func (f *fakeCounters) IncrementDayCounter(_ context.Context, dateKey string) (int, error) {
	if f.byDay == nil {
		f.byDay = map[string]int{}
	}
	f.byDay[dateKey]++
	return f.byDay[dateKey], nil
}

func TestNextInvoiceNumberIncrementsPerDay(t *testing.T) {
	svc := New(&fakeCounters{})
	ctx := context.Background()

	want := []string{"INV-20240501-001", "INV-20240501-002", "INV-20240501-003"}
	for i, expected := range want {
		got, err := svc.NextInvoiceNumber(ctx, "2024-05-01")
		if err != nil {
			t.Fatalf("invoice %d: %v", i+1, err)
		}
		if got != expected {
			t.Fatalf("invoice %d: got %s, want %s", i+1, got, expected)
		}
	}
}

func TestNextInvoiceNumberResetsAcrossDays(t *testing.T) {
	svc := New(&fakeCounters{})
	ctx := context.Background()

	if _, err := svc.NextInvoiceNumber(ctx, "2024-05-01"); err != nil {
		t.Fatalf("first day: %v", err)
	}
	got, err := svc.NextInvoiceNumber(ctx, "2024-05-02")
	if err != nil {
		t.Fatalf("second day: %v", err)
	}
	if got != "INV-20240502-001" {
		t.Fatalf("expected sequence to reset on a new day, got %s", got)
	}
}

func TestReceiptNumberDerivesFromParent(t *testing.T) {
	svc := New(&fakeCounters{})
	got := svc.ReceiptNumber("INV-20240501-002")
	if got != "REC-20240501-002" {
		t.Fatalf("got %s, want REC-20240501-002", got)
	}
}

func TestReceiptNumberFallsBackToCurrentDate(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	svc := NewWithClock(&fakeCounters{}, func() time.Time { return fixed })

	got := svc.ReceiptNumber("")
	if got != "REC-20240615-001" {
		t.Fatalf("got %s, want REC-20240615-001", got)
	}
}
