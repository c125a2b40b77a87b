package store

import (
	"testing"

	"seikyu/backend/internal/domain"
)

func TestDecodeHistoryTreatsCorruptionAsEmpty(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("not json at all"),
		[]byte(`{"a":`),
		[]byte(`{"number":"INV-20240501-001"}`), // object, not array
	}

	for _, raw := range cases {
		if docs := DecodeHistory(raw); len(docs) != 0 {
			t.Fatalf("expected empty journal for %q, got %d entries", raw, len(docs))
		}
	}
}

func TestEncodeDecodeHistoryKeepsOrder(t *testing.T) {
	docs := []domain.Document{
		{Number: "INV-20240502-001"},
		{Number: "INV-20240501-002"},
		{Number: "INV-20240501-001"},
	}

	raw, err := EncodeHistory(docs)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded := DecodeHistory(raw)
	if len(decoded) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(decoded))
	}
	for i := range docs {
		if decoded[i].Number != docs[i].Number {
			t.Fatalf("entry %d: got %s, want %s", i, decoded[i].Number, docs[i].Number)
		}
	}
}

func TestPruneKeepsNewestHundred(t *testing.T) {
	docs := make([]domain.Document, 0, 105)
	for i := 0; i < 105; i++ {
		docs = append(docs, domain.Document{Number: string(rune('a' + i%26))})
	}

	pruned := Prune(docs)
	if len(pruned) != HistoryLimit {
		t.Fatalf("expected %d entries after prune, got %d", HistoryLimit, len(pruned))
	}
	if pruned[0].Number != docs[0].Number {
		t.Fatalf("prune must keep the head (most recent) entry")
	}
}
