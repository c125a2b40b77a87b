package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"seikyu/backend/internal/domain"
	"seikyu/backend/internal/numbering"
	"seikyu/backend/internal/render"
	"seikyu/backend/internal/store"
	"seikyu/backend/internal/store/memory"
)

type stubExporter struct {
	jobs []render.ExportJob
	err  error
}

func (s *stubExporter) Export(job render.ExportJob) ([]byte, error) {
	s.jobs = append(s.jobs, job)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-stub"), nil
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
}

func newTestService(repo store.Repository, exporter *stubExporter) *Service {
	numbers := numbering.NewWithClock(repo, fixedClock)
	return NewWithClock(repo, numbers, render.New(exporter), nil, fixedClock)
}

func validRequest() domain.InvoiceCreateRequest {
	return domain.InvoiceCreateRequest{
		IssueDate:         "2024-05-01",
		ClientCompanyType: "株式会社",
		ClientName:        "テスト",
		Items: []domain.LineItemInput{
			{Date: "2024-05-01", Description: "制作費", Amount: decimal.NewFromInt(440000), TaxRatePercent: 10, AmountType: domain.AmountInclusive},
			{Date: "2024-05-02", Description: "撮影費", Amount: decimal.NewFromInt(1000), TaxRatePercent: 8, AmountType: domain.AmountExclusive},
		},
	}
}

func TestGenerateInvoice(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})

	doc, err := svc.GenerateInvoice(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if doc.Number != "INV-20240501-001" {
		t.Fatalf("number = %s", doc.Number)
	}
	if doc.ClientName != "株式会社テスト" {
		t.Fatalf("client name = %s", doc.ClientName)
	}
	if doc.IssuerName != domain.IssuerName {
		t.Fatalf("issuer name = %s", doc.IssuerName)
	}
	// 440000 inclusive @10% -> 400000 + 40000; 1000 exclusive @8% -> 1000 + 80.
	if doc.SubtotalYen != 401000 || doc.TaxTotalYen != 40080 || doc.TotalYen != 441080 {
		t.Fatalf("totals = %d/%d/%d", doc.SubtotalYen, doc.TaxTotalYen, doc.TotalYen)
	}

	stored, err := repo.GetDocumentByNumber(context.Background(), doc.Number)
	if err != nil {
		t.Fatalf("document not in history: %v", err)
	}
	if stored.TotalYen != doc.TotalYen {
		t.Fatalf("stored total %d differs from returned %d", stored.TotalYen, doc.TotalYen)
	}
}

func TestGenerateInvoiceSequencesWithinDay(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		doc, err := svc.GenerateInvoice(ctx, validRequest())
		if err != nil {
			t.Fatalf("generate %d: %v", want, err)
		}
		if got := doc.Number[len(doc.Number)-3:]; got != []string{"001", "002", "003"}[want-1] {
			t.Fatalf("invoice %d got sequence %s", want, got)
		}
	}
}

func TestGenerateInvoiceFiltersIncompleteItems(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})

	req := validRequest()
	req.Items = append(req.Items,
		domain.LineItemInput{Date: "2024-05-01", Description: "   ", Amount: decimal.NewFromInt(100), TaxRatePercent: 10},
		domain.LineItemInput{Date: "not-a-date", Description: "出張費", Amount: decimal.NewFromInt(100), TaxRatePercent: 10},
		domain.LineItemInput{Date: "2024-05-01", Description: "値引", Amount: decimal.NewFromInt(-100), TaxRatePercent: 10},
		domain.LineItemInput{Date: "2024-05-01", Description: "雑費", Amount: decimal.NewFromInt(100), TaxRatePercent: 5},
	)

	doc, err := svc.GenerateInvoice(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("expected the 2 complete items to survive, got %d", len(doc.Items))
	}
}

func TestGenerateInvoiceValidation(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})
	ctx := context.Background()

	bad := validRequest()
	bad.IssueDate = "05/01/2024"
	if _, err := svc.GenerateInvoice(ctx, bad); !errors.Is(err, store.ErrInvalidDocument) {
		t.Fatalf("bad issue date: expected ErrInvalidDocument, got %v", err)
	}

	bad = validRequest()
	bad.ClientName = "  "
	if _, err := svc.GenerateInvoice(ctx, bad); !errors.Is(err, store.ErrInvalidDocument) {
		t.Fatalf("blank client: expected ErrInvalidDocument, got %v", err)
	}

	bad = validRequest()
	bad.Items = []domain.LineItemInput{{Date: "2024-05-01", Description: "", Amount: decimal.NewFromInt(100), TaxRatePercent: 10}}
	if _, err := svc.GenerateInvoice(ctx, bad); !errors.Is(err, store.ErrInvalidDocument) {
		t.Fatalf("no valid items: expected ErrInvalidDocument, got %v", err)
	}

	docs, _ := repo.ListDocuments(ctx)
	if len(docs) != 0 {
		t.Fatalf("validation failures must not touch history, found %d entries", len(docs))
	}
}

func TestClientNameForOther(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})

	req := validRequest()
	req.ClientCompanyType = "その他"
	req.ClientName = "山田太郎"

	doc, err := svc.GenerateInvoice(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.ClientName != "山田太郎" {
		t.Fatalf("その他 must not be prefixed, got %s", doc.ClientName)
	}
}

func TestGenerateReceipt(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})
	ctx := context.Background()

	doc, err := svc.GenerateInvoice(ctx, validRequest())
	if err != nil {
		t.Fatalf("generate invoice: %v", err)
	}

	receipt, err := svc.GenerateReceipt(ctx, doc.Number)
	if err != nil {
		t.Fatalf("generate receipt: %v", err)
	}

	if receipt.Number != "REC-20240501-001" {
		t.Fatalf("receipt number = %s", receipt.Number)
	}
	if receipt.IssueDate != "2024-06-15" {
		t.Fatalf("receipt date should be today, got %s", receipt.IssueDate)
	}
	if receipt.Purpose != "制作費、撮影費" {
		t.Fatalf("purpose = %s", receipt.Purpose)
	}
	if receipt.Invoice.Number != doc.Number {
		t.Fatalf("receipt must embed its parent invoice")
	}

	// The stored invoice is untouched.
	stored, err := repo.GetDocumentByNumber(ctx, doc.Number)
	if err != nil || stored.Number != doc.Number {
		t.Fatalf("parent invoice mutated or lost: %v", err)
	}
	if _, err := repo.GetDocumentByNumber(ctx, receipt.Number); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("receipts must not be appended to history")
	}
}

func TestGenerateReceiptForUnknownInvoice(t *testing.T) {
	svc := newTestService(memory.New(), &stubExporter{})
	if _, err := svc.GenerateReceipt(context.Background(), "INV-20240501-999"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExportInvoicePDF(t *testing.T) {
	repo := memory.New()
	exporter := &stubExporter{}
	svc := newTestService(repo, exporter)
	ctx := context.Background()

	doc, err := svc.GenerateInvoice(ctx, validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	artifact, err := svc.ExportInvoicePDF(ctx, doc.Number)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if artifact.Filename != "請求書_INV-20240501-001.pdf" {
		t.Fatalf("filename = %s", artifact.Filename)
	}
	if len(artifact.Data) == 0 {
		t.Fatalf("empty artifact")
	}
	if exporter.jobs[0].Kind != domain.KindInvoice {
		t.Fatalf("exported kind = %s", exporter.jobs[0].Kind)
	}
}

func TestExportReceiptPDF(t *testing.T) {
	repo := memory.New()
	exporter := &stubExporter{}
	svc := newTestService(repo, exporter)
	ctx := context.Background()

	doc, err := svc.GenerateInvoice(ctx, validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	artifact, err := svc.ExportReceiptPDF(ctx, doc.Number)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if artifact.Filename != "領収書_REC-20240501-001.pdf" {
		t.Fatalf("filename = %s", artifact.Filename)
	}
	if exporter.jobs[0].Kind != domain.KindReceipt {
		t.Fatalf("exported kind = %s", exporter.jobs[0].Kind)
	}
}

func TestExportFailureSurfacesButKeepsHistory(t *testing.T) {
	repo := memory.New()
	exporter := &stubExporter{err: errors.New("renderer broke")}
	svc := newTestService(repo, exporter)
	ctx := context.Background()

	doc, err := svc.GenerateInvoice(ctx, validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.ExportInvoicePDF(ctx, doc.Number); err == nil {
		t.Fatalf("expected export error")
	}
	if _, err := repo.GetDocumentByNumber(ctx, doc.Number); err != nil {
		t.Fatalf("history entry lost after export failure: %v", err)
	}
}

func TestExportHistoryAt(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})
	ctx := context.Background()

	first, _ := svc.GenerateInvoice(ctx, validRequest())
	second, _ := svc.GenerateInvoice(ctx, validRequest())

	// Index 0 is the most recent document.
	artifact, err := svc.ExportHistoryAt(ctx, 0)
	if err != nil {
		t.Fatalf("export at 0: %v", err)
	}
	if artifact.Filename != "請求書_"+second.Number+".pdf" {
		t.Fatalf("filename = %s, want the newest entry %s", artifact.Filename, second.Number)
	}

	artifact, err = svc.ExportHistoryAt(ctx, 1)
	if err != nil {
		t.Fatalf("export at 1: %v", err)
	}
	if artifact.Filename != "請求書_"+first.Number+".pdf" {
		t.Fatalf("filename = %s, want the older entry %s", artifact.Filename, first.Number)
	}

	if _, err := svc.ExportHistoryAt(ctx, 2); !errors.Is(err, store.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestRemoveHistoryAt(t *testing.T) {
	repo := memory.New()
	svc := newTestService(repo, &stubExporter{})
	ctx := context.Background()

	doc, _ := svc.GenerateInvoice(ctx, validRequest())
	if err := svc.RemoveHistoryAt(ctx, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := repo.GetDocumentByNumber(ctx, doc.Number); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("entry still present after removal")
	}

	// The counter is untouched: the next invoice continues the sequence.
	next, err := svc.GenerateInvoice(ctx, validRequest())
	if err != nil {
		t.Fatalf("generate after removal: %v", err)
	}
	if next.Number != "INV-20240501-002" {
		t.Fatalf("deletion must never recycle a number, got %s", next.Number)
	}
}
