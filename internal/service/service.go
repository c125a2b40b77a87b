package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"seikyu/backend/internal/domain"
	"seikyu/backend/internal/numbering"
	"seikyu/backend/internal/render"
	"seikyu/backend/internal/store"
	"seikyu/backend/internal/tax"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	numbers  *numbering.Service
	renderer *render.Renderer
	seals    render.SealLoader
	now      func() time.Time
}

func New(repo store.Repository, numbers *numbering.Service, renderer *render.Renderer, seals render.SealLoader) *Service {
	return &Service{
		repo:     repo,
		numbers:  numbers,
		renderer: renderer,
		seals:    seals,
		now:      time.Now,
	}
}

// NewWithClock is for tests that need deterministic issue dates.
func NewWithClock(repo store.Repository, numbers *numbering.Service, renderer *render.Renderer, seals render.SealLoader, now func() time.Time) *Service {
	s := New(repo, numbers, renderer, seals)
	s.now = now
	return s
}

// GenerateInvoice validates the request, derives tax per line item, assigns
// the next number for the issue date and appends the document to history.
// Nothing is persisted when validation fails.
func (s *Service) GenerateInvoice(ctx context.Context, req domain.InvoiceCreateRequest) (domain.Document, error) {
	if !validISODate(req.IssueDate) {
		return domain.Document{}, fmt.Errorf("%w: issue date must be YYYY-MM-DD", store.ErrInvalidDocument)
	}

	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return domain.Document{}, fmt.Errorf("%w: client name is required", store.ErrInvalidDocument)
	}
	fullClientName := buildClientName(req.ClientCompanyType, clientName)

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, input := range req.Items {
		description := strings.TrimSpace(input.Description)
		if description == "" || !validISODate(input.Date) {
			continue
		}
		if input.Amount.Sign() <= 0 || !tax.ValidRate(input.TaxRatePercent) {
			continue
		}
		amountType := input.AmountType
		if amountType != domain.AmountExclusive {
			amountType = domain.AmountInclusive
		}

		exclusiveYen, taxYen := tax.Compute(input.Amount, input.TaxRatePercent, amountType)
		items = append(items, domain.LineItem{
			Date:           input.Date,
			Description:    description,
			Amount:         input.Amount,
			TaxRatePercent: input.TaxRatePercent,
			AmountType:     amountType,
			ExclusiveYen:   exclusiveYen,
			TaxYen:         taxYen,
		})
	}
	if len(items) == 0 {
		return domain.Document{}, fmt.Errorf("%w: at least one complete line item is required", store.ErrInvalidDocument)
	}

	totals := tax.Assemble(items)

	number, err := s.numbers.NextInvoiceNumber(ctx, req.IssueDate)
	if err != nil {
		return domain.Document{}, fmt.Errorf("assign invoice number: %w", err)
	}

	doc := domain.Document{
		Number:      number,
		IssueDate:   req.IssueDate,
		ClientName:  fullClientName,
		IssuerName:  domain.IssuerName,
		Items:       items,
		SubtotalYen: totals.SubtotalYen,
		TaxTotalYen: totals.TaxTotalYen,
		TotalYen:    totals.TotalYen,
		CreatedAt:   s.now().UTC(),
	}

	// History first: an export failure later must never lose the record.
	if err := s.repo.AppendDocument(ctx, doc); err != nil {
		return domain.Document{}, fmt.Errorf("append to history: %w", err)
	}

	log.Printf("[service] generated %s for %s total=%d", doc.Number, doc.ClientName, doc.TotalYen)
	return doc, nil
}

func (s *Service) GetInvoice(ctx context.Context, number string) (domain.Document, error) {
	doc, err := s.repo.GetDocumentByNumber(ctx, number)
	if err != nil {
		return domain.Document{}, err
	}
	return *doc, nil
}

// GenerateReceipt derives a receipt from a stored invoice. The invoice record
// itself is never touched; the receipt carries its own number and today's
// date.
func (s *Service) GenerateReceipt(ctx context.Context, invoiceNumber string) (domain.Receipt, error) {
	doc, err := s.repo.GetDocumentByNumber(ctx, invoiceNumber)
	if err != nil {
		return domain.Receipt{}, err
	}

	descriptions := make([]string, 0, len(doc.Items))
	for _, item := range doc.Items {
		descriptions = append(descriptions, item.Description)
	}

	return domain.Receipt{
		Number:    s.numbers.ReceiptNumber(doc.Number),
		IssueDate: s.now().Format("2006-01-02"),
		Purpose:   strings.Join(descriptions, "、"),
		Invoice:   *doc,
	}, nil
}

func (s *Service) ExportInvoicePDF(ctx context.Context, number string) (domain.PDFArtifact, error) {
	doc, err := s.repo.GetDocumentByNumber(ctx, number)
	if err != nil {
		return domain.PDFArtifact{}, err
	}
	return s.exportInvoice(ctx, *doc)
}

func (s *Service) ExportReceiptPDF(ctx context.Context, invoiceNumber string) (domain.PDFArtifact, error) {
	receipt, err := s.GenerateReceipt(ctx, invoiceNumber)
	if err != nil {
		return domain.PDFArtifact{}, err
	}

	layout := render.BuildReceiptLayout(receipt, s.loadSeal(ctx))
	filename := "領収書_" + receipt.Number + ".pdf"
	data, err := s.renderer.ExportLayout(layout, filename)
	if err != nil {
		return domain.PDFArtifact{}, err
	}
	return domain.PDFArtifact{Filename: filename, Data: data}, nil
}

func (s *Service) History(ctx context.Context) ([]domain.Document, error) {
	return s.repo.ListDocuments(ctx)
}

func (s *Service) RemoveHistoryAt(ctx context.Context, index int) error {
	if err := s.repo.RemoveDocumentAt(ctx, index); err != nil {
		return err
	}
	log.Printf("[service] removed history entry %d", index)
	return nil
}

// ExportHistoryAt re-exports the invoice at the given history position using
// the same routine as a fresh export.
func (s *Service) ExportHistoryAt(ctx context.Context, index int) (domain.PDFArtifact, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return domain.PDFArtifact{}, err
	}
	if index < 0 || index >= len(docs) {
		return domain.PDFArtifact{}, store.ErrIndexOutOfRange
	}
	return s.exportInvoice(ctx, docs[index])
}

func (s *Service) exportInvoice(ctx context.Context, doc domain.Document) (domain.PDFArtifact, error) {
	layout := render.BuildInvoiceLayout(doc, s.loadSeal(ctx))
	filename := "請求書_" + doc.Number + ".pdf"
	data, err := s.renderer.ExportLayout(layout, filename)
	if err != nil {
		return domain.PDFArtifact{}, err
	}
	return domain.PDFArtifact{Filename: filename, Data: data}, nil
}

// loadSeal degrades silently: a missing seal image produces an unsealed
// document, never a failed export.
func (s *Service) loadSeal(ctx context.Context) []byte {
	if s.seals == nil {
		return nil
	}
	data, err := s.seals.Load(ctx)
	if err != nil {
		log.Printf("[service] WARN: seal image unavailable: %v", err)
		return nil
	}
	return data
}

func buildClientName(companyType string, name string) string {
	companyType = strings.TrimSpace(companyType)
	if companyType == "" || companyType == "その他" {
		return name
	}
	return companyType + name
}

func validISODate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
