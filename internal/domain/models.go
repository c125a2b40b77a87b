package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amount entry modes for a line item. Inclusive amounts already contain
// consumption tax; exclusive amounts are the tax-free base.
const (
	AmountInclusive = "inclusive"
	AmountExclusive = "exclusive"
)

const (
	KindInvoice = "invoice"
	KindReceipt = "receipt"
)

// Issuer identity is fixed: this backend issues documents for exactly one
// company, matching the printed letterhead.
const (
	IssuerName               = "株式会社KASEKI CREATIVE"
	IssuerRegistrationNumber = "T1120001277681"
	IssuerPostalCode         = "〒 572-0811"
	IssuerAddress            = "大阪府寝屋川市 楠根南町 5-15"
	IssuerPhone              = "☎：080-5718-7502"

	IssuerBankName      = "京都信用金庫(普通)"
	IssuerBankKana      = "キョウトシンヨウキンコ"
	IssuerBranchName    = "寝屋川支店"
	IssuerBranchKana    = "ネヤガワシテン"
	IssuerAccountNumber = "3035077"
	IssuerAccountHolder = "ｶ)ｶｾｷｸﾘｴｲﾃｨﾌﾞ"
	IssuerTransferNote  = "※振り込み手数料は御社ご負担にてお願い致します。"
)

// CompanyTypes are the legal-entity prefixes selectable for a client name.
// "その他" means the caller supplies the full name themselves.
var CompanyTypes = []string{
	"株式会社", "有限会社", "合同会社", "合資会社", "合名会社",
	"一般社団法人", "一般財団法人", "医療法人", "学校法人", "宗教法人",
	"NPO法人", "その他",
}

// ValidTaxRates are the consumption tax rates a line item may carry.
var ValidTaxRates = []int{0, 8, 10}

// LineItem is one billed row. Amount is the value as entered; ExclusiveYen
// and TaxYen are derived once at generation time and immutable afterwards.
type LineItem struct {
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	TaxRatePercent int             `json:"tax_rate_percent"`
	AmountType     string          `json:"amount_type"`
	ExclusiveYen   int64           `json:"exclusive_yen"`
	TaxYen         int64           `json:"tax_yen"`
}

// Document is a generated invoice record. Immutable once appended to
// history; receipts are derived views and never stored separately.
type Document struct {
	Number      string     `json:"number"`
	IssueDate   string     `json:"issue_date"`
	ClientName  string     `json:"client_name"`
	IssuerName  string     `json:"issuer_name"`
	Items       []LineItem `json:"items"`
	SubtotalYen int64      `json:"subtotal_yen"`
	TaxTotalYen int64      `json:"tax_total_yen"`
	TotalYen    int64      `json:"total_yen"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Receipt is derived from a stored invoice: a new number, today's issue
// date and a purpose line (但し書き). The parent invoice is embedded
// unmodified.
type Receipt struct {
	Number    string   `json:"number"`
	IssueDate string   `json:"issue_date"`
	Purpose   string   `json:"purpose"`
	Invoice   Document `json:"invoice"`
}

type LineItemInput struct {
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	TaxRatePercent int             `json:"tax_rate_percent"`
	AmountType     string          `json:"amount_type"`
}

type InvoiceCreateRequest struct {
	IssueDate         string          `json:"issue_date"`
	ClientCompanyType string          `json:"client_company_type"`
	ClientName        string          `json:"client_name"`
	Items             []LineItemInput `json:"items"`
}

type InvoiceResponse struct {
	Invoice Document `json:"invoice"`
}

type ReceiptResponse struct {
	Receipt Receipt `json:"receipt"`
}

type HistoryResponse struct {
	Invoices []Document `json:"invoices"`
}

// PDFArtifact is an exported single-page document ready for download.
type PDFArtifact struct {
	Filename string
	Data     []byte
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
}
