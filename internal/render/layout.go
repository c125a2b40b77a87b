package render

import (
	"fmt"

	"seikyu/backend/internal/domain"
)

// RegionRole controls how aggressively a region may be shrunk and whether it
// is part of the captured page at all.
type RegionRole string

const (
	RoleBody        RegionRole = "body"
	RoleProtected   RegionRole = "protected"    // headline total, grand total, client name
	RoleCompanyInfo RegionRole = "company_info" // issuer address / bank block
	RoleInteractive RegionRole = "interactive"  // controls, never captured
)

// scaleFloors maps a role to the minimum font scale it tolerates before text
// becomes illegible on paper. Roles absent here fall back to the global
// minimum.
var scaleFloors = map[RegionRole]float64{
	RoleProtected:   0.8,
	RoleCompanyInfo: 0.7,
}

const (
	ptToMM      = 0.3528
	lineSpacing = 1.4
	sealSizeMM  = 18.0
)

// Region is one vertical block of the page. Text regions carry lines, the
// items region carries table rows, and the seal region carries image bytes.
// FontScale and PadScale start at 1 and are mutated by the fit loop.
type Region struct {
	Name           string
	Role           RegionRole
	Lines          []string
	TableHeader    []string
	TableRows      [][]string
	Image          []byte
	FontPt         float64
	PadMM          float64
	MarginBottomMM float64
	FontScale      float64
	PadScale       float64
}

func (r *Region) lineCount() int {
	n := len(r.Lines) + len(r.TableRows)
	if len(r.TableHeader) > 0 {
		n++
	}
	return n
}

// HeightMM measures the region at its current scales.
func (r *Region) HeightMM() float64 {
	lineHeight := r.FontPt * r.FontScale * ptToMM * lineSpacing
	h := float64(r.lineCount()) * lineHeight
	if r.Image != nil {
		h += sealSizeMM
	}
	h += (2*r.PadMM + r.MarginBottomMM) * r.PadScale
	return h
}

// minFontScale is the floor for this region's role.
func (r *Region) minFontScale(global float64) float64 {
	if floor, ok := scaleFloors[r.Role]; ok && floor > global {
		return floor
	}
	return global
}

// Layout is the ordered page content for one document.
type Layout struct {
	Kind    string // domain.KindInvoice or domain.KindReceipt
	Number  string
	Regions []*Region
}

// ContentHeightMM measures the capturable content: interactive regions are
// dropped before capture, so they never count toward the page height.
func (l *Layout) ContentHeightMM() float64 {
	var h float64
	for _, region := range l.Regions {
		if region.Role == RoleInteractive {
			continue
		}
		h += region.HeightMM()
	}
	return h
}

// exportRegions is the capture set: everything except interactive controls.
func (l *Layout) exportRegions() []*Region {
	out := make([]*Region, 0, len(l.Regions))
	for _, region := range l.Regions {
		if region.Role == RoleInteractive {
			continue
		}
		out = append(out, region)
	}
	return out
}

type scaleState struct {
	font float64
	pad  float64
}

func (l *Layout) snapshot() []scaleState {
	states := make([]scaleState, len(l.Regions))
	for i, region := range l.Regions {
		states[i] = scaleState{font: region.FontScale, pad: region.PadScale}
	}
	return states
}

func (l *Layout) restore(states []scaleState) {
	for i, region := range l.Regions {
		region.FontScale = states[i].font
		region.PadScale = states[i].pad
	}
}

func newRegion(name string, role RegionRole, fontPt, padMM, marginMM float64, lines ...string) *Region {
	return &Region{
		Name:           name,
		Role:           role,
		Lines:          lines,
		FontPt:         fontPt,
		PadMM:          padMM,
		MarginBottomMM: marginMM,
		FontScale:      1,
		PadScale:       1,
	}
}

// BuildInvoiceLayout lays out a 請求書 page from a stored document.
func BuildInvoiceLayout(doc domain.Document, seal []byte) *Layout {
	regions := []*Region{
		newRegion("title", RoleBody, 18, 2, 4, "請 求 書"),
		newRegion("meta", RoleBody, 9, 1, 2,
			"請求書番号: "+doc.Number,
			"発行日: "+FormatDateJP(doc.IssueDate),
		),
		newRegion("client", RoleProtected, 12, 1, 3, doc.ClientName+" 御中"),
		newRegion("headline_total", RoleProtected, 14, 2, 4,
			"ご請求金額 "+FormatYen(doc.TotalYen)+"（税込）"),
	}

	issuer := newRegion("issuer", RoleCompanyInfo, 8, 1, 3,
		doc.IssuerName,
		"登録番号: "+domain.IssuerRegistrationNumber,
		domain.IssuerPostalCode+" "+domain.IssuerAddress,
		domain.IssuerPhone,
	)
	issuer.Image = seal
	regions = append(regions, issuer)

	items := &Region{
		Name:           "items",
		Role:           RoleBody,
		TableHeader:    []string{"日付", "内容", "税抜金額", "消費税"},
		FontPt:         9,
		PadMM:          1,
		MarginBottomMM: 2,
		FontScale:      1,
		PadScale:       1,
	}
	for _, item := range doc.Items {
		items.TableRows = append(items.TableRows, []string{
			FormatDateJP(item.Date),
			item.Description,
			FormatYen(item.ExclusiveYen),
			fmt.Sprintf("%s (%d%%)", FormatYen(item.TaxYen), item.TaxRatePercent),
		})
	}
	regions = append(regions, items)

	regions = append(regions,
		newRegion("subtotal", RoleBody, 10, 1, 1,
			"小計（税抜）: "+FormatYen(doc.SubtotalYen),
			"消費税: "+FormatYen(doc.TaxTotalYen),
		),
		newRegion("grand_total", RoleProtected, 12, 1, 3,
			"合計（税込）: "+FormatYen(doc.TotalYen)),
		newRegion("bank", RoleCompanyInfo, 8, 1, 2,
			"お振込先",
			domain.IssuerBankName+" "+domain.IssuerBankKana,
			domain.IssuerBranchName+" "+domain.IssuerBranchKana,
			"口座番号: "+domain.IssuerAccountNumber,
			"口座名義: "+domain.IssuerAccountHolder,
			domain.IssuerTransferNote,
		),
		newRegion("footer", RoleBody, 7, 0.5, 0, doc.Number),
		newRegion("controls", RoleInteractive, 10, 2, 2, "PDF出力", "領収書発行"),
	)

	return &Layout{Kind: domain.KindInvoice, Number: doc.Number, Regions: regions}
}

// BuildReceiptLayout lays out a 領収書 page for a receipt derived from a
// stored invoice.
func BuildReceiptLayout(rec domain.Receipt, seal []byte) *Layout {
	doc := rec.Invoice
	regions := []*Region{
		newRegion("title", RoleBody, 18, 2, 4, "領 収 書"),
		newRegion("meta", RoleBody, 9, 1, 2,
			"領収書番号: "+rec.Number,
			"発行日: "+FormatDateJP(rec.IssueDate),
		),
		newRegion("client", RoleProtected, 12, 1, 3, doc.ClientName+" 御中"),
		newRegion("headline_total", RoleProtected, 14, 2, 4,
			"領収金額 "+FormatYen(doc.TotalYen)+"（税込）"),
		newRegion("purpose", RoleBody, 10, 1, 3, "但し "+rec.Purpose+" として"),
		newRegion("breakdown", RoleBody, 9, 1, 2,
			"内訳 税抜金額: "+FormatYen(doc.SubtotalYen),
			"消費税: "+FormatYen(doc.TaxTotalYen),
		),
	}

	issuer := newRegion("issuer", RoleCompanyInfo, 8, 1, 3,
		doc.IssuerName,
		"登録番号: "+domain.IssuerRegistrationNumber,
		domain.IssuerPostalCode+" "+domain.IssuerAddress,
		domain.IssuerPhone,
	)
	issuer.Image = seal
	regions = append(regions,
		issuer,
		newRegion("footer", RoleBody, 7, 0.5, 0, rec.Number),
		newRegion("controls", RoleInteractive, 10, 2, 2, "PDF出力"),
	)

	return &Layout{Kind: domain.KindReceipt, Number: rec.Number, Regions: regions}
}
