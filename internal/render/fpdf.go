package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// FPDFExporter writes the fitted layout as a vector PDF. The configured
// raster scale only matters for embedded images; text stays vector either
// way. Without a configured font file it falls back to Courier, which cannot
// shape Japanese text but keeps font-less environments (tests, CI) working.
type FPDFExporter struct {
	fontPath string
	fontName string
}

func NewFPDFExporter(fontPath string, fontName string) *FPDFExporter {
	if fontName == "" {
		fontName = "NotoSansJP"
	}
	return &FPDFExporter{fontPath: fontPath, fontName: fontName}
}

func (e *FPDFExporter) Export(job ExportJob) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(job.Setup.MarginMM, job.Setup.MarginMM, job.Setup.MarginMM)
	pdf.SetAutoPageBreak(!job.Setup.SinglePage, job.Setup.MarginMM)
	pdf.SetTitle(job.Number, true)

	family := "Courier"
	if e.fontPath != "" {
		family = e.fontName
		pdf.AddUTF8Font(family, "", e.fontPath)
	}

	pdf.AddPage()

	contentWidth := job.Setup.WidthMM - 2*job.Setup.MarginMM
	for i, region := range job.Regions {
		fontSize := region.FontPt * region.FontScale
		lineHeight := fontSize * ptToMM * lineSpacing
		pdf.SetFont(family, "", fontSize)
		pdf.SetY(pdf.GetY() + region.PadMM*region.PadScale)

		if len(region.TableRows) > 0 || len(region.TableHeader) > 0 {
			e.writeTable(pdf, region, contentWidth, lineHeight)
		}
		for _, line := range region.Lines {
			pdf.MultiCell(contentWidth, lineHeight, line, "", "L", false)
		}
		if region.Image != nil {
			e.placeImage(pdf, job, region, fmt.Sprintf("img-%d", i))
		}

		pdf.SetY(pdf.GetY() + (region.PadMM+region.MarginBottomMM)*region.PadScale)
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeTable renders the items grid. The description column absorbs whatever
// width the fixed columns leave over.
func (e *FPDFExporter) writeTable(pdf *fpdf.Fpdf, region *Region, contentWidth float64, lineHeight float64) {
	widths := []float64{32, 0, 38, 38}
	fixed := widths[0] + widths[2] + widths[3]
	widths[1] = contentWidth - fixed

	writeRow := func(cells []string, align string) {
		for col, cell := range cells {
			if col >= len(widths) {
				break
			}
			cellAlign := align
			if col >= 2 {
				cellAlign = "R"
			}
			last := col == len(cells)-1 || col == len(widths)-1
			ln := 0
			if last {
				ln = 1
			}
			pdf.CellFormat(widths[col], lineHeight, cell, "1", ln, cellAlign, false, 0, "")
		}
	}

	if len(region.TableHeader) > 0 {
		writeRow(region.TableHeader, "C")
	}
	for _, row := range region.TableRows {
		writeRow(row, "L")
	}
}

// placeImage puts the seal in the top-right of the region it belongs to,
// alongside the issuer text rather than below it.
func (e *FPDFExporter) placeImage(pdf *fpdf.Fpdf, job ExportJob, region *Region, name string) {
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(region.Image))
	if pdf.Err() {
		return
	}
	x := job.Setup.WidthMM - job.Setup.MarginMM - sealSizeMM
	pdf.ImageOptions(name, x, pdf.GetY(), sealSizeMM, sealSizeMM, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + sealSizeMM)
}
