// Package render fits a document layout onto a single A4 page and drives a
// PDF exporter. Oversized content is shrunk iteratively, with per-role floors
// so the figures that matter stay readable.
package render

import (
	"fmt"
	"log"
)

const (
	A4WidthMM    = 210.0
	A4HeightMM   = 297.0
	PageMarginMM = 5.0

	maxFitIterations   = 5
	shrinkSafety       = 0.90
	minFontScale       = 0.5
	minPaddingScale    = 0.4
	paddingShrinkRatio = 0.8

	minRasterScale = 1.5
	maxRasterScale = 3.0
)

// ContentWidthMM and ContentHeightMM are the printable box inside the page
// margins.
const (
	ContentWidthMM  = A4WidthMM - 2*PageMarginMM
	ContentHeightMM = A4HeightMM - 2*PageMarginMM
)

// FitResult reports what the shrink loop did to a layout.
type FitResult struct {
	InitialHeightMM float64
	FinalHeightMM   float64
	Iterations      int
	Fits            bool
	RasterScale     float64
}

type Renderer struct {
	exporter PageExporter
}

func New(exporter PageExporter) *Renderer {
	return &Renderer{exporter: exporter}
}

// Fit shrinks the layout until its content height is within the printable box
// or the iteration budget runs out. Width never changes: it is pinned to the
// content box and text wrapping is already reflected in each region's line
// count.
func (r *Renderer) Fit(layout *Layout) FitResult {
	result := FitResult{InitialHeightMM: layout.ContentHeightMM()}

	height := result.InitialHeightMM
	for height > ContentHeightMM && result.Iterations < maxFitIterations {
		factor := (ContentHeightMM / height) * shrinkSafety
		fontScale := factor
		if fontScale < minFontScale {
			fontScale = minFontScale
		}
		padScale := factor * paddingShrinkRatio
		if padScale < minPaddingScale {
			padScale = minPaddingScale
		}

		for _, region := range layout.Regions {
			if region.Role == RoleInteractive {
				continue
			}
			regionFont := fontScale
			if floor := region.minFontScale(minFontScale); regionFont < floor {
				regionFont = floor
			}
			region.FontScale = regionFont
			region.PadScale = padScale
		}

		height = layout.ContentHeightMM()
		result.Iterations++
	}

	result.FinalHeightMM = height
	result.Fits = height <= ContentHeightMM
	result.RasterScale = rasterScale(result.InitialHeightMM)
	return result
}

// rasterScale picks the output resolution multiplier for raster assets:
// available height over source height, clamped so short content is not
// captured absurdly dense and tall content stays sharp after shrinking.
func rasterScale(initialHeightMM float64) float64 {
	if initialHeightMM <= 0 {
		return minRasterScale
	}
	scale := ContentHeightMM / initialHeightMM
	if scale < minRasterScale {
		scale = minRasterScale
	}
	if scale > maxRasterScale {
		scale = maxRasterScale
	}
	return scale
}

// ExportLayout fits the layout and hands it to the exporter. The layout's
// scales are restored on every exit path, so exporting the same layout twice
// starts from identical state.
func (r *Renderer) ExportLayout(layout *Layout, filename string) ([]byte, error) {
	states := layout.snapshot()
	defer layout.restore(states)

	fit := r.Fit(layout)
	if !fit.Fits {
		log.Printf("[render] %s still %.1fmm after %d passes, exporting at floor scales",
			layout.Number, fit.FinalHeightMM, fit.Iterations)
	}

	job := ExportJob{
		Setup: PageSetup{
			WidthMM:     A4WidthMM,
			HeightMM:    A4HeightMM,
			MarginMM:    PageMarginMM,
			SinglePage:  true,
			RasterScale: fit.RasterScale,
		},
		Kind:     layout.Kind,
		Number:   layout.Number,
		Filename: filename,
		Regions:  layout.exportRegions(),
	}

	data, err := r.exporter.Export(job)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", layout.Number, err)
	}
	return data, nil
}
