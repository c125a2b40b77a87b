package render

// PageSetup is the physical page the exporter must produce: A4 portrait,
// uniform margins, single page. RasterScale affects embedded raster assets
// only, never the layout geometry.
type PageSetup struct {
	WidthMM     float64
	HeightMM    float64
	MarginMM    float64
	SinglePage  bool
	RasterScale float64
}

// ExportJob is one capture request. Regions are the already-filtered capture
// set (no interactive regions) with their fitted scales applied.
type ExportJob struct {
	Setup    PageSetup
	Kind     string
	Number   string
	Filename string
	Regions  []*Region
}

// PageExporter turns a fitted layout into document bytes.
type PageExporter interface {
	Export(job ExportJob) ([]byte, error)
}
