package layout

// Line is one positioned text line as delivered by the PDF extractor.
// Coordinates use PDF conventions: origin at the bottom-left of the page,
// Y increasing upward.
type Line struct {
	Text     string
	Page     int     // 0-based page index
	Y        float64 // baseline vertical position
	Left     float64 // horizontal start
	Right    float64 // horizontal end
	FontSize float64
	MaxGap   float64 // widest internal horizontal gap between fragments
}

// Width returns the horizontal extent of the line, or 0 if geometry is missing.
func (l Line) Width() float64 {
	if l.Right <= l.Left {
		return 0
	}
	return l.Right - l.Left
}

// Label classifies what role a line plays on the page.
type Label int

const (
	Body Label = iota
	Heading
	TableRow
	Caption
	PageNumber
	Noise
)

var labelNames = map[Label]string{
	Body:       "body",
	Heading:    "heading",
	TableRow:   "table_row",
	Caption:    "caption",
	PageNumber: "page_number",
	Noise:      "noise",
}

func (l Label) String() string {
	if s, ok := labelNames[l]; ok {
		return s
	}
	return "unknown"
}

// ClassifiedLine is a Line tagged with its label. Read-only after classification.
type ClassifiedLine struct {
	Line
	Label Label
}

// Paragraph is one sealed semantic unit of prose, assembled from consecutive
// body lines with hyphenation resolved and wraps joined by single spaces.
type Paragraph struct {
	Text string
	Page int // page the paragraph started on
}

// Chunk is a bounded run of text ending on a sentence boundary, the unit
// handed to speech synthesis. Oversized marks the single-sentence overflow
// case where the sentence alone exceeded the configured bound.
type Chunk struct {
	Text      string
	Index     int
	Oversized bool
}

// PageStats holds the per-page statistics the classifier and reconstructor
// evaluate lines against. Computed in a pre-pass; never mutated afterwards.
type PageStats struct {
	Page           int
	Height         float64 // max observed baseline, stands in for page height
	MedianWidth    float64 // median width of prose-length lines
	MedianFontSize float64
	ModalLeft      float64 // most common left edge among prose lines
	HeaderBand     float64 // baselines at or above this are in the header band
	FooterBand     float64 // baselines at or below this are in the footer band
	// Repeated holds normalized margin-band texts seen at the same band on
	// several pages (running headers/footers).
	Repeated map[string]bool
}

// InMarginBand reports whether a baseline falls in the header or footer band.
func (s PageStats) InMarginBand(y float64) bool {
	if s.Height <= 0 {
		return false
	}
	return y >= s.HeaderBand || y <= s.FooterBand
}
