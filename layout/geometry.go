package layout

import "math"

// CSSPixelsPerInch is the reference resolution of every pixel value in this
// package.
const CSSPixelsPerInch = 96.0

// DefaultTopTolerancePx treats a block this close to the top margin as
// already sitting at the top of its page.
const DefaultTopTolerancePx = 50.0

// pageCountEpsilonPx absorbs float error in summed block heights so a
// document that ends exactly on a page boundary keeps its page count.
const pageCountEpsilonPx = 1e-6

// MMToPx converts millimetres to CSS pixels.
func MMToPx(mm float64) float64 {
	return mm / 25.4 * CSSPixelsPerInch
}

// Geometry describes the physical page in CSS pixels.
//
// Planning always reasons in fixed bands of PageHeightPx; only the final
// compositing step may produce a shorter last page.
type Geometry struct {
	PageWidthPx    float64
	PageHeightPx   float64
	MarginTopPx    float64
	MarginBottomPx float64
	MarginLeftPx   float64
	MarginRightPx  float64

	// FooterReservePx is kept free above the bottom margin for overlays.
	FooterReservePx float64

	// TopTolerancePx exempts force-break blocks that already start within
	// this distance of the top margin.
	TopTolerancePx float64
}

// A4 returns portrait A4 geometry with uniform margins given in millimetres.
func A4(marginMM float64) Geometry {
	m := MMToPx(marginMM)
	return Geometry{
		PageWidthPx:    MMToPx(210),
		PageHeightPx:   MMToPx(297),
		MarginTopPx:    m,
		MarginBottomPx: m,
		MarginLeftPx:   m,
		MarginRightPx:  m,
		TopTolerancePx: DefaultTopTolerancePx,
	}
}

// BodyHeightPx is the usable vertical space of one page.
func (g Geometry) BodyHeightPx() float64 {
	return g.PageHeightPx - g.MarginTopPx - g.MarginBottomPx - g.FooterReservePx
}

// ContentWidthPx is the page width minus the horizontal margins.
func (g Geometry) ContentWidthPx() float64 {
	return g.PageWidthPx - g.MarginLeftPx - g.MarginRightPx
}

// PageIndex returns the 0-based page band containing y.
func (g Geometry) PageIndex(y float64) int {
	return int(math.Floor(y / g.PageHeightPx))
}

// BottomLimit is the lowest y a block on page band idx may reach.
func (g Geometry) BottomLimit(idx int) float64 {
	return float64(idx+1)*g.PageHeightPx - g.MarginBottomPx - g.FooterReservePx
}

// NextPageTop is where content resumes after breaking out of band idx.
func (g Geometry) NextPageTop(idx int) float64 {
	return float64(idx+1)*g.PageHeightPx + g.MarginTopPx
}

// PageCount returns the number of pages needed for a document of the given
// height, at least one.
func (g Geometry) PageCount(heightPx float64) int {
	if g.PageHeightPx <= 0 {
		return 1
	}
	n := int(math.Ceil((heightPx - pageCountEpsilonPx) / g.PageHeightPx))
	if n < 1 {
		return 1
	}
	return n
}

// Pages derives the n fixed content bands of the document.
func (g Geometry) Pages(n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{
			Index:  i + 1,
			YStart: float64(i)*g.PageHeightPx + g.MarginTopPx,
			YEnd:   g.BottomLimit(i),
		}
	}
	return pages
}

// Page is one non-overlapping vertical band of the composed document.
type Page struct {
	Index  int // 1-based
	YStart float64
	YEnd   float64
}

// Height returns the usable height of the band.
func (p Page) Height() float64 {
	return p.YEnd - p.YStart
}
