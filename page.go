package sheetpdf

import "github.com/porticus-lab/go-sheet-pdf/layout"

// PageSize represents paper dimensions in centimeters.
type PageSize struct {
	Width  float64 // Width in centimeters.
	Height float64 // Height in centimeters.
}

// Standard paper sizes.
var (
	A3     = PageSize{Width: 29.7, Height: 42.0}
	A4     = PageSize{Width: 21.0, Height: 29.7}
	A5     = PageSize{Width: 14.8, Height: 21.0}
	Letter = PageSize{Width: 21.59, Height: 27.94}
	Legal  = PageSize{Width: 21.59, Height: 35.56}
)

// Orientation represents the page orientation.
type Orientation int

const (
	// Portrait is the default vertical orientation.
	Portrait Orientation = iota
	// Landscape rotates the page to horizontal orientation.
	Landscape
)

// Margin represents page margins in centimeters.
type Margin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformMargin returns a Margin with the same value on all sides.
func UniformMargin(cm float64) Margin {
	return Margin{Top: cm, Right: cm, Bottom: cm, Left: cm}
}

// PageConfig controls the page geometry documents are cut against.
//
// A nil PageConfig or zero-value fields will use sensible defaults:
// A4 paper, portrait orientation and 2 cm margins.
type PageConfig struct {
	// Size specifies the paper size. Defaults to A4.
	Size PageSize

	// Orientation specifies portrait or landscape. Defaults to Portrait.
	Orientation Orientation

	// Margin specifies page margins in centimeters. Defaults to 2 cm on all sides.
	Margin Margin

	// FooterReserve keeps extra space in centimeters free above the bottom
	// margin. Defaults to none; the footer is drawn inside the margin.
	FooterReserve float64

	// TopTolerance in CSS pixels lets a force-break block that starts this
	// close to the top margin stay where it is. Defaults to 50.
	TopTolerance float64
}

// DefaultPageConfig returns a PageConfig with sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Size:         A4,
		Orientation:  Portrait,
		Margin:       UniformMargin(2.0),
		TopTolerance: layout.DefaultTopTolerancePx,
	}
}

// resolved returns a PageConfig with all zero values replaced by defaults.
func (p *PageConfig) resolved() PageConfig {
	d := DefaultPageConfig()
	if p == nil {
		return d
	}
	r := *p
	if r.Size == (PageSize{}) {
		r.Size = d.Size
	}
	if r.Margin == (Margin{}) {
		r.Margin = d.Margin
	}
	if r.TopTolerance <= 0 {
		r.TopTolerance = d.TopTolerance
	}
	return r
}

// cmToPx converts centimeters to CSS pixels.
func cmToPx(cm float64) float64 {
	return layout.MMToPx(cm * 10)
}

// geometry converts the configuration to the pixel geometry used by the
// planner, the surfaces and the compositor.
func (p *PageConfig) geometry() layout.Geometry {
	r := p.resolved()
	w, h := r.Size.Width, r.Size.Height
	if r.Orientation == Landscape {
		w, h = h, w
	}
	return layout.Geometry{
		PageWidthPx:     cmToPx(w),
		PageHeightPx:    cmToPx(h),
		MarginTopPx:     cmToPx(r.Margin.Top),
		MarginRightPx:   cmToPx(r.Margin.Right),
		MarginBottomPx:  cmToPx(r.Margin.Bottom),
		MarginLeftPx:    cmToPx(r.Margin.Left),
		FooterReservePx: cmToPx(r.FooterReserve),
		TopTolerancePx:  r.TopTolerance,
	}
}
