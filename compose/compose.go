// Package compose turns one full-document raster into a paged A4 PDF.
//
// The raster is cut into fixed bands of one page height each. Every band is
// drawn edge to edge on its own PDF page and a footer is painted over the
// bottom margin: a white cover, a rule, the price disclaimer and the page
// label.
package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/porticus-lab/go-sheet-pdf/layout"
)

const (
	// DefaultDisclaimer is printed on every page.
	DefaultDisclaimer = "Harga dan ketersediaan produk dapat berubah sewaktu-waktu tanpa pemberitahuan."
	// DefaultPageLabel is formatted with the page number and the page count.
	DefaultPageLabel = "Halaman %d dari %d"
)

const (
	footerFont     = "Helvetica"
	footerFontSize = 8.0
	ruleOffsetMM   = 3.0
	textOffsetMM   = 7.5
)

// Options controls page composition.
type Options struct {
	Geometry layout.Geometry

	// PixelRatio is raster pixels per CSS pixel. Zero derives it from the
	// raster width.
	PixelRatio float64

	Disclaimer string
	PageLabel  string

	// Title is stored in the document information dictionary.
	Title string

	// CreationDate makes the output byte-for-byte reproducible when set.
	CreationDate time.Time
}

func (o Options) withDefaults() Options {
	if o.Disclaimer == "" {
		o.Disclaimer = DefaultDisclaimer
	}
	if o.PageLabel == "" {
		o.PageLabel = DefaultPageLabel
	}
	return o
}

// Output is a composed PDF.
type Output struct {
	PDF   []byte
	Pages int
}

// Compose slices raster into pages and renders the PDF.
func Compose(raster image.Image, opts Options) (*Output, error) {
	opts = opts.withDefaults()
	g := opts.Geometry
	if g.PageWidthPx <= 0 || g.PageHeightPx <= 0 {
		return nil, fmt.Errorf("compose: invalid page geometry %.2fx%.2f", g.PageWidthPx, g.PageHeightPx)
	}
	b := raster.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("compose: empty raster")
	}

	ratio := opts.PixelRatio
	if ratio <= 0 {
		ratio = float64(b.Dx()) / g.PageWidthPx
	}

	// The page count is fixed before any page is drawn so every label
	// carries the same total.
	bandPx := g.PageHeightPx * ratio
	n := PageCount(b.Dy(), bandPx)
	bands := Slice(raster, bandPx, n)

	pageW, pageH := pxToMM(g.PageWidthPx), pxToMM(g.PageHeightPx)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	if !opts.CreationDate.IsZero() {
		pdf.SetCreationDate(opts.CreationDate)
	}
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.SetCreator("go-sheet-pdf", true)

	imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, band := range bands {
		var buf bytes.Buffer
		if err := png.Encode(&buf, band); err != nil {
			return nil, fmt.Errorf("compose: encoding page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, imgOpts, &buf)

		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, pageW, pageH, false, imgOpts, 0, "")
		drawFooter(pdf, g, opts, i+1, n)

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("compose: page %d: %w", i+1, err)
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("compose: writing pdf: %w", err)
	}
	return &Output{PDF: out.Bytes(), Pages: n}, nil
}

// drawFooter paints the overlay into the bottom margin of the current page.
func drawFooter(pdf *fpdf.Fpdf, g layout.Geometry, opts Options, page, total int) {
	pageW, pageH := pxToMM(g.PageWidthPx), pxToMM(g.PageHeightPx)
	left := pxToMM(g.MarginLeftPx)
	right := pageW - pxToMM(g.MarginRightPx)
	top := pageH - pxToMM(g.MarginBottomPx)

	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(0, top, pageW, pageH-top, "F")

	pdf.SetDrawColor(203, 210, 217)
	pdf.SetLineWidth(0.2)
	pdf.Line(left, top+ruleOffsetMM, right, top+ruleOffsetMM)

	pdf.SetFont(footerFont, "", footerFontSize)
	pdf.SetTextColor(82, 96, 109)
	y := top + textOffsetMM
	pdf.Text(left, y, opts.Disclaimer)

	label := fmt.Sprintf(opts.PageLabel, page, total)
	pdf.Text(right-pdf.GetStringWidth(label), y, label)
}

// PageCount returns how many bands of bandPx raster rows cover rows, at
// least one. A single trailing row past a band boundary is rounding from
// rasterization and does not open a page.
func PageCount(rows int, bandPx float64) int {
	if bandPx <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(float64(rows-1)/bandPx)))
}

// Slice cuts raster into n bands. Band i starts at raster row
// round(i*bandPx) so fractional band heights do not drift; rows past the
// end of the raster are white.
func Slice(raster image.Image, bandPx float64, n int) []*image.RGBA {
	b := raster.Bounds()
	h := int(math.Ceil(bandPx))
	bands := make([]*image.RGBA, 0, n)
	for i := range n {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), h))
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		src := image.Pt(b.Min.X, b.Min.Y+int(math.Round(float64(i)*bandPx)))
		draw.Draw(dst, dst.Bounds(), raster, src, draw.Over)
		bands = append(bands, dst)
	}
	return bands
}

func pxToMM(px float64) float64 {
	return px / layout.CSSPixelsPerInch * 25.4
}
