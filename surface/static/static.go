// Package static is a host-independent rendering surface.
//
// It stacks blocks at their preset heights (or heights estimated from their
// plain text and images) and rasterizes them with github.com/tdewolff/canvas.
// Remote images are never fetched; they are drawn as placeholders. Output is
// deterministic: the same document always rasterizes to the same pixels.
package static

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/porticus-lab/go-sheet-pdf/layout"
	"github.com/porticus-lab/go-sheet-pdf/surface"
)

// One canvas unit is one CSS pixel; canvas sizes fonts in points per
// millimetre, so font sizes are scaled as if pixels were millimetres.
const ptPerUnit = 72 / 25.4

type config struct {
	fontSizePx   float64
	lineHeightPx float64
	paddingPx    float64
	imageRowPx   float64
}

func defaultConfig() config {
	return config{
		fontSizePx:   12,
		lineHeightPx: 18,
		paddingPx:    6,
		imageRowPx:   240,
	}
}

// Option configures a [Surface].
type Option func(*config)

// WithFontSize sets the body text size and line height in CSS pixels.
func WithFontSize(sizePx, lineHeightPx float64) Option {
	return func(c *config) {
		c.fontSizePx = sizePx
		c.lineHeightPx = lineHeightPx
	}
}

// WithImageRowHeight sets the height reserved for a row of images.
func WithImageRowHeight(px float64) Option {
	return func(c *config) {
		c.imageRowPx = px
	}
}

// Surface lays out and rasterizes documents without a browser. It is safe
// for concurrent use.
type Surface struct {
	cfg    config
	family *canvas.FontFamily
	mu     sync.Mutex // guards face creation on the shared family
}

var _ surface.Surface = (*Surface)(nil)

// New loads the bundled Go font and returns a Surface.
func New(opts ...Option) (*Surface, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	family := canvas.NewFontFamily("go")
	if err := family.LoadFont(goregular.TTF, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("static: loading font: %w", err)
	}
	return &Surface{cfg: cfg, family: family}, nil
}

// Open returns a session for one export call.
func (s *Surface) Open(ctx context.Context, g layout.Geometry) (surface.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{s: s, g: g}, nil
}

func (s *Surface) face(sizePx float64, col color.Color) *canvas.FontFace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.family.Face(sizePx*ptPerUnit, col, canvas.FontRegular, canvas.FontNormal)
}

type session struct {
	s *Surface
	g layout.Geometry
}

// Layout stacks the blocks from the top margin down.
func (ss *session) Layout(ctx context.Context, doc layout.Document) (surface.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return surface.Measurement{}, err
	}
	out := doc.Clone()
	out.Geometry = ss.g

	face := ss.s.face(ss.s.cfg.fontSizePx, canvas.Black)
	width := ss.g.ContentWidthPx() - 2*ss.s.cfg.paddingPx

	y := ss.g.MarginTopPx
	for i := range out.Blocks {
		b := &out.Blocks[i]
		if b.HeightPx <= 0 {
			b.HeightPx = ss.estimate(*b, face, width)
		}
		b.TopPx = y
		y += b.HeightPx
	}
	out.HeightPx = y + ss.g.MarginBottomPx
	return surface.Measurement{Document: out}, nil
}

// estimate derives a block height from its wrapped text and image rows.
func (ss *session) estimate(b layout.Block, face *canvas.FontFace, width float64) float64 {
	cfg := ss.s.cfg
	if b.Role == layout.RoleSpacer {
		return 0
	}
	lines := len(wrap(b.Text, width, face))
	h := float64(lines)*cfg.lineHeightPx + 2*cfg.paddingPx
	if len(b.Images) > 0 {
		h += cfg.imageRowPx
	}
	return math.Ceil(h)
}

// Rasterize draws every non-spacer block at its planned position.
func (ss *session) Rasterize(ctx context.Context, doc layout.Document, pixelRatio float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	cfg := ss.s.cfg
	g := ss.g
	height := doc.HeightPx
	if height <= 0 {
		return nil, fmt.Errorf("static: document has no height")
	}

	c := canvas.New(g.PageWidthPx, height)
	dc := canvas.NewContext(c)
	dc.SetCoordSystem(canvas.CartesianIV)

	dc.SetFillColor(canvas.White)
	dc.SetStrokeColor(canvas.Transparent)
	dc.DrawPath(0, 0, canvas.Rectangle(g.PageWidthPx, height))

	face := ss.s.face(cfg.fontSizePx, canvas.Hex("#1f2933"))
	width := g.ContentWidthPx() - 2*cfg.paddingPx
	x := g.MarginLeftPx

	for _, b := range doc.Blocks {
		if b.Role == layout.RoleSpacer {
			continue
		}
		dc.SetFillColor(fillFor(b.Role))
		dc.SetStrokeColor(canvas.Hex("#cbd2d9"))
		dc.SetStrokeWidth(1)
		dc.DrawPath(x, b.TopPx, canvas.Rectangle(g.ContentWidthPx(), b.HeightPx))

		y := b.TopPx + cfg.paddingPx
		for _, line := range wrap(b.Text, width, face) {
			if y+cfg.lineHeightPx > b.BottomPx() {
				break
			}
			dc.DrawText(x+cfg.paddingPx, y+face.Metrics().Ascent, canvas.NewTextLine(face, line, canvas.Left))
			y += cfg.lineHeightPx
		}

		if n := len(b.Images); n > 0 {
			ss.drawPlaceholders(dc, n, x+cfg.paddingPx, y, width, math.Min(cfg.imageRowPx, b.BottomPx()-y)-cfg.paddingPx)
		}
	}

	return rasterizer.Draw(c, canvas.DPMM(pixelRatio), canvas.DefaultColorSpace), nil
}

func (ss *session) drawPlaceholders(dc *canvas.Context, n int, x, y, width, height float64) {
	if height <= 0 {
		return
	}
	const gap = 16.0
	w := (width - gap*float64(n-1)) / float64(n)
	dc.SetFillColor(canvas.Hex("#e4e7eb"))
	dc.SetStrokeColor(canvas.Hex("#9aa5b1"))
	for i := range n {
		dc.DrawPath(x+float64(i)*(w+gap), y, canvas.Rectangle(w, height))
	}
}

// Close is a no-op; sessions hold no host resources.
func (ss *session) Close() error {
	return nil
}

func fillFor(role layout.Role) color.Color {
	switch role {
	case layout.RoleRepeatableHeader:
		return canvas.Hex("#f0f4f8")
	case layout.RoleSectionTitle, layout.RoleForcedBreakAnchor:
		return canvas.Hex("#fdf6e3")
	default:
		return canvas.White
	}
}

// wrap breaks text into lines no wider than width using a greedy word fit.
// Explicit newlines are kept; a word wider than the line gets its own line.
func wrap(text string, width float64, face *canvas.FontFace) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			if face.TextWidth(cur+" "+w) > width {
				lines = append(lines, cur)
				cur = w
				continue
			}
			cur += " " + w
		}
		lines = append(lines, cur)
	}
	return lines
}
