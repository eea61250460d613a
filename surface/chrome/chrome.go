// Package chrome binds the rendering surface to a headless Chrome instance
// driven over the Chrome DevTools Protocol.
//
// A [Surface] owns one browser process; every session is a private tab, so
// concurrent exports never share layout state.
package chrome

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"golang.org/x/image/draw"

	"github.com/porticus-lab/go-sheet-pdf/layout"
	"github.com/porticus-lab/go-sheet-pdf/surface"
)

// ErrClosed is returned when a session is opened on a closed Surface.
var ErrClosed = errors.New("chrome: surface is closed")

// Surface lays out and rasterizes documents in headless Chrome. It is safe
// for concurrent use.
//
// Call [Surface.Close] when the Surface is no longer needed to release the
// browser process.
type Surface struct {
	cfg config

	mu      sync.Mutex
	browser *browser // nil once closed
}

var _ surface.Surface = (*Surface)(nil)

// New starts a headless browser and returns a Surface backed by it.
func New(opts ...Option) (*Surface, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	b, err := launch(cfg)
	if err != nil {
		return nil, err
	}
	return &Surface{cfg: cfg, browser: b}, nil
}

// Close terminates the browser process. Close is idempotent.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		s.browser.close()
		s.browser = nil
	}
	return nil
}

// Open creates a tab sized to the page width.
func (s *Surface) Open(ctx context.Context, g layout.Geometry) (surface.Session, error) {
	s.mu.Lock()
	b := s.browser
	s.mu.Unlock()
	if b == nil {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(b.ctx)
	width := int64(math.Ceil(g.PageWidthPx))
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(width, int64(math.Ceil(g.PageHeightPx)))); err != nil {
		tabCancel()
		return nil, fmt.Errorf("chrome: opening tab: %w", err)
	}
	return &session{cfg: s.cfg, g: g, tabCtx: tabCtx, tabCancel: tabCancel}, nil
}

type session struct {
	cfg       config
	g         layout.Geometry
	tabCtx    context.Context
	tabCancel context.CancelFunc
	closeOnce sync.Once
}

// measureScript waits for fonts and images, then reports every block box in
// document coordinates. Images that neither load nor fail within the wait
// are listed as stalled and otherwise treated as loaded.
const measureScript = `(async () => {
  const wait = %d;
  const stalled = [];
  if (document.fonts && document.fonts.ready) { await document.fonts.ready; }
  await Promise.all(Array.from(document.images).map(img => {
    if (img.complete) { return Promise.resolve(); }
    return new Promise(resolve => {
      const timer = setTimeout(() => { stalled.push(img.currentSrc || img.src); resolve(); }, wait);
      const done = () => { clearTimeout(timer); resolve(); };
      img.addEventListener("load", done, { once: true });
      img.addEventListener("error", done, { once: true });
    });
  }));
  const blocks = Array.from(document.querySelectorAll("[%s]")).map(el => {
    const r = el.getBoundingClientRect();
    return { id: el.getAttribute("%s"), top: r.top + window.scrollY, height: r.height };
  });
  const sheet = document.getElementById("%s");
  const height = Math.max(sheet ? sheet.getBoundingClientRect().height : 0, document.documentElement.scrollHeight);
  return { stalled, height, blocks };
})()`

type measuredBlock struct {
	ID     string  `json:"id"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

type measureResult struct {
	Stalled []string        `json:"stalled"`
	Height  float64         `json:"height"`
	Blocks  []measuredBlock `json:"blocks"`
}

// Layout renders doc in the tab and reads back every block box.
func (ss *session) Layout(ctx context.Context, doc layout.Document) (surface.Measurement, error) {
	doc = doc.Clone()
	doc.Geometry = ss.g

	res, err := ss.load(ctx, doc)
	if err != nil {
		return surface.Measurement{}, err
	}
	if len(res.Stalled) > 0 && ss.cfg.strictImages {
		return surface.Measurement{}, fmt.Errorf("chrome: %w: %s", surface.ErrImageTimeout, res.Stalled[0])
	}

	out, err := applyMeasurement(doc, res)
	if err != nil {
		return surface.Measurement{}, err
	}
	return surface.Measurement{Document: out, Stalled: res.Stalled}, nil
}

// Rasterize renders the planned doc and captures the full sheet.
func (ss *session) Rasterize(ctx context.Context, doc layout.Document, pixelRatio float64) (image.Image, error) {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	doc = doc.Clone()
	doc.Geometry = ss.g
	if doc.HeightPx <= 0 {
		return nil, fmt.Errorf("chrome: document has no height")
	}

	if _, err := ss.load(ctx, doc); err != nil {
		return nil, err
	}

	var buf []byte
	err := ss.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithClip(&page.Viewport{
				X:      0,
				Y:      0,
				Width:  ss.g.PageWidthPx,
				Height: doc.HeightPx,
				Scale:  pixelRatio,
			}).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("chrome: capturing screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("chrome: decoding screenshot: %w", err)
	}
	w := int(math.Round(ss.g.PageWidthPx * pixelRatio))
	h := int(math.Round(doc.HeightPx * pixelRatio))
	return normalize(img, w, h), nil
}

// Close closes the tab. It is safe to call more than once.
func (ss *session) Close() error {
	ss.closeOnce.Do(ss.tabCancel)
	return nil
}

// load writes doc to a temporary page, navigates the tab to it and runs the
// measurement script.
func (ss *session) load(ctx context.Context, doc layout.Document) (measureResult, error) {
	html, err := surface.RenderPage(doc)
	if err != nil {
		return measureResult{}, err
	}

	f, err := os.CreateTemp("", "sheetpdf-*.html")
	if err != nil {
		return measureResult{}, fmt.Errorf("chrome: creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return measureResult{}, fmt.Errorf("chrome: writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return measureResult{}, fmt.Errorf("chrome: closing temp file: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return measureResult{}, fmt.Errorf("chrome: resolving path: %w", err)
	}

	script := fmt.Sprintf(measureScript, ss.cfg.imageTimeout.Milliseconds(),
		surface.BlockAttr, surface.BlockAttr, surface.SheetID)

	var res measureResult
	if err := ss.run(ctx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(script, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	); err != nil {
		return measureResult{}, fmt.Errorf("chrome: measuring page: %w", err)
	}
	return res, nil
}

// run executes actions in the tab, bounded by the caller's context.
func (ss *session) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx, cancel := context.WithCancel(ss.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(tabCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// applyMeasurement copies the measured boxes onto the blocks of doc.
func applyMeasurement(doc layout.Document, res measureResult) (layout.Document, error) {
	boxes := make(map[string]measuredBlock, len(res.Blocks))
	for _, b := range res.Blocks {
		boxes[b.ID] = b
	}
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		box, ok := boxes[b.ID]
		if !ok {
			return doc, fmt.Errorf("chrome: block %q was not rendered", b.ID)
		}
		b.TopPx = box.Top
		b.HeightPx = box.Height
	}
	doc.HeightPx = res.Height
	if n := len(doc.Blocks); n > 0 {
		doc.HeightPx = math.Max(doc.HeightPx, doc.Blocks[n-1].BottomPx()+doc.Geometry.MarginBottomPx)
	}
	return doc, nil
}

// normalize scales img to exactly w×h when the capture came back off by a
// rounding pixel.
func normalize(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() == w && b.Dy() == h) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
