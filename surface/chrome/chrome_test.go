package chrome

import (
	"context"
	"errors"
	"image"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/porticus-lab/go-sheet-pdf/layout"
	"github.com/porticus-lab/go-sheet-pdf/surface"
)

// chromeAvailable reports whether a Chrome/Chromium executable is in PATH.
func chromeAvailable() bool {
	for _, name := range []string{
		"chromium-browser", "chromium", "google-chrome",
		"google-chrome-stable", "chrome",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func skipIfNoChrome(t *testing.T) {
	t.Helper()
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}
}

func newTestSurface(t *testing.T, opts ...Option) *Surface {
	t.Helper()
	skipIfNoChrome(t)
	s, err := New(append([]Option{WithNoSandbox()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApplyMeasurement(t *testing.T) {
	doc := layout.Document{
		Geometry: layout.A4(20),
		Blocks: []layout.Block{
			{ID: "header"},
			{ID: "desc-0"},
		},
	}
	res := measureResult{
		Height: 400,
		Blocks: []measuredBlock{
			{ID: "desc-0", Top: 200, Height: 150},
			{ID: "header", Top: 75.59, Height: 124.41},
		},
	}

	out, err := applyMeasurement(doc, res)
	if err != nil {
		t.Fatalf("applyMeasurement: %v", err)
	}
	if out.Blocks[0].TopPx != 75.59 || out.Blocks[1].HeightPx != 150 {
		t.Errorf("boxes not applied by ID: %+v", out.Blocks)
	}
	// The reported height is raised to cover the last block plus the margin.
	if want := 350 + doc.Geometry.MarginBottomPx; out.HeightPx != want {
		t.Errorf("HeightPx = %v, want %v", out.HeightPx, want)
	}
}

func TestApplyMeasurement_MissingBlock(t *testing.T) {
	doc := layout.Document{Blocks: []layout.Block{{ID: "header"}, {ID: "lost"}}}
	res := measureResult{Blocks: []measuredBlock{{ID: "header", Height: 10}}}

	_, err := applyMeasurement(doc, res)
	if err == nil || !strings.Contains(err.Error(), `"lost"`) {
		t.Fatalf("err = %v, want missing block error", err)
	}
}

func TestExecutable(t *testing.T) {
	tests := []struct {
		name string
		cfg  config
		want string
	}{
		{"explicit path", config{chromePath: "/opt/chrome/chrome"}, "/opt/chrome/chrome"},
		{"explicit path beats download", config{chromePath: "/opt/chrome/chrome", autoDownload: true}, "/opt/chrome/chrome"},
		{"left to chromedp", config{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := executable(tt.cfg)
			if err != nil {
				t.Fatalf("executable: %v", err)
			}
			if got != tt.want {
				t.Errorf("executable = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, o := range []Option{
		WithChromePath("/usr/bin/chromium"),
		WithAutoDownload(),
		WithBrowserDir("/var/cache/sheetpdf"),
		WithImageTimeout(time.Second),
		WithStrictImages(),
	} {
		o(&cfg)
	}
	if cfg.chromePath != "/usr/bin/chromium" || !cfg.autoDownload || cfg.browserDir != "/var/cache/sheetpdf" {
		t.Errorf("browser options not applied: %+v", cfg)
	}
	if cfg.imageTimeout != time.Second || !cfg.strictImages {
		t.Errorf("image options not applied: %+v", cfg)
	}
	if cfg.headless != "new" {
		t.Errorf("headless = %q, want new", cfg.headless)
	}
}

func TestNormalize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1587, 400))

	if got := normalize(src, 1587, 400); got != image.Image(src) {
		t.Error("exact size was rescaled")
	}
	got := normalize(src, 1588, 401)
	if b := got.Bounds(); b.Dx() != 1588 || b.Dy() != 401 {
		t.Errorf("bounds = %v, want 1588x401", b)
	}
}

func TestSurface_LayoutAndRasterize(t *testing.T) {
	s := newTestSurface(t)
	ctx := context.Background()
	g := layout.A4(20)

	sess, err := s.Open(ctx, g)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	doc := layout.Document{
		Title: "Uji",
		Blocks: []layout.Block{
			{ID: "header", Role: layout.RoleContent, HTML: `<h1 style="margin:0;height:100px">Kopi</h1>`},
			{ID: "desc-0", Role: layout.RoleContent, HTML: `<p style="margin:0;height:50px">Satu</p>`},
		},
	}
	m, err := sess.Layout(ctx, doc)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	b := m.Document.Blocks
	if diff := b[0].TopPx - g.MarginTopPx; diff < -1 || diff > 1 {
		t.Errorf("header top = %v, want ~%v", b[0].TopPx, g.MarginTopPx)
	}
	if b[0].HeightPx != 100 || b[1].HeightPx != 50 {
		t.Errorf("heights = %v, %v, want 100, 50", b[0].HeightPx, b[1].HeightPx)
	}

	img, err := sess.Rasterize(ctx, m.Document, 1)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if w := img.Bounds().Dx(); w != 794 {
		t.Errorf("raster width = %d, want 794", w)
	}
}

func TestSurface_StrictImages(t *testing.T) {
	s := newTestSurface(t, WithStrictImages(), WithImageTimeout(200*time.Millisecond))
	ctx := context.Background()

	sess, err := s.Open(ctx, layout.A4(20))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	// A non-routable address keeps the image pending past the wait.
	doc := layout.Document{Blocks: []layout.Block{
		{ID: "img", HTML: `<img src="http://10.255.255.1/never.png">`},
	}}
	_, err = sess.Layout(ctx, doc)
	if !errors.Is(err, surface.ErrImageTimeout) {
		t.Fatalf("err = %v, want ErrImageTimeout", err)
	}
}

func TestSurface_OpenAfterClose(t *testing.T) {
	s := newTestSurface(t)
	s.Close()
	s.Close()

	if _, err := s.Open(context.Background(), layout.A4(20)); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
