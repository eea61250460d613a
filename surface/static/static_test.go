package static

import (
	"context"
	"crypto/sha256"
	"image"
	"image/draw"
	"math"
	"testing"

	"github.com/porticus-lab/go-sheet-pdf/layout"
)

func newTestSession(t *testing.T, g layout.Geometry) *session {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sess, err := s.Open(context.Background(), g)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess.(*session)
}

func sampleDocument() layout.Document {
	return layout.Document{
		Title: "Sample",
		Blocks: []layout.Block{
			{ID: "header", Role: layout.RoleContent, HeightPx: 220, Text: "Kopi Arabika\nDetail Produk"},
			{ID: "desc-0", Role: layout.RoleContent, Text: "Satu dua tiga empat lima enam tujuh delapan sembilan sepuluh."},
			{ID: "attachments-0", Role: layout.RoleContent, Images: []string{"a.png", "b.png"}},
		},
	}
}

func TestLayout_StacksFromTopMargin(t *testing.T) {
	g := layout.A4(20)
	sess := newTestSession(t, g)

	m, err := sess.Layout(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	blocks := m.Document.Blocks

	if blocks[0].TopPx != g.MarginTopPx {
		t.Errorf("first block top = %v, want %v", blocks[0].TopPx, g.MarginTopPx)
	}
	if blocks[0].HeightPx != 220 {
		t.Errorf("preset height changed to %v", blocks[0].HeightPx)
	}
	for i := 1; i < len(blocks); i++ {
		if blocks[i].TopPx != blocks[i-1].BottomPx() {
			t.Errorf("block %s top = %v, want %v", blocks[i].ID, blocks[i].TopPx, blocks[i-1].BottomPx())
		}
		if blocks[i].HeightPx <= 0 {
			t.Errorf("block %s has no estimated height", blocks[i].ID)
		}
	}
	if blocks[2].HeightPx < defaultConfig().imageRowPx {
		t.Errorf("image row height %v below the image reserve", blocks[2].HeightPx)
	}
	want := blocks[len(blocks)-1].BottomPx() + g.MarginBottomPx
	if m.Document.HeightPx != want {
		t.Errorf("document height = %v, want %v", m.Document.HeightPx, want)
	}
}

func TestWrap(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	face := s.face(12, image.Black)

	if got := wrap("a b c", 10000, face); len(got) != 1 {
		t.Errorf("wide line wrapped into %d lines", len(got))
	}
	if got := wrap("one\n\ntwo", 10000, face); len(got) != 3 || got[1] != "" {
		t.Errorf("newlines not kept: %q", got)
	}
	if got := wrap("alpha beta gamma delta", 1, face); len(got) != 4 {
		t.Errorf("narrow wrap = %q, want one word per line", got)
	}
}

func rasterHash(img image.Image) [32]byte {
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return sha256.Sum256(rgba.Pix)
}

func TestRasterize_DeterministicAndSized(t *testing.T) {
	g := layout.A4(20)
	sess := newTestSession(t, g)

	m, err := sess.Layout(context.Background(), sampleDocument())
	if err != nil {
		t.Fatal(err)
	}

	const ratio = 2
	first, err := sess.Rasterize(context.Background(), m.Document, ratio)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	second, err := sess.Rasterize(context.Background(), m.Document, ratio)
	if err != nil {
		t.Fatal(err)
	}

	if rasterHash(first) != rasterHash(second) {
		t.Error("identical documents rasterized differently")
	}

	b := first.Bounds()
	if math.Abs(float64(b.Dx())-g.PageWidthPx*ratio) > 1 {
		t.Errorf("raster width = %d, want ~%v", b.Dx(), g.PageWidthPx*ratio)
	}
	if math.Abs(float64(b.Dy())-m.Document.HeightPx*ratio) > 1 {
		t.Errorf("raster height = %d, want ~%v", b.Dy(), m.Document.HeightPx*ratio)
	}
}

func TestRasterize_CanceledContext(t *testing.T) {
	sess := newTestSession(t, layout.A4(20))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sess.Rasterize(ctx, layout.Document{HeightPx: 100}, 1); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
