// Package surface defines the rendering host the exporter depends on.
//
// A host has to do two things: lay out a block tree at the page width and
// report where every block landed, and rasterize a tree into one bitmap at a
// given pixel ratio. The planner never talks to a host; it only sees the
// measurements.
package surface

import (
	"context"
	"errors"
	"image"

	"github.com/porticus-lab/go-sheet-pdf/layout"
)

// ErrImageTimeout is returned in strict mode when an image neither loads nor
// fails within the configured wait.
var ErrImageTimeout = errors.New("surface: image did not settle")

// Surface opens rendering sessions.
type Surface interface {
	// Open acquires a private rendering session for one export call. The
	// caller must Close it on every path.
	Open(ctx context.Context, g layout.Geometry) (Session, error)
}

// Session is one acquired rendering surface.
type Session interface {
	// Layout renders doc at the page width, waits for its images to settle
	// and returns it with TopPx and HeightPx filled in for every block.
	Layout(ctx context.Context, doc layout.Document) (Measurement, error)

	// Rasterize renders doc to a single bitmap pixelRatio times the size of
	// the document in CSS pixels.
	Rasterize(ctx context.Context, doc layout.Document, pixelRatio float64) (image.Image, error)

	// Close detaches the surface. It is safe to call more than once.
	Close() error
}

// Measurement is the result of laying out a document.
type Measurement struct {
	Document layout.Document

	// Stalled lists images that timed out and were treated as loaded.
	Stalled []string
}
