package sheetpdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/porticus-lab/go-sheet-pdf/assemble"
	"github.com/porticus-lab/go-sheet-pdf/blobstore"
	"github.com/porticus-lab/go-sheet-pdf/compose"
	"github.com/porticus-lab/go-sheet-pdf/layout"
	"github.com/porticus-lab/go-sheet-pdf/surface"
	"github.com/porticus-lab/go-sheet-pdf/surface/chrome"
)

// ContentType is the media type of exported documents.
const ContentType = "application/pdf"

// OutputMode selects how an export is handed back to the caller.
type OutputMode int

const (
	// ModeBytes returns the PDF in memory only.
	ModeBytes OutputMode = iota
	// ModeFile also writes the PDF to ExportOptions.Path.
	ModeFile
	// ModeBlob also stores the PDF in the blob store for previewing.
	ModeBlob
)

func (m OutputMode) String() string {
	switch m {
	case ModeBytes:
		return "bytes"
	case ModeFile:
		return "file"
	case ModeBlob:
		return "blob"
	default:
		return fmt.Sprintf("OutputMode(%d)", int(m))
	}
}

// ExportOptions selects the output of one export.
type ExportOptions struct {
	Mode OutputMode

	// Path is required for ModeFile.
	Path string
	// Perm defaults to 0o644.
	Perm os.FileMode
}

// Exporter turns product payloads into paginated PDFs.
//
// An Exporter is safe for concurrent use; every export opens its own
// rendering session. Call [Exporter.Close] when it is no longer needed.
type Exporter struct {
	cfg     exporterConfig
	planner *layout.Planner
	surface surface.Surface
	store   blobstore.Store

	// owned is closed with the Exporter when it started the surface itself.
	owned io.Closer

	mu     sync.Mutex
	closed bool
}

// NewExporter creates an Exporter with the given options.
//
// Without [WithSurface] it starts a headless browser in the background.
func NewExporter(opts ...Option) (*Exporter, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	e := &Exporter{
		cfg:     cfg,
		planner: layout.NewPlanner(cfg.page.geometry()),
		surface: cfg.surface,
		store:   cfg.store,
	}
	if e.surface == nil {
		s, err := chrome.New(cfg.chromeOptions...)
		if err != nil {
			return nil, fmt.Errorf("sheetpdf: %w", err)
		}
		e.surface, e.owned = s, s
	}
	if e.store == nil {
		e.store = blobstore.NewMemory(blobstore.Options{})
	}
	return e, nil
}

// Close releases the browser when the Exporter started one. Close is
// idempotent.
func (e *Exporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.owned != nil {
		return e.owned.Close()
	}
	return nil
}

// BlobStore returns the store [ModeBlob] exports are kept in.
func (e *Exporter) BlobStore() blobstore.Store {
	return e.store
}

// Geometry returns the page geometry documents are cut against.
func (e *Exporter) Geometry() layout.Geometry {
	return e.planner.Geometry()
}

// ExportDetail exports a single product detail sheet.
func (e *Exporter) ExportDetail(ctx context.Context, it assemble.Item, out ExportOptions) (*Result, error) {
	return e.Export(ctx, assemble.Payload{Item: &it}, out)
}

// ExportList exports a grouped price list.
func (e *Exporter) ExportList(ctx context.Context, l assemble.List, out ExportOptions) (*Result, error) {
	return e.Export(ctx, assemble.Payload{List: &l}, out)
}

// Export runs the whole pipeline for one payload: assemble, measure, plan,
// rasterize, compose and deliver. Every step runs exactly once. On failure
// nothing is delivered and the error wraps the failing stage.
func (e *Exporter) Export(ctx context.Context, p assemble.Payload, out ExportOptions) (*Result, error) {
	if err := e.checkClosed(); err != nil {
		return nil, err
	}
	if out.Mode == ModeFile && out.Path == "" {
		return nil, fmt.Errorf("sheetpdf: file output needs a path")
	}

	if e.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.timeout)
		defer cancel()
	}

	log := e.cfg.logger.With("mode", out.Mode.String())
	start := time.Now()
	res, err := e.export(ctx, log, p, out)
	if err != nil {
		log.Error("export failed", "err", err, "elapsed", time.Since(start))
		return nil, err
	}
	log.Info("export done", "pages", res.pages, "bytes", res.Len(), "elapsed", time.Since(start))
	return res, nil
}

func (e *Exporter) export(ctx context.Context, log *slog.Logger, p assemble.Payload, out ExportOptions) (*Result, error) {
	geo := e.planner.Geometry()

	doc, err := assemble.Assemble(p, geo)
	if err != nil {
		return nil, stageError(ErrAssembly, err)
	}
	log = log.With("kind", string(doc.Kind), "title", doc.Title)
	log.Debug("assembled", "blocks", len(doc.Blocks))

	raster, plan, err := e.render(ctx, log, doc)
	if err != nil {
		return nil, err
	}

	composed, err := compose.Compose(raster, compose.Options{
		Geometry:     geo,
		PixelRatio:   e.cfg.pixelRatio,
		Disclaimer:   e.cfg.disclaimer,
		PageLabel:    e.cfg.pageLabel,
		Title:        doc.Title,
		CreationDate: e.cfg.creationDate,
	})
	if err != nil {
		return nil, stageError(ErrComposition, err)
	}
	if composed.Pages != plan.Pages {
		log.Warn("page count differs from plan", "planned", plan.Pages, "composed", composed.Pages)
	}

	res := &Result{data: composed.PDF, pages: composed.Pages, overflow: plan.Overflow}
	if err := e.deliver(ctx, res, out); err != nil {
		return nil, stageError(ErrDelivery, err)
	}
	return res, nil
}

// render measures, plans and rasterizes doc in one surface session. The
// session is closed on every path.
func (e *Exporter) render(ctx context.Context, log *slog.Logger, doc layout.Document) (img image.Image, plan layout.Plan, err error) {
	sess, err := e.surface.Open(ctx, e.planner.Geometry())
	if err != nil {
		return nil, plan, stageError(ErrRasterization, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("closing surface session", "err", cerr)
		}
	}()

	m, err := sess.Layout(ctx, doc)
	if err != nil {
		if errors.Is(err, surface.ErrImageTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, plan, stageError(ErrMeasurementTimeout, err)
		}
		return nil, plan, stageError(ErrRasterization, err)
	}
	for _, src := range m.Stalled {
		log.Warn("image did not settle, treated as loaded", "src", src)
	}

	plan = e.planner.Plan(m.Document)
	log.Debug("planned", "pages", plan.Pages, "breaks", len(plan.Breaks), "height", plan.Document.HeightPx)
	for _, b := range plan.Breaks {
		log.Debug("page break", "before", b.Before, "page", b.Page, "spacer", b.SpacerPx, "forced", b.Forced, "header", b.Header)
	}
	for _, id := range plan.Overflow {
		log.Warn("block taller than a page body", "block", id)
	}

	img, err = sess.Rasterize(ctx, plan.Document, e.cfg.pixelRatio)
	if err != nil {
		return nil, plan, stageError(ErrRasterization, err)
	}
	log.Debug("rasterized", "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, plan, nil
}

func (e *Exporter) deliver(ctx context.Context, res *Result, out ExportOptions) error {
	switch out.Mode {
	case ModeBytes:
		return nil
	case ModeFile:
		perm := out.Perm
		if perm == 0 {
			perm = 0o644
		}
		if err := res.WriteToFile(out.Path, perm); err != nil {
			return err
		}
		res.path = out.Path
		return nil
	case ModeBlob:
		ref, err := e.store.Put(ctx, blobstore.Blob{Data: res.data, ContentType: ContentType})
		if err != nil {
			return err
		}
		res.blob = &ref
		return nil
	default:
		return fmt.Errorf("unknown output mode %v", out.Mode)
	}
}

func (e *Exporter) checkClosed() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// --- Package-level convenience functions ---

// Export exports a payload using a temporary [Exporter]. For repeated use,
// create an Exporter with [NewExporter] to reuse the browser instance.
func Export(ctx context.Context, p assemble.Payload, out ExportOptions, opts ...Option) (*Result, error) {
	e, err := NewExporter(opts...)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.Export(ctx, p, out)
}
