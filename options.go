package sheetpdf

import (
	"io"
	"log/slog"
	"time"

	"github.com/porticus-lab/go-sheet-pdf/blobstore"
	"github.com/porticus-lab/go-sheet-pdf/surface"
	"github.com/porticus-lab/go-sheet-pdf/surface/chrome"
)

// exporterConfig holds internal configuration for an Exporter.
type exporterConfig struct {
	surface       surface.Surface
	chromeOptions []chrome.Option
	logger        *slog.Logger
	timeout       time.Duration
	pixelRatio    float64
	disclaimer    string
	pageLabel     string
	store         blobstore.Store
	creationDate  time.Time
	page          *PageConfig
}

func defaultConfig() exporterConfig {
	return exporterConfig{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:    60 * time.Second,
		pixelRatio: 2,
	}
}

// Option configures an [Exporter].
type Option func(*exporterConfig)

// WithSurface sets the rendering surface. The caller keeps ownership and
// must close it after the Exporter. By default the Exporter starts its own
// headless Chrome.
func WithSurface(s surface.Surface) Option {
	return func(c *exporterConfig) {
		c.surface = s
	}
}

// WithChromeOptions configures the headless Chrome the Exporter starts when
// no surface is given.
func WithChromeOptions(opts ...chrome.Option) Option {
	return func(c *exporterConfig) {
		c.chromeOptions = append(c.chromeOptions, opts...)
	}
}

// WithLogger sets the logger for stage progress and failures. By default
// nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *exporterConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the maximum duration for a single export.
// Defaults to 60 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *exporterConfig) {
		c.timeout = d
	}
}

// WithPixelRatio sets the raster resolution in pixels per CSS pixel.
// Defaults to 2.
func WithPixelRatio(r float64) Option {
	return func(c *exporterConfig) {
		if r > 0 {
			c.pixelRatio = r
		}
	}
}

// WithFooter replaces the disclaimer and the page label format. The label
// is formatted with the page number and the page count. Empty values keep
// the defaults.
func WithFooter(disclaimer, pageLabel string) Option {
	return func(c *exporterConfig) {
		c.disclaimer = disclaimer
		c.pageLabel = pageLabel
	}
}

// WithBlobStore sets where [ModeBlob] exports are kept. Defaults to an
// in-memory store.
func WithBlobStore(s blobstore.Store) Option {
	return func(c *exporterConfig) {
		c.store = s
	}
}

// WithCreationDate fixes the PDF creation date, which makes identical
// exports byte-for-byte equal.
func WithCreationDate(t time.Time) Option {
	return func(c *exporterConfig) {
		c.creationDate = t
	}
}

// WithPageConfig sets the page size and margins. A nil config uses
// [DefaultPageConfig].
func WithPageConfig(p *PageConfig) Option {
	return func(c *exporterConfig) {
		c.page = p
	}
}
