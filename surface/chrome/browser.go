package chrome

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/utils"
)

// renderFlags pin colour management and text rasterization so two captures
// of the same sheet produce the same pixels.
var renderFlags = map[string]any{
	"disable-gpu":                   true,
	"disable-dev-shm-usage":         true,
	"disable-extensions":            true,
	"disable-background-networking": true,
	"disable-sync":                  true,
	"disable-translate":             true,
	"no-first-run":                  true,
	"hide-scrollbars":               true,
	"mute-audio":                    true,
	"force-color-profile":           "srgb",
	"font-render-hinting":           "none",
	"disable-lcd-text":              true,
	"force-device-scale-factor":     "1",
}

// browser is one running Chrome process. Tabs are opened from ctx.
type browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// launch starts Chrome and waits until the first tab is attached.
func launch(cfg config) (*browser, error) {
	path, err := executable(cfg)
	if err != nil {
		return nil, err
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range renderFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	opts = append(opts, chromedp.Flag("headless", cfg.headless))
	if path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if cfg.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("chrome: starting browser: %w", err)
	}
	return &browser{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (b *browser) close() {
	b.cancel()
	b.allocCancel()
}

// executable picks the Chrome binary. An explicit path wins. With
// auto-download an installed browser is preferred and a Chromium build is
// fetched into the cache only when none is found. An empty result leaves
// the lookup to chromedp.
func executable(cfg config) (string, error) {
	if cfg.chromePath != "" || !cfg.autoDownload {
		return cfg.chromePath, nil
	}
	if path, ok := launcher.LookPath(); ok {
		return path, nil
	}

	dl := launcher.NewBrowser()
	// Progress goes to stdout by default, which may be carrying the PDF.
	dl.Logger = utils.LoggerQuiet
	if cfg.browserDir != "" {
		dl.RootDir = cfg.browserDir
	}
	path, err := dl.Get()
	if err != nil {
		return "", fmt.Errorf("chrome: downloading browser: %w", err)
	}
	return path, nil
}
