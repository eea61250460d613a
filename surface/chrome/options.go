package chrome

import "time"

// config holds internal configuration for a Surface.
type config struct {
	chromePath   string
	noSandbox    bool
	headless     string
	autoDownload bool
	browserDir   string
	imageTimeout time.Duration
	strictImages bool
}

func defaultConfig() config {
	return config{
		headless:     "new",
		imageTimeout: 5 * time.Second,
	}
}

// Option configures a [Surface].
type Option func(*config)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the standard locations are searched automatically.
func WithChromePath(path string) Option {
	return func(c *config) {
		c.chromePath = path
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *config) {
		c.noSandbox = true
	}
}

// WithAutoDownload uses an installed Chrome when one is found and otherwise
// fetches a compatible Chromium build. The build is cached between runs.
func WithAutoDownload() Option {
	return func(c *config) {
		c.autoDownload = true
	}
}

// WithImageTimeout bounds how long layout waits for each image to load or
// fail. Defaults to 5 seconds.
func WithImageTimeout(d time.Duration) Option {
	return func(c *config) {
		c.imageTimeout = d
	}
}

// WithStrictImages makes a stalled image a layout error instead of treating
// it as loaded.
func WithStrictImages() Option {
	return func(c *config) {
		c.strictImages = true
	}
}

// WithBrowserDir sets the cache directory for [WithAutoDownload]. Defaults
// to rod's browser cache under the user's home.
func WithBrowserDir(dir string) Option {
	return func(c *config) {
		c.browserDir = dir
	}
}
