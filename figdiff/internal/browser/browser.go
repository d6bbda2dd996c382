// Package browser drives the headless Chromium that renders translated
// component pages. One Session owns one browser process and one page, and
// is reused for every node of a run.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures a Browser.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string

	// Stealth opens pages with go-rod/stealth evasions.
	Stealth bool

	// Transparent clears the default white page background so that
	// uncovered pixels stay transparent, as in Figma renders.
	Transparent bool

	// AllowRemote lets pages fetch non-file resources. Rendered pages are
	// self-contained, so remote requests are blocked by default.
	AllowRemote bool

	// Scale is the device scale factor. Default: 1.
	Scale float64

	// LoadTimeout bounds Navigate. Default: 30s.
	LoadTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Scale <= 0 {
		c.Scale = 1
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser opens screenshot sessions.
type Browser struct {
	cfg Config
}

// New creates a Browser. Nothing is launched until Open.
func New(cfg Config) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

// Config returns the effective configuration, defaults applied.
func (b *Browser) Config() Config { return b.cfg }

// Open launches (or connects to) Chrome and creates the session page.
// The caller must Close the session.
func (b *Browser) Open(ctx context.Context) (*Session, error) {
	log := b.cfg.Logger
	s := &Session{cfg: b.cfg}

	wsURL := b.cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(true).
			Set("hide-scrollbars").
			Set("force-color-profile", "srgb")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL)
	}

	rb := rod.New().ControlURL(wsURL).Context(ctx)
	if err := rb.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = rb

	var err error
	if b.cfg.Stealth {
		s.page, err = stealth.Page(s.browser)
	} else {
		s.page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if b.cfg.Transparent {
		alpha := 0.0
		bg := proto.EmulationSetDefaultBackgroundColorOverride{
			Color: &proto.DOMRGBA{A: &alpha},
		}
		if err := bg.Call(s.page); err != nil {
			log.Warn("browser: transparent background failed", "error", err)
		}
	}

	if !b.cfg.AllowRemote {
		s.router = blockRemote(s.page, log)
	}
	return s, nil
}

// Session is one browser process with one page.
type Session struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	router  *rod.HijackRouter
}

// SetViewport sizes the page to w×h CSS pixels.
func (s *Session) SetViewport(ctx context.Context, w, h int) error {
	err := s.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             w,
		Height:            h,
		DeviceScaleFactor: s.cfg.Scale,
	})
	if err != nil {
		return fmt.Errorf("browser: viewport %dx%d: %w", w, h, err)
	}
	return nil
}

// Navigate loads target and waits for the load event. A bare filesystem
// path is turned into a file URL.
func (s *Session) Navigate(ctx context.Context, target string) error {
	u, err := FileURL(target)
	if err != nil {
		return err
	}
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	p := s.page.Context(navCtx)
	if err := p.Navigate(u); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", u, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load %s: %w", u, err)
	}
	return nil
}

// Capture screenshots the current viewport as PNG.
func (s *Session) Capture(ctx context.Context) ([]byte, error) {
	data, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}

// Close releases the page, the browser connection and any local process.
// It is safe to call more than once.
func (s *Session) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
		s.router = nil
	}
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return nil
}

// FileURL returns target unchanged when it already has a scheme, else the
// file URL of its absolute path.
func FileURL(target string) (string, error) {
	if u, err := url.Parse(target); err == nil && len(u.Scheme) > 1 {
		return target, nil
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("browser: resolve %s: %w", target, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
