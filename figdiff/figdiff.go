// Package figdiff checks UI components drawn in Figma against a local
// rendering of the same nodes.
//
// A run fetches the document tree and reference renders from the Figma
// REST API, translates each selected node to HTML, screenshots it in
// headless Chrome, compares the two images and writes an HTML report.
// Runs can be recorded in SQLite, served over HTTP (Server), exposed as
// MCP tools (RegisterMCP) and repeated on a cron schedule (Scheduler).
package figdiff

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/figdiff/figdiff/internal/browser"
	"github.com/hazyhaar/figdiff/figdiff/internal/imgdiff"
	"github.com/hazyhaar/figdiff/figdiff/internal/markup"
	"github.com/hazyhaar/figdiff/figdiff/internal/store"
	"github.com/hazyhaar/figdiff/figma"
	"github.com/hazyhaar/figdiff/idgen"
)

// DesignAPI is the part of the Figma API a run needs. *figma.Client
// implements it.
type DesignAPI interface {
	GetFile(ctx context.Context, fileKey string, opts figma.FileOptions) (*figma.File, error)
	GetImages(ctx context.Context, fileKey string, opts figma.ImageOptions) (*figma.ImageResult, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Browser opens screenshot sessions.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

// Session renders pages one at a time.
type Session interface {
	SetViewport(ctx context.Context, w, h int) error
	Navigate(ctx context.Context, url string) error
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// Comparison is the verdict of a Comparator.
type Comparison = imgdiff.Result

// DiffOptions controls diff rendering.
type DiffOptions struct {
	HighlightColor string
	Tolerance      float64
}

// Comparator decides image equality and renders differences.
type Comparator interface {
	Compare(ref, act image.Image, tolerance float64) (Comparison, error)
	Difference(ref, act image.Image, opts DiffOptions) (image.Image, error)
}

// Runner executes runs for one configuration.
type Runner struct {
	cfg        *Config
	api        DesignAPI
	browser    Browser
	cmp        Comparator
	store      *store.Store
	translator *markup.Translator
	logger     *slog.Logger
	newID      idgen.Generator
	now        func() time.Time

	mu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithBrowser replaces the headless Chrome browser.
func WithBrowser(b Browser) Option {
	return func(r *Runner) { r.browser = b }
}

// WithComparator replaces the CIEDE2000 comparator.
func WithComparator(c Comparator) Option {
	return func(r *Runner) { r.cmp = c }
}

// WithStore records every run in s.
func WithStore(s *store.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithIDGenerator sets the run ID generator.
func WithIDGenerator(g idgen.Generator) Option {
	return func(r *Runner) { r.newID = g }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner. cfg should already be validated.
func New(cfg *Config, api DesignAPI, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		api:    api,
		logger: slog.Default(),
		newID:  idgen.Default,
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	r.translator = markup.New(r.logger)
	if r.cmp == nil {
		r.cmp = pixelComparator{strict: cfg.Strict}
	}
	if r.browser == nil {
		r.browser = NewChromeBrowser(cfg, r.logger)
	}
	return r
}

// Config returns the runner configuration.
func (r *Runner) Config() *Config { return r.cfg }

// Store returns the history store, or nil.
func (r *Runner) Store() *store.Store { return r.store }

// NewChromeBrowser returns a Browser backed by headless Chrome.
func NewChromeBrowser(cfg *Config, logger *slog.Logger) Browser {
	return chromeBrowser{b: browser.New(browser.Config{
		RemoteURL:   cfg.Browser.Remote,
		Stealth:     cfg.Browser.Stealth,
		Transparent: cfg.Browser.Transparent,
		AllowRemote: cfg.Browser.AllowRemote,
		Scale:       cfg.Scale,
		LoadTimeout: cfg.Browser.LoadTimeout,
		Logger:      logger,
	})}
}

type chromeBrowser struct {
	b *browser.Browser
}

func (c chromeBrowser) Open(ctx context.Context) (Session, error) {
	s, err := c.b.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// pixelComparator is the default Comparator. A zero tolerance compares
// exactly, like strict.
type pixelComparator struct {
	strict bool
}

func (c pixelComparator) options(tolerance float64) imgdiff.Options {
	return imgdiff.Options{Tolerance: tolerance, Strict: c.strict || tolerance == 0}
}

func (c pixelComparator) Compare(ref, act image.Image, tolerance float64) (Comparison, error) {
	return imgdiff.Compare(ref, act, c.options(tolerance))
}

func (c pixelComparator) Difference(ref, act image.Image, opts DiffOptions) (image.Image, error) {
	o := c.options(opts.Tolerance)
	o.Highlight = opts.HighlightColor
	return imgdiff.Difference(ref, act, o)
}

// Translate renders a node as a standalone HTML page.
func (r *Runner) Translate(n *figma.Node) (string, error) {
	return r.translator.Document(n)
}
