package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/figdiff/horosafe"
)

// DefaultBaseURL is the Figma REST API root.
const DefaultBaseURL = "https://api.figma.com/v1/"

// TokenHeader carries the personal access token.
const TokenHeader = "X-Figma-Token"

// ErrAPI wraps error payloads returned by the Figma API.
var ErrAPI = errors.New("figma: api error")

// FileOptions are the optional query parameters of GetFile.
type FileOptions struct {
	Version  string
	Geometry string // "paths" to include vector geometry
}

// ImageOptions are the query parameters of GetImages.
type ImageOptions struct {
	IDs     []string
	Scale   float64
	Format  string // jpg | png | svg
	Version string
}

// Client is a typed client for the two endpoints figdiff uses.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (tests point it at httptest).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.client = h }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client authenticated with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetFile fetches the document tree of fileKey.
func (c *Client) GetFile(ctx context.Context, fileKey string, opts FileOptions) (*File, error) {
	var params []param
	if opts.Version != "" {
		params = append(params, param{"version", opts.Version})
	}
	if opts.Geometry != "" {
		params = append(params, param{"geometry", opts.Geometry})
	}

	var f File
	if err := c.getJSON(ctx, c.endpoint("files/", fileKey, params), &f); err != nil {
		return nil, fmt.Errorf("figma: get file %s: %w", fileKey, err)
	}
	if f.Document == nil {
		return nil, fmt.Errorf("figma: get file %s: %w: response has no document", fileKey, ErrAPI)
	}
	return &f, nil
}

// GetImages asks Figma to render the given node IDs and returns the map of
// node ID to render URL.
func (c *Client) GetImages(ctx context.Context, fileKey string, opts ImageOptions) (*ImageResult, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	format := opts.Format
	if format == "" {
		format = "png"
	}
	params := []param{
		{"ids", strings.Join(opts.IDs, ",")},
		{"scale", strconv.FormatFloat(scale, 'f', -1, 64)},
		{"format", format},
	}
	if opts.Version != "" {
		params = append(params, param{"version", opts.Version})
	}

	var res ImageResult
	if err := c.getJSON(ctx, c.endpoint("images/", fileKey, params), &res); err != nil {
		return nil, fmt.Errorf("figma: get images %s: %w", fileKey, err)
	}
	if res.Err != "" {
		return nil, fmt.Errorf("figma: get images %s: %w: %s", fileKey, ErrAPI, res.Err)
	}
	return &res, nil
}

// Download fetches a rendered image. Render URLs point at Figma's storage
// bucket, so the access token is not sent.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("figma: download: new request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("figma: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("figma: download: http %d", resp.StatusCode)
	}
	body, err := horosafe.LimitedReadAll(resp.Body, horosafe.MaxImageBody)
	if err != nil {
		return nil, fmt.Errorf("figma: download: read body: %w", err)
	}
	c.logger.Debug("figma: downloaded image", "size", len(body))
	return body, nil
}

type param struct {
	key, value string
}

// endpoint builds base+path+key with params in the given order, escaping
// values the way encodeURIComponent does.
func (c *Client) endpoint(path, fileKey string, params []param) string {
	u := c.baseURL + path + url.PathEscape(fileKey)
	if len(params) == 0 {
		return u
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.key+"="+escapeComponent(p.value))
	}
	return u + "?" + strings.Join(parts, "&")
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set(TokenHeader, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	body, err := horosafe.LimitedReadAll(resp.Body, 256<<20)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var e struct {
			Err     string `json:"err"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &e)
		msg := e.Err
		if msg == "" {
			msg = e.Message
		}
		return fmt.Errorf("%w: http %d %s", ErrAPI, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	c.logger.Debug("figma: fetched", "url", u, "size", len(body))
	return nil
}
