// Package cms reads the image collection from a Strapi-style headless CMS.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joeblew999/geophoto/internal/gallery"
)

var (
	// ErrStatus is returned when the CMS answers with a non-2xx status.
	ErrStatus = errors.New("cms: unexpected status")
	// ErrPayload is returned when the response body is not a valid collection.
	ErrPayload = errors.New("cms: malformed payload")
)

// Config holds client settings.
type Config struct {
	BaseURL  string        // API base, e.g. http://localhost:1337 or http://example.com/strapi
	Path     string        // collection path under BaseURL, default /api/images
	Populate string        // populate query value, default *
	Timeout  time.Duration // whole-request timeout, 0 disables
	MaxBody  int64         // response size limit in bytes, 0 disables
}

// Client fetches image records. It never retries.
type Client struct {
	base     *url.URL
	endpoint string
	http     *http.Client
	maxBody  int64
	logger   *slog.Logger
}

// New creates a client for cfg.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("cms: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("cms: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("cms: base url %q must be http or https", cfg.BaseURL)
	}
	if cfg.Path == "" {
		cfg.Path = "/api/images"
	}
	if cfg.Populate == "" {
		cfg.Populate = "*"
	}
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := base.JoinPath(strings.TrimPrefix(cfg.Path, "/"))
	// Strapi expects the literal "*", not its percent-encoding.
	endpoint.RawQuery = "populate=" + cfg.Populate

	return &Client{
		base:     base,
		endpoint: endpoint.String(),
		http:     &http.Client{Timeout: cfg.Timeout},
		maxBody:  cfg.MaxBody,
		logger:   logger.With("component", "cms"),
	}, nil
}

// Endpoint returns the collection URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Origin returns the API base, path included, that asset paths are
// resolved against.
func (c *Client) Origin() string {
	return strings.TrimRight(c.base.String(), "/")
}

// FetchImages issues a single GET for the whole collection.
func (c *Client) FetchImages(ctx context.Context) ([]gallery.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("cms: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms: fetch images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	var body io.Reader = resp.Body
	if c.maxBody > 0 {
		body = io.LimitReader(resp.Body, c.maxBody+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("cms: read body: %w", err)
	}
	if c.maxBody > 0 && int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: response larger than %d bytes", ErrPayload, c.maxBody)
	}

	images, err := c.decode(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched images", "url", c.endpoint, "count", len(images), "bytes", len(data), "elapsed", time.Since(start))
	return images, nil
}

func (c *Client) decode(data []byte) ([]gallery.Image, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrPayload)
	}

	images := make([]gallery.Image, 0, len(*env.Data))
	for _, r := range *env.Data {
		img, err := r.image(c.base)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
