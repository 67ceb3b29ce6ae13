// Package upstream talks to the public read-only product catalog API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

const (
	responseBodyLimit int64 = 4 << 20
	errorBodyLimit          = 512
	defaultRetryDelay       = 100 * time.Millisecond

	endpointProducts   = "products"
	endpointCategories = "categories"
	endpointByCategory = "products_by_category"
	endpointProduct    = "product"
)

// Client fetches products and categories with retry on transient failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries uint64
	baseDelay  time.Duration
	metrics    *metrics.CatalogMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records upstream traffic on m.
func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the catalog client from config.
func NewClient(cfg config.CatalogConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("catalog base url is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	delay := cfg.RetryBaseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		maxRetries: cfg.MaxRetries,
		baseDelay:  delay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Products returns every product in the catalog.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.getJSON(ctx, endpointProducts, "/products", &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// Categories returns the catalog's category tags.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, endpointCategories, "/products/categories", &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// ProductsByCategory returns the products tagged with category.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]catalog.Product, error) {
	if strings.TrimSpace(category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	var products []catalog.Product
	if err := c.getJSON(ctx, endpointByCategory, "/products/category/"+url.PathEscape(category), &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// Product fetches a single product. The API answers unknown ids with an
// empty body or JSON null rather than a 404, so all three map to not found.
func (c *Client) Product(ctx context.Context, id int) (catalog.Product, error) {
	if id <= 0 {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	var product *catalog.Product
	if err := c.getJSON(ctx, endpointProduct, "/products/"+strconv.Itoa(id), &product); err != nil {
		return catalog.Product{}, err
	}
	if product == nil {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return *product, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	target := c.baseURL + path
	start := time.Now()

	body, err := c.fetch(ctx, target)
	if err != nil {
		mapped, outcome := classify(err, endpoint)
		c.metrics.ObserveUpstream(endpoint, outcome, time.Since(start))
		return mapped
	}
	c.metrics.ObserveUpstream(endpoint, "success", time.Since(start))

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", endpoint))
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= http.StatusMultipleChoices {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
			upstreamErr := &pkgerrors.UpstreamError{
				Status: resp.StatusCode,
				URL:    target,
				Body:   strings.TrimSpace(string(msg)),
			}
			if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
				return retry.RetryableError(upstreamErr)
			}
			return upstreamErr
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
		if err != nil {
			return retry.RetryableError(err)
		}
		body = data
		return nil
	})
	return body, err
}

func classify(err error, endpoint string) (error, string) {
	var upstreamErr *pkgerrors.UpstreamError
	if errors.As(err, &upstreamErr) {
		switch {
		case upstreamErr.Status == http.StatusNotFound:
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "catalog resource not found"), "not_found"
		case upstreamErr.Status < http.StatusInternalServerError && upstreamErr.Status != http.StatusTooManyRequests:
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("catalog %s request rejected", endpoint)), "rejected"
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("catalog %s request failed", endpoint)), "error"
}
