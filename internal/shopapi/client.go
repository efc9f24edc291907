// Package shopapi implements a client for the kart shop REST API: the paged
// product catalog, the cart summary and the add-to-cart mutation.
package shopapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/pkg/transport"
)

// Paths of the backend endpoints, relative to the base URL.
const (
	PathProducts    = "products"
	PathCartSummary = "cart-summary"
	PathAddProduct  = "add-product"
)

const (
	maxBodySize      = 8 << 20
	maxErrorBodySize = 4 << 10
)

// Compile-time checks ensuring Client satisfies the domain interfaces.
var (
	_ product.Catalog = (*Client)(nil)
	_ cart.Repository = (*Client)(nil)
)

// StatusError is returned when the backend answers with a non-2xx status.
// Body holds the beginning of the response payload, if any.
type StatusError struct {
	Op         string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// ResponseBody returns the captured response payload.
func (e *StatusError) ResponseBody() []byte { return e.Body }

// options holds client construction parameters.
type options struct {
	base           http.RoundTripper
	timeout        time.Duration
	auth           transport.Authorizer
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Client.
type Option func(*options)

// WithTransport sets the underlying transport. Defaults to
// http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithTimeout sets the overall timeout of a single request. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithAuthorizer sets the credentials attached to every request.
func WithAuthorizer(a transport.Authorizer) Option {
	return func(o *options) { o.auth = a }
}

// WithTracerProvider sets the tracer provider used for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for client metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// Client talks to the shop backend.
type Client struct {
	base *url.URL
	hc   *http.Client
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	o := options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	var otelOpts []otelhttp.Option
	if o.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(o.tracerProvider))
	}
	if o.meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(o.meterProvider))
	}

	rt := transport.Wrap(o.base,
		transport.Recovery(),
		transport.RequestID(),
		transport.Auth(o.auth),
		transport.LogRequests(),
		transport.Instrument(otelOpts...),
	)

	return &Client{
		base: u,
		hc:   &http.Client{Transport: rt, Timeout: o.timeout},
	}, nil
}

// List returns one page of the catalog.
func (c *Client) List(ctx context.Context, page, pageSize int) (*product.Page, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("page_size", fmt.Sprint(pageSize))

	data, err := c.do(ctx, "list products", http.MethodGet, PathProducts, q, nil)
	if err != nil {
		return nil, err
	}
	p, err := decodeProductPage(data)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return p, nil
}

// Summary returns the current cart contents.
func (c *Client) Summary(ctx context.Context) (*cart.Summary, error) {
	data, err := c.do(ctx, "cart summary", http.MethodGet, PathCartSummary, nil, nil)
	if err != nil {
		return nil, err
	}
	s, err := decodeCartSummary(data)
	if err != nil {
		return nil, errors.Wrap(err, "cart summary")
	}
	return s, nil
}

// Add puts quantity units of the product into the cart. The response body is
// not interpreted; any 2xx status is success.
func (c *Client) Add(ctx context.Context, id product.ID, quantity int) error {
	if id.IsZero() {
		return errors.New("add product: empty product id")
	}
	if _, err := c.do(ctx, "add product", http.MethodPost, PathAddProduct, nil, encodeAddProduct(id, quantity)); err != nil {
		return err
	}
	return nil
}

// do performs a request and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte) ([]byte, error) {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: create request", op)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: payload}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read body", op)
	}
	return data, nil
}
