// Package httpclient es el helper HTTP sincrónico que usan las
// estrategias para hablar con los providers.
//
// Una sola primitiva bloqueante (request) debajo de Get y Post. Sin
// retries y sin timeouts propios más allá de lo que el caller configure
// en Options. Las fallas de transporte salen como autherr.IOFailure; la
// estrategia decide si reintenta o emite un envelope de error.
package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/authrelay/authrelay/internal/autherr"
	"github.com/authrelay/authrelay/internal/observability/logger"
)

// userAgent identifica al framework ante los providers. Se agrega al
// request sin pisar los headers del caller.
const userAgent = "authrelay/1.0"

const defaultTimeout = 10 * time.Second

// Options ajusta un request individual.
type Options struct {
	// Headers adicionales. User-Agent del caller gana sobre el fijo.
	Headers map[string]string
	// Timeout para este request; 0 usa el del cliente.
	Timeout time.Duration
}

// Response es la respuesta cruda del provider.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client es el helper HTTP. Un Client es seguro para uso concurrente.
type Client struct {
	http *http.Client
}

// New crea un cliente con el timeout default.
func New() *Client {
	return &Client{http: &http.Client{Timeout: defaultTimeout}}
}

// NewWithHTTP crea un cliente sobre un *http.Client existente (tests,
// transports custom).
func NewWithHTTP(h *http.Client) *Client {
	return &Client{http: h}
}

// Get hace GET url?query y retorna body y headers de la respuesta.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values, opts *Options) (*Response, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	return c.request(ctx, http.MethodGet, rawURL, nil, "", opts)
}

// Post hace POST con form codificado application/x-www-form-urlencoded.
func (c *Client) Post(ctx context.Context, rawURL string, form url.Values, opts *Options) (*Response, error) {
	return c.request(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", opts)
}

// request es la primitiva: un solo request bloqueante.
func (c *Client) request(ctx context.Context, method, rawURL string, body io.Reader, contentType string, opts *Options) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, autherr.IOFailure(err)
	}

	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	client := c.http
	if opts != nil && opts.Timeout > 0 {
		clone := *c.http
		clone.Timeout = opts.Timeout
		client = &clone
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logger.From(ctx).Debug("provider request failed",
			logger.Method(method), logger.URL(rawURL), logger.Err(err))
		return nil, autherr.IOFailure(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, autherr.IOFailure(err)
	}
	logger.From(ctx).Debug("provider request",
		logger.Method(method), logger.URL(rawURL),
		logger.Status(resp.StatusCode), logger.Duration(time.Since(start)))
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}, nil
}
