package httpclient

import (
	"context"
	"net/http"
	"time"

	"glade/pkg/driver"
	"glade/pkg/logging"
)

// Driver provides an HTTP client tuned for the current platform.
type Driver interface {
	// Client returns a configured HTTP client with proper certificate handling
	Client() *http.Client
}

// Client returns a client from the active driver, wrapped with request
// logging and bounded by timeout. A zero timeout keeps the driver's own.
func Client(ctx context.Context, timeout time.Duration) (*http.Client, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return nil, err
	}
	c := WithLogging(d).Client()
	if timeout > 0 {
		c.Timeout = timeout
	}
	return c, nil
}

// WithLogging wraps a Driver so that every HTTP request logs the URL at Debug level.
func WithLogging(d Driver) Driver {
	return &loggingDriver{inner: d}
}

type loggingDriver struct {
	inner Driver
}

func (d *loggingDriver) Client() *http.Client {
	c := d.inner.Client()
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *c
	clone.Transport = &loggingTransport{base: base}
	return &clone
}

type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.GetLogger(req.Context())
	logger.Debug("http request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		logger.Debug("http request failed", "url", req.URL.String(), "error", err)
		return nil, err
	}
	logger.Debug("http response", "url", req.URL.String(), "status", resp.StatusCode, "length", resp.ContentLength, "elapsed", time.Since(start))
	return resp, nil
}
