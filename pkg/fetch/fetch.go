// Package fetch downloads remote resources as text or straight to disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"glade/pkg/logging"
)

// ErrTransport marks a network or HTTP failure.
var ErrTransport = errors.New("transport error")

const chunkSize = 32 * 1024

// Client performs bounded HTTP GETs.
type Client struct {
	http      *http.Client
	userAgent string
	progress  io.Writer
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithProgress sets where download progress is rendered. Nil disables it.
func WithProgress(w io.Writer) Option {
	return func(c *Client) { c.progress = w }
}

// New returns a Client using httpClient, whose Timeout bounds every request.
func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Hour}
	}
	c := &Client{
		http:      httpClient,
		userAgent: "glade",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request for %s: %w", ErrTransport, url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %w", ErrTransport, url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: failed to fetch %s: HTTP %s", ErrTransport, url, resp.Status)
	}
	return resp, nil
}

// FetchText returns the body of url as a string.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %w", ErrTransport, url, err)
	}
	return string(body), nil
}

// FetchToFile streams the body of url into dest, creating parent
// directories, and returns the number of bytes written.
func (c *Client) FetchToFile(ctx context.Context, url string, dest string) (int64, error) {
	logger := logging.GetLogger(ctx)
	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("%w: failed to create target directory: %w", ErrTransport, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create target file: %w", ErrTransport, err)
	}

	if resp.ContentLength < 0 {
		logger.Info("downloading (size unknown)", "file", filepath.Base(dest))
	}
	bar := c.newBar(resp.ContentLength, filepath.Base(dest))

	var w io.Writer = out
	if bar != nil {
		w = io.MultiWriter(out, bar)
	}
	n, err := copyChunked(w, resp.Body)
	if bar != nil {
		_ = bar.Finish()
	}
	closeErr := out.Close()
	if err != nil {
		return n, fmt.Errorf("%w: failed to download %s: %w", ErrTransport, url, err)
	}
	if closeErr != nil {
		return n, fmt.Errorf("%w: failed to write %s: %w", ErrTransport, dest, closeErr)
	}
	logger.Debug("download finished", "url", url, "dest", dest, "bytes", n)
	return n, nil
}

// copyChunked copies without handing src to io.Copy, so the body is
// always read through a fixed-size buffer.
func copyChunked(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func (c *Client) newBar(total int64, name string) *progressbar.ProgressBar {
	if c.progress == nil {
		return nil
	}
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
