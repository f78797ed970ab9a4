package native

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"glade/pkg/driver"
	httpclientdriver "glade/pkg/driver/httpclient"
)

func init() {
	driver.Register[httpclientdriver.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "httpclient_native" }
func (p *Provider) Name() string       { return "Native HTTP Client" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	return nil
}

func (p *Provider) New(ctx context.Context) (httpclientdriver.Driver, error) {
	return &Driver{}, nil
}

type Driver struct {
	once   sync.Once
	client *http.Client
}

// Client returns a client without an overall deadline: reference files are
// large, so the caller bounds the request duration.
func (d *Driver) Client() *http.Client {
	d.once.Do(func() {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		d.client = &http.Client{
			Transport: &http.Transport{
				Proxy:       http.ProxyFromEnvironment,
				DialContext: dialer.DialContext,
				TLSClientConfig: &tls.Config{
					RootCAs: loadSystemCerts(),
				},
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	})
	return d.client
}

// loadSystemCerts returns the system pool, extended with SSL_CERT_FILE when set.
func loadSystemCerts() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if certFile := os.Getenv("SSL_CERT_FILE"); certFile != "" {
		certs, err := os.ReadFile(certFile)
		if err != nil {
			slog.Warn("could not read SSL_CERT_FILE", "path", certFile, "error", err)
			return pool
		}
		if !pool.AppendCertsFromPEM(certs) {
			slog.Warn("no certificates found in SSL_CERT_FILE", "path", certFile)
		}
	}
	return pool
}
