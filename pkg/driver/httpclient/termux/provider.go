package termux

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"glade/pkg/driver"
	httpclientdriver "glade/pkg/driver/httpclient"
)

func init() {
	driver.Register[httpclientdriver.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "httpclient_termux" }
func (p *Provider) Name() string       { return "Termux HTTP Client" }
func (p *Provider) DefaultWeight() int { return 60 } // Higher than native

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if os.Getenv("TERMUX_VERSION") == "" {
		return fmt.Errorf("%w: not running in Termux", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (httpclientdriver.Driver, error) {
	return &Driver{}, nil
}

type Driver struct {
	once   sync.Once
	client *http.Client
}

func (d *Driver) Client() *http.Client {
	d.once.Do(func() {
		// Android has no /etc/resolv.conf, so the Go resolver needs an explicit server.
		resolver := &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				dialer := &net.Dialer{Timeout: 5 * time.Second}
				return dialer.DialContext(ctx, "udp", dnsServer())
			},
		}
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Resolver:  resolver,
		}

		d.client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					if network == "tcp" {
						network = "tcp4"
					}
					return dialer.DialContext(ctx, network, addr)
				},
				TLSClientConfig: &tls.Config{
					RootCAs: loadTermuxCerts(),
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

func dnsServer() string {
	if dns := os.Getenv("DNS_SERVER"); dns != "" {
		return net.JoinHostPort(dns, "53")
	}
	return "8.8.8.8:53"
}

func loadTermuxCerts() *x509.CertPool {
	pool := x509.NewCertPool()

	certFiles := []string{
		"/data/data/com.termux/files/usr/etc/tls/cert.pem",
		"/data/data/com.termux/files/usr/etc/tls/certs/ca-certificates.crt",
	}
	for _, certFile := range certFiles {
		if certs, err := os.ReadFile(certFile); err == nil {
			if pool.AppendCertsFromPEM(certs) {
				return pool
			}
		}
	}

	certDir := "/system/etc/security/cacerts"
	entries, err := os.ReadDir(certDir)
	if err == nil {
		loaded := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if certs, err := os.ReadFile(filepath.Join(certDir, entry.Name())); err == nil && pool.AppendCertsFromPEM(certs) {
				loaded++
			}
		}
		if loaded > 0 {
			return pool
		}
	}

	slog.Warn("could not load any CA certificates for Termux")
	return pool
}
