package importer

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Prober checks that a TCP address accepts connections.
type Prober interface {
	Probe(ctx context.Context, address string) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, address string) error

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, address string) error {
	return f(ctx, address)
}

// TCPProber dials the address and closes the connection straight away.
type TCPProber struct {
	Timeout time.Duration
}

// Probe opens and closes one TCP connection within Timeout.
func (p TCPProber) Probe(ctx context.Context, address string) error {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// probeAddress returns host:port for endpoint, defaulting the port from the scheme.
func probeAddress(endpoint *url.URL) (string, error) {
	host := endpoint.Hostname()
	if host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint.String())
	}
	port := endpoint.Port()
	if port == "" {
		switch endpoint.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return "", fmt.Errorf("endpoint %q: cannot infer port for scheme %q", endpoint.String(), endpoint.Scheme)
		}
	}
	return net.JoinHostPort(host, port), nil
}
