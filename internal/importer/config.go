package importer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultProbeTimeout = 5 * time.Second
)

// Config is everything a run needs to reach the import endpoint. It is
// passed to New explicitly; the importer never reads the process environment.
type Config struct {
	// Endpoint is the resolved GraphQL endpoint URL.
	Endpoint string
	// Token is sent as a bearer token on every request.
	Token string
	// Timeout bounds each HTTP request (default: 60s).
	Timeout time.Duration
	// ProbeTimeout bounds the TCP reachability check (default: 5s).
	ProbeTimeout time.Duration
	// Validate enables the introspection and validation phase.
	Validate bool
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
}

// parseEndpoint checks every required setting and returns the parsed
// endpoint. All problems are reported together.
func (c *Config) parseEndpoint() (*url.URL, error) {
	var result *multierror.Error

	if strings.TrimSpace(c.Token) == "" {
		result = multierror.Append(result, errors.New("token is required"))
	}

	var endpoint *url.URL
	if strings.TrimSpace(c.Endpoint) == "" {
		result = multierror.Append(result, errors.New("endpoint is required"))
	} else {
		u, err := url.Parse(c.Endpoint)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("endpoint %q: %w", c.Endpoint, err))
		case u.Scheme != "http" && u.Scheme != "https":
			result = multierror.Append(result, fmt.Errorf("endpoint %q: scheme must be http or https", c.Endpoint))
		case u.Hostname() == "":
			result = multierror.Append(result, fmt.Errorf("endpoint %q: missing host", c.Endpoint))
		default:
			endpoint = u
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return endpoint, nil
}
