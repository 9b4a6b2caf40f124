// Package config resolves the importer's settings from the process
// environment and an optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/happon/Crawl-Server/internal/bundle"
	"github.com/happon/Crawl-Server/internal/importer"
)

// Environment keys.
const (
	KeyURL          = "OPENCTI_URL"
	KeyToken        = "OPENCTI_TOKEN"
	KeyGraphQLURL   = "OPENCTI_GRAPHQL_URL"
	KeySSLVerify    = "OPENCTI_SSL_VERIFY"
	KeyTimeout      = "OPENCTI_TIMEOUT"
	KeyProbeTimeout = "OPENCTI_PROBE_TIMEOUT"
	KeyValidate     = "OPENCTI_VALIDATE"
	KeyBundle       = "OPENCTI_BUNDLE"
	KeyRoot         = "CRAWL_SERVER_ROOT"
)

const (
	// DefaultEndpoint is used when neither an override nor a base URL is set.
	DefaultEndpoint = "http://localhost:8080/graphql"
	// DefaultEnvFile is read when present; a missing default file is not an error.
	DefaultEnvFile = ".env"

	graphqlPath = "/graphql"
)

// Options are explicit inputs that take precedence over the environment.
type Options struct {
	// EnvFile is a dotenv file to read. Empty means DefaultEnvFile, which
	// may be absent; an explicit file must exist.
	EnvFile string
	// Endpoint overrides every endpoint setting.
	Endpoint string
	// BundlePath overrides OPENCTI_BUNDLE.
	BundlePath string
	// Lookup replaces the process environment, mainly for tests.
	Lookup func(key string) (string, bool)
}

// Settings are the resolved values for one invocation.
type Settings struct {
	Endpoint     string
	Token        string
	SSLVerify    bool
	Timeout      time.Duration
	ProbeTimeout time.Duration
	Validate     bool
	BundlePath   string
}

// Importer converts s into the importer's configuration.
func (s *Settings) Importer() importer.Config {
	return importer.Config{
		Endpoint:           s.Endpoint,
		Token:              s.Token,
		Timeout:            s.Timeout,
		ProbeTimeout:       s.ProbeTimeout,
		Validate:           s.Validate,
		InsecureSkipVerify: !s.SSLVerify,
	}
}

// Load reads the dotenv file and the environment. Environment variables win
// over dotenv values; opts win over both.
func Load(opts Options) (*Settings, error) {
	v := viper.New()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if opts.EnvFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	if opts.Lookup == nil {
		v.AutomaticEnv()
	}
	get := func(key string) string {
		if opts.Lookup != nil {
			if val, ok := opts.Lookup(key); ok && val != "" {
				return strings.TrimSpace(val)
			}
		}
		return strings.TrimSpace(v.GetString(key))
	}

	timeout, err := durationValue(get(KeyTimeout), 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyTimeout, err)
	}
	probeTimeout, err := durationValue(get(KeyProbeTimeout), 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyProbeTimeout, err)
	}

	endpoint, err := ResolveEndpoint(opts.Endpoint, get(KeyGraphQLURL), get(KeyURL))
	if err != nil {
		return nil, err
	}

	bundlePath := opts.BundlePath
	if bundlePath == "" {
		bundlePath = get(KeyBundle)
	}
	if bundlePath == "" {
		bundlePath = DefaultBundlePath(get(KeyRoot))
	}

	return &Settings{
		Endpoint:     endpoint,
		Token:        get(KeyToken),
		SSLVerify:    flagValue(get(KeySSLVerify), true),
		Timeout:      timeout,
		ProbeTimeout: probeTimeout,
		Validate:     flagValue(get(KeyValidate), true),
		BundlePath:   bundlePath,
	}, nil
}

// ResolveEndpoint applies the endpoint precedence: an explicit override,
// then a full GraphQL URL, then base URL + "/graphql", then DefaultEndpoint.
// A literal "localhost" host is rewritten to 127.0.0.1.
func ResolveEndpoint(override, graphqlURL, baseURL string) (string, error) {
	raw := DefaultEndpoint
	switch {
	case override != "":
		raw = override
	case graphqlURL != "":
		raw = graphqlURL
	case baseURL != "":
		raw = strings.TrimRight(baseURL, "/") + graphqlPath
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("endpoint %q: %w", raw, err)
	}
	if u.Hostname() == "localhost" {
		if port := u.Port(); port != "" {
			u.Host = "127.0.0.1:" + port
		} else {
			u.Host = "127.0.0.1"
		}
	}
	return u.String(), nil
}

// DefaultBundlePath is <root>/data/stage4_stix_bundle.json, relative to the
// working directory when root is empty.
func DefaultBundlePath(root string) string {
	if root == "" {
		root = "."
	}
	return filepath.Join(root, "data", bundle.DefaultFileName)
}

func flagValue(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// durationValue accepts Go durations ("90s") and bare seconds ("90").
func durationValue(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
