package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name                       string
		override, graphqlURL, base string
		want                       string
	}{
		{name: "default", want: "http://127.0.0.1:8080/graphql"},
		{name: "base url", base: "https://cti.example.test", want: "https://cti.example.test/graphql"},
		{name: "base url trailing slash", base: "https://cti.example.test/", want: "https://cti.example.test/graphql"},
		{name: "graphql url beats base", graphqlURL: "https://gql.example.test/api", base: "https://cti.example.test", want: "https://gql.example.test/api"},
		{name: "override beats all", override: "http://10.0.0.5:4000/graphql", graphqlURL: "https://gql.example.test/api", want: "http://10.0.0.5:4000/graphql"},
		{name: "localhost without port", base: "http://localhost", want: "http://127.0.0.1/graphql"},
		{name: "localhost in path only", base: "http://cti.example.test/localhost", want: "http://cti.example.test/localhost/graphql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEndpoint(tt.override, tt.graphqlURL, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(Options{Lookup: env(nil)})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/graphql", s.Endpoint)
	assert.Empty(t, s.Token)
	assert.True(t, s.SSLVerify)
	assert.True(t, s.Validate)
	assert.Equal(t, 60*time.Second, s.Timeout)
	assert.Equal(t, 5*time.Second, s.ProbeTimeout)
	assert.Equal(t, filepath.Join(".", "data", "stage4_stix_bundle.json"), s.BundlePath)
}

func TestLoad_Environment(t *testing.T) {
	s, err := Load(Options{Lookup: env(map[string]string{
		KeyURL:          "http://localhost:8080",
		KeyToken:        " secret ",
		KeySSLVerify:    "no",
		KeyTimeout:      "90",
		KeyProbeTimeout: "1500ms",
		KeyValidate:     "false",
		KeyRoot:         "/srv/crawl",
	})})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/graphql", s.Endpoint)
	assert.Equal(t, "secret", s.Token)
	assert.False(t, s.SSLVerify)
	assert.False(t, s.Validate)
	assert.Equal(t, 90*time.Second, s.Timeout)
	assert.Equal(t, 1500*time.Millisecond, s.ProbeTimeout)
	assert.Equal(t, "/srv/crawl/data/stage4_stix_bundle.json", s.BundlePath)

	cfg := s.Importer()
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "secret", cfg.Token)
	assert.False(t, cfg.Validate)
}

func TestLoad_EnvFileAndPrecedence(t *testing.T) {
	path := writeEnvFile(t, "OPENCTI_URL=https://cti.example.test\nOPENCTI_TOKEN=from-file\nOPENCTI_BUNDLE=/tmp/file-bundle.json\n")

	s, err := Load(Options{EnvFile: path, Lookup: env(nil)})
	require.NoError(t, err)
	assert.Equal(t, "https://cti.example.test/graphql", s.Endpoint)
	assert.Equal(t, "from-file", s.Token)
	assert.Equal(t, "/tmp/file-bundle.json", s.BundlePath)

	s, err = Load(Options{
		EnvFile:    path,
		Endpoint:   "http://localhost:9999/graphql",
		BundlePath: "bundle.json",
		Lookup:     env(map[string]string{KeyToken: "from-env"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/graphql", s.Endpoint)
	assert.Equal(t, "from-env", s.Token)
	assert.Equal(t, "bundle.json", s.BundlePath)
}

func TestLoad_ExplicitEnvFileMustExist(t *testing.T) {
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env"), Lookup: env(nil)})
	require.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(Options{Lookup: env(map[string]string{KeyTimeout: "soon"})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyTimeout)

	_, err = Load(Options{Lookup: env(map[string]string{KeyProbeTimeout: "-3"})})
	require.Error(t, err)
}

func TestFlagValue(t *testing.T) {
	for _, raw := range []string{"1", "true", "TRUE", "yes", "Y", "on"} {
		assert.True(t, flagValue(raw, false), raw)
	}
	for _, raw := range []string{"0", "false", "no", "off", "maybe"} {
		assert.False(t, flagValue(raw, true), raw)
	}
	assert.True(t, flagValue("", true))
}
