package importer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testToken = "test-token"

	acceptedUpload = `{"data":{"uploadImport":{"id":"X","name":"Y","uploadStatus":"Z"}}}`

	// uploadImport, validateImport(workId: String, id: ID!), publish
	standardCatalog = `{"data":{"__schema":{"mutationType":{"fields":[
		{"name":"uploadImport","args":[{"name":"file","type":{"kind":"NON_NULL","name":null,"ofType":{"kind":"SCALAR","name":"Upload"}}}],"type":{"kind":"OBJECT","name":"File","ofType":null}},
		{"name":"validateImport","args":[{"name":"workId","type":{"kind":"SCALAR","name":"String","ofType":null}},{"name":"id","type":{"kind":"NON_NULL","name":null,"ofType":{"kind":"SCALAR","name":"ID"}}}],"type":{"kind":"SCALAR","name":"Boolean","ofType":null}},
		{"name":"publish","args":[],"type":{"kind":"SCALAR","name":"Boolean","ofType":null}}
	]}}}}`

	noValidationCatalog = `{"data":{"__schema":{"mutationType":{"fields":[
		{"name":"uploadImport","args":[],"type":{"kind":"OBJECT","name":"File","ofType":null}},
		{"name":"publish","args":[],"type":{"kind":"SCALAR","name":"Boolean","ofType":null}}
	]}}}}`

	validationOK = `{"data":{"validateImport":true}}`
)

type uploadPart struct {
	Name        string
	FileName    string
	ContentType string
	Content     []byte
}

// fakeGraphQL is a minimal import endpoint. Multipart requests are uploads;
// JSON requests are introspection when they mention __schema and validation
// otherwise.
type fakeGraphQL struct {
	srv *httptest.Server

	mu          sync.Mutex
	uploads     [][]uploadPart
	queries     []string
	authHeaders []string

	uploadStatus        int
	uploadBody          string
	introspectionStatus int
	introspectionBody   string
	validationStatus    int
	validationBody      string

	// uploadHandler, when set, replaces the upload response entirely.
	uploadHandler http.HandlerFunc
}

func newFakeGraphQL(t *testing.T) *fakeGraphQL {
	t.Helper()
	f := &fakeGraphQL{
		uploadStatus:        http.StatusOK,
		uploadBody:          acceptedUpload,
		introspectionStatus: http.StatusOK,
		introspectionBody:   standardCatalog,
		validationStatus:    http.StatusOK,
		validationBody:      validationOK,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGraphQL) endpoint() string {
	return f.srv.URL + "/graphql"
}

func (f *fakeGraphQL) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
	f.mu.Unlock()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f.serveUpload(w, r)
		return
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.queries = append(f.queries, body.Query)
	status, reply := f.validationStatus, f.validationBody
	if strings.Contains(body.Query, "__schema") {
		status, reply = f.introspectionStatus, f.introspectionBody
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (f *fakeGraphQL) serveUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var parts []uploadPart
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(p)
		parts = append(parts, uploadPart{
			Name:        p.FormName(),
			FileName:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, parts)
	handler := f.uploadHandler
	status, reply := f.uploadStatus, f.uploadBody
	f.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (f *fakeGraphQL) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.authHeaders)
}

func (f *fakeGraphQL) introspectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if strings.Contains(q, "__schema") {
			n++
		}
	}
	return n
}

func (f *fakeGraphQL) validationQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, q := range f.queries {
		if !strings.Contains(q, "__schema") {
			out = append(out, q)
		}
	}
	return out
}

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stage4_stix_bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleBundle = `{"type":"bundle","id":"bundle--5d2c1a0e","objects":[{"type":"indicator","id":"indicator--1"}]}`
