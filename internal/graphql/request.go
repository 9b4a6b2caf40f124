// Package graphql holds the client-side GraphQL wire model: request and
// response envelopes, the multipart upload request, the mutation catalog
// returned by introspection, and helpers that build and check operation
// documents with gqlparser.
package graphql

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables"`
}

// NewRequest returns a request with an empty, non-null variables object.
func NewRequest(query string) *Request {
	return &Request{Query: query, Variables: map[string]any{}}
}

// Response is a decoded GraphQL response envelope. Data is kept raw so each
// caller decodes only the shape it expects.
type Response struct {
	Data   json.RawMessage
	Errors gqlerror.List

	// errorsMember is set when the body carried a non-null errors member,
	// even an empty array.
	errorsMember bool
}

// errEmptyErrors stands in for an errors member that lists nothing.
var errEmptyErrors = errors.New("response carries an empty errors array")

// HasErrors reports whether the body carried a top-level errors member.
// An empty array counts: only an absent or null member means no errors.
func (r *Response) HasErrors() bool {
	return r.errorsMember
}

// Err returns the top-level errors as an error, or nil when there are none.
func (r *Response) Err() error {
	switch {
	case !r.errorsMember:
		return nil
	case len(r.Errors) == 0:
		return errEmptyErrors
	}
	return r.Errors
}

// HasData reports whether a non-null data member is present.
func (r *Response) HasData() bool {
	return !isNull(r.Data)
}

// DecodeResponse parses body as a GraphQL response envelope. It fails only
// when body is not a JSON object. Error entries that do not follow the
// GraphQL error shape are kept as a single error carrying the raw JSON.
func DecodeResponse(body []byte) (*Response, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	if envelope == nil {
		return nil, fmt.Errorf("decode graphql response: body is null")
	}

	resp := &Response{Data: envelope["data"]}
	if raw, ok := envelope["errors"]; ok && !isNull(raw) {
		var list gqlerror.List
		if err := json.Unmarshal(raw, &list); err != nil {
			list = gqlerror.List{{Message: string(raw)}}
		}
		resp.Errors = list
		resp.errorsMember = true
	}
	return resp, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
