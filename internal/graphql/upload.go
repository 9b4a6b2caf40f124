package graphql

import (
	"encoding/json"
	"fmt"
)

// FilePartName is the form field holding the single uploaded file.
const FilePartName = "0"

// UploadRequest is a file-bearing operation encoded per the GraphQL
// multipart request convention: an operations document whose upload
// variable is null, a map binding the file part to that variable, and the
// file part itself.
type UploadRequest struct {
	// Operations is the JSON operations document.
	Operations []byte
	// Map is the JSON map document.
	Map []byte
	// VariablePath is the path the map binds the file to, e.g. "variables.file".
	VariablePath string
	// FileName is sent as the file part's filename.
	FileName string
	// ContentType is sent as the file part's content type.
	ContentType string
	// Content is the file part body.
	Content []byte
}

// NewUploadRequest builds the multipart documents for query, which must be a
// single operation declaring exactly one Upload variable. The map path is
// derived from that declaration so it always names the variable set to null
// in the operations document.
func NewUploadRequest(query, fileName, contentType string, content []byte) (*UploadRequest, error) {
	op, err := ParseOperation(query)
	if err != nil {
		return nil, err
	}
	variable, err := UploadVariable(op)
	if err != nil {
		return nil, err
	}

	operations, err := json.Marshal(Request{
		Query:         query,
		OperationName: op.Name,
		Variables:     map[string]any{variable: nil},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal operations: %w", err)
	}

	path := "variables." + variable
	fileMap, err := json.Marshal(map[string][]string{FilePartName: {path}})
	if err != nil {
		return nil, fmt.Errorf("marshal map: %w", err)
	}

	return &UploadRequest{
		Operations:   operations,
		Map:          fileMap,
		VariablePath: path,
		FileName:     fileName,
		ContentType:  contentType,
		Content:      content,
	}, nil
}
