package importer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/happon/Crawl-Server/internal/graphql"
)

// UploadResult is the server's acknowledgement of an uploaded bundle.
type UploadResult struct {
	ID           string
	Name         string
	UploadStatus string
	// Raw is the response body exactly as received.
	Raw []byte
}

// ParseUploadResponse classifies the body of an upload response. status is
// only used to annotate diagnostics; classification depends on the body.
func ParseUploadResponse(status int, body []byte) (*UploadResult, *Error) {
	resp, err := graphql.DecodeResponse(body)
	if err != nil {
		return nil, fatalError(CodeParse, PhaseUpload, fmt.Errorf("HTTP %d: %w", status, err))
	}

	if resp.HasErrors() {
		e := fatalError(CodeApplication, PhaseUpload, resp.Err())
		e.GraphQLErrors = resp.Errors
		return nil, e
	}

	if !resp.HasData() {
		return nil, fatalError(CodeMalformedResponse, PhaseUpload,
			fmt.Errorf("HTTP %d: response has no data", status))
	}

	var data struct {
		UploadImport *struct {
			ID           graphql.ID `json:"id"`
			Name         string     `json:"name"`
			UploadStatus string     `json:"uploadStatus"`
		} `json:"uploadImport"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fatalError(CodeMalformedResponse, PhaseUpload, fmt.Errorf("decode data.uploadImport: %w", err))
	}
	if data.UploadImport == nil {
		return nil, fatalError(CodeMalformedResponse, PhaseUpload, errors.New("data.uploadImport is missing or null"))
	}

	return &UploadResult{
		ID:           string(data.UploadImport.ID),
		Name:         data.UploadImport.Name,
		UploadStatus: data.UploadImport.UploadStatus,
		Raw:          body,
	}, nil
}
