package importer

import (
	"context"
	"errors"

	"github.com/happon/Crawl-Server/internal/bundle"
	"github.com/happon/Crawl-Server/internal/connector/http"
	"github.com/happon/Crawl-Server/internal/graphql"
)

// UploadMutation registers a file as a pending import.
const UploadMutation = `mutation UploadImport($file: Upload!) {
  uploadImport(file: $file) {
    id
    name
    uploadStatus
  }
}`

func uploadParts(req *graphql.UploadRequest) []http.Part {
	return []http.Part{
		{Name: "operations", Content: req.Operations},
		{Name: "map", Content: req.Map},
		{Name: graphql.FilePartName, FileName: req.FileName, ContentType: req.ContentType, Content: req.Content},
	}
}

// upload sends file in a single multipart POST. A response with an error
// status is still returned so its body can be classified; only failures that
// produced no response at all are reported as transport errors.
func upload(ctx context.Context, client *http.Client, file *bundle.File) (*http.Response, *Error) {
	req, buildErr := newUploadRequest(UploadMutation, file)
	if buildErr != nil {
		return nil, buildErr
	}

	resp, err := client.PostMultipart(ctx, uploadParts(req))
	if err != nil {
		var statusErr *http.StatusError
		if errors.As(err, &statusErr) && resp != nil {
			return resp, nil
		}
		return nil, fatalError(CodeTransport, PhaseUpload, err)
	}
	return resp, nil
}

// newUploadRequest encodes file for mutation. Nothing has been sent when it
// fails, so the failure is a request error rather than a transport error.
func newUploadRequest(mutation string, file *bundle.File) (*graphql.UploadRequest, *Error) {
	req, err := graphql.NewUploadRequest(mutation, file.Name, bundle.ContentType, file.Content)
	if err != nil {
		return nil, fatalError(CodeRequest, PhaseUpload, err)
	}
	return req, nil
}
