package http

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// =============================================================================
// MULTIPART ENCODING
// =============================================================================

// Part is one field of a multipart/form-data body. A Part with a FileName is
// written as a file part carrying ContentType; anything else is a plain field.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Content     []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeMultipart writes parts, in order, into a multipart/form-data body and
// returns the body together with its Content-Type header value.
func EncodeMultipart(parts []Part) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		if p.FileName != "" {
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(p.Name), quoteEscaper.Replace(p.FileName)))
			contentType := p.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			header.Set("Content-Type", contentType)
		} else {
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(p.Name)))
			if p.ContentType != "" {
				header.Set("Content-Type", p.ContentType)
			}
		}

		pw, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %q: %w", p.Name, err)
		}
		if _, err := pw.Write(p.Content); err != nil {
			return nil, "", fmt.Errorf("write part %q: %w", p.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// =============================================================================
// MULTIPART REQUESTS
// =============================================================================

// PostMultipart posts parts, in order, as one multipart/form-data body.
func (c *Client) PostMultipart(ctx context.Context, parts []Part) (*Response, error) {
	body, contentType, err := EncodeMultipart(parts)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, contentType, body)
}
