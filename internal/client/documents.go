package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

type uploadResponse struct {
	Message       string            `json:"message"`
	UploadedFiles map[string]string `json:"uploadedFiles"`
}

// UploadDocuments sends the provided files in one multipart request. Only non-nil
// slots become parts; an empty set is rejected without a request.
// It returns the stored filename per multipart field.
func (c *Client) UploadDocuments(ctx context.Context, set models.UploadSet) (map[string]string, error) {
	const op = "upload documents"
	parts := set.Parts()
	if len(parts) == 0 {
		return nil, apperr.Validation(op, "No files selected")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.File.Content == nil {
			return nil, apperr.Validation(op, "%s has no content", p.Type.Field())
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			p.Type.Field(), quoteEscaper.Replace(p.File.Filename)))
		h.Set("Content-Type", p.Type.ContentType())
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("%s: create part: %w", op, err)
		}
		if _, err := io.Copy(w, p.File.Content); err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", op, p.Type.Field(), err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: close multipart: %w", op, err)
	}

	var out uploadResponse
	err := c.doJSON(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/admin/documents/upload",
		route:       "/api/admin/documents/upload",
		admin:       true,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.UploadedFiles, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// DownloadDocument streams the stored document of type t into w and returns the
// number of bytes written. The caller chooses where the bytes go.
func (c *Client) DownloadDocument(ctx context.Context, t models.DocType, w io.Writer) (int64, error) {
	op := "download " + string(t)
	if err := t.Validate(); err != nil {
		return 0, apperr.Validation(op, "invalid document type %q", t)
	}
	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/api/documents/download/" + string(t),
		route:  "/api/documents/download/{docType}",
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &apperr.Error{Kind: apperr.ErrNetwork, Op: op, Message: "download interrupted", Err: err}
	}
	return n, nil
}
