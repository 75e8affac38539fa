package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/models"
)

const maxDocumentSize = 10 << 20 // 10 MB

var (
	typeExt = map[models.DocType]string{
		models.DocResumePDF:       ".pdf",
		models.DocResumeDOCX:      ".docx",
		models.DocCoverLetterPDF:  ".pdf",
		models.DocCoverLetterDOCX: ".docx",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

func (s *Server) uploadDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("doc_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := models.ParseDocType(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	uri, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, mime, err := decodeDataURI(uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if mime != t.ContentType() {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid file type for %s: got %s, want %s", t.Field(), mime, t.ContentType())), nil
	}
	if len(data) > maxDocumentSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxDocumentSize)), nil
	}
	if err := validateMagicBytes(data, t); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filename := sanitizeFilename(req.GetString("filename", ""), typeExt[t])

	if err := s.ensureLoaded(ctx); err != nil {
		return toolError(err), nil
	}
	var set models.UploadSet
	set.Set(t, &models.UploadFile{Filename: filename, Content: bytes.NewReader(data)})
	if err := s.dash.Editor(models.SectionDocuments).Upload(ctx, set); err != nil {
		return toolError(err), nil
	}
	return jsonResult(s.dash.Editor(models.SectionDocuments).View()), nil
}

// decodeDataURI parses a data:<mime>;base64,<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("invalid data URI: must start with data:")
	}
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return data, mime, nil
}

// sanitizeFilename strips path separators and unsafe characters and forces ext.
func sanitizeFilename(name, ext string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" {
		name = uuid.New().String()
	}
	if !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}

// validateMagicBytes verifies the content looks like the declared type.
// DOCX files are zip archives.
func validateMagicBytes(data []byte, t models.DocType) error {
	detected := strings.Split(http.DetectContentType(data), ";")[0]
	want := "application/pdf"
	if typeExt[t] == ".docx" {
		want = "application/zip"
	}
	if detected != want {
		return fmt.Errorf("content does not match %s (detected: %s)", t, detected)
	}
	return nil
}
