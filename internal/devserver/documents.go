package devserver

import (
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
)

type uploadResponse struct {
	Message       string            `json:"message"`
	UploadedFiles map[string]string `json:"uploadedFiles"`
}

// uploadDocuments handles POST /api/admin/documents/upload. Each field is optional;
// its part must carry the content type of its document type.
func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var (
		set    models.UploadSet
		opened []multipart.File
	)
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, t := range models.AllDocTypes {
		headers := r.MultipartForm.File[t.Field()]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		ct, _, _ := mime.ParseMediaType(fh.Header.Get("Content-Type"))
		if ct != t.ContentType() {
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid file type for "+t.Field()))
			return
		}
		f, err := fh.Open()
		if err != nil {
			s.writeError(w, err)
			return
		}
		opened = append(opened, f)
		set.Set(t, &models.UploadFile{Filename: filepath.Base(fh.Filename), Content: f})
	}
	if len(set.Parts()) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("No files uploaded"))
		return
	}

	uploaded, err := s.svc.UploadDocuments(r.Context(), set)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Message: "Files uploaded successfully", UploadedFiles: uploaded})
}

// downloadDocument handles GET /api/documents/download/{docType}.
func (s *Server) downloadDocument(w http.ResponseWriter, r *http.Request) {
	t, err := models.ParseDocType(chi.URLParam(r, "docType"))
	if err != nil {
		s.writeError(w, apperr.Validation("download", "Invalid document type"))
		return
	}
	name, content, err := s.svc.OpenDocument(r.Context(), t)
	if err != nil {
		s.writeError(w, err)
		return
	}

	etag := checksum.ETag(content)
	w.Header().Set("ETag", etag)
	if checksum.Matches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
