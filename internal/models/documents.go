package models

import (
	"fmt"
	"io"
	"time"
)

// DocType names a downloadable document in the REST routes.
type DocType string

// Document types.
const (
	DocResumePDF       DocType = "resume-pdf"
	DocResumeDOCX      DocType = "resume-docx"
	DocCoverLetterPDF  DocType = "cover-letter-pdf"
	DocCoverLetterDOCX DocType = "cover-letter-docx"
	contentTypePDF             = "application/pdf"
	contentTypeDOCX            = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AllDocTypes lists document types in upload field order.
var AllDocTypes = []DocType{DocResumePDF, DocResumeDOCX, DocCoverLetterPDF, DocCoverLetterDOCX}

// ParseDocType validates a document type name.
func ParseDocType(s string) (DocType, error) {
	for _, d := range AllDocTypes {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", s)
}

// Field is the multipart field name used by the upload route.
func (d DocType) Field() string {
	switch d {
	case DocResumePDF:
		return "resumePDF"
	case DocResumeDOCX:
		return "resumeDOCX"
	case DocCoverLetterPDF:
		return "coverLetterPDF"
	case DocCoverLetterDOCX:
		return "coverLetterDOCX"
	}
	return ""
}

// ContentType is the only MIME type the upload route accepts for d.
func (d DocType) ContentType() string {
	switch d {
	case DocResumeDOCX, DocCoverLetterDOCX:
		return contentTypeDOCX
	default:
		return contentTypePDF
	}
}

// DocTypeForField maps a multipart field name back to its type.
func DocTypeForField(field string) (DocType, bool) {
	for _, d := range AllDocTypes {
		if d.Field() == field {
			return d, true
		}
	}
	return "", false
}

// DocumentFile is metadata for one uploaded document.
type DocumentFile struct {
	Filename   string     `json:"filename" yaml:"filename"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty" yaml:"uploadedAt,omitempty"`
}

// Documents holds metadata for every document slot.
type Documents struct {
	ResumePDF       DocumentFile `json:"resumePDF" yaml:"resumePDF"`
	ResumeDOCX      DocumentFile `json:"resumeDOCX" yaml:"resumeDOCX"`
	CoverLetterPDF  DocumentFile `json:"coverLetterPDF" yaml:"coverLetterPDF"`
	CoverLetterDOCX DocumentFile `json:"coverLetterDOCX" yaml:"coverLetterDOCX"`
}

// Slot returns a pointer to the metadata for d.
func (d *Documents) Slot(t DocType) *DocumentFile {
	switch t {
	case DocResumePDF:
		return &d.ResumePDF
	case DocResumeDOCX:
		return &d.ResumeDOCX
	case DocCoverLetterPDF:
		return &d.CoverLetterPDF
	case DocCoverLetterDOCX:
		return &d.CoverLetterDOCX
	}
	return nil
}

// UploadFile is one file to send.
type UploadFile struct {
	Filename string
	Content  io.Reader
}

// UploadSet carries the files of one upload request. Nil fields are not sent.
type UploadSet struct {
	ResumePDF       *UploadFile
	ResumeDOCX      *UploadFile
	CoverLetterPDF  *UploadFile
	CoverLetterDOCX *UploadFile
}

// Set assigns the slot for t.
func (u *UploadSet) Set(t DocType, f *UploadFile) {
	switch t {
	case DocResumePDF:
		u.ResumePDF = f
	case DocResumeDOCX:
		u.ResumeDOCX = f
	case DocCoverLetterPDF:
		u.CoverLetterPDF = f
	case DocCoverLetterDOCX:
		u.CoverLetterDOCX = f
	}
}

// UploadPart pairs a provided file with its type.
type UploadPart struct {
	Type DocType
	File *UploadFile
}

// Parts returns the non-nil files in field order.
func (u UploadSet) Parts() []UploadPart {
	var out []UploadPart
	for _, p := range []UploadPart{
		{DocResumePDF, u.ResumePDF},
		{DocResumeDOCX, u.ResumeDOCX},
		{DocCoverLetterPDF, u.CoverLetterPDF},
		{DocCoverLetterDOCX, u.CoverLetterDOCX},
	} {
		if p.File != nil {
			out = append(out, p)
		}
	}
	return out
}
