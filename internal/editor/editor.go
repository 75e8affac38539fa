// Package editor exposes one editor per dashboard section over the shared cache.
// Editors hold no state of their own; every view is read from the cache.
package editor

import (
	"context"
	"errors"
	"io"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/models"
)

// Field is one scalar input of the personal or social section.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Row is one item of a list section.
type Row struct {
	ID     string           `json:"id" yaml:"id"`
	Label  string           `json:"label" yaml:"label"`
	Temp   bool             `json:"temp,omitempty" yaml:"temp,omitempty"`
	Status cache.ItemStatus `json:"status" yaml:"status"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
	Item   models.Item      `json:"item" yaml:"item"`
}

// View is what a section renders.
type View struct {
	Section   models.Section    `json:"section" yaml:"section"`
	State     string            `json:"state" yaml:"state"`
	Error     string            `json:"error,omitempty" yaml:"error,omitempty"`
	CanSave   bool              `json:"canSave" yaml:"canSave"`
	Fields    []Field           `json:"fields,omitempty" yaml:"fields,omitempty"`
	Rows      []Row             `json:"rows,omitempty" yaml:"rows,omitempty"`
	Documents *models.Documents `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// Editor drives one section.
type Editor struct {
	section models.Section
	cache   *cache.Cache
	dl      cache.Downloader
}

// New returns an editor for section. dl may be nil for sections other than documents.
func New(section models.Section, c *cache.Cache, dl cache.Downloader) *Editor {
	return &Editor{section: section, cache: c, dl: dl}
}

// Section returns the edited section.
func (e *Editor) Section() models.Section { return e.section }

// View renders the current state of the section.
func (e *Editor) View() View {
	v := View{
		Section: e.section,
		State:   e.cache.State(e.section).String(),
		Error:   apperr.UserMessage(e.cache.Err(e.section)),
		CanSave: e.CanSave(),
	}
	snap := e.cache.Snapshot()
	if snap == nil {
		if err := e.cache.LoadErr(); err != nil {
			v.Error = apperr.UserMessage(err)
		}
		return v
	}
	switch e.section {
	case models.SectionPersonal:
		v.Fields = personalFields(snap.PersonalInfo)
	case models.SectionSocial:
		v.Fields = socialFields(snap.SocialLinks)
	case models.SectionDocuments:
		v.Documents = snap.Documents
		if v.Documents == nil {
			v.Documents = &models.Documents{}
		}
	default:
		list, _ := e.section.List()
		for _, iv := range e.cache.Items(list) {
			v.Rows = append(v.Rows, Row{
				ID:     iv.Item.ItemID(),
				Label:  iv.Item.Label(),
				Temp:   iv.Temp,
				Status: iv.Status,
				Error:  apperr.UserMessage(iv.Err),
				Item:   iv.Item,
			})
		}
	}
	return v
}

func personalFields(p models.PersonalInfo) []Field {
	return []Field{
		{"name", p.Name},
		{"jobTitle", p.JobTitle},
		{"profilePicture", p.ProfilePicture},
		{"coverPhoto", p.CoverPhoto},
		{"aboutMe", p.AboutMe},
		{"email", p.Email},
		{"phone", p.Phone},
		{"location", p.Location},
	}
}

func socialFields(s models.SocialLinks) []Field {
	return []Field{
		{"linkedin", s.LinkedIn},
		{"instagram", s.Instagram},
		{"facebook", s.Facebook},
		{"twitter", s.Twitter},
		{"github", s.GitHub},
	}
}

// CanSave reports whether the save control is enabled.
func (e *Editor) CanSave() bool { return e.cache.CanSave(e.section) }

// CanDelete reports whether the delete control for id is enabled.
func (e *Editor) CanDelete(id string) bool {
	list, ok := e.section.List()
	return ok && e.cache.CanDelete(list, id)
}

var errNoList = errors.New("section has no items")

func (e *Editor) list(op string) (models.ListName, error) {
	list, ok := e.section.List()
	if !ok {
		return "", &apperr.Error{Kind: apperr.ErrValidation, Op: op, Message: string(e.section) + " has no items", Err: errNoList}
	}
	return list, nil
}

// Set edits a scalar field.
func (e *Editor) Set(field, value string) error {
	return e.cache.UpdateField(e.section, field, value)
}

// SetItem edits a field of one item.
func (e *Editor) SetItem(id, field, value string) error {
	list, err := e.list("edit")
	if err != nil {
		return err
	}
	return e.cache.SetItemField(list, id, field, value)
}

// SetResponsibilities replaces the responsibilities of an experience item.
func (e *Editor) SetResponsibilities(id string, lines []string) error {
	if e.section != models.SectionExperience {
		return apperr.Validation("edit", "%s has no responsibilities", e.section)
	}
	return e.cache.SetResponsibilities(id, lines)
}

// Add appends a new item and returns its temporary id.
func (e *Editor) Add() (string, error) {
	list, err := e.list("add")
	if err != nil {
		return "", err
	}
	return e.cache.AddItem(list)
}

// Delete removes an item.
func (e *Editor) Delete(ctx context.Context, id string) error {
	list, err := e.list("delete")
	if err != nil {
		return err
	}
	return e.cache.RemoveItem(ctx, list, id)
}

// Save persists the section.
func (e *Editor) Save(ctx context.Context) error {
	return e.cache.PersistSection(ctx, e.section)
}

// Upload sends the provided document files.
func (e *Editor) Upload(ctx context.Context, set models.UploadSet) error {
	if e.section != models.SectionDocuments {
		return apperr.Validation("upload", "%s does not take files", e.section)
	}
	return e.cache.UploadDocuments(ctx, set)
}

// Download writes the stored document of type t to w.
func (e *Editor) Download(ctx context.Context, t models.DocType, w io.Writer) (int64, error) {
	if e.section != models.SectionDocuments || e.dl == nil {
		return 0, apperr.Validation("download", "%s has no downloads", e.section)
	}
	return e.dl.DownloadDocument(ctx, t, w)
}
