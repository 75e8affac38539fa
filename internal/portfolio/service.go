// Package portfolio holds the portfolio document in memory. The devserver serves it
// over REST and offline mode edits it directly through the same data-source methods
// the API client exposes.
package portfolio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Event types published to subscribers.
const (
	EventPortfolioUpdated = "portfolio.updated"
	EventDocumentsUpdated = "documents.updated"
)

// Event describes a committed mutation.
type Event struct {
	Type    string         `json:"type"`
	Section models.Section `json:"section"`
	At      time.Time      `json:"at"`
}

type storedFile struct {
	filename string
	content  []byte
}

// Service is the in-memory portfolio store. It is safe for concurrent use.
type Service struct {
	mu    sync.RWMutex
	doc   *models.Portfolio
	files map[models.DocType]storedFile

	now   func() time.Time
	newID func() string

	subMu sync.RWMutex
	subs  []func(Event)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides server id assignment.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a service holding a copy of seed. A nil seed starts from Seed().
func NewService(seed *models.Portfolio, opts ...Option) *Service {
	if seed == nil {
		seed = Seed()
	}
	s := &Service{
		doc:   seed.Clone(),
		files: make(map[models.DocType]storedFile),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.doc.Documents == nil {
		s.doc.Documents = &models.Documents{}
	}
	return s
}

// Subscribe registers fn for every committed mutation. fn runs synchronously
// after the lock is released and must not block.
func (s *Service) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Service) publish(typ string, sec models.Section, at time.Time) {
	s.subMu.RLock()
	subs := append([]func(Event){}, s.subs...)
	s.subMu.RUnlock()
	ev := Event{Type: typ, Section: sec, At: at}
	for _, fn := range subs {
		fn(ev)
	}
}

// touch stamps updatedAt. Caller holds mu.
func (s *Service) touch() time.Time {
	now := s.now().UTC()
	s.doc.UpdatedAt = &now
	return now
}

// GetPortfolio returns a deep copy of the document.
func (s *Service) GetPortfolio(_ context.Context) (*models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

// UpdatePersonalInfo replaces the personal info block.
func (s *Service) UpdatePersonalInfo(_ context.Context, info models.PersonalInfo) error {
	if err := info.Validate(); err != nil {
		return &apperr.Error{Kind: apperr.ErrValidation, Op: "update personal info", Message: err.Error(), Err: err}
	}
	s.mu.Lock()
	s.doc.PersonalInfo = info
	at := s.touch()
	s.mu.Unlock()
	s.publish(EventPortfolioUpdated, models.SectionPersonal, at)
	return nil
}

// UpdateSocialLinks replaces the social links block.
func (s *Service) UpdateSocialLinks(_ context.Context, links models.SocialLinks) error {
	if err := links.Validate(); err != nil {
		return &apperr.Error{Kind: apperr.ErrValidation, Op: "update social links", Message: err.Error(), Err: err}
	}
	s.mu.Lock()
	s.doc.SocialLinks = links
	at := s.touch()
	s.mu.Unlock()
	s.publish(EventPortfolioUpdated, models.SectionSocial, at)
	return nil
}

// CreateItem appends item to list under a fresh server id and returns the stored item.
func (s *Service) CreateItem(_ context.Context, list models.ListName, item models.Item) (models.Item, error) {
	op := "create " + list.PathSegment()
	if item == nil {
		return nil, apperr.Validation(op, "item is required")
	}
	if err := item.Validate(); err != nil {
		return nil, &apperr.Error{Kind: apperr.ErrValidation, Op: op, Message: err.Error(), Err: err}
	}
	created := item.WithID(s.newID())

	s.mu.Lock()
	items := s.doc.Items(list)
	s.doc.SetItems(list, append(items, created))
	at := s.touch()
	s.mu.Unlock()

	s.publish(EventPortfolioUpdated, list.Section(), at)
	return created, nil
}

// UpdateItem replaces the item with the same id.
func (s *Service) UpdateItem(_ context.Context, list models.ListName, item models.Item) error {
	op := "update " + list.PathSegment()
	if item == nil || item.ItemID() == "" {
		return apperr.Validation(op, "item id is required")
	}
	if err := item.Validate(); err != nil {
		return &apperr.Error{Kind: apperr.ErrValidation, Op: op, Message: err.Error(), Err: err}
	}

	s.mu.Lock()
	items := s.doc.Items(list)
	idx := indexOf(items, item.ItemID())
	if idx < 0 {
		s.mu.Unlock()
		return apperr.New(apperr.ErrNotFound, op, notFoundMessage(list))
	}
	items[idx] = item
	s.doc.SetItems(list, items)
	at := s.touch()
	s.mu.Unlock()

	s.publish(EventPortfolioUpdated, list.Section(), at)
	return nil
}

// DeleteItem removes the item with id.
func (s *Service) DeleteItem(_ context.Context, list models.ListName, id string) error {
	op := "delete " + list.PathSegment()
	s.mu.Lock()
	items := s.doc.Items(list)
	idx := indexOf(items, id)
	if idx < 0 {
		s.mu.Unlock()
		return apperr.New(apperr.ErrNotFound, op, notFoundMessage(list))
	}
	s.doc.SetItems(list, append(items[:idx], items[idx+1:]...))
	at := s.touch()
	s.mu.Unlock()

	s.publish(EventPortfolioUpdated, list.Section(), at)
	return nil
}

// UploadDocuments stores every provided file, replacing the previous one of its type.
func (s *Service) UploadDocuments(_ context.Context, set models.UploadSet) (map[string]string, error) {
	const op = "upload documents"
	parts := set.Parts()
	if len(parts) == 0 {
		return nil, apperr.Validation(op, "No files uploaded")
	}

	read := make(map[models.DocType]storedFile, len(parts))
	for _, p := range parts {
		if p.File.Content == nil {
			return nil, apperr.Validation(op, "%s has no content", p.Type.Field())
		}
		data, err := io.ReadAll(p.File.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", op, p.Type.Field(), err)
		}
		read[p.Type] = storedFile{filename: p.File.Filename, content: data}
	}

	uploaded := make(map[string]string, len(read))
	s.mu.Lock()
	now := s.touch()
	for t, f := range read {
		s.files[t] = f
		slot := s.doc.Documents.Slot(t)
		slot.Filename = f.filename
		ts := now
		slot.UploadedAt = &ts
		uploaded[t.Field()] = f.filename
	}
	s.mu.Unlock()

	s.publish(EventDocumentsUpdated, models.SectionDocuments, now)
	return uploaded, nil
}

// OpenDocument returns the stored filename and content for t.
func (s *Service) OpenDocument(_ context.Context, t models.DocType) (string, []byte, error) {
	op := "download " + string(t)
	if err := t.Validate(); err != nil {
		return "", nil, apperr.Validation(op, "Invalid document type")
	}
	s.mu.RLock()
	f, ok := s.files[t]
	s.mu.RUnlock()
	if !ok {
		return "", nil, apperr.New(apperr.ErrNotFound, op, "Document not found")
	}
	return f.filename, f.content, nil
}

// DownloadDocument writes the stored content for t into w.
func (s *Service) DownloadDocument(ctx context.Context, t models.DocType, w io.Writer) (int64, error) {
	_, content, err := s.OpenDocument(ctx, t)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, bytes.NewReader(content))
}

func indexOf(items []models.Item, id string) int {
	for i, it := range items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

func notFoundMessage(list models.ListName) string {
	switch list {
	case models.ListCertifications:
		return "Certification not found"
	case models.ListSkills:
		return "Skill not found"
	default:
		return "Experience not found"
	}
}
