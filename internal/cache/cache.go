// Package cache keeps the working copy of the portfolio that the editors mutate.
//
// The mutex is never held across a Backend call. Every network round trip
// captures the generation first and drops its result if Reset or Load bumped
// it in the meantime.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Backend is the data source the cache loads from and persists to.
// Both the API client and the in-memory portfolio service implement it.
type Backend interface {
	GetPortfolio(ctx context.Context) (*models.Portfolio, error)
	UpdatePersonalInfo(ctx context.Context, info models.PersonalInfo) error
	UpdateSocialLinks(ctx context.Context, links models.SocialLinks) error
	CreateItem(ctx context.Context, list models.ListName, item models.Item) (models.Item, error)
	UpdateItem(ctx context.Context, list models.ListName, item models.Item) error
	DeleteItem(ctx context.Context, list models.ListName, id string) error
	UploadDocuments(ctx context.Context, set models.UploadSet) (map[string]string, error)
}

// Downloader streams a stored document.
type Downloader interface {
	DownloadDocument(ctx context.Context, t models.DocType, w io.Writer) (int64, error)
}

// State is the lifecycle of one section.
type State int

// Section states.
const (
	Unloaded State = iota
	Loaded
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "unloaded"
	}
}

type busyKind int

const (
	idle busyKind = iota
	busySaving
	busyDeleting
)

type entry struct {
	item  models.Item
	temp  bool
	dirty bool
	busy  busyKind
	err   error
}

type sectionState struct {
	state   State
	err     error
	dirty   bool // scalar sections only
	deletes int
}

// Cache is the client-side portfolio state. It is safe for concurrent use.
type Cache struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	doc        *models.Portfolio
	lists      map[models.ListName][]*entry
	sections   map[models.Section]*sectionState
	loadErr    error
	loading    bool
	inflight   int
	lastTemp   int64

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source for temporary ids.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache over backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetLocked()
	return c
}

// resetLocked empties the cache. Caller holds mu, or the cache is not shared yet.
func (c *Cache) resetLocked() {
	c.generation++
	c.doc = nil
	c.lists = make(map[models.ListName][]*entry, len(models.AllLists))
	c.sections = make(map[models.Section]*sectionState, len(models.AllSections))
	for _, s := range models.AllSections {
		c.sections[s] = &sectionState{}
	}
	c.loadErr = nil
	c.loading = false
	c.inflight = 0
}

// Reset drops all state. Responses to calls started before Reset are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.logger.Debug("cache: reset", slog.Uint64("generation", c.generation))
}

// Load fetches the portfolio and replaces the cached copy. Concurrent calls share
// one request. It fails with ErrBusy while any save, delete or upload is in flight.
func (c *Cache) Load(ctx context.Context) error {
	_, err, _ := c.group.Do("load", func() (any, error) {
		return nil, c.load(ctx)
	})
	return err
}

func (c *Cache) load(ctx context.Context) error {
	c.mu.Lock()
	if c.inflight > 0 {
		c.mu.Unlock()
		return apperr.New(apperr.ErrBusy, "load portfolio", "changes are still being saved")
	}
	c.generation++
	gen := c.generation
	c.loading = true
	c.mu.Unlock()

	p, err := c.backend.GetPortfolio(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return discard("load portfolio", err)
	}
	c.loading = false
	if err != nil {
		c.resetLocked()
		c.loadErr = err
		for _, st := range c.sections {
			st.err = err
		}
		c.logger.Warn("cache: load failed", slog.String("error", err.Error()))
		return err
	}
	c.install(p)
	c.logger.Debug("cache: loaded",
		slog.Int("experience", len(p.Experience)),
		slog.Int("certifications", len(p.Certifications)),
		slog.Int("skills", len(p.Skills)))
	return nil
}

// install replaces all state with p. Caller holds mu.
func (c *Cache) install(p *models.Portfolio) {
	doc := p.Clone()
	for _, l := range models.AllLists {
		c.lists[l] = entriesFrom(doc.Items(l))
		doc.SetItems(l, nil)
	}
	c.doc = doc
	c.loadErr = nil
	for _, st := range c.sections {
		*st = sectionState{state: Loaded}
	}
}

func entriesFrom(items []models.Item) []*entry {
	out := make([]*entry, 0, len(items))
	for _, it := range items {
		out = append(out, &entry{item: it})
	}
	return out
}

func stale(op string) error {
	return apperr.New(apperr.ErrStale, op, "response discarded after reset")
}

// discard is the result of a call whose response arrived after a reset.
// An authentication failure is still reported: it is usually what caused the reset.
func discard(op string, err error) error {
	if errors.Is(err, apperr.ErrUnauthenticated) {
		return err
	}
	return stale(op)
}

// Loaded reports whether a document is held.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc != nil
}

// LoadErr is the error of the last failed Load, cleared by a successful one.
func (c *Cache) LoadErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Generation increases on every Load and Reset.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// State returns the lifecycle state of section.
func (c *Cache) State(section models.Section) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.sections[section]; ok {
		return st.state
	}
	return Unloaded
}

// Err returns the last error recorded for section.
func (c *Cache) Err(section models.Section) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.sections[section]; ok {
		return st.err
	}
	return nil
}

// Snapshot returns a deep copy of the working document, or nil before a load.
func (c *Cache) Snapshot() *models.Portfolio {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil
	}
	out := c.doc.Clone()
	for _, l := range models.AllLists {
		items := make([]models.Item, 0, len(c.lists[l]))
		for _, e := range c.lists[l] {
			items = append(items, e.item)
		}
		out.SetItems(l, items)
	}
	return out
}

// ItemStatus summarises one list row.
type ItemStatus string

// Item statuses.
const (
	StatusSaved    ItemStatus = "saved"
	StatusUnsaved  ItemStatus = "unsaved"
	StatusSaving   ItemStatus = "saving"
	StatusDeleting ItemStatus = "deleting"
	StatusError    ItemStatus = "error"
)

// ItemView is a read-only row of a list section.
type ItemView struct {
	Item   models.Item
	Temp   bool
	Status ItemStatus
	Err    error
}

// Items returns the rows of list in display order.
func (c *Cache) Items(list models.ListName) []ItemView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ItemView, 0, len(c.lists[list]))
	for _, e := range c.lists[list] {
		out = append(out, ItemView{Item: e.item, Temp: e.temp, Status: e.status(), Err: e.err})
	}
	return out
}

func (e *entry) status() ItemStatus {
	switch {
	case e.busy == busyDeleting:
		return StatusDeleting
	case e.busy == busySaving:
		return StatusSaving
	case e.err != nil:
		return StatusError
	case e.temp || e.dirty:
		return StatusUnsaved
	default:
		return StatusSaved
	}
}

// CanSave reports whether PersistSection (or UploadDocuments) would be accepted now.
func (c *Cache) CanSave(section models.Section) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkSave(section) == nil
}

// CanDelete reports whether RemoveItem would be accepted for id now.
func (c *Cache) CanDelete(list models.ListName, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checkEditable(list.Section()) != nil {
		return false
	}
	e := c.find(list, id)
	return e != nil && e.busy == idle
}

// checkEditable gates local mutations. Caller holds mu.
func (c *Cache) checkEditable(section models.Section) error {
	st, ok := c.sections[section]
	if !ok {
		return fmt.Errorf("unknown section %q", section)
	}
	switch {
	case c.doc == nil || st.state == Unloaded:
		return apperr.New(apperr.ErrNotLoaded, "edit "+string(section), "load the portfolio first")
	case st.state == Saving:
		return apperr.New(apperr.ErrBusy, "edit "+string(section), "section is being saved")
	}
	return nil
}

// checkSave gates persistence. Caller holds mu.
func (c *Cache) checkSave(section models.Section) error {
	if err := c.checkEditable(section); err != nil {
		return err
	}
	switch {
	case c.loading:
		return apperr.New(apperr.ErrBusy, "save "+string(section), "portfolio is reloading")
	case c.sections[section].deletes > 0:
		return apperr.New(apperr.ErrBusy, "save "+string(section), "a delete is in progress")
	}
	return nil
}

// find returns the entry with id. Caller holds mu.
func (c *Cache) find(list models.ListName, id string) *entry {
	for _, e := range c.lists[list] {
		if e.item.ItemID() == id {
			return e
		}
	}
	return nil
}

// drop removes e by identity. Caller holds mu.
func (c *Cache) drop(list models.ListName, e *entry) {
	entries := c.lists[list]
	for i, x := range entries {
		if x == e {
			c.lists[list] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// settle moves a list section to Loaded or Editing from its entries. Caller holds mu.
func (c *Cache) settle(list models.ListName) {
	st := c.sections[list.Section()]
	if st.state == Saving || st.state == Unloaded {
		return
	}
	st.state = Loaded
	for _, e := range c.lists[list] {
		if e.temp || e.dirty || e.err != nil {
			st.state = Editing
			return
		}
	}
}
