package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// PersistSection saves one section. Personal info and social links are validated
// and written whole. List sections clamp and validate each changed item, create
// temporary items, update edited ones, then refetch so the section holds the
// server's canonical list. The call returns only after that refetch. Items that
// fail local validation are not sent and keep their error.
func (c *Cache) PersistSection(ctx context.Context, section models.Section) error {
	switch section {
	case models.SectionPersonal, models.SectionSocial:
		return c.persistScalar(ctx, section)
	case models.SectionDocuments:
		return apperr.Validation("save documents", "documents are saved by uploading files")
	}
	list, ok := section.List()
	if !ok {
		return apperr.Validation("save", "unknown section %q", section)
	}
	return c.persistList(ctx, list)
}

func (c *Cache) persistScalar(ctx context.Context, section models.Section) error {
	op := "save " + string(section)

	c.mu.Lock()
	if err := c.checkSave(section); err != nil {
		c.mu.Unlock()
		return err
	}
	st := c.sections[section]
	info, links := c.doc.PersonalInfo, c.doc.SocialLinks
	var verr error
	if section == models.SectionPersonal {
		verr = info.Validate()
	} else {
		verr = links.Validate()
	}
	if verr != nil {
		st.state = Editing
		st.err = &apperr.Error{Kind: apperr.ErrValidation, Op: op, Message: verr.Error(), Err: verr}
		c.mu.Unlock()
		return st.err
	}
	st.state = Saving
	st.err = nil
	c.inflight++
	gen := c.generation
	c.mu.Unlock()

	var err error
	if section == models.SectionPersonal {
		err = c.backend.UpdatePersonalInfo(ctx, info)
	} else {
		err = c.backend.UpdateSocialLinks(ctx, links)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return discard(op, err)
	}
	c.inflight--
	if err != nil {
		st.state = Editing
		st.err = err
		c.logger.Warn("cache: save failed", slog.String("section", string(section)), slog.String("error", err.Error()))
		return err
	}
	st.state = Loaded
	st.dirty = false
	c.logger.Info("cache: section saved", slog.String("section", string(section)))
	return nil
}

type pending struct {
	e    *entry
	item models.Item
	temp bool
}

func (c *Cache) persistList(ctx context.Context, list models.ListName) error {
	section := list.Section()
	op := "save " + string(section)

	c.mu.Lock()
	if err := c.checkSave(section); err != nil {
		c.mu.Unlock()
		return err
	}
	var (
		work []pending
		errs []error
	)
	for _, e := range c.lists[list] {
		if !e.temp && !e.dirty {
			continue
		}
		item := models.Normalize(e.item)
		if verr := item.Validate(); verr != nil {
			e.err = &apperr.Error{Kind: apperr.ErrValidation, Op: op, Message: item.Label() + ": " + verr.Error(), Err: verr}
			errs = append(errs, e.err)
			continue
		}
		e.item = item
		e.busy = busySaving
		e.err = nil
		work = append(work, pending{e: e, item: item, temp: e.temp})
	}
	st := c.sections[section]
	if len(work) == 0 && len(errs) > 0 {
		st.state = Editing
		st.err = errors.Join(errs...)
		c.mu.Unlock()
		return st.err
	}
	st.state = Saving
	st.err = nil
	c.inflight++
	gen := c.generation
	c.mu.Unlock()

	for _, w := range work {
		if w.temp {
			created, err := c.backend.CreateItem(ctx, list, w.item)
			c.mu.Lock()
			if gen != c.generation {
				c.mu.Unlock()
				return discard(op, err)
			}
			if err != nil {
				w.e.err = err
				errs = append(errs, err)
			} else {
				w.e.item = created
				w.e.temp = false
				w.e.dirty = false
			}
			c.mu.Unlock()
			continue
		}

		err := c.backend.UpdateItem(ctx, list, w.item)
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return discard(op, err)
		}
		switch {
		case err == nil:
			w.e.dirty = false
		case errors.Is(err, apperr.ErrNotFound):
			c.drop(list, w.e)
			errs = append(errs, err)
		default:
			w.e.err = err
			errs = append(errs, err)
		}
		c.mu.Unlock()
	}

	fresh, ferr := c.backend.GetPortfolio(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return discard(op, ferr)
	}
	c.inflight--
	for _, w := range work {
		w.e.busy = idle
	}
	st.state = Loaded
	if ferr != nil {
		errs = append(errs, ferr)
	} else {
		c.converge(list, fresh)
	}
	c.settle(list)
	if ferr != nil {
		st.state = Editing
	}
	if len(errs) > 0 {
		st.err = errors.Join(errs...)
		c.logger.Warn("cache: save incomplete",
			slog.String("section", string(section)),
			slog.Int("failed", len(errs)),
			slog.String("error", st.err.Error()))
		return st.err
	}
	c.logger.Info("cache: section saved", slog.String("section", string(section)), slog.Int("changes", len(work)))
	return nil
}

// converge replaces list with the server's copy. Entries whose write failed are
// kept: unsaved temporary items are appended, and local edits still overlay
// their server row. Caller holds mu.
func (c *Cache) converge(list models.ListName, fresh *models.Portfolio) {
	failed := make(map[string]*entry)
	var orphans []*entry
	for _, e := range c.lists[list] {
		if e.err == nil {
			continue
		}
		if e.temp {
			orphans = append(orphans, e)
		} else {
			failed[e.item.ItemID()] = e
		}
	}
	next := make([]*entry, 0, len(fresh.Items(list))+len(orphans))
	for _, it := range fresh.Items(list) {
		if e, ok := failed[it.ItemID()]; ok {
			next = append(next, e)
			continue
		}
		next = append(next, &entry{item: it})
	}
	c.lists[list] = append(next, orphans...)
	if fresh.UpdatedAt != nil {
		ts := *fresh.UpdatedAt
		c.doc.UpdatedAt = &ts
	}
}

// RemoveItem deletes an item. Temporary items are dropped locally. Persisted items
// are deleted on the server first and removed only when that succeeds; a NotFound
// from the server removes the item too but is still returned.
func (c *Cache) RemoveItem(ctx context.Context, list models.ListName, id string) error {
	section := list.Section()
	op := "delete " + list.PathSegment()

	c.mu.Lock()
	if err := c.checkEditable(section); err != nil {
		c.mu.Unlock()
		return err
	}
	e := c.find(list, id)
	if e == nil {
		c.mu.Unlock()
		return apperr.New(apperr.ErrNotFound, op, "no item with id "+id)
	}
	if e.busy != idle {
		c.mu.Unlock()
		return apperr.New(apperr.ErrBusy, op, "item is already being deleted")
	}
	if e.temp {
		c.drop(list, e)
		c.settle(list)
		c.mu.Unlock()
		return nil
	}
	st := c.sections[section]
	e.busy = busyDeleting
	e.err = nil
	st.deletes++
	c.inflight++
	gen := c.generation
	c.mu.Unlock()

	err := c.backend.DeleteItem(ctx, list, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return discard(op, err)
	}
	st.deletes--
	c.inflight--
	e.busy = idle
	switch {
	case err == nil:
		c.drop(list, e)
	case errors.Is(err, apperr.ErrNotFound):
		c.drop(list, e)
		c.logger.Info("cache: item already gone on server", slog.String("list", string(list)), slog.String("id", id))
	default:
		e.err = err
		c.logger.Warn("cache: delete failed", slog.String("list", string(list)), slog.String("id", id), slog.String("error", err.Error()))
	}
	c.settle(list)
	return err
}

// UploadDocuments uploads the provided files, then refetches document metadata.
func (c *Cache) UploadDocuments(ctx context.Context, set models.UploadSet) error {
	const op = "upload documents"
	section := models.SectionDocuments

	c.mu.Lock()
	if err := c.checkSave(section); err != nil {
		c.mu.Unlock()
		return err
	}
	if len(set.Parts()) == 0 {
		c.mu.Unlock()
		return apperr.Validation(op, "No files selected")
	}
	st := c.sections[section]
	st.state = Saving
	st.err = nil
	c.inflight++
	gen := c.generation
	c.mu.Unlock()

	_, err := c.backend.UploadDocuments(ctx, set)
	var fresh *models.Portfolio
	if err == nil {
		fresh, err = c.backend.GetPortfolio(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return discard(op, err)
	}
	c.inflight--
	if err != nil {
		st.state = Editing
		st.err = err
		c.logger.Warn("cache: upload failed", slog.String("error", err.Error()))
		return err
	}
	if fresh.Documents != nil {
		d := *fresh.Documents
		c.doc.Documents = &d
	}
	st.state = Loaded
	c.logger.Info("cache: documents uploaded", slog.Int("files", len(set.Parts())))
	return nil
}
