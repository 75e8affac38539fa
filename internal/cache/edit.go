package cache

import (
	"errors"
	"strconv"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// UpdateField sets a scalar field of the personal or social section.
func (c *Cache) UpdateField(section models.Section, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkEditable(section); err != nil {
		return err
	}
	op := "edit " + string(section)

	var err error
	switch section {
	case models.SectionPersonal:
		err = c.doc.PersonalInfo.SetField(field, value)
	case models.SectionSocial:
		err = c.doc.SocialLinks.SetField(field, value)
	default:
		return apperr.Validation(op, "section %s has no scalar fields", section)
	}
	if err != nil {
		return apperr.Validation(op, "%s", err.Error())
	}
	st := c.sections[section]
	st.dirty = true
	st.state = Editing
	return nil
}

// AddItem appends an item with default values under a temporary id and returns the id.
func (c *Cache) AddItem(list models.ListName) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkEditable(list.Section()); err != nil {
		return "", err
	}
	id := c.tempID(list)
	c.lists[list] = append(c.lists[list], &entry{item: list.NewItem(id), temp: true, dirty: true})
	c.sections[list.Section()].state = Editing
	return id, nil
}

// tempPrefix marks ids the server has never seen.
const tempPrefix = "tmp-"

// IsTempID reports whether id was assigned locally.
func IsTempID(id string) bool { return strings.HasPrefix(id, tempPrefix) }

// tempID derives an id from the clock, bumped past the last one issued and past
// any id already in list. Caller holds mu.
func (c *Cache) tempID(list models.ListName) string {
	n := c.now().UnixNano()
	if n <= c.lastTemp {
		n = c.lastTemp + 1
	}
	for {
		id := tempPrefix + strconv.FormatInt(n, 36)
		if c.find(list, id) == nil {
			c.lastTemp = n
			return id
		}
		n++
	}
}

// SetItemField edits one field of a list item. Skill levels are clamped to [0,100].
func (c *Cache) SetItemField(list models.ListName, id, field, value string) error {
	return c.editItem(list, id, func(it models.Item) (models.Item, error) {
		return it.SetField(field, value)
	})
}

// SetResponsibilities replaces the responsibilities of an experience item.
func (c *Cache) SetResponsibilities(id string, lines []string) error {
	return c.editItem(models.ListExperience, id, func(it models.Item) (models.Item, error) {
		exp, ok := it.(models.Experience)
		if !ok {
			return nil, apperr.Validation("edit experience", "item %s is not an experience entry", id)
		}
		exp.Responsibilities = append([]string(nil), lines...)
		return exp, nil
	})
}

func (c *Cache) editItem(list models.ListName, id string, fn func(models.Item) (models.Item, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	op := "edit " + string(list)
	if err := c.checkEditable(list.Section()); err != nil {
		return err
	}
	e := c.find(list, id)
	if e == nil {
		return apperr.New(apperr.ErrNotFound, op, "no item with id "+id)
	}
	if e.busy != idle {
		return apperr.New(apperr.ErrBusy, op, "item is being deleted")
	}
	next, err := fn(e.item)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Validation(op, "%s", err.Error())
	}
	e.item = next
	e.dirty = true
	c.sections[list.Section()].state = Editing
	return nil
}
