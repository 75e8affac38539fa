package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Section identifies an independently saved part of the dashboard.
type Section string

// Sections.
const (
	SectionPersonal       Section = "personal"
	SectionSocial         Section = "social"
	SectionExperience     Section = "experience"
	SectionCertifications Section = "certifications"
	SectionSkills         Section = "skills"
	SectionDocuments      Section = "documents"
)

// AllSections lists sections in dashboard tab order.
var AllSections = []Section{
	SectionPersonal, SectionSocial, SectionExperience,
	SectionCertifications, SectionSkills, SectionDocuments,
}

// ParseSection accepts a section name, case-insensitively.
func ParseSection(s string) (Section, error) {
	for _, sec := range AllSections {
		if strings.EqualFold(s, string(sec)) {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// List returns the list backing the section, if any.
func (s Section) List() (ListName, bool) {
	switch s {
	case SectionExperience:
		return ListExperience, true
	case SectionCertifications:
		return ListCertifications, true
	case SectionSkills:
		return ListSkills, true
	}
	return "", false
}

// ListName identifies one of the item lists.
type ListName string

// Lists.
const (
	ListExperience     ListName = "experience"
	ListCertifications ListName = "certifications"
	ListSkills         ListName = "skills"
)

// AllLists lists the item lists in tab order.
var AllLists = []ListName{ListExperience, ListCertifications, ListSkills}

// ParseList accepts a list name or its REST path segment.
func ParseList(s string) (ListName, error) {
	for _, l := range AllLists {
		if strings.EqualFold(s, string(l)) || strings.EqualFold(s, l.PathSegment()) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown list %q", s)
}

// Section returns the section the list is saved under.
func (l ListName) Section() Section { return Section(l) }

// PathSegment is the singular resource name used by the admin REST routes.
func (l ListName) PathSegment() string {
	switch l {
	case ListCertifications:
		return "certification"
	case ListSkills:
		return "skill"
	default:
		return "experience"
	}
}

// NewItem returns an item with default field values.
func (l ListName) NewItem(id string) Item {
	switch l {
	case ListCertifications:
		return Certification{ID: id}
	case ListSkills:
		return Skill{ID: id, Level: DefaultLevel}
	default:
		return Experience{ID: id, Responsibilities: []string{""}}
	}
}

// DecodeItem unmarshals a JSON item of the list's concrete type.
func (l ListName) DecodeItem(data []byte) (Item, error) {
	switch l {
	case ListCertifications:
		var c Certification
		err := json.Unmarshal(data, &c)
		return c, err
	case ListSkills:
		var s Skill
		err := json.Unmarshal(data, &s)
		return s, err
	case ListExperience:
		var e Experience
		err := json.Unmarshal(data, &e)
		return e, err
	}
	return nil, fmt.Errorf("unknown list %q", l)
}

// Item is a list entry with a stable id.
type Item interface {
	ItemID() string
	WithID(id string) Item
	// SetField returns a copy with the named field (JSON name) set from its string form.
	SetField(field, value string) (Item, error)
	Label() string
	Validate() error
}

// Experience is one work history entry.
type Experience struct {
	ID               string   `json:"id,omitempty" yaml:"id"`
	Company          string   `json:"company" yaml:"company"`
	Position         string   `json:"position" yaml:"position"`
	StartDate        string   `json:"startDate" yaml:"startDate"`
	EndDate          string   `json:"endDate" yaml:"endDate"`
	IsCurrent        bool     `json:"isCurrent" yaml:"isCurrent"`
	Description      string   `json:"description" yaml:"description"`
	Responsibilities []string `json:"responsibilities" yaml:"responsibilities"`
}

// Certification is one credential entry.
type Certification struct {
	ID           string `json:"id,omitempty" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	IssuingOrg   string `json:"issuingOrg" yaml:"issuingOrg"`
	IssueDate    string `json:"issueDate" yaml:"issueDate"`
	CredentialID string `json:"credentialId" yaml:"credentialId"`
}

// Skill is a named proficiency from 0 to 100.
type Skill struct {
	ID    string `json:"id,omitempty" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level" yaml:"level"`
}

// Skill level bounds.
const (
	MinLevel     = 0
	MaxLevel     = 100
	DefaultLevel = 50
)

// ClampLevel forces n into [MinLevel, MaxLevel].
func ClampLevel(n int) int {
	return max(MinLevel, min(MaxLevel, n))
}

// Normalize returns it as it should be sent: skill levels are clamped.
func Normalize(it Item) Item {
	if s, ok := it.(Skill); ok {
		s.Level = ClampLevel(s.Level)
		return s
	}
	return it
}

// ItemID returns the entry id.
func (e Experience) ItemID() string { return e.ID }

// WithID returns a copy carrying id.
func (e Experience) WithID(id string) Item {
	out := e.clone()
	out.ID = id
	return out
}

// Label is the row title shown by editors.
func (e Experience) Label() string {
	if e.Position == "" && e.Company == "" {
		return "(untitled experience)"
	}
	return strings.TrimSpace(e.Position + " at " + e.Company)
}

// SetField returns a copy with field set; responsibilities are newline-separated.
func (e Experience) SetField(field, value string) (Item, error) {
	out := e.clone()
	switch field {
	case "company":
		out.Company = value
	case "position":
		out.Position = value
	case "startDate":
		out.StartDate = value
	case "endDate":
		out.EndDate = value
	case "description":
		out.Description = value
	case "isCurrent":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("isCurrent must be true or false: %w", err)
		}
		out.IsCurrent = b
	case "responsibilities":
		out.Responsibilities = strings.Split(value, "\n")
	default:
		return nil, fmt.Errorf("unknown experience field %q", field)
	}
	return out, nil
}

func (e Experience) clone() Experience {
	e.Responsibilities = append([]string(nil), e.Responsibilities...)
	return e
}

// ItemID returns the credential id.
func (c Certification) ItemID() string { return c.ID }

// WithID returns a copy carrying id.
func (c Certification) WithID(id string) Item {
	c.ID = id
	return c
}

// Label is the certification name.
func (c Certification) Label() string {
	if c.Name == "" {
		return "(untitled certification)"
	}
	return c.Name
}

// SetField returns a copy with field set.
func (c Certification) SetField(field, value string) (Item, error) {
	switch field {
	case "name":
		c.Name = value
	case "issuingOrg":
		c.IssuingOrg = value
	case "issueDate":
		c.IssueDate = value
	case "credentialId":
		c.CredentialID = value
	default:
		return nil, fmt.Errorf("unknown certification field %q", field)
	}
	return c, nil
}

// ItemID returns the skill id.
func (s Skill) ItemID() string { return s.ID }

// WithID returns a copy carrying id.
func (s Skill) WithID(id string) Item {
	s.ID = id
	return s
}

// Label is the skill name and level.
func (s Skill) Label() string {
	if s.Name == "" {
		return "(untitled skill)"
	}
	return fmt.Sprintf("%s (%d)", s.Name, s.Level)
}

// SetField returns a copy with field set. Level input is clamped rather than rejected.
func (s Skill) SetField(field, value string) (Item, error) {
	switch field {
	case "name":
		s.Name = value
	case "level":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("level must be an integer: %w", err)
		}
		s.Level = ClampLevel(n)
	default:
		return nil, fmt.Errorf("unknown skill field %q", field)
	}
	return s, nil
}
