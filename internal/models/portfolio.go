// Package models defines the portfolio content model shared by the client, cache and devserver.
package models

import (
	"fmt"
	"time"
)

// Portfolio is the singleton document served by GET /api/portfolio.
type Portfolio struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Experience     []Experience    `json:"experience"`
	Certifications []Certification `json:"certifications"`
	Skills         []Skill         `json:"skills"`
	SocialLinks    SocialLinks     `json:"socialLinks"`
	Documents      *Documents      `json:"documents,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
}

// PersonalInfo holds the header block of the public page.
type PersonalInfo struct {
	Name           string `json:"name" yaml:"name"`
	JobTitle       string `json:"jobTitle" yaml:"jobTitle"`
	ProfilePicture string `json:"profilePicture" yaml:"profilePicture"`
	CoverPhoto     string `json:"coverPhoto" yaml:"coverPhoto"`
	AboutMe        string `json:"aboutMe" yaml:"aboutMe"`
	Email          string `json:"email" yaml:"email"`
	Phone          string `json:"phone" yaml:"phone"`
	Location       string `json:"location" yaml:"location"`
}

// SocialLinks are optional profile URLs. An empty string hides the link.
type SocialLinks struct {
	LinkedIn  string `json:"linkedin" yaml:"linkedin"`
	Instagram string `json:"instagram" yaml:"instagram"`
	Facebook  string `json:"facebook" yaml:"facebook"`
	Twitter   string `json:"twitter" yaml:"twitter"`
	GitHub    string `json:"github" yaml:"github"`
}

// SetField assigns a field by its JSON name.
func (p *PersonalInfo) SetField(field, value string) error {
	ptr, ok := map[string]*string{
		"name":           &p.Name,
		"jobTitle":       &p.JobTitle,
		"profilePicture": &p.ProfilePicture,
		"coverPhoto":     &p.CoverPhoto,
		"aboutMe":        &p.AboutMe,
		"email":          &p.Email,
		"phone":          &p.Phone,
		"location":       &p.Location,
	}[field]
	if !ok {
		return fmt.Errorf("unknown personal info field %q", field)
	}
	*ptr = value
	return nil
}

// SetField assigns a link by its JSON name.
func (s *SocialLinks) SetField(field, value string) error {
	ptr, ok := map[string]*string{
		"linkedin":  &s.LinkedIn,
		"instagram": &s.Instagram,
		"facebook":  &s.Facebook,
		"twitter":   &s.Twitter,
		"github":    &s.GitHub,
	}[field]
	if !ok {
		return fmt.Errorf("unknown social link %q", field)
	}
	*ptr = value
	return nil
}

// Clone returns a deep copy.
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	out := *p
	out.Experience = make([]Experience, len(p.Experience))
	for i, e := range p.Experience {
		out.Experience[i] = e.clone()
	}
	out.Certifications = append([]Certification{}, p.Certifications...)
	out.Skills = append([]Skill{}, p.Skills...)
	if p.Documents != nil {
		d := *p.Documents
		out.Documents = &d
	}
	if p.UpdatedAt != nil {
		ts := *p.UpdatedAt
		out.UpdatedAt = &ts
	}
	return &out
}

// Items returns the list as generic items.
func (p *Portfolio) Items(list ListName) []Item {
	var out []Item
	switch list {
	case ListExperience:
		for _, e := range p.Experience {
			out = append(out, e.clone())
		}
	case ListCertifications:
		for _, c := range p.Certifications {
			out = append(out, c)
		}
	case ListSkills:
		for _, s := range p.Skills {
			out = append(out, s)
		}
	}
	return out
}

// SetItems replaces the list. Items of the wrong concrete type are skipped.
func (p *Portfolio) SetItems(list ListName, items []Item) {
	switch list {
	case ListExperience:
		p.Experience = make([]Experience, 0, len(items))
		for _, it := range items {
			if e, ok := it.(Experience); ok {
				p.Experience = append(p.Experience, e.clone())
			}
		}
	case ListCertifications:
		p.Certifications = make([]Certification, 0, len(items))
		for _, it := range items {
			if c, ok := it.(Certification); ok {
				p.Certifications = append(p.Certifications, c)
			}
		}
	case ListSkills:
		p.Skills = make([]Skill, 0, len(items))
		for _, it := range items {
			if s, ok := it.(Skill); ok {
				p.Skills = append(p.Skills, s)
			}
		}
	}
}
