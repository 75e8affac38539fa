package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validate validates the personal info block.
func (p PersonalInfo) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Email, is.EmailFormat),
		validation.Field(&p.ProfilePicture, is.URL),
		validation.Field(&p.CoverPhoto, is.URL),
	)
}

// Validate validates that every non-empty link is a URL.
func (s SocialLinks) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.LinkedIn, is.URL),
		validation.Field(&s.Instagram, is.URL),
		validation.Field(&s.Facebook, is.URL),
		validation.Field(&s.Twitter, is.URL),
		validation.Field(&s.GitHub, is.URL),
	)
}

// Item text limits. Blank fields are allowed so a freshly added row can be saved.
const (
	maxShortText = 200
	maxLongText  = 5000
)

// Validate validates an experience entry.
func (e Experience) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Company, validation.Length(0, maxShortText)),
		validation.Field(&e.Position, validation.Length(0, maxShortText)),
		validation.Field(&e.Description, validation.Length(0, maxLongText)),
		validation.Field(&e.Responsibilities, validation.Each(validation.Length(0, maxLongText))),
	)
}

// Validate validates a certification entry.
func (c Certification) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Length(0, maxShortText)),
		validation.Field(&c.IssuingOrg, validation.Length(0, maxShortText)),
		validation.Field(&c.CredentialID, validation.Length(0, maxShortText)),
	)
}

// Validate validates a skill entry. Levels outside [0,100] are rejected.
func (s Skill) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Length(0, maxShortText)),
		validation.Field(&s.Level, validation.Min(MinLevel), validation.Max(MaxLevel)),
	)
}

// Validate checks the document type name.
func (d DocType) Validate() error {
	return validation.Validate(string(d), validation.Required,
		validation.In(string(DocResumePDF), string(DocResumeDOCX), string(DocCoverLetterPDF), string(DocCoverLetterDOCX)))
}
