package models

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	dErrors "binoqule/pkg/domain-errors"
)

const (
	MaxNameLength      = 128
	MaxRoleLength      = 128
	MaxFocusAreaLength = 256
	MaxBioLength       = 4000
	MaxPhotoURLLength  = 2048
)

// Member is a team member (author) shown on the publication's team page.
//
// Invariants:
//   - Name, Email and Role are non-empty after trimming
//   - Email parses as a single bare address
//   - PhotoURL, when set, is an absolute http(s) URL
//   - Position is owned by the ordering manager and never set from input
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FocusArea string    `json:"focus_area,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Position  int       `json:"order_position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the editable part of a Member, passed by value from the form
// (or API body) to the service.
type Profile struct {
	Name      string
	Email     string
	Role      string
	FocusArea string
	Bio       string
	PhotoURL  string
}

// Normalize trims every field and lower-cases the email.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Role = strings.TrimSpace(p.Role)
	p.FocusArea = strings.TrimSpace(p.FocusArea)
	p.Bio = strings.TrimSpace(p.Bio)
	p.PhotoURL = strings.TrimSpace(p.PhotoURL)
}

// Validate checks the profile invariants. Call Normalize first.
func (p Profile) Validate() error {
	switch {
	case p.Name == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "name is required")
	case utf8.RuneCountInString(p.Name) > MaxNameLength:
		return dErrors.New(dErrors.CodeInvariantViolation, "name must be 128 characters or less")
	case p.Email == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "email is required")
	case p.Role == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "role is required")
	case utf8.RuneCountInString(p.Role) > MaxRoleLength:
		return dErrors.New(dErrors.CodeInvariantViolation, "role must be 128 characters or less")
	case utf8.RuneCountInString(p.FocusArea) > MaxFocusAreaLength:
		return dErrors.New(dErrors.CodeInvariantViolation, "focus_area must be 256 characters or less")
	case utf8.RuneCountInString(p.Bio) > MaxBioLength:
		return dErrors.New(dErrors.CodeInvariantViolation, "bio must be 4000 characters or less")
	case utf8.RuneCountInString(p.PhotoURL) > MaxPhotoURLLength:
		return dErrors.New(dErrors.CodeInvariantViolation, "photo_url is too long")
	}
	if addr, err := mail.ParseAddress(p.Email); err != nil || addr.Address != p.Email {
		return dErrors.New(dErrors.CodeInvariantViolation, "email is not a valid address")
	}
	if p.PhotoURL != "" {
		u, err := url.Parse(p.PhotoURL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "photo_url must be an absolute http(s) URL")
		}
	}
	return nil
}

// NewMember builds a member from a profile. The position is assigned later by
// the ordering manager.
func NewMember(id string, profile Profile, now time.Time) (*Member, error) {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	m := &Member{ID: id, CreatedAt: now, UpdatedAt: now}
	m.apply(profile)
	return m, nil
}

// Profile returns the editable fields.
func (m *Member) Profile() Profile {
	return Profile{
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		FocusArea: m.FocusArea,
		Bio:       m.Bio,
		PhotoURL:  m.PhotoURL,
	}
}

// ApplyProfile validates and replaces the editable fields. Position is untouched.
func (m *Member) ApplyProfile(profile Profile, now time.Time) error {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}
	m.apply(profile)
	m.UpdatedAt = now
	return nil
}

// Validate checks a member read back from storage.
func (m *Member) Validate() error {
	if m.ID == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "id is required")
	}
	if m.Position < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "order_position must not be negative")
	}
	return m.Profile().Validate()
}

func (m *Member) apply(p Profile) {
	m.Name = p.Name
	m.Email = p.Email
	m.Role = p.Role
	m.FocusArea = p.FocusArea
	m.Bio = p.Bio
	m.PhotoURL = p.PhotoURL
}
