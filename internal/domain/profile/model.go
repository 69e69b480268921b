package profile

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxPhoneLength = 30
)

// Domain errors
var (
	ErrEmptyAccountID = errors.New("profile account ID cannot be empty")
	ErrEmptyName      = errors.New("name cannot be empty")
	ErrNameTooLong    = errors.New("name cannot exceed 100 characters")
	ErrPhoneTooLong   = errors.New("phone cannot exceed 30 characters")
	ErrNotFound       = errors.New("profile not found")
)

// Profile holds the contact details of a client, keyed by account.
type Profile struct {
	AccountID string
	Name      string
	Phone     string
	ChildName string
	AvatarKey string
	UpdatedAt time.Time
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.AccountID) == "" {
		return ErrEmptyAccountID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(p.Phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if utf8.RuneCountInString(p.ChildName) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// DisplayName returns the name, falling back to the given email.
func (p *Profile) DisplayName(email string) string {
	if p.Name != "" {
		return p.Name
	}
	return email
}
