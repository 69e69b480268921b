package advice

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Advice statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 150
	MaxSlugLength  = 80
)

// ValidStatuses contains all valid advice statuses.
var ValidStatuses = []string{StatusDraft, StatusPublished}

// Domain errors
var (
	ErrEmptyTitle       = errors.New("advice title cannot be empty")
	ErrTitleTooLong     = errors.New("advice title cannot exceed 150 characters")
	ErrEmptyBody        = errors.New("advice body cannot be empty")
	ErrInvalidSlug      = errors.New("advice slug must be lowercase letters, digits and hyphens")
	ErrInvalidStatus    = errors.New("advice status must be one of: draft, published")
	ErrAlreadyPublished = errors.New("advice is already published")
	ErrNotFound         = errors.New("advice not found")
	ErrSlugTaken        = errors.New("another article already uses this slug")
)

// Advice is an article in the public advice section.
// Body supports Markdown formatting.
type Advice struct {
	ID          string
	Title       string
	Slug        string
	Body        string
	ImageKey    string
	Status      string // draft, published
	AuthorID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt time.Time
}

// Validate checks if the Advice has valid data.
// PRE: Advice struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Advice) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(a.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(a.Body) == "" {
		return ErrEmptyBody
	}
	if !ValidSlug(a.Slug) {
		return ErrInvalidSlug
	}
	if !slices.Contains(ValidStatuses, a.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// IsPublished returns true if the article is publicly visible.
func (a Advice) IsPublished() bool {
	return a.Status == StatusPublished
}

// Publish moves the article from draft to published.
// PRE: Advice is in draft state
// POST: Status is published, PublishedAt is now
func (a *Advice) Publish(now time.Time) error {
	if a.IsPublished() {
		return ErrAlreadyPublished
	}
	a.Status = StatusPublished
	a.PublishedAt = now
	a.UpdatedAt = now
	return nil
}

// Excerpt returns the first paragraph of the body, cut at n runes.
func (a *Advice) Excerpt(n int) string {
	para, _, _ := strings.Cut(strings.TrimSpace(a.Body), "\n\n")
	para = strings.TrimLeft(para, "# ")
	if utf8.RuneCountInString(para) <= n {
		return para
	}
	return string([]rune(para)[:n]) + "…"
}

// Slugify derives a URL slug from a title.
// POST: result satisfies ValidSlug unless title has no letters or digits
func Slugify(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			hyphen = false
		case b.Len() > 0 && !hyphen:
			b.WriteByte('-')
			hyphen = true
		}
		if b.Len() >= MaxSlugLength {
			break
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ValidSlug reports whether s is a non-empty lowercase hyphenated slug.
func ValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}
