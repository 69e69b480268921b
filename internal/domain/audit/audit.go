package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by the part of the practice they touch.
type Category string

const (
	CategoryAccount     Category = "account"
	CategoryCatalog     Category = "catalog"
	CategoryAdvice      Category = "advice"
	CategoryAppointment Category = "appointment"
	CategorySecurity    Category = "security"
	CategorySystem      Category = "system"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAccount, CategoryCatalog, CategoryAdvice, CategoryAppointment, CategorySecurity, CategorySystem,
}

// Action is what happened to the resource.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionPublish   Action = "publish"
	ActionBook      Action = "book"
	ActionCancel    Action = "cancel"
	ActionComplete  Action = "complete"
	ActionRetry     Action = "retry"
	ActionAbandon   Action = "abandon"
	ActionLogin     Action = "login"
	ActionLoginFail Action = "login_failed"
	ActionLogout    Action = "logout"
)

// Severity ranks events for the audit trail filter.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Domain errors
var (
	ErrEmptyCategory   = errors.New("audit event category cannot be empty")
	ErrEmptyAction     = errors.New("audit event action cannot be empty")
	ErrInvalidSeverity = errors.New("audit event severity must be one of: info, warning, critical")
	ErrNotFound        = errors.New("audit event not found")
)

// Event is a single audit trail entry.
type Event struct {
	ID           string
	Timestamp    time.Time
	Category     Category
	Action       Action
	Severity     Severity
	ActorID      string
	ActorEmail   string
	ActorRole    string
	ResourceType string
	ResourceID   string
	Description  string
	IPAddress    string
	UserAgent    string
}

// NewEvent starts an info event for actorID at now.
// PRE: category and action are non-empty
// POST: Returns an Event with a fresh ID
func NewEvent(now time.Time, actorID, actorEmail, actorRole string, category Category, action Action) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		ActorRole:  actorRole,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets the resource the event concerns.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the human readable summary.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets the client address and user agent.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	if len(userAgent) > maxUserAgentLength {
		userAgent = userAgent[:maxUserAgentLength]
	}
	e.UserAgent = userAgent
	return e
}

const maxUserAgentLength = 256

// Validate checks if the Event has valid data.
// PRE: Event struct is populated
// POST: Returns nil if valid, error otherwise
func (e Event) Validate() error {
	if e.Category == "" {
		return ErrEmptyCategory
	}
	if e.Action == "" {
		return ErrEmptyAction
	}
	switch e.Severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	default:
		return ErrInvalidSeverity
	}
	return nil
}

// Actor describes who did it, falling back to "system" for unattended events.
func (e Event) Actor() string {
	switch {
	case e.ActorEmail != "":
		return e.ActorEmail
	case e.ActorID != "":
		return e.ActorID
	}
	return "system"
}
