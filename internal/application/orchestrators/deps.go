package orchestrators

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Cross-cutting orchestrator errors.
var (
	ErrForbidden = errors.New("you do not have permission to do that")
)

// Actor identifies who is performing an operation.
type Actor struct {
	AccountID string
	Role      string
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}

func nowOrDefault(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}

func newID(gen func() string) string {
	if gen == nil {
		return uuid.New().String()
	}
	return gen()
}
