package queue

import (
	"time"

	"github.com/google/uuid"
)

// Session is one activation-to-deactivation lifetime of the queue.
type Session struct {
	ID           string    `json:"id"`
	Active       bool      `json:"active"`
	BusinessName string    `json:"businessName"`
	Operator     string    `json:"operator"`
	StartedAt    time.Time `json:"startedAt"`
}

const (
	defaultBusinessName = "Our Business"
	defaultOperator     = "Admin"
)

func newSession(businessName, operator string, now time.Time) Session {
	if businessName == "" {
		businessName = defaultBusinessName
	}
	if operator == "" {
		operator = defaultOperator
	}

	return Session{
		ID:           uuid.NewString(),
		Active:       true,
		BusinessName: businessName,
		Operator:     operator,
		StartedAt:    now,
	}
}
