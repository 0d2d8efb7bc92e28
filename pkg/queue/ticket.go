package queue

import (
	"strconv"
	"strings"
)

// Ticket is a customer's number in line. Numbers start at 1 and are
// never reused while a session is active.
type Ticket int

// NoTicket is the serving cursor value when nobody is being served.
const NoTicket Ticket = 0

// First number handed out after activation.
const firstTicket Ticket = 1

type TicketState string

const (
	StateWaiting TicketState = "waiting"
	StateServing TicketState = "serving"
	StateServed  TicketState = "served"

	// Called but absent. Can be recalled into waiting.
	StateMissing TicketState = "missing"
)

type TicketInfo struct {
	Ticket Ticket      `json:"ticket"`
	State  TicketState `json:"state"`

	// 1-based place in line. Only set for waiting tickets; the ticket
	// being served counts as one of the tickets ahead.
	Position int `json:"position,omitempty"`

	// Serving cursor at the time of the query, taken under the same
	// lock as State.
	Serving Ticket `json:"-"`
}

// ParseTicket reads a ticket number from user input such as a path
// parameter.
func ParseTicket(raw string) (Ticket, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < int(firstTicket) {
		return NoTicket, ErrInvalidInput
	}
	return Ticket(n), nil
}

func (t Ticket) String() string {
	return strconv.Itoa(int(t))
}
