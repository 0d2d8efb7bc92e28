package msg

type EventCode uint

const (
	// Server -> client. Queue wide status.
	StatusCode EventCode = 1000

	// Server -> client. State of the ticket the client watches.
	TicketCode EventCode = 1001

	// Server -> client. The watched ticket is being called.
	CalledCode EventCode = 1002

	// Client -> server. Start or change watching a ticket.
	WatchCode EventCode = 1003

	// Server -> client. Queue is not active, client should come back
	// after activation.
	NotActiveCode EventCode = 1004
)

type StatusServerEvent struct {
	// Nil when nobody is being served.
	CurrentServing       *int  `json:"currentServing"`
	Waiting              []int `json:"waiting"`
	WaitingCount         int   `json:"waitingCount"`
	EstimatedWaitMinutes int   `json:"estimatedWaitMinutes"`
	ServingStarted       bool  `json:"servingStarted"`
}

type TicketServerEvent struct {
	Ticket               int    `json:"ticket"`
	State                string `json:"state"`
	Position             int    `json:"position"`
	EstimatedWaitMinutes int    `json:"estimatedWaitMinutes"`
}

type CalledServerEvent struct {
	Ticket int `json:"ticket"`
}

type WatchClientEvent struct {
	Ticket int `json:"ticket"`
}
