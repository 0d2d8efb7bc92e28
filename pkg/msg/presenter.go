package msg

import "game-soul-technology/quickqueue/quickqueue-server/pkg/queue"

func NewStatusServerEvent(status *queue.Status) *StatusServerEvent {
	event := &StatusServerEvent{
		CurrentServing:       CurrentServing(status.Serving),
		Waiting:              make([]int, 0, len(status.Waiting)),
		WaitingCount:         status.WaitingCount,
		EstimatedWaitMinutes: status.EstimatedWaitMinutes,
		ServingStarted:       status.ServingStarted,
	}

	for _, ticket := range status.Waiting {
		event.Waiting = append(event.Waiting, int(ticket))
	}
	return event
}

// CurrentServing is nil when nobody is being served.
func CurrentServing(serving queue.Ticket) *int {
	if serving == queue.NoTicket {
		return nil
	}
	current := int(serving)
	return &current
}

// NewTicketServerEvent needs the engine for the wait estimate, which
// only applies to waiting tickets.
func NewTicketServerEvent(info *queue.TicketInfo, engine *queue.Engine) *TicketServerEvent {
	event := &TicketServerEvent{
		Ticket:   int(info.Ticket),
		State:    string(info.State),
		Position: info.Position,
	}

	if info.State == queue.StateWaiting {
		event.EstimatedWaitMinutes = engine.EstimateWaitMinutes(info.Position)
	}
	return event
}
