package queue

import (
	"context"
	"fmt"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"sync"
	"time"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"go.uber.org/zap"
)

// Engine holds the whole state of one business's queue. All methods
// are safe for concurrent use; a single lock makes issuing, serving
// and removal mutually exclusive so ticket numbers are never handed
// out twice.
//
// Tickets are served in ascending numeric order. Since numbers are
// issued from a counter this is arrival order, except for recalled
// tickets which get back ahead of every larger number.
type Engine struct {
	// Notify current status of the queue after every change and
	// periodically while active.
	NotifyStatus chan *Status

	// Notify a ticket that has just become the serving cursor.
	NotifyCalled chan Ticket

	lock sync.Mutex

	session Session

	nextTicket Ticket

	// Outstanding tickets ordered by number. The serving cursor stays
	// in here until it is served, removed or marked missing.
	waiting *treeset.Set

	// Tickets that completed service, in the order they were served.
	served *linkedhashset.Set

	// Tickets skipped because the customer was absent when called.
	missing *treeset.Set

	serving      Ticket
	servingSince time.Time

	stats    *Stats
	settings *config.QueueSettings

	notifyStatusInterval time.Duration
	now                  func() time.Time

	logger *zap.SugaredLogger
}

// Status is a point in time view of the queue.
type Status struct {
	Session Session

	// NoTicket when nobody is being served.
	Serving Ticket

	// Waiting tickets numerically greater than Serving, ascending. A
	// waiting ticket smaller than the cursor (possible after a recall)
	// is not listed here, so WaitingCount can differ from the raw
	// waiting set size.
	Waiting      []Ticket
	WaitingCount int

	Missing []Ticket

	// True once anybody has been called in this session.
	ServingStarted bool

	// Estimated wait for a customer joining now.
	EstimatedWaitMinutes int
}

func ticketComparator(a, b interface{}) int {
	return utils.IntComparator(int(a.(Ticket)), int(b.(Ticket)))
}

func ProvideEngine(config *config.Config, settings *config.QueueSettings, stats *Stats, loggerFactory *infra.LoggerFactory) *Engine {
	return &Engine{
		NotifyStatus: make(chan *Status, 1024),
		NotifyCalled: make(chan Ticket, 1024),

		nextTicket: firstTicket,
		waiting:    treeset.NewWith(ticketComparator),
		served:     linkedhashset.New(),
		missing:    treeset.NewWith(ticketComparator),

		stats:    stats,
		settings: settings,

		notifyStatusInterval: time.Duration(*config.NotifyStatusIntervalSeconds) * time.Second,
		now:                  time.Now,

		logger: loggerFactory.Create("Engine").Sugar(),
	}
}

// Run publishes the status periodically until ctx is done, so that
// wait estimates on connected screens stay fresh.
func (e *Engine) Run(ctx context.Context) error {
	if e.notifyStatusInterval <= 0 {
		return fmt.Errorf("invalid notifyStatusInterval[%v]", e.notifyStatusInterval)
	}

	ticker := time.NewTicker(e.notifyStatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.lock.Lock()
			if e.session.Active {
				e.publishStatus()
			}
			e.lock.Unlock()
		}
	}
}

// Activate starts a new session. Any previous state is discarded,
// even when the queue is already active.
func (e *Engine) Activate(businessName, operator string) Session {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.session = newSession(businessName, operator, e.now())
	e.nextTicket = firstTicket
	e.waiting.Clear()
	e.served.Clear()
	e.missing.Clear()
	e.serving = NoTicket
	e.servingSince = time.Time{}
	e.stats.reset()

	e.logger.Infof("activated session[%+v]", e.session)
	e.publishStatus()
	return e.session
}

// Deactivate stops the session. Collections are kept for reporting
// but every operation fails with ErrNotActive until Activate.
func (e *Engine) Deactivate() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return
	}

	e.session.Active = false
	e.logger.Infof("deactivated session id[%v] waiting[%v] served[%v]", e.session.ID, e.waiting.Size(), e.served.Size())
	e.publishStatus()
}

// IssueTicket hands a new number to a customer joining by themselves.
// The position counts every waiting ticket before it, the one being
// served included.
func (e *Engine) IssueTicket() (Ticket, int, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return NoTicket, 0, ErrNotActive
	}

	ticket := e.push()
	position := e.positionOf(ticket)
	e.logger.Infof("issued ticket[%v] position[%v]", ticket, position)

	e.publishStatus()
	return ticket, position, nil
}

// AddManualTicket adds a walk-in on behalf of the admin.
func (e *Engine) AddManualTicket() (Ticket, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return NoTicket, ErrNotActive
	}

	ticket := e.push()
	e.logger.Infof("added manual ticket[%v]", ticket)

	e.publishStatus()
	return ticket, nil
}

// ServeNext completes the ticket being served and calls the smallest
// remaining one. Returns the new cursor, NoTicket if the line is empty.
func (e *Engine) ServeNext() (Ticket, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return NoTicket, ErrNotActive
	}

	if e.serving != NoTicket {
		done := e.serving
		e.waiting.Remove(done)
		e.served.Add(done)
		e.stats.recordServed(e.now().Sub(e.servingSince))
		e.logger.Infof("served ticket[%v]", done)
	}

	e.advance()
	e.publishStatus()
	return e.serving, nil
}

// RemoveTicket drops a ticket from the line for good. Unknown tickets
// are ignored. Removing the ticket being served calls the next one
// without counting the removed one as served.
func (e *Engine) RemoveTicket(ticket Ticket) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return ErrNotActive
	}

	if !e.waiting.Contains(ticket) && !e.missing.Contains(ticket) {
		return nil
	}

	e.waiting.Remove(ticket)
	e.missing.Remove(ticket)
	e.logger.Infof("removed ticket[%v]", ticket)

	if ticket == e.serving {
		e.advance()
	}

	e.publishStatus()
	return nil
}

// MarkMissing sets aside a waiting ticket whose customer is absent.
// Missing tickets keep their number and can be recalled.
func (e *Engine) MarkMissing(ticket Ticket) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return ErrNotActive
	}

	if !e.waiting.Contains(ticket) {
		return ErrNotFound
	}

	e.waiting.Remove(ticket)
	e.missing.Add(ticket)
	e.logger.Infof("marked missing ticket[%v]", ticket)

	if ticket == e.serving {
		e.advance()
	}

	e.publishStatus()
	return nil
}

// RecallTicket puts a missing ticket back in line. Its number is kept,
// so it is served before every larger waiting ticket.
func (e *Engine) RecallTicket(ticket Ticket) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return ErrNotActive
	}

	if !e.missing.Contains(ticket) {
		return ErrNotFound
	}

	e.missing.Remove(ticket)
	e.waiting.Add(ticket)
	e.logger.Infof("recalled ticket[%v]", ticket)

	e.publishStatus()
	return nil
}

func (e *Engine) QueryStatus() (*Status, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return nil, ErrNotActive
	}

	return e.status(), nil
}

// QueryTicket reports the state of ticket together with the serving
// cursor seen at the same moment.
func (e *Engine) QueryTicket(ticket Ticket) (*TicketInfo, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.session.Active {
		return nil, ErrNotActive
	}

	info := &TicketInfo{Ticket: ticket, Serving: e.serving}
	switch {
	case e.served.Contains(ticket):
		info.State = StateServed
	case ticket != NoTicket && ticket == e.serving:
		info.State = StateServing
	case e.missing.Contains(ticket):
		info.State = StateMissing
	case e.waiting.Contains(ticket):
		info.State = StateWaiting
		info.Position = e.positionOf(ticket)
	default:
		return nil, ErrNotFound
	}
	return info, nil
}

// EstimateWaitMinutes estimates the wait at position with the current
// per customer minutes.
func (e *Engine) EstimateWaitMinutes(position int) int {
	return EstimateWaitMinutes(position, e.settings.PerCustomerMinutes())
}

// Session returns the current or last session. Works while inactive.
func (e *Engine) Session() Session {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.session
}

func (e *Engine) Stats() StatsSnapshot {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.stats.snapshot()
}

// EstimateWaitMinutes is the wait for the customer at a 1-based
// position when each customer before takes perCustomerMinutes.
func EstimateWaitMinutes(position, perCustomerMinutes int) int {
	return max(0, (position-1)*perCustomerMinutes)
}

func (e *Engine) push() Ticket {
	ticket := e.nextTicket
	e.nextTicket++
	e.waiting.Add(ticket)
	e.stats.incrIssued()
	return ticket
}

// Moves the cursor to the smallest waiting ticket.
func (e *Engine) advance() {
	e.serving = NoTicket
	e.servingSince = e.now()

	it := e.waiting.Iterator()
	if !it.First() {
		e.logger.Infof("nobody waiting, serving cursor cleared")
		return
	}

	e.serving = it.Value().(Ticket)
	e.logger.Infof("now serving ticket[%v]", e.serving)

	select {
	case e.NotifyCalled <- e.serving:
	default:
		e.logger.Warnf("notifyCalled channel is full, drop ticket[%v]", e.serving)
	}
}

// Number of waiting tickets smaller than ticket, plus one.
func (e *Engine) positionOf(ticket Ticket) int {
	position := 1
	it := e.waiting.Iterator()
	for it.Next() {
		if it.Value().(Ticket) >= ticket {
			break
		}
		position++
	}
	return position
}

func (e *Engine) status() *Status {
	status := &Status{
		Session:        e.session,
		Serving:        e.serving,
		Waiting:        []Ticket{},
		Missing:        []Ticket{},
		ServingStarted: e.serving != NoTicket || !e.served.Empty(),
	}

	it := e.waiting.Iterator()
	for it.Next() {
		if ticket := it.Value().(Ticket); ticket > e.serving {
			status.Waiting = append(status.Waiting, ticket)
		}
	}
	status.WaitingCount = len(status.Waiting)

	for _, value := range e.missing.Values() {
		status.Missing = append(status.Missing, value.(Ticket))
	}

	status.EstimatedWaitMinutes = EstimateWaitMinutes(status.WaitingCount+1, e.settings.PerCustomerMinutes())
	return status
}

func (e *Engine) publishStatus() {
	select {
	case e.NotifyStatus <- e.status():
	default:
		e.logger.Warnf("notifyStatus channel is full, drop status")
	}
}
