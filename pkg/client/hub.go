package client

import (
	"context"
	"encoding/json"
	"errors"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/msg"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/queue"

	"github.com/emirpasic/gods/maps/hashmap"
	"go.uber.org/zap"
)

type ClientRequest struct {
	client    *Client
	wsMessage *msg.WsMessage
}

// Hub fans queue changes out to websocket clients. Clients map and the
// watched ticket of each client are only touched by the Run goroutine.
type Hub struct {
	// Registered clients. Key value: client.id -> client.
	clients *hashmap.Map

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Ws message from clients.
	wsRequest chan *ClientRequest

	engine *queue.Engine

	logger *zap.SugaredLogger
}

func ProvideHub(engine *queue.Engine, loggerFactory *infra.LoggerFactory) *Hub {
	return &Hub{
		clients: hashmap.New(),

		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		wsRequest:  make(chan *ClientRequest, 1024),

		engine: engine,
		logger: loggerFactory.Create("Hub").Sugar(),
	}
}

func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for _, value := range h.clients.Values() {
				h.removeClient(value.(*Client))
			}
			return nil

		case client := <-h.register:
			h.logger.Debugf("register client id[%v] ip[%v] ticket[%v]", client.id, client.ip, client.watching)
			h.clients.Put(client.id, client)
			h.sendCurrent(client)

		case client := <-h.unregister:
			h.logger.Debugf("unregister client id[%v]", client.id)
			if _, ok := h.clients.Get(client.id); !ok {
				continue
			}
			h.removeClient(client)

		case req := <-h.wsRequest:
			h.handleRequest(req)

		case status := <-h.engine.NotifyStatus:
			h.broadcastStatus(status)

		case ticket := <-h.engine.NotifyCalled:
			h.notifyCalled(ticket)
		}
	}
}

func (h *Hub) handleRequest(req *ClientRequest) {
	// Dropped clients may still have messages in flight.
	if _, ok := h.clients.Get(req.client.id); !ok {
		return
	}

	switch req.wsMessage.EventCode {
	case msg.WatchCode:
		event := &msg.WatchClientEvent{}
		if err := json.Unmarshal(req.wsMessage.EventData, event); err != nil {
			h.logger.Errorf("id[%v] %v", req.client.id, err)
			return
		}

		req.client.watching = queue.Ticket(event.Ticket)
		h.logger.Debugf("client id[%v] watches ticket[%v]", req.client.id, req.client.watching)
		h.sendCurrent(req.client)

	default:
		h.logger.Errorf("id[%v] invalid eventCode[%v]", req.client.id, req.wsMessage.EventCode)
	}
}

// Sends status, and ticket state if watching, to one client. Used
// right after a client registers or changes its ticket.
func (h *Hub) sendCurrent(client *Client) {
	status, err := h.engine.QueryStatus()
	if err != nil {
		h.sendNotActive(client)
		return
	}

	h.sendStatus(client, status)
}

func (h *Hub) broadcastStatus(status *queue.Status) {
	h.logger.Debugf("broadcast status serving[%v] waitingCount[%v] clients[%v]", status.Serving, status.WaitingCount, h.clients.Size())

	for _, value := range h.clients.Values() {
		client := value.(*Client)
		if !status.Session.Active {
			h.sendNotActive(client)
			continue
		}
		h.sendStatus(client, status)
	}
}

func (h *Hub) sendStatus(client *Client, status *queue.Status) {
	wsMessage, err := msg.NewWsMessage(msg.StatusCode, msg.NewStatusServerEvent(status))
	if err != nil {
		h.logger.Errorf("%v", err)
		return
	}
	if !h.send(client, wsMessage) || client.watching == queue.NoTicket {
		return
	}

	info, err := h.engine.QueryTicket(client.watching)
	if err != nil {
		if !errors.Is(err, queue.ErrNotFound) {
			h.logger.Warnf("cannot query ticket[%v] for client id[%v] %v", client.watching, client.id, err)
		}
		return
	}

	wsMessage, err = msg.NewWsMessage(msg.TicketCode, msg.NewTicketServerEvent(info, h.engine))
	if err != nil {
		h.logger.Errorf("%v", err)
		return
	}
	h.send(client, wsMessage)
}

func (h *Hub) sendNotActive(client *Client) {
	wsMessage, err := msg.NewWsMessage(msg.NotActiveCode, nil)
	if err != nil {
		h.logger.Errorf("%v", err)
		return
	}
	h.send(client, wsMessage)
}

func (h *Hub) notifyCalled(ticket queue.Ticket) {
	wsMessage, err := msg.NewWsMessage(msg.CalledCode, &msg.CalledServerEvent{Ticket: int(ticket)})
	if err != nil {
		h.logger.Errorf("%v", err)
		return
	}

	for _, value := range h.clients.Values() {
		client := value.(*Client)
		if client.watching != ticket {
			continue
		}
		h.logger.Infof("notify called ticket[%v] client id[%v]", ticket, client.id)
		h.send(client, wsMessage)
	}
}

// If the client's send buffer is full, the hub assumes the client is
// dead or stuck and drops it. Returns false once the client is gone.
func (h *Hub) send(client *Client, wsMessage *msg.WsMessage) bool {
	select {
	case client.sendWsMessage <- wsMessage:
		return true
	default:
		h.logger.Warnf("id[%v] send channel is full, closing it", client.id)
		h.removeClient(client)
		return false
	}
}

func (h *Hub) removeClient(client *Client) {
	h.clients.Remove(client.id)
	client.TryClose()
}
