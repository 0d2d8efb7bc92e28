package client

import (
	"context"
	"encoding/json"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/msg"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/queue"
	"testing"
	"time"
)

func newTestHub() (*Hub, *queue.Engine) {
	loggerFactory := infra.NewNopLoggerFactory()
	settings := config.ProvideQueueSettings(config.CFG, nil, loggerFactory)
	settings.SetPerCustomerMinutes(5)
	engine := queue.ProvideEngine(config.CFG, settings, queue.ProvideStats(config.CFG, loggerFactory), loggerFactory)
	return ProvideHub(engine, loggerFactory), engine
}

// Clients in these tests have no connection; only the send buffer is used.
func newTestClient(hub *Hub, watching queue.Ticket) *Client {
	client := NewClient(nil, hub, "127.0.0.1", watching, time.Minute)
	hub.clients.Put(client.id, client)
	return client
}

func drain(client *Client) []*msg.WsMessage {
	var messages []*msg.WsMessage
	for {
		select {
		case wsMessage, ok := <-client.sendWsMessage:
			if !ok {
				return messages
			}
			messages = append(messages, wsMessage)
		default:
			return messages
		}
	}
}

func codes(messages []*msg.WsMessage) []msg.EventCode {
	result := make([]msg.EventCode, 0, len(messages))
	for _, message := range messages {
		result = append(result, message.EventCode)
	}
	return result
}

func TestHub_SendCurrent(t *testing.T) {
	t.Run("not active", func(t *testing.T) {
		hub, _ := newTestHub()
		client := newTestClient(hub, queue.NoTicket)

		hub.sendCurrent(client)

		messages := drain(client)
		if len(messages) != 1 || messages[0].EventCode != msg.NotActiveCode {
			t.Fatalf("expected a single not active message, got %v", codes(messages))
		}
	})

	t.Run("watching a ticket", func(t *testing.T) {
		hub, engine := newTestHub()
		engine.Activate("Cafe", "Alice")
		engine.IssueTicket()
		engine.IssueTicket()
		engine.IssueTicket()
		client := newTestClient(hub, 3)

		hub.sendCurrent(client)

		messages := drain(client)
		if len(messages) != 2 || messages[0].EventCode != msg.StatusCode || messages[1].EventCode != msg.TicketCode {
			t.Fatalf("expected status then ticket, got %v", codes(messages))
		}

		event := &msg.TicketServerEvent{}
		if err := json.Unmarshal(messages[1].EventData, event); err != nil {
			t.Fatalf("cannot unmarshal ticket event: %v", err)
		}
		if event.Ticket != 3 || event.Position != 3 || event.EstimatedWaitMinutes != 10 {
			t.Fatalf("unexpected ticket event %+v", event)
		}
	})

	t.Run("watching an unknown ticket", func(t *testing.T) {
		hub, engine := newTestHub()
		engine.Activate("Cafe", "Alice")
		client := newTestClient(hub, 99)

		hub.sendCurrent(client)

		if messages := drain(client); len(messages) != 1 || messages[0].EventCode != msg.StatusCode {
			t.Fatalf("expected status only, got %v", codes(messages))
		}
	})
}

func TestHub_BroadcastStatus(t *testing.T) {
	hub, engine := newTestHub()
	engine.Activate("Cafe", "Alice")
	engine.IssueTicket()
	watcher := newTestClient(hub, 1)
	board := newTestClient(hub, queue.NoTicket)

	status, err := engine.QueryStatus()
	if err != nil {
		t.Fatalf("QueryStatus returned error: %v", err)
	}
	hub.broadcastStatus(status)

	if got := codes(drain(watcher)); len(got) != 2 {
		t.Fatalf("expected status and ticket for watcher, got %v", got)
	}
	if got := codes(drain(board)); len(got) != 1 || got[0] != msg.StatusCode {
		t.Fatalf("expected status only for board, got %v", got)
	}

	engine.Deactivate()
	status.Session.Active = false
	hub.broadcastStatus(status)

	if got := codes(drain(board)); len(got) != 1 || got[0] != msg.NotActiveCode {
		t.Fatalf("expected not active after deactivate, got %v", got)
	}
}

func TestHub_NotifyCalled(t *testing.T) {
	hub, _ := newTestHub()
	called := newTestClient(hub, 4)
	other := newTestClient(hub, 5)

	hub.notifyCalled(4)

	messages := drain(called)
	if len(messages) != 1 || messages[0].EventCode != msg.CalledCode {
		t.Fatalf("expected a called message, got %v", codes(messages))
	}
	if got := drain(other); len(got) != 0 {
		t.Fatalf("expected nothing for other client, got %v", codes(got))
	}
}

func TestHub_HandleRequest(t *testing.T) {
	hub, engine := newTestHub()
	engine.Activate("Cafe", "Alice")
	engine.IssueTicket()
	client := newTestClient(hub, queue.NoTicket)

	wsMessage, err := msg.NewWsMessage(msg.WatchCode, &msg.WatchClientEvent{Ticket: 1})
	if err != nil {
		t.Fatalf("NewWsMessage returned error: %v", err)
	}
	hub.handleRequest(&ClientRequest{client: client, wsMessage: wsMessage})

	if client.watching != 1 {
		t.Fatalf("expected client to watch 1, got %v", client.watching)
	}
	if got := codes(drain(client)); len(got) != 2 {
		t.Fatalf("expected status and ticket, got %v", got)
	}

	// Unknown codes are ignored.
	hub.handleRequest(&ClientRequest{client: client, wsMessage: &msg.WsMessage{EventCode: msg.StatusCode}})
	if got := drain(client); len(got) != 0 {
		t.Fatalf("expected nothing, got %v", codes(got))
	}
}

func TestHub_SendDropsSlowClient(t *testing.T) {
	hub, _ := newTestHub()
	client := newTestClient(hub, queue.NoTicket)

	for i := 0; i < cap(client.sendWsMessage)+1; i++ {
		hub.sendNotActive(client)
	}

	if _, ok := hub.clients.Get(client.id); ok {
		t.Fatalf("expected slow client to be removed")
	}

	drain(client)
	if _, ok := <-client.sendWsMessage; ok {
		t.Fatalf("expected send channel to be closed")
	}

	// Closing twice must not panic.
	client.TryClose()
}

func TestHub_Run(t *testing.T) {
	hub, _ := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1", queue.NoTicket, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- hub.Run(ctx)
	}()

	hub.register <- client

	select {
	case wsMessage := <-client.sendWsMessage:
		if wsMessage.EventCode != msg.NotActiveCode {
			t.Fatalf("expected not active on register, got %v", wsMessage.EventCode)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the first message")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for Run to return")
	}

	if _, ok := <-client.sendWsMessage; ok {
		t.Fatalf("expected client to be closed on shutdown")
	}
}

func TestNewClient_PingPeriod(t *testing.T) {
	hub, _ := newTestHub()

	if client := NewClient(nil, hub, "127.0.0.1", queue.NoTicket, 0); client.pingPeriod != defaultPingPeriod {
		t.Fatalf("expected default ping period, got %v", client.pingPeriod)
	}
	if client := NewClient(nil, hub, "127.0.0.1", queue.NoTicket, -time.Second); client.pingPeriod != defaultPingPeriod {
		t.Fatalf("expected default ping period, got %v", client.pingPeriod)
	}
	if client := NewClient(nil, hub, "127.0.0.1", queue.NoTicket, time.Second); client.pingPeriod != time.Second {
		t.Fatalf("expected configured ping period, got %v", client.pingPeriod)
	}
}
