package msg

import (
	"encoding/json"
	"fmt"
)

type WsMessage struct {
	EventCode EventCode       `json:"eventCode"`
	EventData json.RawMessage `json:"eventData"`
}

// NewWsMessage marshals event as the data of a message with code.
func NewWsMessage(code EventCode, event any) (*WsMessage, error) {
	rawEvent, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal event code[%v]: %w", code, err)
	}

	return &WsMessage{
		EventCode: code,
		EventData: rawEvent,
	}, nil
}
