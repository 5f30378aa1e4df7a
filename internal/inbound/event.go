package inbound

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// ErrInvalidSignature is returned when the webhook signature does not match
// the body. It is the only error the callback surfaces to the platform.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Envelope carries what every handled event has.
type Envelope struct {
	// ReplyToken is single-use and short-lived.
	ReplyToken string
	// SourceID identifies the user (or group/room) the event came from.
	SourceID string
}

// Event is one of TextMessageEvent or PostbackEvent. The unexported method
// closes the set so Dispatch can switch over it exhaustively.
type Event interface {
	envelope() Envelope
}

// TextMessageEvent is a user typing a text message.
type TextMessageEvent struct {
	Envelope
	Text string
}

// PostbackEvent is a user tapping a predefined control.
type PostbackEvent struct {
	Envelope
}

func (e TextMessageEvent) envelope() Envelope { return e.Envelope }
func (e PostbackEvent) envelope() Envelope    { return e.Envelope }

// Parse verifies signature against body with the channel secret and decodes
// the handled events. Unsupported event and message types are dropped.
func Parse(channelSecret, signature string, body []byte) ([]Event, error) {
	if channelSecret == "" || signature == "" || !webhook.ValidateSignature(channelSecret, signature, body) {
		return nil, ErrInvalidSignature
	}
	var cb webhook.CallbackRequest
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}
	events := make([]Event, 0, len(cb.Events))
	for _, raw := range cb.Events {
		if ev, ok := convert(raw); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func convert(raw webhook.EventInterface) (Event, bool) {
	switch e := raw.(type) {
	case webhook.MessageEvent:
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			return nil, false
		}
		return TextMessageEvent{
			Envelope: Envelope{ReplyToken: e.ReplyToken, SourceID: sourceID(e.Source)},
			Text:     text.Text,
		}, true
	case webhook.PostbackEvent:
		return PostbackEvent{
			Envelope: Envelope{ReplyToken: e.ReplyToken, SourceID: sourceID(e.Source)},
		}, true
	default:
		return nil, false
	}
}

func sourceID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	default:
		return ""
	}
}
