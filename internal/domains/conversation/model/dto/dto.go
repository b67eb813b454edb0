package dto

import (
	"reservo/internal/domains/conversation/model"
)

const (
	EventStart = "start"
	EventToken = "token"
	EventTable = "table"
	EventEnd   = "end"
	EventError = "error"
)

type ChatMessage struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"max=2000"`
}

type ChatRequest struct {
	SessionID   string        `json:"session_id"   validate:"omitempty,uuid"`
	UserInput   string        `json:"user_input"   validate:"required,max=2000"`
	ChatHistory []ChatMessage `json:"chat_history" validate:"omitempty,max=50,dive"`
}

// History converts the client supplied transcript into session messages.
func (r ChatRequest) History() []model.Message {
	res := make([]model.Message, 0, len(r.ChatHistory))

	for _, msg := range r.ChatHistory {
		res = append(res, model.Message{Role: msg.Role, Content: msg.Content})
	}

	return res
}

// Event is one server-sent event. Content is a string for token and error
// events and an object for the others.
type Event struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

type SessionContent struct {
	SessionID   string `json:"session_id"`
	State       string `json:"state,omitempty"`
	BookingCode string `json:"booking_code,omitempty"`
}

func Token(text string) Event {
	return Event{Type: EventToken, Content: text}
}

func Error(message string) Event {
	return Event{Type: EventError, Content: message}
}
