package models

import "time"

// MaxMessageLength is the longest message text accepted, in characters
const MaxMessageLength = 4000

// Message is one entry of a conversation's message log
type Message struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversationId"`
	SenderID       int       `json:"senderId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PostMessageRequest is the body of a new message
type PostMessageRequest struct {
	Text string `json:"text"`
}

const (
	// EventMessageCreated is published to both participants after a message is stored
	EventMessageCreated = "message.created"
	// EventError answers a WebSocket frame that could not be posted
	EventError = "error"
)

// Event is the envelope pushed to user channels and WebSocket clients
type Event struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// InboundFrame is a message sent by a WebSocket client
type InboundFrame struct {
	ConversationID int    `json:"conversation_id"`
	Text           string `json:"text"`
}
