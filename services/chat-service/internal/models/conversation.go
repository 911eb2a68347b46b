package models

import (
	"time"

	"github.com/genzone/backend/libs/pagination"
)

// Conversation is a direct conversation between two users.
// The pair is stored in canonical order so that (a, b) and (b, a) are the same row.
type Conversation struct {
	ID          int       `json:"id"`
	InitiatorID int       `json:"initiatorId"`
	ReceiverID  int       `json:"receiverId"`
	UserLowID   int       `json:"-"`
	UserHighID  int       `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CanonicalPair orders two user ids as (low, high)
func CanonicalPair(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// NewConversation builds an unsaved conversation started by initiatorID
func NewConversation(initiatorID, receiverID int) *Conversation {
	low, high := CanonicalPair(initiatorID, receiverID)
	return &Conversation{
		InitiatorID: initiatorID,
		ReceiverID:  receiverID,
		UserLowID:   low,
		UserHighID:  high,
	}
}

// HasParticipant reports whether userID is one of the two participants
func (c *Conversation) HasParticipant(userID int) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// OtherParticipant returns the participant that is not userID
func (c *Conversation) OtherParticipant(userID int) int {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// ConversationSummary is a conversation as shown in a user's conversation list
type ConversationSummary struct {
	ID          int         `json:"id"`
	Initiator   UserSummary `json:"initiator"`
	Receiver    UserSummary `json:"receiver"`
	LastMessage *Message    `json:"lastMessage"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ConversationDetail is a conversation with one page of its messages, newest first
type ConversationDetail struct {
	ID        int                       `json:"id"`
	Initiator UserSummary               `json:"initiator"`
	Receiver  UserSummary               `json:"receiver"`
	Messages  *pagination.Page[Message] `json:"messages"`
}

// StartConversationRequest names the other participant by email
type StartConversationRequest struct {
	Email string `json:"email"`
}
