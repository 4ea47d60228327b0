package models

import "time"

// Conversation statuses.
const (
	StatusOpen    = "open"
	StatusPending = "pending"
	StatusClosed  = "closed"
)

// ConversationStatuses lists every accepted status.
var ConversationStatuses = []any{StatusOpen, StatusPending, StatusClosed}

// Conversation event types.
const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
	EventAssigned      = "assigned"
	EventPinned        = "pinned"
	EventUnpinned      = "unpinned"
	EventRead          = "read"
	EventNote          = "note"
	EventMessageIn     = "message_in"
	EventMessageOut    = "message_out"
)

// Conversation is an inbox thread with one lead.
type Conversation struct {
	ID            int64               `json:"id"`
	ClientID      int64               `json:"client_id"`
	ContactID     *int64              `json:"contact_id"`
	LeadName      string              `json:"lead_name"`
	LeadPhone     string              `json:"lead_phone"`
	Status        string              `json:"status"`
	IsUnread      bool                `json:"is_unread"`
	IsPinned      bool                `json:"is_pinned"`
	AssignedTo    string              `json:"assigned_to"`
	LastMessage   string              `json:"last_message"`
	LastMessageAt *time.Time          `json:"last_message_at"`
	Events        []ConversationEvent `json:"events,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ConversationEvent is one entry of a conversation's audit trail.
type ConversationEvent struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"client_id"`
	ConversationID int64     `json:"conversation_id"`
	Type           string    `json:"type"`
	Body           string    `json:"body"`
	Actor          string    `json:"actor"`
	ExternalID     string    `json:"external_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
