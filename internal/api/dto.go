package api

import (
	"github.com/Plugtour/plugconversa-pro-sub000/internal/crmservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/inboxservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

// Request bodies (aliased from the service layer).
type (
	ContactInput      = crmservice.ContactInput
	TagsInput         = crmservice.TagsInput
	TagInput          = crmservice.TagInput
	BoardInput        = crmservice.BoardInput
	ColumnInput       = crmservice.ColumnInput
	CardInput         = crmservice.CardInput
	MoveInput         = crmservice.MoveInput
	NameInput         = flowservice.NameInput
	FlowInput         = flowservice.FlowInput
	CopyInput         = flowservice.CopyInput
	StepInput         = flowservice.StepInput
	ConversationInput = inboxservice.ConversationInput
	PatchInput        = inboxservice.PatchInput
	EventInput        = inboxservice.EventInput
	SendInput         = inboxservice.SendInput
)

// ListResponse wraps a paginated listing.
type ListResponse[T any] struct {
	Items []T `json:"items" validate:"required"`
	Total int `json:"total" example:"42" validate:"required"`
}

// ContactList is a page of contacts.
type ContactList = ListResponse[models.Contact]

// ConversationList is a page of conversations.
type ConversationList = ListResponse[models.Conversation]
