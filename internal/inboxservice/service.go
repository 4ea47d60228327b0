// Package inboxservice manages conversations, their event trail and the
// WhatsApp channel, and publishes every change to the tenant's event stream.
package inboxservice

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/metrics"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/sse"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/store"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/whatsapp"
)

// Publisher receives inbox changes. *sse.Broker implements it.
type Publisher interface {
	PublishChange(event sse.Event)
}

// Sender is the outbound WhatsApp channel. *whatsapp.Client implements it.
type Sender interface {
	SendText(ctx context.Context, phone, text string) (*whatsapp.SendResult, error)
	ConnectionState(ctx context.Context) (*whatsapp.ConnectionState, error)
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the change publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithSender enables the WhatsApp channel.
func WithSender(wa Sender) Option {
	return func(s *Service) { s.wa = wa }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithIDGenerator overrides how fallback message ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service coordinates inbox operations.
type Service struct {
	store  *store.Store
	pub    Publisher
	wa     Sender
	logger *slog.Logger
	newID  func() string
}

// NewService creates a new inbox service.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, logger: slog.Default(), newID: newMessageID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListParams filters ListConversations.
type ListParams struct {
	Status string
	Unread *bool
	Query  string
	Limit  int
	Offset int
}

// Validate implements validation.Validatable.
func (p ListParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Status, validation.In(models.ConversationStatuses...)),
	)
}

// ConversationInput creates a conversation.
type ConversationInput struct {
	LeadName   string `json:"lead_name" example:"Ana"`
	LeadPhone  string `json:"lead_phone" example:"5511999990000"`
	ContactID  *int64 `json:"contact_id,omitempty"`
	Status     string `json:"status,omitempty" example:"open"`
	AssignedTo string `json:"assigned_to,omitempty"`
}

// Validate implements validation.Validatable.
func (in ConversationInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.LeadName, validation.Length(0, 200)),
		validation.Field(&in.LeadPhone, validation.Length(0, 32)),
		validation.Field(&in.ContactID, validation.Min(int64(1))),
		validation.Field(&in.Status, validation.In(models.ConversationStatuses...)),
		validation.Field(&in.AssignedTo, validation.Length(0, 200)),
	)
}

// PatchInput changes conversation state. Absent fields are left untouched.
type PatchInput struct {
	Status     *string `json:"status,omitempty"`
	IsUnread   *bool   `json:"is_unread,omitempty"`
	IsPinned   *bool   `json:"is_pinned,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	LeadName   *string `json:"lead_name,omitempty"`
}

// Validate implements validation.Validatable.
func (in PatchInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Status, validation.NilOrNotEmpty, validation.In(models.ConversationStatuses...)),
		validation.Field(&in.AssignedTo, validation.Length(0, 200)),
		validation.Field(&in.LeadName, validation.Length(0, 200)),
	)
}

// EventInput appends a manual event. Only notes can be added by hand.
type EventInput struct {
	Type  string `json:"type,omitempty" example:"note"`
	Body  string `json:"body"`
	Actor string `json:"actor,omitempty"`
}

// Validate implements validation.Validatable.
func (in EventInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Type, validation.In(models.EventNote)),
		validation.Field(&in.Body, validation.Required, validation.Length(1, 10000)),
		validation.Field(&in.Actor, validation.Length(0, 200)),
	)
}

// ListConversations returns a page of conversations.
func (s *Service) ListConversations(ctx context.Context, clientID int64, p ListParams) ([]models.Conversation, int, error) {
	if err := apperr.Validation(p.Validate()); err != nil {
		return nil, 0, err
	}
	return s.store.ListConversations(ctx, clientID, store.ConversationFilter{
		Status: p.Status,
		Unread: p.Unread,
		Query:  strings.TrimSpace(p.Query),
		Page:   store.Page{Limit: p.Limit, Offset: p.Offset},
	})
}

// GetConversation returns one conversation with its events.
func (s *Service) GetConversation(ctx context.Context, clientID, id int64) (*models.Conversation, error) {
	return s.store.GetConversation(ctx, clientID, id)
}

// Stats summarises the tenant's inbox.
func (s *Service) Stats(ctx context.Context, clientID int64) (*store.InboxStats, error) {
	return s.store.InboxStats(ctx, clientID)
}

// CreateConversation opens a conversation.
func (s *Service) CreateConversation(ctx context.Context, clientID int64, in ConversationInput, actor string) (*models.Conversation, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	c := &models.Conversation{
		ClientID:   clientID,
		ContactID:  in.ContactID,
		LeadName:   strings.TrimSpace(in.LeadName),
		LeadPhone:  whatsapp.FormatPhone(in.LeadPhone),
		Status:     in.Status,
		AssignedTo: in.AssignedTo,
	}
	events, err := s.store.CreateConversation(ctx, c, actor)
	if err != nil {
		return nil, err
	}
	s.publish(clientID, sse.ConversationCreated, c)
	s.publishEvents(events)
	return c, nil
}

// UpdateConversation applies a patch and records its events.
func (s *Service) UpdateConversation(ctx context.Context, clientID, id int64, in PatchInput, actor string) (*models.Conversation, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	c, events, err := s.store.UpdateConversation(ctx, clientID, id, store.ConversationPatch{
		Status:     in.Status,
		IsUnread:   in.IsUnread,
		IsPinned:   in.IsPinned,
		AssignedTo: in.AssignedTo,
		LeadName:   in.LeadName,
	}, actor)
	if err != nil {
		return nil, err
	}
	s.publish(clientID, sse.ConversationUpdated, c)
	s.publishEvents(events)
	return c, nil
}

// MarkRead clears the unread flag.
func (s *Service) MarkRead(ctx context.Context, clientID, id int64, actor string) (*models.Conversation, error) {
	read := false
	return s.UpdateConversation(ctx, clientID, id, PatchInput{IsUnread: &read}, actor)
}

// ListEvents returns the conversation's event trail.
func (s *Service) ListEvents(ctx context.Context, clientID, id int64) ([]models.ConversationEvent, error) {
	return s.store.ListEvents(ctx, clientID, id)
}

// AddEvent appends a note to a conversation.
func (s *Service) AddEvent(ctx context.Context, clientID, id int64, in EventInput, actor string) (*models.ConversationEvent, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	if in.Actor != "" {
		actor = in.Actor
	}
	e := &models.ConversationEvent{
		ClientID:       clientID,
		ConversationID: id,
		Type:           models.EventNote,
		Body:           in.Body,
		Actor:          actor,
	}
	if err := s.store.AppendEvent(ctx, e); err != nil {
		return nil, err
	}
	s.publishEvents([]models.ConversationEvent{*e})
	return e, nil
}

func (s *Service) publish(clientID int64, typ string, data any) {
	if s.pub == nil {
		return
	}
	s.pub.PublishChange(sse.Event{ClientID: clientID, Type: typ, Data: data})
}

func (s *Service) publishEvents(events []models.ConversationEvent) {
	for _, e := range events {
		metrics.ConversationEvents.WithLabelValues(e.Type).Inc()
		s.publish(e.ClientID, sse.ConversationEvent, e)
	}
}
