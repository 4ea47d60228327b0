package inboxservice

import (
	"context"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/metrics"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/sse"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/store"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/whatsapp"
)

func errNotConfigured() error {
	return apperr.Unavailable("whatsapp_not_configured", "whatsapp integration is not configured")
}

func newMessageID() string {
	return uuid.NewString()
}

// SendInput sends a text message to a conversation's lead.
type SendInput struct {
	ConversationID int64  `json:"conversation_id"`
	Text           string `json:"text"`
}

// Validate implements validation.Validatable.
func (in SendInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ConversationID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.Text, validation.Required, validation.Length(1, 4096)),
	)
}

// WhatsAppStatus reports the connection state of the configured instance.
func (s *Service) WhatsAppStatus(ctx context.Context) (*whatsapp.ConnectionState, error) {
	if s.wa == nil {
		return nil, errNotConfigured()
	}
	st, err := s.wa.ConnectionState(ctx)
	if err != nil {
		return nil, apperr.Upstream("whatsapp_unreachable", err)
	}
	return st, nil
}

// SendWhatsApp delivers a text to the conversation phone and records it as
// a message_out event. The event carries the provider message id, or a
// generated one when the provider returns none.
func (s *Service) SendWhatsApp(ctx context.Context, clientID int64, in SendInput, actor string) (*models.ConversationEvent, error) {
	if s.wa == nil {
		return nil, errNotConfigured()
	}
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	conv, err := s.store.GetConversation(ctx, clientID, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.LeadPhone == "" {
		return nil, apperr.Invalid("conversation_without_phone", "conversation has no lead phone")
	}

	res, err := s.wa.SendText(ctx, conv.LeadPhone, in.Text)
	if err != nil {
		metrics.WhatsAppMessages.WithLabelValues("out", "error").Inc()
		s.logger.Warn("whatsapp send failed",
			slog.Int64("client_id", clientID),
			slog.Int64("conversation_id", conv.ID),
			slog.String("error", err.Error()))
		return nil, apperr.Upstream("whatsapp_send_failed", err)
	}
	metrics.WhatsAppMessages.WithLabelValues("out", "ok").Inc()

	externalID := res.Key.ID
	if externalID == "" {
		externalID = s.newID()
	}
	e := &models.ConversationEvent{
		ClientID:       clientID,
		ConversationID: conv.ID,
		Type:           models.EventMessageOut,
		Body:           in.Text,
		Actor:          actor,
		ExternalID:     externalID,
	}
	updated, err := s.store.RecordMessage(ctx, e)
	if err != nil {
		return nil, err
	}
	s.publish(clientID, sse.ConversationUpdated, updated)
	s.publishEvents([]models.ConversationEvent{*e})
	return e, nil
}

// WebhookResult summarises a processed webhook delivery.
type WebhookResult struct {
	Received   int `json:"received"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
}

// HandleWebhook files the inbound messages of an Evolution webhook payload
// under clientID. Payloads without inbound text are acknowledged with an
// empty result.
func (s *Service) HandleWebhook(ctx context.Context, clientID int64, payload []byte) (*WebhookResult, error) {
	msgs, err := whatsapp.ParseWebhook(payload)
	if err != nil {
		return nil, apperr.Invalid("invalid_webhook_payload", err.Error())
	}
	if len(msgs) == 0 {
		metrics.WhatsAppMessages.WithLabelValues("in", "ignored").Inc()
	}

	out := &WebhookResult{}
	for _, m := range msgs {
		res, err := s.store.ReceiveMessage(ctx, clientID, store.InboundMessage{
			Phone:      m.Phone,
			Name:       m.PushName,
			Text:       m.Text,
			ExternalID: m.MessageID,
			At:         m.At,
		})
		if err != nil {
			metrics.WhatsAppMessages.WithLabelValues("in", "error").Inc()
			return nil, err
		}
		if res.Duplicate {
			metrics.WhatsAppMessages.WithLabelValues("in", "duplicate").Inc()
			out.Duplicates++
			continue
		}
		metrics.WhatsAppMessages.WithLabelValues("in", "ok").Inc()
		out.Received++

		typ := sse.ConversationUpdated
		if res.Created {
			out.Created++
			typ = sse.ConversationCreated
		}
		s.publish(clientID, typ, res.Conversation)
		s.publishEvents([]models.ConversationEvent{*res.Event})
	}
	if out.Received > 0 || out.Duplicates > 0 {
		s.logger.Info("whatsapp webhook processed",
			slog.Int64("client_id", clientID),
			slog.Int("received", out.Received),
			slog.Int("created", out.Created),
			slog.Int("duplicates", out.Duplicates))
	}
	return out, nil
}
