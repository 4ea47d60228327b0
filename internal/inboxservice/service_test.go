package inboxservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/sse"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/testutil"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/whatsapp"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) PublishChange(e sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeSender struct {
	id    string
	err   error
	phone string
	text  string
}

func (f *fakeSender) SendText(_ context.Context, phone, text string) (*whatsapp.SendResult, error) {
	f.phone, f.text = phone, text
	if f.err != nil {
		return nil, f.err
	}
	return &whatsapp.SendResult{Key: whatsapp.MessageKey{ID: f.id}}, nil
}

func (f *fakeSender) ConnectionState(context.Context) (*whatsapp.ConnectionState, error) {
	return &whatsapp.ConnectionState{Instance: "main", State: "open"}, nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	opts = append([]Option{WithPublisher(pub)}, opts...)
	return NewService(testutil.TestStore(t), opts...), pub
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "not an apperr: %v", err)
	assert.Equal(t, code, e.Code)
}

func TestCreateAndPatchPublishes(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateConversation(ctx, 1, ConversationInput{LeadName: "Ana", LeadPhone: "+55 11 9999"}, "agent")
	require.NoError(t, err)
	assert.Equal(t, "55119999", c.LeadPhone)

	pinned := true
	_, err = svc.UpdateConversation(ctx, 1, c.ID, PatchInput{IsPinned: &pinned}, "agent")
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, 1, c.ID, "agent")
	require.NoError(t, err)

	assert.Equal(t, []string{
		sse.ConversationCreated, sse.ConversationEvent,
		sse.ConversationUpdated, sse.ConversationEvent,
		sse.ConversationUpdated,
	}, pub.types())
}

func TestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bad := "archived"
	_, err := svc.UpdateConversation(ctx, 1, 1, PatchInput{Status: &bad}, "")
	requireCode(t, err, apperr.CodeValidation)

	_, _, err = svc.ListConversations(ctx, 1, ListParams{Status: "nope"})
	requireCode(t, err, apperr.CodeValidation)

	_, err = svc.AddEvent(ctx, 1, 1, EventInput{Type: models.EventMessageIn, Body: "x"}, "")
	requireCode(t, err, apperr.CodeValidation)
}

func TestAddNote(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateConversation(ctx, 1, ConversationInput{LeadName: "Bia"}, "")
	require.NoError(t, err)

	e, err := svc.AddEvent(ctx, 1, c.ID, EventInput{Body: "called back"}, "joao")
	require.NoError(t, err)
	assert.Equal(t, models.EventNote, e.Type)
	assert.Equal(t, "joao", e.Actor)

	_, err = svc.AddEvent(ctx, 2, c.ID, EventInput{Body: "x"}, "")
	requireCode(t, err, "conversation_not_found")
}

func TestSendWhatsApp(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.SendWhatsApp(ctx, 1, SendInput{ConversationID: 1, Text: "x"}, "")
		requireCode(t, err, "whatsapp_not_configured")
		assert.True(t, errors.Is(err, apperr.ErrUnavailable))
	})

	t.Run("records provider id", func(t *testing.T) {
		sender := &fakeSender{id: "PROVIDER-1"}
		svc, _ := newTestService(t, WithSender(sender))
		c, err := svc.CreateConversation(ctx, 1, ConversationInput{LeadPhone: "5511"}, "")
		require.NoError(t, err)

		e, err := svc.SendWhatsApp(ctx, 1, SendInput{ConversationID: c.ID, Text: "hello"}, "agent")
		require.NoError(t, err)
		assert.Equal(t, "PROVIDER-1", e.ExternalID)
		assert.Equal(t, models.EventMessageOut, e.Type)
		assert.Equal(t, "5511", sender.phone)

		got, err := svc.GetConversation(ctx, 1, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.LastMessage)
		assert.False(t, got.IsUnread)
	})

	t.Run("falls back to generated id", func(t *testing.T) {
		svc, _ := newTestService(t, WithSender(&fakeSender{}), WithIDGenerator(func() string { return "generated" }))
		c, err := svc.CreateConversation(ctx, 1, ConversationInput{LeadPhone: "5511"}, "")
		require.NoError(t, err)

		e, err := svc.SendWhatsApp(ctx, 1, SendInput{ConversationID: c.ID, Text: "hello"}, "")
		require.NoError(t, err)
		assert.Equal(t, "generated", e.ExternalID)
	})

	t.Run("provider failure", func(t *testing.T) {
		svc, _ := newTestService(t, WithSender(&fakeSender{err: errors.New("boom")}))
		c, err := svc.CreateConversation(ctx, 1, ConversationInput{LeadPhone: "5511"}, "")
		require.NoError(t, err)

		_, err = svc.SendWhatsApp(ctx, 1, SendInput{ConversationID: c.ID, Text: "hello"}, "")
		requireCode(t, err, "whatsapp_send_failed")
		assert.True(t, errors.Is(err, apperr.ErrUpstream))
	})
}

func TestHandleWebhook(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	payload := []byte(`{"event":"messages.upsert","instance":"main","data":{
		"key":{"remoteJid":"5511977776666@s.whatsapp.net","fromMe":false,"id":"IN-1"},
		"pushName":"Davi","message":{"conversation":"ola"}}}`)

	res, err := svc.HandleWebhook(ctx, 1, payload)
	require.NoError(t, err)
	assert.Equal(t, &WebhookResult{Received: 1, Created: 1}, res)

	res, err = svc.HandleWebhook(ctx, 1, payload)
	require.NoError(t, err)
	assert.Equal(t, &WebhookResult{Duplicates: 1}, res)

	items, total, err := svc.ListConversations(ctx, 1, ListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Davi", items[0].LeadName)
	assert.True(t, items[0].IsUnread)
	assert.Contains(t, pub.types(), sse.ConversationCreated)

	_, err = svc.HandleWebhook(ctx, 1, []byte("nope"))
	requireCode(t, err, "invalid_webhook_payload")
}
