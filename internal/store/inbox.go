package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

const (
	conversationColumns = `id, client_id, contact_id, lead_name, lead_phone, status, is_unread, is_pinned, assigned_to, last_message, last_message_at, created_at, updated_at`
	eventColumns        = `id, client_id, conversation_id, type, body, actor, external_id, created_at`
)

func errConversationNotFound() error {
	return apperr.NotFound("conversation_not_found", "conversation not found")
}

func scanConversation(row scanner) (*models.Conversation, error) {
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.ClientID, &c.ContactID, &c.LeadName, &c.LeadPhone, &c.Status,
		&c.IsUnread, &c.IsPinned, &c.AssignedTo, &c.LastMessage, &c.LastMessageAt,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanEvent(row scanner) (*models.ConversationEvent, error) {
	var e models.ConversationEvent
	if err := row.Scan(&e.ID, &e.ClientID, &e.ConversationID, &e.Type, &e.Body, &e.Actor,
		&e.ExternalID, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// ConversationFilter narrows ListConversations.
type ConversationFilter struct {
	Status string
	Unread *bool
	Query  string
	Page   Page
}

// ListConversations returns a page of conversations, pinned first and then
// by most recent activity.
func (s *Store) ListConversations(ctx context.Context, clientID int64, f ConversationFilter) ([]models.Conversation, int, error) {
	page := f.Page.normalize()

	where := `WHERE client_id = ?`
	args := []any{clientID}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Unread != nil {
		where += ` AND is_unread = ?`
		args = append(args, *f.Unread)
	}
	if f.Query != "" {
		where += ` AND (LOWER(lead_name) LIKE ? ESCAPE '\' OR lead_phone LIKE ? ESCAPE '\' OR LOWER(last_message) LIKE ? ESCAPE '\')`
		p := likePattern(f.Query)
		args = append(args, p, p, p)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM conversations `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count conversations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations `+where+`
		ORDER BY is_pinned DESC, COALESCE(last_message_at, created_at) DESC, id DESC
		LIMIT ? OFFSET ?
	`, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list conversations: %w", err)
	}
	defer rows.Close()

	out := []models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan conversation: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func getConversation(ctx context.Context, q database.Querier, clientID, id int64) (*models.Conversation, error) {
	c, err := scanConversation(q.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ? AND client_id = ?`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errConversationNotFound()
		}
		return nil, fmt.Errorf("store: get conversation: %w", err)
	}
	return c, nil
}

// GetConversation returns one conversation with its events.
func (s *Store) GetConversation(ctx context.Context, clientID, id int64) (*models.Conversation, error) {
	c, err := getConversation(ctx, s.db, clientID, id)
	if err != nil {
		return nil, err
	}
	c.Events, err = listEvents(ctx, s.db, clientID, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListEvents returns the conversation's events oldest first.
func (s *Store) ListEvents(ctx context.Context, clientID, conversationID int64) ([]models.ConversationEvent, error) {
	if _, err := getConversation(ctx, s.db, clientID, conversationID); err != nil {
		return nil, err
	}
	return listEvents(ctx, s.db, clientID, conversationID)
}

func listEvents(ctx context.Context, q database.Querier, clientID, conversationID int64) ([]models.ConversationEvent, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM conversation_events WHERE client_id = ? AND conversation_id = ? ORDER BY created_at, id`,
		clientID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	out := []models.ConversationEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) insertEvent(ctx context.Context, q database.Querier, e *models.ConversationEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if err := q.QueryRowContext(ctx, `
		INSERT INTO conversation_events (client_id, conversation_id, type, body, actor, external_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, e.ClientID, e.ConversationID, e.Type, e.Body, e.Actor, e.ExternalID, e.CreatedAt).Scan(&e.ID); err != nil {
		return fmt.Errorf("store: insert event: %w", err)
	}
	return nil
}

// CreateConversation inserts c and its "created" event. A linked contact
// must belong to the tenant.
func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation, actor string) ([]models.ConversationEvent, error) {
	var events []models.ConversationEvent
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		events, err = s.createConversation(ctx, tx, c, actor)
		return err
	})
	return events, err
}

func (s *Store) createConversation(ctx context.Context, q database.Querier, c *models.Conversation, actor string) ([]models.ConversationEvent, error) {
	if c.ContactID != nil {
		if _, err := getContact(ctx, q, c.ClientID, *c.ContactID); err != nil {
			return nil, err
		}
	}
	if c.Status == "" {
		c.Status = models.StatusOpen
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := q.QueryRowContext(ctx, `
		INSERT INTO conversations (client_id, contact_id, lead_name, lead_phone, status, is_unread, is_pinned,
		                           assigned_to, last_message, last_message_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, c.ClientID, c.ContactID, c.LeadName, c.LeadPhone, c.Status, c.IsUnread, c.IsPinned,
		c.AssignedTo, c.LastMessage, c.LastMessageAt, now, now).Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("store: insert conversation: %w", err)
	}
	ev := models.ConversationEvent{
		ClientID: c.ClientID, ConversationID: c.ID, Type: models.EventCreated,
		Actor: actor, CreatedAt: now,
	}
	if err := s.insertEvent(ctx, q, &ev); err != nil {
		return nil, err
	}
	return []models.ConversationEvent{ev}, nil
}

// ConversationPatch lists the fields UpdateConversation may change. Nil
// fields are left untouched.
type ConversationPatch struct {
	Status     *string
	IsUnread   *bool
	IsPinned   *bool
	AssignedTo *string
	LeadName   *string
}

// UpdateConversation applies p and records one event per effective change.
// It returns the updated conversation and the new events.
func (s *Store) UpdateConversation(ctx context.Context, clientID, id int64, p ConversationPatch, actor string) (*models.Conversation, []models.ConversationEvent, error) {
	var (
		out    *models.Conversation
		events []models.ConversationEvent
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := getConversation(ctx, tx, clientID, id)
		if err != nil {
			return err
		}
		now := s.now()
		record := func(typ, body string) {
			events = append(events, models.ConversationEvent{
				ClientID: clientID, ConversationID: id, Type: typ, Body: body, Actor: actor, CreatedAt: now,
			})
		}

		if p.Status != nil && *p.Status != c.Status {
			record(models.EventStatusChanged, c.Status+" -> "+*p.Status)
			c.Status = *p.Status
		}
		if p.AssignedTo != nil && *p.AssignedTo != c.AssignedTo {
			record(models.EventAssigned, *p.AssignedTo)
			c.AssignedTo = *p.AssignedTo
		}
		if p.IsPinned != nil && *p.IsPinned != c.IsPinned {
			if *p.IsPinned {
				record(models.EventPinned, "")
			} else {
				record(models.EventUnpinned, "")
			}
			c.IsPinned = *p.IsPinned
		}
		if p.IsUnread != nil && *p.IsUnread != c.IsUnread {
			if !*p.IsUnread {
				record(models.EventRead, "")
			}
			c.IsUnread = *p.IsUnread
		}
		if p.LeadName != nil {
			c.LeadName = *p.LeadName
		}
		c.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET status = ?, is_unread = ?, is_pinned = ?, assigned_to = ?, lead_name = ?, updated_at = ?
			WHERE id = ?
		`, c.Status, c.IsUnread, c.IsPinned, c.AssignedTo, c.LeadName, now, id); err != nil {
			return fmt.Errorf("store: update conversation: %w", err)
		}
		for i := range events {
			if err := s.insertEvent(ctx, tx, &events[i]); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, nonNil(events), nil
}

// AppendEvent records a free-form event such as a note.
func (s *Store) AppendEvent(ctx context.Context, e *models.ConversationEvent) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getConversation(ctx, tx, e.ClientID, e.ConversationID); err != nil {
			return err
		}
		if err := s.insertEvent(ctx, tx, e); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, e.CreatedAt, e.ConversationID)
		return err
	})
}

// RecordMessage stores a message event and updates the conversation's last
// message. Inbound messages mark the conversation unread.
func (s *Store) RecordMessage(ctx context.Context, e *models.ConversationEvent) (*models.Conversation, error) {
	var out *models.Conversation
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		out, err = s.recordMessage(ctx, tx, e)
		return err
	})
	return out, err
}

func (s *Store) recordMessage(ctx context.Context, q database.Querier, e *models.ConversationEvent) (*models.Conversation, error) {
	c, err := getConversation(ctx, q, e.ClientID, e.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := s.insertEvent(ctx, q, e); err != nil {
		return nil, err
	}
	at := e.CreatedAt
	c.LastMessage, c.LastMessageAt, c.UpdatedAt = e.Body, &at, at
	if e.Type == models.EventMessageIn {
		c.IsUnread = true
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE conversations SET last_message = ?, last_message_at = ?, is_unread = ?, updated_at = ?
		WHERE id = ?
	`, c.LastMessage, at, c.IsUnread, at, c.ID); err != nil {
		return nil, fmt.Errorf("store: touch conversation: %w", err)
	}
	return c, nil
}

// InboundMessage is a message received from a lead's phone.
type InboundMessage struct {
	Phone      string
	Name       string
	Text       string
	ExternalID string
	At         time.Time
}

// InboundResult reports what ReceiveMessage did.
type InboundResult struct {
	Conversation *models.Conversation
	Event        *models.ConversationEvent
	Created      bool
	Duplicate    bool
}

// ReceiveMessage files an inbound message in one transaction: it reuses the
// newest open conversation with the phone or creates one (linking the
// contact with the same phone), then records a message_in event. A message
// whose ExternalID was already recorded is reported as a duplicate and
// not stored again; the unique index on (client_id, external_id) backs this
// up when two deliveries race.
func (s *Store) ReceiveMessage(ctx context.Context, clientID int64, m InboundMessage) (*InboundResult, error) {
	res := &InboundResult{}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if m.ExternalID != "" {
			var n int
			if err := tx.QueryRowContext(ctx,
				`SELECT count(*) FROM conversation_events WHERE client_id = ? AND external_id = ?`,
				clientID, m.ExternalID).Scan(&n); err != nil {
				return fmt.Errorf("store: check external id: %w", err)
			}
			if n > 0 {
				res.Duplicate = true
				return nil
			}
		}

		conv, err := findOpenConversationByPhone(ctx, tx, clientID, m.Phone)
		if err != nil {
			return err
		}
		if conv == nil {
			conv = &models.Conversation{ClientID: clientID, LeadName: m.Name, LeadPhone: m.Phone, Status: models.StatusOpen}
			contact, err := findContactByPhone(ctx, tx, clientID, m.Phone)
			if err != nil {
				return err
			}
			if contact != nil {
				conv.ContactID = &contact.ID
				if conv.LeadName == "" {
					conv.LeadName = contact.Name
				}
			}
			if _, err := s.createConversation(ctx, tx, conv, "whatsapp"); err != nil {
				return err
			}
			res.Created = true
		}

		ev := &models.ConversationEvent{
			ClientID: clientID, ConversationID: conv.ID, Type: models.EventMessageIn,
			Body: m.Text, Actor: m.Phone, ExternalID: m.ExternalID, CreatedAt: m.At,
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = s.now()
		}
		res.Conversation, err = s.recordMessage(ctx, tx, ev)
		if err != nil {
			if m.ExternalID != "" && database.IsUniqueViolation(err) {
				return errDuplicateDelivery
			}
			return err
		}
		res.Event = ev
		return nil
	})
	if errors.Is(err, errDuplicateDelivery) {
		// A concurrent delivery of the same message won the insert.
		return &InboundResult{Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

var errDuplicateDelivery = errors.New("store: duplicate delivery")

// FindOpenConversationByPhone returns the newest non-closed conversation
// with phone, or nil.
func (s *Store) FindOpenConversationByPhone(ctx context.Context, clientID int64, phone string) (*models.Conversation, error) {
	return findOpenConversationByPhone(ctx, s.db, clientID, phone)
}

func findOpenConversationByPhone(ctx context.Context, q database.Querier, clientID int64, phone string) (*models.Conversation, error) {
	c, err := scanConversation(q.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE client_id = ? AND lead_phone = ? AND status <> ?
		ORDER BY id DESC LIMIT 1
	`, clientID, phone, models.StatusClosed))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: find conversation by phone: %w", err)
	}
	return c, nil
}

// InboxStats summarises the tenant's inbox.
type InboxStats struct {
	Open    int `json:"open"`
	Pending int `json:"pending"`
	Closed  int `json:"closed"`
	Unread  int `json:"unread"`
}

// InboxStats counts conversations per status and unread.
func (s *Store) InboxStats(ctx context.Context, clientID int64) (*InboxStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, count(*) FROM conversations WHERE client_id = ? GROUP BY status`, clientID)
	if err != nil {
		return nil, fmt.Errorf("store: inbox stats: %w", err)
	}
	defer rows.Close()

	st := &InboxStats{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("store: scan inbox stats: %w", err)
		}
		switch status {
		case models.StatusOpen:
			st.Open = n
		case models.StatusPending:
			st.Pending = n
		case models.StatusClosed:
			st.Closed = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	st.Unread, err = countRows(ctx, s.db,
		`SELECT count(*) FROM conversations WHERE client_id = ? AND is_unread = ?`, clientID, true)
	if err != nil {
		return nil, err
	}
	return st, nil
}
