package store

import (
	"context"
	"fmt"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

const contactColumns = `id, client_id, name, phone, notes, created_at, updated_at`

func errContactNotFound() error {
	return apperr.NotFound("contact_not_found", "contact not found")
}

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	var c models.Contact
	if err := row.Scan(&c.ID, &c.ClientID, &c.Name, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContacts returns a page of the tenant's contacts ordered by name.
// q filters by name or phone (case-insensitive substring).
func (s *Store) ListContacts(ctx context.Context, clientID int64, q string, page Page) ([]models.Contact, int, error) {
	page = page.normalize()

	where := `WHERE client_id = ?`
	args := []any{clientID}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`
		pattern := likePattern(q)
		args = append(args, pattern, pattern)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM contacts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count contacts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts `+where+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list contacts: %w", err)
	}
	defer rows.Close()

	out := []models.Contact{}
	ids := []int64{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan contact: %w", err)
		}
		out = append(out, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	tags, err := contactTags(ctx, s.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Tags = nonNil(tags[out[i].ID])
	}
	return out, total, nil
}

// GetContact returns one contact with its tags.
func (s *Store) GetContact(ctx context.Context, clientID, id int64) (*models.Contact, error) {
	c, err := getContact(ctx, s.db, clientID, id)
	if err != nil {
		return nil, err
	}
	tags, err := contactTags(ctx, s.db, []int64{c.ID})
	if err != nil {
		return nil, err
	}
	c.Tags = nonNil(tags[c.ID])
	return c, nil
}

func getContact(ctx context.Context, q database.Querier, clientID, id int64) (*models.Contact, error) {
	c, err := scanContact(q.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ? AND client_id = ?`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errContactNotFound()
		}
		return nil, fmt.Errorf("store: get contact: %w", err)
	}
	return c, nil
}

// FindContactByPhone returns the tenant's contact with the given phone, or
// nil when there is none.
func (s *Store) FindContactByPhone(ctx context.Context, clientID int64, phone string) (*models.Contact, error) {
	return findContactByPhone(ctx, s.db, clientID, phone)
}

func findContactByPhone(ctx context.Context, q database.Querier, clientID int64, phone string) (*models.Contact, error) {
	if phone == "" {
		return nil, nil
	}
	c, err := scanContact(q.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE client_id = ? AND phone = ? ORDER BY id LIMIT 1`,
		clientID, phone))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: find contact by phone: %w", err)
	}
	return c, nil
}

// CreateContact inserts c and links tagIDs in one transaction. A non-empty
// phone must be unique per tenant.
func (s *Store) CreateContact(ctx context.Context, c *models.Contact, tagIDs []int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := ensurePhoneFree(ctx, tx, c.ClientID, c.Phone, 0); err != nil {
			return err
		}
		now := s.now()
		err := tx.QueryRowContext(ctx, `
			INSERT INTO contacts (client_id, name, phone, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id
		`, c.ClientID, c.Name, c.Phone, c.Notes, now, now).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("store: insert contact: %w", err)
		}
		c.CreatedAt, c.UpdatedAt = now, now
		if len(tagIDs) == 0 {
			c.Tags = []models.Tag{}
			return nil
		}
		if err := setContactTags(ctx, tx, c.ClientID, c.ID, tagIDs); err != nil {
			return err
		}
		tags, err := contactTags(ctx, tx, []int64{c.ID})
		if err != nil {
			return err
		}
		c.Tags = nonNil(tags[c.ID])
		return nil
	})
}

// UpdateContact overwrites name, phone and notes of an existing contact.
// A non-nil tagIDs replaces its tags in the same transaction.
func (s *Store) UpdateContact(ctx context.Context, c *models.Contact, tagIDs []int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, err := getContact(ctx, tx, c.ClientID, c.ID)
		if err != nil {
			return err
		}
		if err := ensurePhoneFree(ctx, tx, c.ClientID, c.Phone, c.ID); err != nil {
			return err
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE contacts SET name = ?, phone = ?, notes = ?, updated_at = ?
			WHERE id = ? AND client_id = ?
		`, c.Name, c.Phone, c.Notes, now, c.ID, c.ClientID); err != nil {
			return fmt.Errorf("store: update contact: %w", err)
		}
		c.CreatedAt, c.UpdatedAt = existing.CreatedAt, now
		if tagIDs == nil {
			return nil
		}
		return setContactTags(ctx, tx, c.ClientID, c.ID, tagIDs)
	})
}

func ensurePhoneFree(ctx context.Context, q database.Querier, clientID int64, phone string, selfID int64) error {
	other, err := findContactByPhone(ctx, q, clientID, phone)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return apperr.Conflict("contact_phone_conflict", "another contact already uses this phone")
	}
	return nil
}

// DeleteContact removes a contact, its tag links, and detaches it from
// cards and conversations.
func (s *Store) DeleteContact(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getContact(ctx, tx, clientID, id); err != nil {
			return err
		}
		stmts := []string{
			`DELETE FROM contact_tags WHERE contact_id = ?`,
			`UPDATE kanban_cards SET contact_id = NULL WHERE contact_id = ?`,
			`UPDATE conversations SET contact_id = NULL WHERE contact_id = ?`,
			`DELETE FROM contacts WHERE id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("store: delete contact: %w", err)
			}
		}
		return nil
	})
}

// SetContactTags replaces the contact's tags. Every tag must belong to the tenant.
func (s *Store) SetContactTags(ctx context.Context, clientID, contactID int64, tagIDs []int64) (*models.Contact, error) {
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getContact(ctx, tx, clientID, contactID); err != nil {
			return err
		}
		return setContactTags(ctx, tx, clientID, contactID, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetContact(ctx, clientID, contactID)
}

// setContactTags replaces the tag links of an existing contact.
func setContactTags(ctx context.Context, q database.Querier, clientID, contactID int64, tagIDs []int64) error {
	tagIDs = uniqueIDs(tagIDs)
	if len(tagIDs) > 0 {
		args := append([]any{clientID}, int64Args(tagIDs)...)
		var n int
		if err := q.QueryRowContext(ctx,
			`SELECT count(*) FROM tags WHERE client_id = ? AND id IN (`+placeholders(len(tagIDs))+`)`,
			args...).Scan(&n); err != nil {
			return fmt.Errorf("store: check tags: %w", err)
		}
		if n != len(tagIDs) {
			return errTagNotFound()
		}
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM contact_tags WHERE contact_id = ?`, contactID); err != nil {
		return fmt.Errorf("store: clear contact tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO contact_tags (contact_id, tag_id) VALUES (?, ?)`, contactID, tagID); err != nil {
			return fmt.Errorf("store: link tag: %w", err)
		}
	}
	return nil
}

// contactTags loads the tags of every contact in ids, keyed by contact id.
func contactTags(ctx context.Context, q database.Querier, ids []int64) (map[int64][]models.Tag, error) {
	out := make(map[int64][]models.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT ct.contact_id, `+prefixed("t", tagColumns)+`
		FROM contact_tags ct
		JOIN tags t ON t.id = ct.tag_id
		WHERE ct.contact_id IN (`+placeholders(len(ids))+`)
		ORDER BY t.name
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("store: contact tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var contactID int64
		var t models.Tag
		if err := rows.Scan(&contactID, &t.ID, &t.ClientID, &t.Name, &t.Color, &t.AIProfile, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan contact tag: %w", err)
		}
		out[contactID] = append(out[contactID], t)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
