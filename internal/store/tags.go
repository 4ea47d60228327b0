package store

import (
	"context"
	"fmt"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

const tagColumns = `id, client_id, name, color, ai_profile, created_at, updated_at`

func errTagNotFound() error {
	return apperr.NotFound("tag_not_found", "tag not found")
}

func scanTag(row interface{ Scan(...any) error }) (*models.Tag, error) {
	var t models.Tag
	if err := row.Scan(&t.ID, &t.ClientID, &t.Name, &t.Color, &t.AIProfile, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTags returns every tag of the tenant ordered by name.
func (s *Store) ListTags(ctx context.Context, clientID int64) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE client_id = ? ORDER BY name, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan tag: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetTag returns one tag.
func (s *Store) GetTag(ctx context.Context, clientID, id int64) (*models.Tag, error) {
	return getTag(ctx, s.db, clientID, id)
}

func getTag(ctx context.Context, q database.Querier, clientID, id int64) (*models.Tag, error) {
	t, err := scanTag(q.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ? AND client_id = ?`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errTagNotFound()
		}
		return nil, fmt.Errorf("store: get tag: %w", err)
	}
	return t, nil
}

func ensureTagNameFree(ctx context.Context, q database.Querier, clientID int64, name string, selfID int64) error {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE client_id = ? AND LOWER(name) = LOWER(?)`, clientID, name).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		return fmt.Errorf("store: check tag name: %w", err)
	}
	if id != selfID {
		return apperr.Conflict("tag_name_conflict", "a tag with this name already exists")
	}
	return nil
}

// CreateTag inserts t. Names are unique per tenant, case-insensitively.
func (s *Store) CreateTag(ctx context.Context, t *models.Tag) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := ensureTagNameFree(ctx, tx, t.ClientID, t.Name, 0); err != nil {
			return err
		}
		now := s.now()
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO tags (client_id, name, color, ai_profile, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id
		`, t.ClientID, t.Name, t.Color, t.AIProfile, now, now).Scan(&t.ID); err != nil {
			return fmt.Errorf("store: insert tag: %w", err)
		}
		t.CreatedAt, t.UpdatedAt = now, now
		return nil
	})
}

// UpdateTag overwrites name, color and AI profile.
func (s *Store) UpdateTag(ctx context.Context, t *models.Tag) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, err := getTag(ctx, tx, t.ClientID, t.ID)
		if err != nil {
			return err
		}
		if err := ensureTagNameFree(ctx, tx, t.ClientID, t.Name, t.ID); err != nil {
			return err
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE tags SET name = ?, color = ?, ai_profile = ?, updated_at = ?
			WHERE id = ? AND client_id = ?
		`, t.Name, t.Color, t.AIProfile, now, t.ID, t.ClientID); err != nil {
			return fmt.Errorf("store: update tag: %w", err)
		}
		t.CreatedAt, t.UpdatedAt = existing.CreatedAt, now
		return nil
	})
}

// DeleteTag removes a tag and unlinks it from contacts.
func (s *Store) DeleteTag(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getTag(ctx, tx, clientID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contact_tags WHERE tag_id = ?`, id); err != nil {
			return fmt.Errorf("store: unlink tag: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete tag: %w", err)
		}
		return nil
	})
}
