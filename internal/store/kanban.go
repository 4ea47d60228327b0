package store

import (
	"context"
	"fmt"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

const (
	boardColumns  = `id, client_id, title, created_at`
	columnColumns = `id, board_id, title, color, position, created_at`
	cardColumns   = `id, column_id, contact_id, title, description, color, position, created_at, updated_at`
)

func errBoardNotFound() error {
	return apperr.NotFound("board_not_found", "board not found")
}

func errColumnNotFound() error {
	return apperr.NotFound("column_not_found", "column not found")
}

func errCardNotFound() error {
	return apperr.NotFound("card_not_found", "card not found")
}

func scanBoard(row scanner) (*models.KanbanBoard, error) {
	var b models.KanbanBoard
	if err := row.Scan(&b.ID, &b.ClientID, &b.Title, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanColumn(row scanner) (*models.KanbanColumn, error) {
	var c models.KanbanColumn
	if err := row.Scan(&c.ID, &c.BoardID, &c.Title, &c.Color, &c.Position, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCard(row scanner) (*models.KanbanCard, error) {
	var c models.KanbanCard
	if err := row.Scan(&c.ID, &c.ColumnID, &c.ContactID, &c.Title, &c.Description, &c.Color,
		&c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Boards ---

// ListBoards returns the tenant's boards without columns.
func (s *Store) ListBoards(ctx context.Context, clientID int64) ([]models.KanbanBoard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+boardColumns+` FROM kanban_boards WHERE client_id = ? ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("store: list boards: %w", err)
	}
	defer rows.Close()

	out := []models.KanbanBoard{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan board: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func getBoard(ctx context.Context, q database.Querier, clientID, id int64) (*models.KanbanBoard, error) {
	b, err := scanBoard(q.QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM kanban_boards WHERE id = ? AND client_id = ?`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errBoardNotFound()
		}
		return nil, fmt.Errorf("store: get board: %w", err)
	}
	return b, nil
}

// GetBoard returns a board with its columns and their cards, ordered by position.
func (s *Store) GetBoard(ctx context.Context, clientID, id int64) (*models.KanbanBoard, error) {
	b, err := getBoard(ctx, s.db, clientID, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columnColumns+` FROM kanban_columns WHERE board_id = ? ORDER BY position, id`, id)
	if err != nil {
		return nil, fmt.Errorf("store: list columns: %w", err)
	}
	defer rows.Close()

	b.Columns = []models.KanbanColumn{}
	index := map[int64]int{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan column: %w", err)
		}
		c.Cards = []models.KanbanCard{}
		index[c.ID] = len(b.Columns)
		b.Columns = append(b.Columns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cardRows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixed("k", cardColumns)+`
		FROM kanban_cards k
		JOIN kanban_columns c ON c.id = k.column_id
		WHERE c.board_id = ?
		ORDER BY k.position, k.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	defer cardRows.Close()
	for cardRows.Next() {
		card, err := scanCard(cardRows)
		if err != nil {
			return nil, fmt.Errorf("store: scan card: %w", err)
		}
		if i, ok := index[card.ColumnID]; ok {
			b.Columns[i].Cards = append(b.Columns[i].Cards, *card)
		}
	}
	return b, cardRows.Err()
}

// CreateBoard inserts a board, optionally with initial columns.
func (s *Store) CreateBoard(ctx context.Context, clientID int64, title string, columns []string) (*models.KanbanBoard, error) {
	var id int64
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		now := s.now()
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO kanban_boards (client_id, title, created_at) VALUES (?, ?, ?) RETURNING id`,
			clientID, title, now).Scan(&id); err != nil {
			return fmt.Errorf("store: insert board: %w", err)
		}
		for i, col := range columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO kanban_columns (board_id, title, color, position, created_at) VALUES (?, ?, '', ?, ?)`,
				id, col, i, now); err != nil {
				return fmt.Errorf("store: insert column: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBoard(ctx, clientID, id)
}

// RenameBoard changes a board's title.
func (s *Store) RenameBoard(ctx context.Context, clientID, id int64, title string) (*models.KanbanBoard, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE kanban_boards SET title = ? WHERE id = ? AND client_id = ?`, title, id, clientID)
	if err != nil {
		return nil, fmt.Errorf("store: rename board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errBoardNotFound()
	}
	return s.GetBoard(ctx, clientID, id)
}

// DeleteBoard removes a board with all its columns and cards.
func (s *Store) DeleteBoard(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getBoard(ctx, tx, clientID, id); err != nil {
			return err
		}
		stmts := []string{
			`DELETE FROM kanban_cards WHERE column_id IN (SELECT id FROM kanban_columns WHERE board_id = ?)`,
			`DELETE FROM kanban_columns WHERE board_id = ?`,
			`DELETE FROM kanban_boards WHERE id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("store: delete board: %w", err)
			}
		}
		return nil
	})
}

// --- Columns ---

func getColumn(ctx context.Context, q database.Querier, clientID, id int64) (*models.KanbanColumn, error) {
	c, err := scanColumn(q.QueryRowContext(ctx, `
		SELECT `+prefixed("c", columnColumns)+`
		FROM kanban_columns c
		JOIN kanban_boards b ON b.id = c.board_id
		WHERE c.id = ? AND b.client_id = ?
	`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errColumnNotFound()
		}
		return nil, fmt.Errorf("store: get column: %w", err)
	}
	return c, nil
}

func countRows(ctx context.Context, q database.Querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// CreateColumn appends a column to a board.
func (s *Store) CreateColumn(ctx context.Context, clientID, boardID int64, title, color string) (*models.KanbanColumn, error) {
	var out *models.KanbanColumn
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getBoard(ctx, tx, clientID, boardID); err != nil {
			return err
		}
		pos, err := countRows(ctx, tx, `SELECT count(*) FROM kanban_columns WHERE board_id = ?`, boardID)
		if err != nil {
			return err
		}
		c := &models.KanbanColumn{BoardID: boardID, Title: title, Color: color, Position: pos, CreatedAt: s.now()}
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO kanban_columns (board_id, title, color, position, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
			boardID, title, color, pos, c.CreatedAt).Scan(&c.ID); err != nil {
			return fmt.Errorf("store: insert column: %w", err)
		}
		c.Cards = []models.KanbanCard{}
		out = c
		return nil
	})
	return out, err
}

// UpdateColumn changes title and color, and moves the column to position
// when it is non-nil.
func (s *Store) UpdateColumn(ctx context.Context, clientID, id int64, title, color string, position *int) (*models.KanbanColumn, error) {
	var out *models.KanbanColumn
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := getColumn(ctx, tx, clientID, id)
		if err != nil {
			return err
		}
		if position != nil {
			n, err := countRows(ctx, tx, `SELECT count(*) FROM kanban_columns WHERE board_id = ?`, c.BoardID)
			if err != nil {
				return err
			}
			to := clamp(*position, 0, n-1)
			if err := shiftWithin(ctx, tx, "kanban_columns", "board_id", c.BoardID, c.Position, to); err != nil {
				return err
			}
			c.Position = to
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE kanban_columns SET title = ?, color = ?, position = ? WHERE id = ?`,
			title, color, c.Position, id); err != nil {
			return fmt.Errorf("store: update column: %w", err)
		}
		c.Title, c.Color = title, color
		out = c
		return nil
	})
	return out, err
}

// DeleteColumn removes a column and its cards and closes the position gap.
func (s *Store) DeleteColumn(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := getColumn(ctx, tx, clientID, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM kanban_cards WHERE column_id = ?`, id); err != nil {
			return fmt.Errorf("store: delete column cards: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM kanban_columns WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete column: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE kanban_columns SET position = position - 1 WHERE board_id = ? AND position > ?`,
			c.BoardID, c.Position); err != nil {
			return fmt.Errorf("store: compact columns: %w", err)
		}
		return nil
	})
}

// --- Cards ---

func getCard(ctx context.Context, q database.Querier, clientID, id int64) (*models.KanbanCard, int64, error) {
	var boardID int64
	var c models.KanbanCard
	err := q.QueryRowContext(ctx, `
		SELECT `+prefixed("k", cardColumns)+`, c.board_id
		FROM kanban_cards k
		JOIN kanban_columns c ON c.id = k.column_id
		JOIN kanban_boards b ON b.id = c.board_id
		WHERE k.id = ? AND b.client_id = ?
	`, id, clientID).Scan(&c.ID, &c.ColumnID, &c.ContactID, &c.Title, &c.Description, &c.Color,
		&c.Position, &c.CreatedAt, &c.UpdatedAt, &boardID)
	if err != nil {
		if isNoRows(err) {
			return nil, 0, errCardNotFound()
		}
		return nil, 0, fmt.Errorf("store: get card: %w", err)
	}
	return &c, boardID, nil
}

// GetCard returns one card.
func (s *Store) GetCard(ctx context.Context, clientID, id int64) (*models.KanbanCard, error) {
	c, _, err := getCard(ctx, s.db, clientID, id)
	return c, err
}

// CreateCard appends card to its column. A linked contact must belong to the tenant.
func (s *Store) CreateCard(ctx context.Context, clientID int64, card *models.KanbanCard) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getColumn(ctx, tx, clientID, card.ColumnID); err != nil {
			return err
		}
		if card.ContactID != nil {
			if _, err := getContact(ctx, tx, clientID, *card.ContactID); err != nil {
				return err
			}
		}
		pos, err := countRows(ctx, tx, `SELECT count(*) FROM kanban_cards WHERE column_id = ?`, card.ColumnID)
		if err != nil {
			return err
		}
		now := s.now()
		card.Position, card.CreatedAt, card.UpdatedAt = pos, now, now
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO kanban_cards (column_id, contact_id, title, description, color, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, card.ColumnID, card.ContactID, card.Title, card.Description, card.Color, pos, now, now).Scan(&card.ID); err != nil {
			return fmt.Errorf("store: insert card: %w", err)
		}
		return nil
	})
}

// UpdateCard overwrites title, description, color and contact link.
func (s *Store) UpdateCard(ctx context.Context, clientID int64, card *models.KanbanCard) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, _, err := getCard(ctx, tx, clientID, card.ID)
		if err != nil {
			return err
		}
		if card.ContactID != nil {
			if _, err := getContact(ctx, tx, clientID, *card.ContactID); err != nil {
				return err
			}
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE kanban_cards SET title = ?, description = ?, color = ?, contact_id = ?, updated_at = ?
			WHERE id = ?
		`, card.Title, card.Description, card.Color, card.ContactID, now, card.ID); err != nil {
			return fmt.Errorf("store: update card: %w", err)
		}
		card.ColumnID, card.Position = existing.ColumnID, existing.Position
		card.CreatedAt, card.UpdatedAt = existing.CreatedAt, now
		return nil
	})
}

// DeleteCard removes a card and closes the position gap in its column.
func (s *Store) DeleteCard(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, _, err := getCard(ctx, tx, clientID, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM kanban_cards WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete card: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE kanban_cards SET position = position - 1 WHERE column_id = ? AND position > ?`,
			c.ColumnID, c.Position); err != nil {
			return fmt.Errorf("store: compact cards: %w", err)
		}
		return nil
	})
}

// MoveCard places a card at position in toColumn. The target column must
// be on the card's board; position is clamped to the column bounds and both
// columns keep dense positions.
func (s *Store) MoveCard(ctx context.Context, clientID, cardID, toColumn int64, position int) (*models.KanbanCard, error) {
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		card, boardID, err := getCard(ctx, tx, clientID, cardID)
		if err != nil {
			return err
		}
		target, err := getColumn(ctx, tx, clientID, toColumn)
		if err != nil {
			return err
		}
		if target.BoardID != boardID {
			return apperr.Invalid("invalid_card_move", "target column belongs to another board")
		}

		if target.ID == card.ColumnID {
			n, err := countRows(ctx, tx, `SELECT count(*) FROM kanban_cards WHERE column_id = ?`, target.ID)
			if err != nil {
				return err
			}
			to := clamp(position, 0, n-1)
			if err := shiftWithin(ctx, tx, "kanban_cards", "column_id", target.ID, card.Position, to); err != nil {
				return err
			}
			position = to
		} else {
			if _, err := tx.ExecContext(ctx,
				`UPDATE kanban_cards SET position = position - 1 WHERE column_id = ? AND position > ?`,
				card.ColumnID, card.Position); err != nil {
				return fmt.Errorf("store: compact source column: %w", err)
			}
			n, err := countRows(ctx, tx, `SELECT count(*) FROM kanban_cards WHERE column_id = ?`, target.ID)
			if err != nil {
				return err
			}
			position = clamp(position, 0, n)
			if _, err := tx.ExecContext(ctx,
				`UPDATE kanban_cards SET position = position + 1 WHERE column_id = ? AND position >= ?`,
				target.ID, position); err != nil {
				return fmt.Errorf("store: open target slot: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE kanban_cards SET column_id = ?, position = ?, updated_at = ? WHERE id = ?`,
			target.ID, position, s.now(), cardID); err != nil {
			return fmt.Errorf("store: move card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCard(ctx, clientID, cardID)
}

// shiftWithin makes room for moving an item from position from to position
// to inside one parent, shifting the items in between by one.
func shiftWithin(ctx context.Context, q database.Querier, table, parentCol string, parentID int64, from, to int) error {
	var query string
	switch {
	case to > from:
		query = `UPDATE ` + table + ` SET position = position - 1 WHERE ` + parentCol + ` = ? AND position > ? AND position <= ?`
	case to < from:
		query = `UPDATE ` + table + ` SET position = position + 1 WHERE ` + parentCol + ` = ? AND position >= ? AND position < ?`
		from, to = to, from
	default:
		return nil
	}
	if _, err := q.ExecContext(ctx, query, parentID, from, to); err != nil {
		return fmt.Errorf("store: shift %s: %w", table, err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
