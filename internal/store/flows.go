package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

const (
	folderColumns = `id, client_id, name, created_at`
	flowColumns   = `id, client_id, folder_id, name, created_at, updated_at`
	stepColumns   = `id, client_id, flow_id, title, message, type, next_step_id, condition_true_id, condition_false_id, position, created_at`
)

func errFolderNotFound() error {
	return apperr.NotFound("folder_not_found", "folder not found")
}

func errFlowNotFound() error {
	return apperr.NotFound("flow_not_found", "flow not found")
}

func errStepNotFound() error {
	return apperr.NotFound("step_not_found", "step not found")
}

type scanner interface{ Scan(...any) error }

func scanFolder(row scanner) (*models.FlowFolder, error) {
	var f models.FlowFolder
	if err := row.Scan(&f.ID, &f.ClientID, &f.Name, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFlow(row scanner) (*models.Flow, error) {
	var f models.Flow
	if err := row.Scan(&f.ID, &f.ClientID, &f.FolderID, &f.Name, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanStep(row scanner) (*models.FlowStep, error) {
	var s models.FlowStep
	if err := row.Scan(&s.ID, &s.ClientID, &s.FlowID, &s.Title, &s.Message, &s.Type,
		&s.NextStepID, &s.ConditionTrueID, &s.ConditionFalseID, &s.Position, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Folders ---

// ListFolders returns the tenant's folders with their flow counts.
func (s *Store) ListFolders(ctx context.Context, clientID int64) ([]models.FlowFolder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixed("f", folderColumns)+`,
		       (SELECT count(*) FROM flows fl WHERE fl.folder_id = f.id AND fl.client_id = f.client_id)
		FROM flow_folders f
		WHERE f.client_id = ?
		ORDER BY f.name, f.id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("store: list folders: %w", err)
	}
	defer rows.Close()

	out := []models.FlowFolder{}
	for rows.Next() {
		var f models.FlowFolder
		if err := rows.Scan(&f.ID, &f.ClientID, &f.Name, &f.CreatedAt, &f.FlowCount); err != nil {
			return nil, fmt.Errorf("store: scan folder: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetFolder returns one folder.
func (s *Store) GetFolder(ctx context.Context, clientID, id int64) (*models.FlowFolder, error) {
	return getFolder(ctx, s.db, clientID, id)
}

func getFolder(ctx context.Context, q database.Querier, clientID, id int64) (*models.FlowFolder, error) {
	f, err := scanFolder(q.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM flow_folders WHERE id = ? AND client_id = ?`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errFolderNotFound()
		}
		return nil, fmt.Errorf("store: get folder: %w", err)
	}
	if err := q.QueryRowContext(ctx,
		`SELECT count(*) FROM flows WHERE folder_id = ? AND client_id = ?`, id, clientID).Scan(&f.FlowCount); err != nil {
		return nil, fmt.Errorf("store: count folder flows: %w", err)
	}
	return f, nil
}

// CreateFolder inserts a folder.
func (s *Store) CreateFolder(ctx context.Context, clientID int64, name string) (*models.FlowFolder, error) {
	return insertFolder(ctx, s.db, clientID, name, s.now())
}

func insertFolder(ctx context.Context, q database.Querier, clientID int64, name string, now time.Time) (*models.FlowFolder, error) {
	f := &models.FlowFolder{ClientID: clientID, Name: name, CreatedAt: now}
	if err := q.QueryRowContext(ctx, `
		INSERT INTO flow_folders (client_id, name, created_at) VALUES (?, ?, ?)
		RETURNING id
	`, clientID, name, now).Scan(&f.ID); err != nil {
		return nil, fmt.Errorf("store: insert folder: %w", err)
	}
	return f, nil
}

// RenameFolder changes a folder's name.
func (s *Store) RenameFolder(ctx context.Context, clientID, id int64, name string) (*models.FlowFolder, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE flow_folders SET name = ? WHERE id = ? AND client_id = ?`, name, id, clientID)
	if err != nil {
		return nil, fmt.Errorf("store: rename folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errFolderNotFound()
	}
	return s.GetFolder(ctx, clientID, id)
}

// DeleteFolder removes an empty folder. Non-empty folders are a conflict.
func (s *Store) DeleteFolder(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		f, err := getFolder(ctx, tx, clientID, id)
		if err != nil {
			return err
		}
		if f.FlowCount > 0 {
			return apperr.Conflict("folder_not_empty", "folder still contains flows")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM flow_folders WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete folder: %w", err)
		}
		return nil
	})
}

// --- Flows ---

// FlowFilter narrows ListFlows. A nil FolderID lists every flow; with
// RootOnly set only flows outside any folder are returned.
type FlowFilter struct {
	FolderID *int64
	RootOnly bool
}

// ListFlows returns the tenant's flows without steps.
func (s *Store) ListFlows(ctx context.Context, clientID int64, filter FlowFilter) ([]models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE client_id = ?`
	args := []any{clientID}
	switch {
	case filter.FolderID != nil:
		query += ` AND folder_id = ?`
		args = append(args, *filter.FolderID)
	case filter.RootOnly:
		query += ` AND folder_id IS NULL`
	}
	query += ` ORDER BY name, id`

	return listFlows(ctx, s.db, query, args...)
}

func listFlows(ctx context.Context, q database.Querier, query string, args ...any) ([]models.Flow, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list flows: %w", err)
	}
	defer rows.Close()

	out := []models.Flow{}
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan flow: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// GetFlow returns a flow with its steps.
func (s *Store) GetFlow(ctx context.Context, clientID, id int64) (*models.Flow, error) {
	f, err := getFlow(ctx, s.db, clientID, id)
	if err != nil {
		return nil, err
	}
	steps, err := listSteps(ctx, s.db, clientID, id)
	if err != nil {
		return nil, err
	}
	f.Steps = steps
	return f, nil
}

func getFlow(ctx context.Context, q database.Querier, clientID, id int64) (*models.Flow, error) {
	f, err := scanFlow(q.QueryRowContext(ctx,
		`SELECT `+flowColumns+` FROM flows WHERE id = ? AND client_id = ?`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errFlowNotFound()
		}
		return nil, fmt.Errorf("store: get flow: %w", err)
	}
	return f, nil
}

// CreateFlow inserts an empty flow. A non-nil folder must belong to the tenant.
func (s *Store) CreateFlow(ctx context.Context, clientID int64, folderID *int64, name string) (*models.Flow, error) {
	var out *models.Flow
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if folderID != nil {
			if _, err := getFolder(ctx, tx, clientID, *folderID); err != nil {
				return err
			}
		}
		f, err := s.insertFlow(ctx, tx, clientID, folderID, name)
		out = f
		return err
	})
	if err != nil {
		return nil, err
	}
	out.Steps = []models.FlowStep{}
	return out, nil
}

func (s *Store) insertFlow(ctx context.Context, q database.Querier, clientID int64, folderID *int64, name string) (*models.Flow, error) {
	now := s.now()
	f := &models.Flow{ClientID: clientID, FolderID: folderID, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := q.QueryRowContext(ctx, `
		INSERT INTO flows (client_id, folder_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, clientID, folderID, name, now, now).Scan(&f.ID); err != nil {
		return nil, fmt.Errorf("store: insert flow: %w", err)
	}
	return f, nil
}

// UpdateFlow renames a flow and moves it to folderID (nil = no folder).
func (s *Store) UpdateFlow(ctx context.Context, clientID, id int64, folderID *int64, name string) (*models.Flow, error) {
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getFlow(ctx, tx, clientID, id); err != nil {
			return err
		}
		if folderID != nil {
			if _, err := getFolder(ctx, tx, clientID, *folderID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE flows SET name = ?, folder_id = ?, updated_at = ? WHERE id = ? AND client_id = ?`,
			name, folderID, s.now(), id, clientID); err != nil {
			return fmt.Errorf("store: update flow: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetFlow(ctx, clientID, id)
}

// DeleteFlow removes a flow and all its steps.
func (s *Store) DeleteFlow(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getFlow(ctx, tx, clientID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM flow_steps WHERE flow_id = ? AND client_id = ?`, id, clientID); err != nil {
			return fmt.Errorf("store: delete flow steps: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete flow: %w", err)
		}
		return nil
	})
}

// --- Steps ---

// ListSteps returns the steps of a flow ordered by position.
func (s *Store) ListSteps(ctx context.Context, clientID, flowID int64) ([]models.FlowStep, error) {
	if _, err := getFlow(ctx, s.db, clientID, flowID); err != nil {
		return nil, err
	}
	return listSteps(ctx, s.db, clientID, flowID)
}

func listSteps(ctx context.Context, q database.Querier, clientID, flowID int64) ([]models.FlowStep, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM flow_steps WHERE flow_id = ? AND client_id = ? ORDER BY position, id`,
		flowID, clientID)
	if err != nil {
		return nil, fmt.Errorf("store: list steps: %w", err)
	}
	defer rows.Close()

	out := []models.FlowStep{}
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan step: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// GetStep returns one step.
func (s *Store) GetStep(ctx context.Context, clientID, id int64) (*models.FlowStep, error) {
	return getStep(ctx, s.db, clientID, id)
}

func getStep(ctx context.Context, q database.Querier, clientID, id int64) (*models.FlowStep, error) {
	st, err := scanStep(q.QueryRowContext(ctx,
		`SELECT `+stepColumns+` FROM flow_steps WHERE id = ? AND client_id = ?`, id, clientID))
	if err != nil {
		if isNoRows(err) {
			return nil, errStepNotFound()
		}
		return nil, fmt.Errorf("store: get step: %w", err)
	}
	return st, nil
}

// checkStepRefs verifies every non-nil reference of st names a step of the
// same flow and tenant.
func checkStepRefs(ctx context.Context, q database.Querier, st *models.FlowStep) error {
	for _, ref := range st.Refs() {
		if ref == nil {
			continue
		}
		if st.ID != 0 && *ref == st.ID {
			continue
		}
		var n int
		if err := q.QueryRowContext(ctx,
			`SELECT count(*) FROM flow_steps WHERE id = ? AND flow_id = ? AND client_id = ?`,
			*ref, st.FlowID, st.ClientID).Scan(&n); err != nil {
			return fmt.Errorf("store: check step ref: %w", err)
		}
		if n == 0 {
			return apperr.Invalid("invalid_step_reference",
				fmt.Sprintf("step %d does not belong to flow %d", *ref, st.FlowID))
		}
	}
	return nil
}

// CreateStep inserts st into its flow after validating its references.
func (s *Store) CreateStep(ctx context.Context, st *models.FlowStep) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := getFlow(ctx, tx, st.ClientID, st.FlowID); err != nil {
			return err
		}
		if err := checkStepRefs(ctx, tx, st); err != nil {
			return err
		}
		st.CreatedAt = s.now()
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO flow_steps (client_id, flow_id, title, message, type,
				next_step_id, condition_true_id, condition_false_id, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, st.ClientID, st.FlowID, st.Title, st.Message, st.Type,
			st.NextStepID, st.ConditionTrueID, st.ConditionFalseID, st.Position, st.CreatedAt).Scan(&st.ID); err != nil {
			return fmt.Errorf("store: insert step: %w", err)
		}
		return touchFlow(ctx, tx, st.FlowID, st.CreatedAt)
	})
}

// UpdateStep overwrites the editable fields of an existing step. The flow
// of a step never changes.
func (s *Store) UpdateStep(ctx context.Context, st *models.FlowStep) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, err := getStep(ctx, tx, st.ClientID, st.ID)
		if err != nil {
			return err
		}
		st.FlowID = existing.FlowID
		st.CreatedAt = existing.CreatedAt
		if err := checkStepRefs(ctx, tx, st); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE flow_steps SET title = ?, message = ?, type = ?,
				next_step_id = ?, condition_true_id = ?, condition_false_id = ?, position = ?
			WHERE id = ? AND client_id = ?
		`, st.Title, st.Message, st.Type, st.NextStepID, st.ConditionTrueID, st.ConditionFalseID,
			st.Position, st.ID, st.ClientID); err != nil {
			return fmt.Errorf("store: update step: %w", err)
		}
		return touchFlow(ctx, tx, st.FlowID, s.now())
	})
}

// DeleteStep removes a step and clears every reference to it inside its flow.
func (s *Store) DeleteStep(ctx context.Context, clientID, id int64) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		st, err := getStep(ctx, tx, clientID, id)
		if err != nil {
			return err
		}
		for _, col := range []string{"next_step_id", "condition_true_id", "condition_false_id"} {
			if _, err := tx.ExecContext(ctx,
				`UPDATE flow_steps SET `+col+` = NULL WHERE flow_id = ? AND client_id = ? AND `+col+` = ?`,
				st.FlowID, clientID, id); err != nil {
				return fmt.Errorf("store: clear step refs: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM flow_steps WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete step: %w", err)
		}
		return touchFlow(ctx, tx, st.FlowID, s.now())
	})
}

func touchFlow(ctx context.Context, q database.Querier, flowID int64, at time.Time) error {
	if _, err := q.ExecContext(ctx, `UPDATE flows SET updated_at = ? WHERE id = ?`, at, flowID); err != nil {
		return fmt.Errorf("store: touch flow: %w", err)
	}
	return nil
}
