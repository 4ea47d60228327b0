package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

// GraphNode is a step to insert whose references name other nodes of the
// same graph by Key. Empty or unknown keys become NULL references.
type GraphNode struct {
	Key      string
	Title    string
	Message  string
	Type     string
	Position int
	Next     string
	True     string
	False    string
}

// GraphFromSteps turns persisted steps into graph nodes keyed by their
// current ids, so they can be re-inserted under new ids.
func GraphFromSteps(steps []models.FlowStep) []GraphNode {
	key := func(ref *int64) string {
		if ref == nil {
			return ""
		}
		return strconv.FormatInt(*ref, 10)
	}
	nodes := make([]GraphNode, len(steps))
	for i, st := range steps {
		nodes[i] = GraphNode{
			Key:      strconv.FormatInt(st.ID, 10),
			Title:    st.Title,
			Message:  st.Message,
			Type:     st.Type,
			Position: st.Position,
			Next:     key(st.NextStepID),
			True:     key(st.ConditionTrueID),
			False:    key(st.ConditionFalseID),
		}
	}
	return nodes
}

// resolveRef maps a node key to its new id. Keys outside the graph resolve
// to nil.
func resolveRef(ids map[string]int64, key string) *int64 {
	if key == "" {
		return nil
	}
	id, ok := ids[key]
	if !ok {
		return nil
	}
	return &id
}

// insertGraph inserts nodes into flowID in two passes: first every step with
// NULL references while recording key -> new id, then the references are
// rewritten through that mapping. A node may therefore reference a node
// that appears later in the slice.
func (s *Store) insertGraph(ctx context.Context, q database.Querier, clientID, flowID int64, nodes []GraphNode) (map[string]int64, error) {
	now := s.now()
	ids := make(map[string]int64, len(nodes))

	for _, n := range nodes {
		var id int64
		if err := q.QueryRowContext(ctx, `
			INSERT INTO flow_steps (client_id, flow_id, title, message, type, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, clientID, flowID, n.Title, n.Message, n.Type, n.Position, now).Scan(&id); err != nil {
			return nil, fmt.Errorf("store: copy step: %w", err)
		}
		ids[n.Key] = id
	}

	for _, n := range nodes {
		next, onTrue, onFalse := resolveRef(ids, n.Next), resolveRef(ids, n.True), resolveRef(ids, n.False)
		if next == nil && onTrue == nil && onFalse == nil {
			continue
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE flow_steps SET next_step_id = ?, condition_true_id = ?, condition_false_id = ?
			WHERE id = ?
		`, next, onTrue, onFalse, ids[n.Key]); err != nil {
			return nil, fmt.Errorf("store: remap step refs: %w", err)
		}
	}
	return ids, nil
}

// copyFlow duplicates src (already loaded and scoped) with all its steps
// into folderID.
func (s *Store) copyFlow(ctx context.Context, tx *database.Tx, clientID int64, src *models.Flow, folderID *int64, name string) (*models.Flow, error) {
	steps, err := listSteps(ctx, tx, clientID, src.ID)
	if err != nil {
		return nil, err
	}
	dst, err := s.insertFlow(ctx, tx, clientID, folderID, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.insertGraph(ctx, tx, clientID, dst.ID, GraphFromSteps(steps)); err != nil {
		return nil, err
	}
	return dst, nil
}

// CopyFlow duplicates a flow and its steps in one transaction. When
// moveTo is set the copy lands in folderID (nil = no folder, validated
// otherwise); else it stays in the source folder.
func (s *Store) CopyFlow(ctx context.Context, clientID, flowID int64, name string, moveTo bool, folderID *int64) (*models.Flow, error) {
	var dstID int64
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		src, err := getFlow(ctx, tx, clientID, flowID)
		if err != nil {
			return err
		}
		target := src.FolderID
		if moveTo {
			if folderID != nil {
				if _, err := getFolder(ctx, tx, clientID, *folderID); err != nil {
					return err
				}
			}
			target = folderID
		}
		if name == "" {
			name = CopyName(src.Name)
		}
		dst, err := s.copyFlow(ctx, tx, clientID, src, target, name)
		if err != nil {
			return err
		}
		dstID = dst.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetFlow(ctx, clientID, dstID)
}

// CopyFolder duplicates a folder with every flow and step inside it in one
// transaction and returns the new folder.
func (s *Store) CopyFolder(ctx context.Context, clientID, folderID int64, name string) (*models.FlowFolder, error) {
	var dstID int64
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		src, err := getFolder(ctx, tx, clientID, folderID)
		if err != nil {
			return err
		}
		if name == "" {
			name = CopyName(src.Name)
		}
		dst, err := insertFolder(ctx, tx, clientID, name, s.now())
		if err != nil {
			return err
		}
		dstID = dst.ID

		flows, err := listFlows(ctx, tx,
			`SELECT `+flowColumns+` FROM flows WHERE client_id = ? AND folder_id = ? ORDER BY id`,
			clientID, folderID)
		if err != nil {
			return err
		}
		for i := range flows {
			if _, err := s.copyFlow(ctx, tx, clientID, &flows[i], &dst.ID, flows[i].Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetFolder(ctx, clientID, dstID)
}

// ImportFlow creates a flow from nodes in one transaction. Node references
// must already be validated by the caller; unknown keys become NULL.
func (s *Store) ImportFlow(ctx context.Context, clientID int64, folderID *int64, name string, nodes []GraphNode) (*models.Flow, error) {
	var dstID int64
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if folderID != nil {
			if _, err := getFolder(ctx, tx, clientID, *folderID); err != nil {
				return err
			}
		}
		dst, err := s.insertFlow(ctx, tx, clientID, folderID, name)
		if err != nil {
			return err
		}
		dstID = dst.ID
		_, err = s.insertGraph(ctx, tx, clientID, dst.ID, nodes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetFlow(ctx, clientID, dstID)
}

// CopyName is the default name given to a duplicated folder or flow.
func CopyName(name string) string {
	return name + " (copy)"
}
