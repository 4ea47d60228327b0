package crmservice

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
)

// BoardInput creates or renames a board. Columns are only used on create.
type BoardInput struct {
	Title   string   `json:"title" example:"Sales pipeline"`
	Columns []string `json:"columns,omitempty" example:"New,Qualified,Won"`
}

// Validate implements validation.Validatable.
func (in BoardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 120)),
		validation.Field(&in.Columns, validation.Length(0, 50), validation.Each(validation.Required, validation.Length(1, 120))),
	)
}

// ColumnInput creates or updates a column. Position moves the column on update.
type ColumnInput struct {
	Title    string `json:"title"`
	Color    string `json:"color"`
	Position *int   `json:"position,omitempty"`
}

// Validate implements validation.Validatable.
func (in ColumnInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 120)),
		validation.Field(&in.Color, validation.Match(colorRe)),
	)
}

// CardInput creates or updates a card.
type CardInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
	ContactID   *int64 `json:"contact_id,omitempty"`
}

// Validate implements validation.Validatable.
func (in CardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Description, validation.Length(0, 10000)),
		validation.Field(&in.Color, validation.Match(colorRe)),
		validation.Field(&in.ContactID, validation.NilOrNotEmpty, validation.Min(int64(1))),
	)
}

// MoveInput places a card in a column.
type MoveInput struct {
	ColumnID int64 `json:"column_id"`
	Position int   `json:"position"`
}

// Validate implements validation.Validatable.
func (in MoveInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ColumnID, validation.Required, validation.Min(int64(1))),
	)
}

// ListBoards returns the tenant's boards.
func (s *Service) ListBoards(ctx context.Context, clientID int64) ([]models.KanbanBoard, error) {
	return s.store.ListBoards(ctx, clientID)
}

// GetBoard returns a board with columns and cards.
func (s *Service) GetBoard(ctx context.Context, clientID, id int64) (*models.KanbanBoard, error) {
	return s.store.GetBoard(ctx, clientID, id)
}

// CreateBoard creates a board with optional initial columns.
func (s *Service) CreateBoard(ctx context.Context, clientID int64, in BoardInput) (*models.KanbanBoard, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	cols := make([]string, len(in.Columns))
	for i, c := range in.Columns {
		cols[i] = strings.TrimSpace(c)
	}
	return s.store.CreateBoard(ctx, clientID, strings.TrimSpace(in.Title), cols)
}

// RenameBoard changes a board's title.
func (s *Service) RenameBoard(ctx context.Context, clientID, id int64, in BoardInput) (*models.KanbanBoard, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.RenameBoard(ctx, clientID, id, strings.TrimSpace(in.Title))
}

// DeleteBoard removes a board.
func (s *Service) DeleteBoard(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteBoard(ctx, clientID, id)
}

// CreateColumn appends a column to a board.
func (s *Service) CreateColumn(ctx context.Context, clientID, boardID int64, in ColumnInput) (*models.KanbanColumn, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.CreateColumn(ctx, clientID, boardID, strings.TrimSpace(in.Title), in.Color)
}

// UpdateColumn updates a column.
func (s *Service) UpdateColumn(ctx context.Context, clientID, id int64, in ColumnInput) (*models.KanbanColumn, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.UpdateColumn(ctx, clientID, id, strings.TrimSpace(in.Title), in.Color, in.Position)
}

// DeleteColumn removes a column and its cards.
func (s *Service) DeleteColumn(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteColumn(ctx, clientID, id)
}

// CreateCard appends a card to a column.
func (s *Service) CreateCard(ctx context.Context, clientID, columnID int64, in CardInput) (*models.KanbanCard, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	c := &models.KanbanCard{
		ColumnID:    columnID,
		ContactID:   in.ContactID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Color:       in.Color,
	}
	if err := s.store.CreateCard(ctx, clientID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCard updates a card's content.
func (s *Service) UpdateCard(ctx context.Context, clientID, id int64, in CardInput) (*models.KanbanCard, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	c := &models.KanbanCard{
		ID:          id,
		ContactID:   in.ContactID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Color:       in.Color,
	}
	if err := s.store.UpdateCard(ctx, clientID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCard removes a card.
func (s *Service) DeleteCard(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteCard(ctx, clientID, id)
}

// MoveCard moves a card within its board.
func (s *Service) MoveCard(ctx context.Context, clientID, id int64, in MoveInput) (*models.KanbanCard, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.MoveCard(ctx, clientID, id, in.ColumnID, in.Position)
}
