// Package flowservice validates and orchestrates flow folders, flows and
// steps, including graph duplication and document import/export.
package flowservice

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowdoc"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/metrics"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/store"
)

// Service coordinates flow operations.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService creates a new flow service.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// NameInput names a folder, or overrides the name of a copy.
type NameInput struct {
	Name string `json:"name" example:"Campaigns"`
}

// Validate implements validation.Validatable.
func (in NameInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
	)
}

// FlowInput creates or updates a flow.
type FlowInput struct {
	Name     string `json:"name" example:"Welcome"`
	FolderID *int64 `json:"folder_id"`
}

// Validate implements validation.Validatable.
func (in FlowInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.FolderID, validation.Min(int64(1))),
	)
}

// CopyInput configures a folder or flow copy. An empty name yields
// "<source> (copy)". FolderID is only honoured for flows.
type CopyInput struct {
	Name     string `json:"name,omitempty"`
	FolderID *int64 `json:"folder_id,omitempty"`
}

// Validate implements validation.Validatable.
func (in CopyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Length(0, 200)),
		validation.Field(&in.FolderID, validation.Min(int64(1))),
	)
}

// StepInput creates or updates a step. An empty type means "message".
type StepInput struct {
	Title            string `json:"title"`
	Message          string `json:"message"`
	Type             string `json:"type" example:"message"`
	NextStepID       *int64 `json:"next_step_id"`
	ConditionTrueID  *int64 `json:"condition_true_id"`
	ConditionFalseID *int64 `json:"condition_false_id"`
	Position         int    `json:"position"`
}

// Validate implements validation.Validatable.
func (in StepInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Length(0, 200)),
		validation.Field(&in.Message, validation.Length(0, 20000)),
		validation.Field(&in.Type, validation.In(models.StepTypes...)),
		validation.Field(&in.Position, validation.Min(0)),
	)
}

func (in StepInput) step(clientID int64) *models.FlowStep {
	typ := in.Type
	if typ == "" {
		typ = models.StepMessage
	}
	return &models.FlowStep{
		ClientID:         clientID,
		Title:            strings.TrimSpace(in.Title),
		Message:          in.Message,
		Type:             typ,
		NextStepID:       in.NextStepID,
		ConditionTrueID:  in.ConditionTrueID,
		ConditionFalseID: in.ConditionFalseID,
		Position:         in.Position,
	}
}

// --- Folders ---

// ListFolders returns the tenant's folders.
func (s *Service) ListFolders(ctx context.Context, clientID int64) ([]models.FlowFolder, error) {
	return s.store.ListFolders(ctx, clientID)
}

// GetFolder returns one folder.
func (s *Service) GetFolder(ctx context.Context, clientID, id int64) (*models.FlowFolder, error) {
	return s.store.GetFolder(ctx, clientID, id)
}

// CreateFolder creates a folder.
func (s *Service) CreateFolder(ctx context.Context, clientID int64, in NameInput) (*models.FlowFolder, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.CreateFolder(ctx, clientID, strings.TrimSpace(in.Name))
}

// RenameFolder renames a folder.
func (s *Service) RenameFolder(ctx context.Context, clientID, id int64, in NameInput) (*models.FlowFolder, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.RenameFolder(ctx, clientID, id, strings.TrimSpace(in.Name))
}

// DeleteFolder removes an empty folder.
func (s *Service) DeleteFolder(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteFolder(ctx, clientID, id)
}

// CopyFolder duplicates a folder with all its flows and steps.
func (s *Service) CopyFolder(ctx context.Context, clientID, id int64, in CopyInput) (*models.FlowFolder, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	f, err := s.store.CopyFolder(ctx, clientID, id, strings.TrimSpace(in.Name))
	metrics.Copies.WithLabelValues("folder", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.logger.Info("folder copied",
		slog.Int64("client_id", clientID),
		slog.Int64("source_id", id),
		slog.Int64("folder_id", f.ID),
		slog.Int("flows", f.FlowCount))
	return f, nil
}

// --- Flows ---

// FlowListParams narrows ListFlows. FolderID wins over RootOnly.
type FlowListParams struct {
	FolderID *int64
	RootOnly bool
}

// ListFlows returns flows, restricted to one folder or to flows outside any
// folder.
func (s *Service) ListFlows(ctx context.Context, clientID int64, p FlowListParams) ([]models.Flow, error) {
	return s.store.ListFlows(ctx, clientID, store.FlowFilter{FolderID: p.FolderID, RootOnly: p.RootOnly})
}

// GetFlow returns a flow with its steps.
func (s *Service) GetFlow(ctx context.Context, clientID, id int64) (*models.Flow, error) {
	return s.store.GetFlow(ctx, clientID, id)
}

// CreateFlow creates an empty flow.
func (s *Service) CreateFlow(ctx context.Context, clientID int64, in FlowInput) (*models.Flow, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.CreateFlow(ctx, clientID, in.FolderID, strings.TrimSpace(in.Name))
}

// UpdateFlow renames or moves a flow.
func (s *Service) UpdateFlow(ctx context.Context, clientID, id int64, in FlowInput) (*models.Flow, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.UpdateFlow(ctx, clientID, id, in.FolderID, strings.TrimSpace(in.Name))
}

// DeleteFlow removes a flow and its steps.
func (s *Service) DeleteFlow(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteFlow(ctx, clientID, id)
}

// CopyFlow duplicates a flow with all its steps, into in.FolderID when set.
func (s *Service) CopyFlow(ctx context.Context, clientID, id int64, in CopyInput) (*models.Flow, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	f, err := s.store.CopyFlow(ctx, clientID, id, strings.TrimSpace(in.Name), in.FolderID != nil, in.FolderID)
	metrics.Copies.WithLabelValues("flow", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.CopiedSteps.Add(float64(len(f.Steps)))
	s.logger.Info("flow copied",
		slog.Int64("client_id", clientID),
		slog.Int64("source_id", id),
		slog.Int64("flow_id", f.ID),
		slog.Int("steps", len(f.Steps)))
	return f, nil
}

// --- Steps ---

// ListSteps returns the steps of a flow.
func (s *Service) ListSteps(ctx context.Context, clientID, flowID int64) ([]models.FlowStep, error) {
	return s.store.ListSteps(ctx, clientID, flowID)
}

// CreateStep adds a step to a flow.
func (s *Service) CreateStep(ctx context.Context, clientID, flowID int64, in StepInput) (*models.FlowStep, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	st := in.step(clientID)
	st.FlowID = flowID
	if err := s.store.CreateStep(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateStep overwrites a step.
func (s *Service) UpdateStep(ctx context.Context, clientID, id int64, in StepInput) (*models.FlowStep, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	st := in.step(clientID)
	st.ID = id
	if err := s.store.UpdateStep(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStep removes a step and clears references to it.
func (s *Service) DeleteStep(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteStep(ctx, clientID, id)
}

// --- Documents ---

// Export is a rendered flow document.
type Export struct {
	Data        []byte
	ContentType string
	ETag        string
	Filename    string
}

// ExportFlow renders a flow as a YAML or JSON document.
func (s *Service) ExportFlow(ctx context.Context, clientID, id int64, format string) (*Export, error) {
	f, err := s.store.GetFlow(ctx, clientID, id)
	if err != nil {
		return nil, err
	}
	data, err := flowdoc.FromFlow(f).Marshal(format)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = flowdoc.FormatYAML
	}
	return &Export{
		Data:        data,
		ContentType: flowdoc.ContentType(format),
		ETag:        `"` + flowdoc.Checksum(data) + `"`,
		Filename:    slug(f.Name) + "." + format,
	}, nil
}

// ImportInput places an imported document. Name overrides the document name.
type ImportInput struct {
	Name     string
	FolderID *int64
}

// ImportFlow creates a flow from a YAML or JSON document.
func (s *Service) ImportFlow(ctx context.Context, clientID int64, data []byte, in ImportInput) (*models.Flow, error) {
	doc, err := flowdoc.Parse(data)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = doc.Name
	}
	f, err := s.store.ImportFlow(ctx, clientID, in.FolderID, name, doc.Graph())
	metrics.Copies.WithLabelValues("import", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.CopiedSteps.Add(float64(len(f.Steps)))
	return f, nil
}

// slug turns a flow name into a file name.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "flow"
	}
	return out
}
