// Package crmservice validates and orchestrates contact, tag and kanban
// operations on top of the store.
package crmservice

import (
	"context"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/store"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/whatsapp"
)

var (
	colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,32}$`)
)

// Service coordinates CRM operations.
type Service struct {
	store *store.Store
}

// NewService creates a new CRM service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// --- Contacts ---

// ContactInput is the writable part of a contact.
type ContactInput struct {
	Name   string  `json:"name" example:"Ana Souza"`
	Phone  string  `json:"phone" example:"+55 11 99999-0000"`
	Notes  string  `json:"notes"`
	TagIDs []int64 `json:"tag_ids,omitempty"`
}

// Validate implements validation.Validatable.
func (in ContactInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Phone, validation.Match(phoneRe)),
		validation.Field(&in.Notes, validation.Length(0, 10000)),
		validation.Field(&in.TagIDs, validation.Each(validation.Min(int64(1)))),
	)
}

func (in ContactInput) contact(clientID int64) *models.Contact {
	return &models.Contact{
		ClientID: clientID,
		Name:     strings.TrimSpace(in.Name),
		Phone:    whatsapp.FormatPhone(in.Phone),
		Notes:    in.Notes,
	}
}

// ListContacts returns a page of contacts matching q.
func (s *Service) ListContacts(ctx context.Context, clientID int64, q string, limit, offset int) ([]models.Contact, int, error) {
	return s.store.ListContacts(ctx, clientID, strings.TrimSpace(q), store.Page{Limit: limit, Offset: offset})
}

// GetContact returns one contact.
func (s *Service) GetContact(ctx context.Context, clientID, id int64) (*models.Contact, error) {
	return s.store.GetContact(ctx, clientID, id)
}

// CreateContact creates a contact. Phones are stored as digits only.
func (s *Service) CreateContact(ctx context.Context, clientID int64, in ContactInput) (*models.Contact, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	c := in.contact(clientID)
	if err := s.store.CreateContact(ctx, c, in.TagIDs); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateContact overwrites a contact. Tags are replaced only when TagIDs is set.
func (s *Service) UpdateContact(ctx context.Context, clientID, id int64, in ContactInput) (*models.Contact, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	c := in.contact(clientID)
	c.ID = id
	if err := s.store.UpdateContact(ctx, c, in.TagIDs); err != nil {
		return nil, err
	}
	return s.store.GetContact(ctx, clientID, id)
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteContact(ctx, clientID, id)
}

// TagsInput replaces a contact's tags.
type TagsInput struct {
	TagIDs []int64 `json:"tag_ids"`
}

// Validate implements validation.Validatable.
func (in TagsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TagIDs, validation.NotNil, validation.Each(validation.Min(int64(1)))),
	)
}

// SetContactTags replaces the tags of a contact.
func (s *Service) SetContactTags(ctx context.Context, clientID, id int64, in TagsInput) (*models.Contact, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	return s.store.SetContactTags(ctx, clientID, id, in.TagIDs)
}

// --- Tags ---

// TagInput is the writable part of a tag.
type TagInput struct {
	Name      string `json:"name" example:"vip"`
	Color     string `json:"color" example:"#ff8800"`
	AIProfile string `json:"ai_profile"`
}

// Validate implements validation.Validatable.
func (in TagInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 80)),
		validation.Field(&in.Color, validation.Match(colorRe)),
		validation.Field(&in.AIProfile, validation.Length(0, 10000)),
	)
}

// ListTags returns every tag of the tenant.
func (s *Service) ListTags(ctx context.Context, clientID int64) ([]models.Tag, error) {
	return s.store.ListTags(ctx, clientID)
}

// GetTag returns one tag.
func (s *Service) GetTag(ctx context.Context, clientID, id int64) (*models.Tag, error) {
	return s.store.GetTag(ctx, clientID, id)
}

// CreateTag creates a tag.
func (s *Service) CreateTag(ctx context.Context, clientID int64, in TagInput) (*models.Tag, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	t := &models.Tag{ClientID: clientID, Name: strings.TrimSpace(in.Name), Color: in.Color, AIProfile: in.AIProfile}
	if err := s.store.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTag overwrites a tag.
func (s *Service) UpdateTag(ctx context.Context, clientID, id int64, in TagInput) (*models.Tag, error) {
	if err := apperr.Validation(in.Validate()); err != nil {
		return nil, err
	}
	t := &models.Tag{ID: id, ClientID: clientID, Name: strings.TrimSpace(in.Name), Color: in.Color, AIProfile: in.AIProfile}
	if err := s.store.UpdateTag(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTag removes a tag.
func (s *Service) DeleteTag(ctx context.Context, clientID, id int64) error {
	return s.store.DeleteTag(ctx, clientID, id)
}
