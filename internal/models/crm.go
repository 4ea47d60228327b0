// Package models defines the domain types for PlugConversaPro.
package models

import "time"

// Contact is a person the tenant talks to over WhatsApp.
type Contact struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag labels contacts. AIProfile is free text handed to the assistant when
// a contact carries the tag.
type Tag struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	AIProfile string    `json:"ai_profile"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KanbanBoard is a CRM pipeline.
type KanbanBoard struct {
	ID        int64          `json:"id"`
	ClientID  int64          `json:"client_id"`
	Title     string         `json:"title"`
	Columns   []KanbanColumn `json:"columns,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// KanbanColumn is one pipeline stage.
type KanbanColumn struct {
	ID        int64        `json:"id"`
	BoardID   int64        `json:"board_id"`
	Title     string       `json:"title"`
	Color     string       `json:"color"`
	Position  int          `json:"position"`
	Cards     []KanbanCard `json:"cards,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// KanbanCard is a deal or lead placed in a column.
type KanbanCard struct {
	ID          int64     `json:"id"`
	ColumnID    int64     `json:"column_id"`
	ContactID   *int64    `json:"contact_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
