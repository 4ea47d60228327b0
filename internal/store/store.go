// Package store implements tenant-scoped persistence for every domain
// entity on top of the shared connection pool. Every exported method takes
// the tenant id and treats rows of other tenants as missing.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Store provides the persistence operations used by the services.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// New creates a Store on top of db.
func New(db *database.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Ping checks the underlying pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Page normalises list pagination.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// likePattern escapes LIKE wildcards in q and wraps it with '%'.
// The result is lowercased to match LOWER(col), which the database package
// makes Unicode-aware on SQLite.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(q)) + "%"
}

// placeholders returns "?, ?, ?" with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// prefixed qualifies every column of a comma separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
