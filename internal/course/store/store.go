// Package store persists course records and enforces the registry's
// uniqueness guarantees. Two implementations exist: an in-memory store for
// tests and local runs, and a PostgreSQL store for durable deployments.
package store

import (
	"context"

	"coursebot/internal/course/models"
)

// Store is the registry of provisioned courses.
//
// Insert assigns the record's surrogate ID and returns sentinel.ErrConflict
// (wrapped) when the course number or any external handle collides with an
// existing record. Lookups return sentinel.ErrNotFound on a miss. ListAll
// orders by surrogate ID ascending. DeleteAll is irreversible and is only
// called after the corresponding external resources are gone.
type Store interface {
	Insert(ctx context.Context, record *models.CourseRecord) error
	FindByNumber(ctx context.Context, number string) (*models.CourseRecord, error)
	FindByExternalID(ctx context.Context, kind models.LookupKind, id string) (*models.CourseRecord, error)
	ListAll(ctx context.Context) ([]*models.CourseRecord, error)
	DeleteAll(ctx context.Context) error
}
