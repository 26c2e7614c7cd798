// Package store persists trader and operator sheets.
//
// Two backends share one generic contract: InMemory for tests and demos,
// SQLStore for PostgreSQL and SQLite. Both hand out copies, so callers may
// mutate what they receive without touching stored state.
package store

import (
	"context"
	"time"

	"arefa/internal/registry/models"
	"arefa/pkg/platform/sentinel"
)

// ErrNotFound is returned when no record carries the requested id.
var ErrNotFound = sentinel.ErrNotFound

// Entity is what a record type must offer to be stored.
type Entity[T any] interface {
	RecordID() int64
	SetID(id int64)
	RegisteredOn() time.Time
	Stamp(now time.Time)
	Clone() T
}

// Store is the CRUD contract of one record family. List returns records
// newest first.
type Store[T any] interface {
	Create(ctx context.Context, rec T) error
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, id int64) (T, error)
	Count(ctx context.Context) (int, error)
}

type (
	TraderStore   = Store[*models.Trader]
	OperatorStore = Store[*models.Operator]
)
