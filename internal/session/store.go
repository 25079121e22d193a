package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/stepsnap/stepsnap/internal/config"
)

// ErrNotFound is returned for missing sessions. The shared view also
// returns it for sessions that exist but are not shared, so callers
// cannot tell the two cases apart.
var ErrNotFound = errors.New("session not found")

// Store is the persistence contract for sessions. Every write path
// recomputes the derived fields before persisting.
type Store interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context) ([]*Session, error)
	Update(ctx context.Context, id string, patch Patch) (*Session, error)
	Delete(ctx context.Context, id string) error
	SetShared(ctx context.Context, id string, shared bool) (*Session, error)
	GetShared(ctx context.Context, id string) (*Session, error)
	Close()
}

// StoreType encapsulates the type of a store.
// See below constants for possible types.
type StoreType string

const (
	MemoryStoreType   StoreType = "memory"
	PostgresStoreType StoreType = "postgres"
)

// NewStore returns a new store depending on the configured store type.
func NewStore(ctx context.Context, sc *config.StoreConfig) (Store, error) {
	switch StoreType(sc.Type) {
	case MemoryStoreType:
		return NewMemoryStore(), nil
	case PostgresStoreType:
		return NewPostgresStore(ctx, sc.DSN)
	default:
		return nil, fmt.Errorf("store of type '%s' not implemented", sc.Type)
	}
}
