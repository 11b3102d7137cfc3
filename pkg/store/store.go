// Package store defines the persistence capability for blocks and a
// reference in-memory implementation.
//
// The core never persists anything itself; callers hand it a Store when
// they want memory blocks to survive a session. TTL bookkeeping runs on
// each operation, not on a background clock.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// ErrNotFound indicates a record id that is absent or expired.
var ErrNotFound = errors.New("record not found")

// Record is one stored block with its retention metadata.
type Record struct {
	ID       string        `json:"id"`
	Block    block.Block   `json:"block"`
	TTL      time.Duration `json:"ttl,omitempty"`
	StoredAt time.Time     `json:"storedAt"`
}

// expired reports whether the record is past its TTL at now. Zero TTL
// means no expiry.
func (r Record) expired(now time.Time) bool {
	return r.TTL > 0 && now.After(r.StoredAt.Add(r.TTL))
}

// Query filters stored records. Absent criteria are unconstrained.
type Query struct {
	Kinds []block.Kind `json:"kinds,omitempty"`
	Tags  []string     `json:"tags,omitempty"`
	Limit int          `json:"limit,omitempty"`
}

// Stats summarizes store contents.
type Stats struct {
	Records int `json:"records"`
}

// Store is the persistence capability. Implementations are free to be
// remote; every method takes a context.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	Query(ctx context.Context, q Query) ([]Record, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetStats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
}
