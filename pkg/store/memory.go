package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is the reference Store: a map behind a mutex. Expired
// records are purged lazily on each operation.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// MemoryOption configures an InMemoryStore.
type MemoryOption func(*InMemoryStore)

// WithClock overrides the time source, for TTL tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// purgeExpired drops records past their TTL. Caller holds the write lock.
func (s *InMemoryStore) purgeExpired() {
	now := s.now()
	for id, rec := range s.records {
		if rec.expired(now) {
			delete(s.records, id)
		}
	}
}

// Save stores rec, stamping StoredAt when unset. Saving an existing id
// overwrites it.
func (s *InMemoryStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()
	if rec.StoredAt.IsZero() {
		rec.StoredAt = s.now()
	}
	s.records[rec.ID] = rec
	return nil
}

// Load retrieves a record by id.
func (s *InMemoryStore) Load(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Query returns matching records ordered by StoredAt descending.
func (s *InMemoryStore) Query(ctx context.Context, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()

	var out []Record
	for _, rec := range s.records {
		if matchesQuery(rec, q) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StoredAt.Equal(out[j].StoredAt) {
			return out[i].StoredAt.After(out[j].StoredAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesQuery(rec Record, q Query) bool {
	if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, rec.Block.Meta.Kind) {
		return false
	}
	for _, tag := range q.Tags {
		if !rec.Block.Meta.HasTag(tag) {
			return false
		}
	}
	return true
}

// Delete removes a record; deleting an absent id is an ErrNotFound.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

// DeleteMany removes the listed ids, returning how many existed.
func (s *InMemoryStore) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()
	deleted := 0
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Exists reports whether id is present and unexpired.
func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()
	_, ok := s.records[id]
	return ok, nil
}

// GetStats reports store size after purging.
func (s *InMemoryStore) GetStats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()
	return Stats{Records: len(s.records)}, nil
}

// Clear removes everything.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	return nil
}

var _ Store = (*InMemoryStore)(nil)
