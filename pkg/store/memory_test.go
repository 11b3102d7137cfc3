package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
)

func memoryBlock(t *testing.T, text string, tags ...string) block.Block {
	t.Helper()
	b, err := codec.Builtin().NewBlock(block.Meta{
		Kind:        block.KindMemory,
		Sensitivity: block.SensitivityInternal,
		CodecID:     codec.IDUnsafeText,
		CreatedAt:   1000,
		Tags:        tags,
	}, map[string]any{"text": text})
	require.NoError(t, err)
	return b
}

func TestInMemoryStore_SaveLoadRoundtrip(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	b := memoryBlock(t, "remember this")

	require.NoError(t, s.Save(ctx, Record{ID: "r1", Block: b}))

	rec, err := s.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, b.BlockHash, rec.Block.BlockHash)
	assert.False(t, rec.StoredAt.IsZero())

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_SaveRequiresID(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Save(context.Background(), Record{Block: memoryBlock(t, "x")})
	assert.Error(t, err)
}

func TestInMemoryStore_TTLPurgedOnAccess(t *testing.T) {
	current := time.Unix(1000, 0)
	s := NewInMemoryStore(WithClock(func() time.Time { return current }))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Record{
		ID:    "ephemeral",
		Block: memoryBlock(t, "short lived"),
		TTL:   time.Minute,
	}))

	exists, err := s.Exists(ctx, "ephemeral")
	require.NoError(t, err)
	assert.True(t, exists)

	current = current.Add(2 * time.Minute)
	exists, err = s.Exists(ctx, "ephemeral")
	require.NoError(t, err)
	assert.False(t, exists)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Records)
}

func TestInMemoryStore_QueryFiltersAndLimits(t *testing.T) {
	current := time.Unix(1000, 0)
	s := NewInMemoryStore(WithClock(func() time.Time { return current }))
	ctx := context.Background()

	for i, tag := range []string{"keep", "keep", "drop"} {
		current = current.Add(time.Second)
		require.NoError(t, s.Save(ctx, Record{
			ID:    string(rune('a' + i)),
			Block: memoryBlock(t, "note", tag),
		}))
	}

	kept, err := s.Query(ctx, Query{Tags: []string{"keep"}})
	require.NoError(t, err)
	assert.Len(t, kept, 2)
	// Newest first.
	assert.Equal(t, "b", kept[0].ID)

	limited, err := s.Query(ctx, Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byKind, err := s.Query(ctx, Query{Kinds: []block.Kind{block.KindPinned}})
	require.NoError(t, err)
	assert.Empty(t, byKind)
}

func TestInMemoryStore_DeleteMany(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, Record{ID: id, Block: memoryBlock(t, id)}))
	}

	deleted, err := s.DeleteMany(ctx, []string{"a", "c", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
	require.NoError(t, s.Delete(ctx, "b"))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Records)
}

func TestInMemoryStore_Clear(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, Record{ID: "a", Block: memoryBlock(t, "x")}))
	require.NoError(t, s.Clear(ctx))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Records)
}
