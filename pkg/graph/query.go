package graph

import (
	"slices"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Query is the declarative block filter. Every absent criterion is
// unconstrained; present criteria AND-combine. Ordering is not part of
// query semantics: Select returns matches in unspecified order, CreateView
// applies the canonical sort.
type Query struct {
	// Kinds is a membership test. Empty means unconstrained, not "match
	// none"; an impossible query is built by MergeQueries on conflict.
	Kinds []block.Kind `json:"kinds,omitempty"`

	// Tags must all be present on a matching block.
	Tags []string `json:"tags,omitempty"`

	// MinSensitivity and MaxSensitivity bound block sensitivity inclusively.
	MinSensitivity *block.Sensitivity `json:"minSensitivity,omitempty"`
	MaxSensitivity *block.Sensitivity `json:"maxSensitivity,omitempty"`

	// Source matches by equality.
	Source *string `json:"source,omitempty"`

	// MinCreatedAt and MaxCreatedAt bound creation time inclusively (unix
	// seconds).
	MinCreatedAt *int64 `json:"minCreatedAt,omitempty"`
	MaxCreatedAt *int64 `json:"maxCreatedAt,omitempty"`

	// DerivedFromAny matches blocks with at least one derivation parent in
	// the set; NotDerivedFromAny excludes them.
	DerivedFromAny    []string `json:"derivedFromAny,omitempty"`
	NotDerivedFromAny []string `json:"notDerivedFromAny,omitempty"`

	// ReferencesAny matches blocks citing at least one hash in the set.
	ReferencesAny []string `json:"referencesAny,omitempty"`

	// ExcludeHashes removes specific blocks.
	ExcludeHashes []string `json:"excludeHashes,omitempty"`

	// impossible marks a query no block can match. Produced by MergeQueries
	// when criteria conflict; an impossible query yields an empty result,
	// not an error.
	impossible bool
}

// ImpossibleQuery returns the query that matches nothing.
func ImpossibleQuery() Query {
	return Query{impossible: true}
}

// IsImpossible reports whether no block can match q.
func (q Query) IsImpossible() bool { return q.impossible }

// matches evaluates q against b using g's edges. Caller holds the read
// lock.
func (g *Graph) matches(b block.Block, q Query) bool {
	if q.impossible {
		return false
	}
	if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, b.Meta.Kind) {
		return false
	}
	for _, tag := range q.Tags {
		if !b.Meta.HasTag(tag) {
			return false
		}
	}
	if q.MinSensitivity != nil && block.CompareSensitivity(b.Meta.Sensitivity, *q.MinSensitivity) < 0 {
		return false
	}
	if q.MaxSensitivity != nil && block.CompareSensitivity(b.Meta.Sensitivity, *q.MaxSensitivity) > 0 {
		return false
	}
	if q.Source != nil && b.Meta.Source != *q.Source {
		return false
	}
	if q.MinCreatedAt != nil && b.Meta.CreatedAt < *q.MinCreatedAt {
		return false
	}
	if q.MaxCreatedAt != nil && b.Meta.CreatedAt > *q.MaxCreatedAt {
		return false
	}
	if len(q.DerivedFromAny) > 0 && !intersects(g.derivedFrom[b.BlockHash], q.DerivedFromAny) {
		return false
	}
	if len(q.NotDerivedFromAny) > 0 && intersects(g.derivedFrom[b.BlockHash], q.NotDerivedFromAny) {
		return false
	}
	if len(q.ReferencesAny) > 0 && !intersects(g.references[b.BlockHash], q.ReferencesAny) {
		return false
	}
	if slices.Contains(q.ExcludeHashes, b.BlockHash) {
		return false
	}
	return true
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// MergeQueries AND-combines queries: kinds intersect, tags union,
// sensitivity bounds tighten, hash sets union, timestamp ranges narrow.
// Conflicting sources, or a kind intersection that empties out, collapse
// the result to the impossible query.
func MergeQueries(queries ...Query) Query {
	if len(queries) == 0 {
		return Query{}
	}
	merged := queries[0]
	for _, q := range queries[1:] {
		if merged.impossible || q.impossible {
			return ImpossibleQuery()
		}
		switch {
		case len(merged.Kinds) == 0:
			merged.Kinds = slices.Clone(q.Kinds)
		case len(q.Kinds) > 0:
			intersection := make([]block.Kind, 0, len(merged.Kinds))
			for _, k := range merged.Kinds {
				if slices.Contains(q.Kinds, k) {
					intersection = append(intersection, k)
				}
			}
			if len(intersection) == 0 {
				return ImpossibleQuery()
			}
			merged.Kinds = intersection
		}

		merged.Tags = unionStrings(merged.Tags, q.Tags)
		merged.DerivedFromAny = unionStrings(merged.DerivedFromAny, q.DerivedFromAny)
		merged.NotDerivedFromAny = unionStrings(merged.NotDerivedFromAny, q.NotDerivedFromAny)
		merged.ReferencesAny = unionStrings(merged.ReferencesAny, q.ReferencesAny)
		merged.ExcludeHashes = unionStrings(merged.ExcludeHashes, q.ExcludeHashes)

		merged.MinSensitivity = tighterSensitivity(merged.MinSensitivity, q.MinSensitivity, true)
		merged.MaxSensitivity = tighterSensitivity(merged.MaxSensitivity, q.MaxSensitivity, false)

		merged.MinCreatedAt = narrowTimestamp(merged.MinCreatedAt, q.MinCreatedAt, true)
		merged.MaxCreatedAt = narrowTimestamp(merged.MaxCreatedAt, q.MaxCreatedAt, false)

		switch {
		case merged.Source == nil:
			merged.Source = q.Source
		case q.Source != nil && *q.Source != *merged.Source:
			return ImpossibleQuery()
		}
	}
	return merged
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// tighterSensitivity keeps the stricter bound: the greater minimum or the
// lesser maximum.
func tighterSensitivity(a, b *block.Sensitivity, isMin bool) *block.Sensitivity {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	cmp := block.CompareSensitivity(*a, *b)
	if (isMin && cmp >= 0) || (!isMin && cmp <= 0) {
		return a
	}
	return b
}

// narrowTimestamp keeps the narrower bound: the greater minimum or the
// lesser maximum.
func narrowTimestamp(a, b *int64, isMin bool) *int64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if (isMin && *a >= *b) || (!isMin && *a <= *b) {
		return a
	}
	return b
}
