// Package graph stores blocks keyed by content hash and materializes
// deterministic views over them.
//
// The graph records two edge families: derivation edges (provenance, block
// was produced from these parents) and reference edges (citation, no
// ownership). Edges carry hashes, never blocks, and removing a block leaves
// inbound references from other blocks dangling; queries tolerate that.
//
// A graph is a single-owner mutable structure. Concurrent readers are safe;
// callers sharing one graph across goroutines serialize writes externally.
// Views, once created, are immutable snapshots: re-creating a view over an
// unchanged graph with the same query and estimator yields an identical
// stable prefix hash regardless of insertion order.
package graph
