// Package block defines the content-addressed unit of LLM context: a typed
// block with stable metadata and a codec-specific payload, identified by a
// SHA-256 hash over its canonical JSON form.
//
// # Content Addressing
//
// A block's identity is its hash. The hash covers only the stable subset of
// the metadata (kind, sensitivity, codec id, codec version) plus the
// canonical payload. Volatile fields (created-at, source, tags) are excluded
// so two blocks with identical content added at different times collide to
// the same hash.
//
// # Kind Order
//
// Kinds form a closed enumeration with a canonical total order:
//
//	pinned < reference < memory < state < tool_output < history < turn
//
// This order is the single source of truth for compiled-context ordering.
// Passing an unknown kind to the order helpers is a programmer error and
// panics; it is never a validation failure of a user document.
package block
