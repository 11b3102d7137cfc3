// Package fork derives sensitivity-filtered sub-views for delegated
// sub-agent tasks and fingerprints their execution.
//
// A fork walks a parent view, replaces every block above the sensitivity
// ceiling with a redacted stub pointing back at the original hash, and
// optionally drops history and state blocks. Parent positions are
// preserved so callers can correlate stubs with their originals by index;
// the parent view and graph are never touched.
//
// Executing a fork wraps a caller-supplied executor callback with schema
// validation and a fail-closed forbidden-field check on the serialized
// output. The execution hash is a deterministic fingerprint over (model,
// view hash, instruction, schema hash, toolset version): identical tuples
// hash identically, any single difference changes the hash.
package fork
