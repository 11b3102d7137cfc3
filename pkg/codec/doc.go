// Package codec defines the per-content-type contract for block payloads:
// validation, canonicalization, hashing, and provider rendering.
//
// A codec is identified by (id, version). Canonicalization is a pure total
// function from a validated payload to a key-sorted JSON value; hashing is
// SHA-256 over that canonical form combined with the block's stable
// metadata. Rendering translates a block into the message shapes of the
// supported providers (Anthropic, OpenAI, Gemini); a codec may render for a
// subset of providers, and compilers treat a missing rendering as an
// excluded block.
//
// Codecs are resolved through a Registry. The registry is a plain value
// threaded through the graph and compilers rather than process-global
// state; Builtin() returns a registry preloaded with the built-in codecs.
package codec
