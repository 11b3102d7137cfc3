// Package compile translates a view into provider-native message
// structures for Anthropic, OpenAI, and Gemini.
//
// Each compiler walks the view's blocks in order, collects the codec
// renderings for its provider, and assembles them under that provider's
// conventions: Anthropic keeps a separate system sequence and never
// re-orders; OpenAI inlines system messages and warns about consecutive
// same-role messages; Gemini folds system text into one instruction string
// and enforces strict user/model alternation by merging adjacent same-role
// parts. Blocks whose codec produced no rendering for the target provider
// are reported in ExcludedBlocks.
//
// Compilers are pure: the same view, policy, and options produce the same
// output (modulo the compiled-at timestamp). Token counts on the compiled
// result are advisory; the view's estimate remains authoritative for
// budget decisions.
package compile
