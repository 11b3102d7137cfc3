// Package estimate defines the token-estimation capability consumed by
// views, the compactor, and the provider compilers.
//
// Estimates are advisory: an estimator reports a token count together with
// a confidence grade (exact, high, low). The aggregate confidence of a
// multi-block estimate is the worst of its parts. Implementations that call
// out to provider APIs or BPE tables should degrade to the bundled
// heuristic rather than fail; the heuristic (chars/4 with a 1.2x safety
// multiplier) answers with low confidence for any non-empty input.
package estimate
