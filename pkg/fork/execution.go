package fork

import (
	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// NoToolset is substituted when a task declares no toolset version.
const NoToolset = "none"

// ExecutionHash fingerprints a sub-agent invocation. It is pure: identical
// (model, viewHash, instruction, schemaHash, toolsetVersion) tuples hash
// identically, and any single difference changes the hash. The fields are
// hashed as a key-sorted canonical JSON object.
func ExecutionHash(model, viewHash, instruction, schemaHash, toolsetVersion string) (string, error) {
	if toolsetVersion == "" {
		toolsetVersion = NoToolset
	}
	return block.HashCanonical(map[string]any{
		"model":          model,
		"viewHash":       viewHash,
		"instruction":    instruction,
		"schemaHash":     schemaHash,
		"toolsetVersion": toolsetVersion,
	})
}

// SchemaHash digests an output schema structurally: key order has no
// effect, structurally distinct schemas hash distinctly. A nil schema
// hashes as the empty object.
func SchemaHash(schema map[string]any) (string, error) {
	if schema == nil {
		schema = map[string]any{}
	}
	return block.HashCanonical(schema)
}
