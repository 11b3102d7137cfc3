package codec

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Codec ids for reference material.
const (
	IDToolSchema          = "tool-schema"
	IDStructuredReference = "structured-reference"
)

// toolSchemaCodec encodes a tool definition: {name, description,
// inputSchema, cacheable?}. The input schema is kept as-is structurally;
// canonicalization sorts its keys recursively like any other payload value.
type toolSchemaCodec struct{}

func (toolSchemaCodec) ID() string          { return IDToolSchema }
func (toolSchemaCodec) Version() string     { return "1" }
func (toolSchemaCodec) Kinds() []block.Kind { return []block.Kind{block.KindReference} }

func (toolSchemaCodec) Validate(p map[string]any) error {
	if name, ok := stringField(p, "name"); !ok || name == "" {
		return validationErr(IDToolSchema, "name", "required non-empty string")
	}
	if _, ok := stringField(p, "description"); !ok {
		return validationErr(IDToolSchema, "description", "required string")
	}
	if _, ok := mapField(p, "inputSchema"); !ok {
		return validationErr(IDToolSchema, "inputSchema", "required object")
	}
	if _, present := p["cacheable"]; present {
		if _, ok := boolField(p, "cacheable"); !ok {
			return validationErr(IDToolSchema, "cacheable", "must be a boolean")
		}
	}
	return nil
}

func (toolSchemaCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	name, _ := stringField(p, "name")
	description, _ := stringField(p, "description")
	schema, _ := mapField(p, "inputSchema")
	cacheable, hasCacheable := boolField(p, "cacheable")
	if !hasCacheable {
		cacheable = false
	}
	return canonicalMap(map[string]any{
		"name":        name,
		"description": description,
		"inputSchema": schema,
		"cacheable":   cacheable,
	})
}

func (toolSchemaCodec) Render(b block.Block) (Rendered, error) {
	name, _ := stringField(b.Payload, "name")
	description, _ := stringField(b.Payload, "description")
	schema := renderValue(b.Payload["inputSchema"])
	text := fmt.Sprintf("Tool: %s\n%s\nInput schema: %s", name, description, schema)
	return textRendering(RoleUser, text), nil
}

// structuredReferenceCodec encodes cited reference material: {title,
// content, sourceUrl?, mimeType?, cacheable?}. The title is trimmed; the
// content is kept verbatim.
type structuredReferenceCodec struct{}

func (structuredReferenceCodec) ID() string          { return IDStructuredReference }
func (structuredReferenceCodec) Version() string     { return "1" }
func (structuredReferenceCodec) Kinds() []block.Kind { return []block.Kind{block.KindReference} }

func (structuredReferenceCodec) Validate(p map[string]any) error {
	if title, ok := stringField(p, "title"); !ok || strings.TrimSpace(title) == "" {
		return validationErr(IDStructuredReference, "title", "required non-empty string")
	}
	if _, ok := stringField(p, "content"); !ok {
		return validationErr(IDStructuredReference, "content", "required string")
	}
	for _, field := range []string{"sourceUrl", "mimeType"} {
		if _, present := p[field]; present {
			if _, ok := stringField(p, field); !ok {
				return validationErr(IDStructuredReference, field, "must be a string")
			}
		}
	}
	if _, present := p["cacheable"]; present {
		if _, ok := boolField(p, "cacheable"); !ok {
			return validationErr(IDStructuredReference, "cacheable", "must be a boolean")
		}
	}
	return nil
}

func (structuredReferenceCodec) Canonicalize(p map[string]any) (map[string]any, error) {
	title, _ := stringField(p, "title")
	content, _ := stringField(p, "content")
	out := map[string]any{
		"title":   strings.TrimSpace(title),
		"content": content,
	}
	if sourceURL, ok := stringField(p, "sourceUrl"); ok {
		out["sourceUrl"] = sourceURL
	}
	if mimeType, ok := stringField(p, "mimeType"); ok {
		out["mimeType"] = mimeType
	}
	cacheable, hasCacheable := boolField(p, "cacheable")
	if !hasCacheable {
		cacheable = false
	}
	out["cacheable"] = cacheable
	return canonicalMap(out)
}

func (structuredReferenceCodec) Render(b block.Block) (Rendered, error) {
	title, _ := stringField(b.Payload, "title")
	content, _ := stringField(b.Payload, "content")
	text := fmt.Sprintf("# %s\n\n%s", title, content)
	if sourceURL, ok := stringField(b.Payload, "sourceUrl"); ok && sourceURL != "" {
		text += "\n\nSource: " + sourceURL
	}
	return textRendering(RoleUser, text), nil
}
