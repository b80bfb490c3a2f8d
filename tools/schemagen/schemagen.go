// Package main generates the node-record JSON schema embedded by
// pkg/ast/spec. The schema is built here rather than written by hand so the
// constraints stay next to the prose that documents them; run via go:generate
// in pkg/ast/spec.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// Schema is the subset of JSON Schema draft-07 the node-record schema uses.
// Field order matches the order keys appear in the generated document.
type Schema struct {
	SchemaURI            string          `json:"$schema,omitempty"`
	ID                   string          `json:"$id,omitempty"`
	Title                string          `json:"title,omitempty"`
	Description          string          `json:"description,omitempty"`
	Type                 string          `json:"type,omitempty"`
	MinLength            int             `json:"minLength,omitempty"`
	Minimum              int             `json:"minimum,omitempty"`
	MinItems             int             `json:"minItems,omitempty"`
	Items                *Schema         `json:"items,omitempty"`
	Properties           *NodeProperties `json:"properties,omitempty"`
	Required             []string        `json:"required,omitempty"`
	AdditionalProperties *bool           `json:"additionalProperties,omitempty"`
}

// NodeProperties fixes the property order of the node record.
type NodeProperties struct {
	Type     *Schema `json:"type"`
	Value    *Schema `json:"value"`
	Children *Schema `json:"children"`
}

func treeSchema() *Schema {
	closed := false

	return &Schema{
		SchemaURI: "http://json-schema.org/draft-07/schema#",
		ID:        "https://github.com/Sumatoshi-tech/treefeed/pkg/ast/spec/tree-schema.json",
		Title:     "Flattened AST",
		Description: "A tree serialized as a pre-order node array. Index 0 is the root " +
			"and every child index is strictly greater than its parent's index.",
		Type:     "array",
		MinItems: 1,
		Items: &Schema{
			Description: "One node record.",
			Type:        "object",
			Properties: &NodeProperties{
				Type: &Schema{
					Description: "Grammar node type, e.g. FunctionDef or Str.",
					Type:        "string",
					MinLength:   1,
				},
				Value: &Schema{
					Description: "Leaf payload. May be empty. Mutually exclusive with children.",
					Type:        "string",
				},
				Children: &Schema{
					Description: "Indices of child nodes in the same array.",
					Type:        "array",
					Items: &Schema{
						Type:    "integer",
						Minimum: 1,
					},
				},
			},
			Required:             []string{"type"},
			AdditionalProperties: &closed,
		},
	}
}

func main() {
	out := flag.String("out", "pkg/ast/spec/tree-schema.json", "Output path for the schema")
	flag.Parse()

	data, err := json.MarshalIndent(treeSchema(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding schema: %v\n", err)
		os.Exit(1)
	}

	data = append(data, '\n')

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", *out)
}
