// Package spec provides the embedded flattened-tree JSON schema.
package spec

import "embed"

//go:generate go run github.com/Sumatoshi-tech/treefeed/tools/schemagen -out tree-schema.json

// TreeSchemaFS contains the embedded flattened-tree JSON schema.
//
//go:embed tree-schema.json
var TreeSchemaFS embed.FS
