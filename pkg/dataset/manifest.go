package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Sumatoshi-tech/treefeed/pkg/version"
)

// ManifestExt is appended to a produced corpus path to name its manifest.
const ManifestExt = ".manifest.json"

// Manifest records the provenance of a produced dataset: which run made it,
// from which inputs, with which parameters.
type Manifest struct {
	RunID     string            `json:"run_id"`
	Tool      string            `json:"tool"`
	CreatedAt time.Time         `json:"created_at"`
	Inputs    []string          `json:"inputs"`
	Outputs   []string          `json:"outputs"`
	Params    map[string]string `json:"params,omitempty"`
}

// NewManifest stamps a manifest with a fresh run id, the tool version, and
// the current UTC time.
func NewManifest(inputs, outputs []string, params map[string]string) Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		Tool:      fmt.Sprintf("treefeed/%d (%s)", version.Binary, version.BinaryGitHash),
		CreatedAt: time.Now().UTC(),
		Inputs:    inputs,
		Outputs:   outputs,
		Params:    params,
	}
}

// Save writes the manifest as indented JSON.
func (m Manifest) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	err = encoder.Encode(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	return nil
}

// LoadManifest reads a manifest written by Save.
func LoadManifest(path string) (Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	var m Manifest

	err = json.NewDecoder(file).Decode(&m)
	if err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}

	return m, nil
}
