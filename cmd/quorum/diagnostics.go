package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dusk-indust/quorum/internal/engine"
)

// loadDiagnostics reads an optional diagnostics JSON file produced by the
// build tooling. An empty path means no diagnostics were collected.
func loadDiagnostics(path string) (*engine.Diagnostics, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diagnostics %s: %w", path, err)
	}
	var diags engine.Diagnostics
	if err := json.Unmarshal(data, &diags); err != nil {
		return nil, fmt.Errorf("parse diagnostics %s: %w", path, err)
	}
	return &diags, nil
}
