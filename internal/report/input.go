// Package report builds period reports for the command line from files, a
// database or an exported spreadsheet.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
)

// Document is the input file layout. Start and End are optional and only
// used when no range is given on the command line.
type Document struct {
	Start        string                   `json:"start,omitempty" yaml:"start,omitempty"`
	End          string                   `json:"end,omitempty" yaml:"end,omitempty"`
	Transactions []core.TransactionRecord `json:"transactions" yaml:"transactions"`
}

// LoadFile reads a JSON, YAML or TOML document chosen by extension. A JSON
// file may also hold a bare array of records.
func LoadFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing input file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
		return &doc, nil
	case ".toml":
		return parseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported input format %q: use .json, .yaml, .yml or .toml", ext)
	}
}

func parseJSON(data []byte) (*Document, error) {
	var doc Document
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc.Transactions); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
		return &doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing JSON file: %w", err)
	}
	return &doc, nil
}

// parseTOML goes through JSON so amounts get the same string-or-number
// handling as the other formats. TOML dates marshal as YYYY-MM-DD.
func parseTOML(data []byte) (*Document, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing TOML file: %w", err)
	}
	raw, err := json.Marshal(tree.ToMap())
	if err != nil {
		return nil, fmt.Errorf("error converting TOML file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error parsing TOML file: %w", err)
	}
	return &doc, nil
}
