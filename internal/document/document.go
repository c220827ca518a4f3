// Package document reads flowcharts from YAML or JSON files.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/flowcharts/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format of a flowchart document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the document format from a file extension. Defaults to YAML.
func FormatFor(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// LoadFile reads a flowchart document. The file is not validated.
func LoadFile(path string) (*domain.Flowchart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flowchart document: %w", err)
	}
	fc, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return fc, nil
}

// Decode parses a single flowchart. Unknown fields are rejected so typos
// like "edge" instead of "edges" surface instead of yielding an empty graph.
func Decode(data []byte, format Format) (*domain.Flowchart, error) {
	var fc domain.Flowchart
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	fc.Normalize()
	return &fc, nil
}

// Encode writes fc in the given format.
func Encode(w io.Writer, fc *domain.Flowchart, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(fc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported document format %q", format)
	}
}
