package c3ml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf guesses the format from a file extension. Unknown extensions are
// treated as YAML, which also accepts JSON.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a document. The document is either an object with an
// "entities" list or a bare list of descriptors.
func Parse(data []byte, format Format) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	var doc Document
	if len(trimmed) == 0 {
		return doc, nil
	}

	switch format {
	case FormatJSON:
		if trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &doc.Entities); err != nil {
				return doc, fmt.Errorf("decode json: %w", err)
			}
			return doc, nil
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return doc, fmt.Errorf("decode json: %w", err)
		}
	default:
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return doc, fmt.Errorf("decode yaml: %w", err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Content[0].Decode(&doc.Entities); err != nil {
				return doc, fmt.Errorf("decode yaml: %w", err)
			}
			return doc, nil
		}
		if err := node.Decode(&doc); err != nil {
			return doc, fmt.Errorf("decode yaml: %w", err)
		}
	}
	return doc, nil
}

// Load reads and decodes the document at path.
//
// Example:
//
//	doc, err := c3ml.Load("scene.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d entities\n", len(doc.Entities))
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read scene: %w", err)
	}
	doc, err := Parse(data, FormatOf(path))
	if err != nil {
		return doc, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
