package sections

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML heading table from path. See Parse for the format.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heading table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("heading table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML mapping of label to a list of variants:
//
//	summary:
//	  - summary
//	  - professional summary
//	skills: [skills, key skills]
//
// Key order in the document becomes the table order.
func Parse(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidTable)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of label to variants", ErrInvalidTable)
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var variants []string
		if err := val.Decode(&variants); err != nil {
			return nil, fmt.Errorf("%w: label %q (line %d): %v", ErrInvalidTable, key.Value, key.Line, err)
		}
		entries = append(entries, Entry{Label: key.Value, Variants: variants})
	}
	return NewTable(entries...)
}
