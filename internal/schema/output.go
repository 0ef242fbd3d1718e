package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Write.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Write writes the schema to path in the given format.
func (s *Schema) Write(path, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatYAML, "":
		data, err = s.ToYAML()
	case FormatJSON:
		data, err = s.ToJSON()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ToYAML returns the schema as a YAML byte slice.
func (s *Schema) ToYAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// ToJSON returns the schema as indented JSON.
func (s *Schema) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Summary returns a human-readable summary of the schema.
func (s *Schema) Summary() string {
	if s.Namespaced() {
		return fmt.Sprintf("Found %d namespaces, %d tables, %d columns",
			len(s.Namespaces), s.TableCount(), s.ColumnCount())
	}
	return fmt.Sprintf("Found %d tables, %d columns", s.TableCount(), s.ColumnCount())
}

// Names returns the table names of t in sorted order.
func (t Tables) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
