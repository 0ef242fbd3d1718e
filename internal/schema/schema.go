package schema

import (
	"encoding/json"
)

// Wire names of the core column attributes.
const (
	KeyColumnName   = "column_name"
	KeyDataType     = "data_type"
	KeyIsNullable   = "is_nullable"
	KeyDefaultValue = "default_value"
	KeyMaxLength    = "max_length"
)

type fieldSet uint8

const (
	hasName fieldSet = 1 << iota
	hasDataType
	hasNullable
	hasDefault
	hasMaxLength
	supplied
)

// Column describes one column of a table or one field of a collection,
// independent of the backend it came from.
type Column struct {
	Name         string
	DataType     string
	IsNullable   bool
	DefaultValue *string
	MaxLength    *int

	// Extra holds attributes beyond the core five, e.g. is_primary_key or
	// precision supplied through a schema override, plus core attributes
	// whose override value was not in canonical form. Emitted back verbatim.
	Extra map[string]any

	// fields records which core attributes were supplied in canonical form.
	// Zero means all, which is what every introspected column carries.
	fields fieldSet
}

func (c Column) has(f fieldSet) bool {
	return c.fields == 0 || c.fields&f != 0
}

// Tables maps a table or collection name to its ordered columns.
type Tables map[string][]Column

// Schema is the unified introspection result. Relational backends that
// organise tables under namespaces fill Namespaces; everything else fills
// Tables. Exactly one of the two is set.
type Schema struct {
	Namespaces map[string]Tables
	Tables     Tables
}

// NewFlat wraps t in a flat Schema.
func NewFlat(t Tables) *Schema {
	if t == nil {
		t = Tables{}
	}
	return &Schema{Tables: t}
}

// NewNamespaced wraps ns in a namespaced Schema.
func NewNamespaced(ns map[string]Tables) *Schema {
	if ns == nil {
		ns = map[string]Tables{}
	}
	return &Schema{Namespaces: ns}
}

// Namespaced reports whether tables are grouped under namespaces.
func (s *Schema) Namespaced() bool {
	return s != nil && s.Namespaces != nil
}

// TableCount returns the number of tables across all namespaces.
func (s *Schema) TableCount() int {
	if s == nil {
		return 0
	}
	if s.Namespaced() {
		n := 0
		for _, t := range s.Namespaces {
			n += len(t)
		}
		return n
	}
	return len(s.Tables)
}

// ColumnCount returns the number of columns across all tables.
func (s *Schema) ColumnCount() int {
	if s == nil {
		return 0
	}
	n := 0
	s.eachTables(func(t Tables) {
		for _, cols := range t {
			n += len(cols)
		}
	})
	return n
}

func (s *Schema) eachTables(fn func(Tables)) {
	if s.Namespaced() {
		for _, t := range s.Namespaces {
			fn(t)
		}
		return
	}
	fn(s.Tables)
}

// wireValue is the shape emitted on the wire: the nested map for a
// namespaced schema, the flat map otherwise.
func (s Schema) wireValue() any {
	if s.Namespaces != nil {
		return s.Namespaces
	}
	if s.Tables == nil {
		return Tables{}
	}
	return s.Tables
}

func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wireValue())
}

func (s Schema) MarshalYAML() (any, error) {
	return s.wireValue(), nil
}

// attributes renders the column as the key/value map used on the wire.
func (c Column) attributes() map[string]any {
	m := make(map[string]any, len(c.Extra)+5)
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.has(hasName) {
		m[KeyColumnName] = c.Name
	}
	if c.has(hasDataType) {
		m[KeyDataType] = c.DataType
	}
	if c.has(hasNullable) {
		m[KeyIsNullable] = NullableFlag(c.IsNullable)
	}
	if c.has(hasDefault) {
		m[KeyDefaultValue] = c.DefaultValue
	}
	if c.has(hasMaxLength) {
		m[KeyMaxLength] = c.MaxLength
	}
	return m
}

func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.attributes())
}

func (c Column) MarshalYAML() (any, error) {
	return c.attributes(), nil
}

// NullableFlag renders nullability the way information_schema does.
func NullableFlag(nullable bool) string {
	if nullable {
		return "YES"
	}
	return "NO"
}
