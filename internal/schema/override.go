package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/apperrors"
)

// ParseOverride checks a caller-supplied schema and converts it to Tables.
// The payload must be a JSON object mapping table names to arrays of column
// objects, each carrying at least column_name. Table names are returned in
// payload order.
func ParseOverride(data []byte) (Tables, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, apperrors.Validationf("Invalid schema payload: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, apperrors.Validationf("Invalid schema payload: expected an object mapping table names to column lists")
	}

	tables := Tables{}
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, apperrors.Validationf("Invalid schema payload: %v", err)
		}
		table, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, apperrors.Validationf("Invalid schema payload: %v", err)
		}
		cols, err := parseColumns(table, raw)
		if err != nil {
			return nil, nil, err
		}
		if _, seen := tables[table]; !seen {
			order = append(order, table)
		}
		tables[table] = cols
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, apperrors.Validationf("Invalid schema payload: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, apperrors.Validationf("Invalid schema payload: unexpected data after object")
	}
	return tables, order, nil
}

func parseColumns(table string, raw json.RawMessage) ([]Column, error) {
	if firstByte(raw) != '[' {
		return nil, apperrors.Validationf("Invalid schema for table %s. Expected a list of columns.", table)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperrors.Validationf("Invalid schema for table %s. Expected a list of columns.", table)
	}

	cols := make([]Column, 0, len(items))
	for idx, item := range items {
		if firstByte(item) != '{' {
			return nil, apperrors.Validationf("Invalid column definition at index %d in table %s", idx, table)
		}
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var attrs map[string]any
		if err := dec.Decode(&attrs); err != nil {
			return nil, apperrors.Validationf("Invalid column definition at index %d in table %s", idx, table)
		}
		if _, ok := attrs[KeyColumnName]; !ok {
			return nil, apperrors.Validationf("Missing 'column_name' in column at index %d in table %s", idx, table)
		}
		cols = append(cols, columnFromAttributes(attrs))
	}
	return cols, nil
}

// columnFromAttributes maps a decoded column object onto Column. Core
// attributes in canonical form fill the typed fields; any other value is
// kept verbatim in Extra so the column marshals back exactly as supplied.
// The typed field still gets a best-effort reading of it.
func columnFromAttributes(attrs map[string]any) Column {
	col := Column{fields: supplied}
	keep := func(key string, v any) {
		if col.Extra == nil {
			col.Extra = make(map[string]any)
		}
		col.Extra[key] = plainValue(v)
	}
	for key, v := range attrs {
		switch key {
		case KeyColumnName:
			if s, ok := v.(string); ok {
				col.Name = s
				col.fields |= hasName
			} else {
				col.Name = looseString(v)
				keep(key, v)
			}
		case KeyDataType:
			if s, ok := v.(string); ok {
				col.DataType = s
				col.fields |= hasDataType
			} else {
				col.DataType = looseString(v)
				keep(key, v)
			}
		case KeyIsNullable:
			col.IsNullable = looseNullable(v)
			if s, ok := v.(string); ok && (s == "YES" || s == "NO") {
				col.fields |= hasNullable
			} else {
				keep(key, v)
			}
		case KeyDefaultValue:
			switch t := v.(type) {
			case nil:
				col.fields |= hasDefault
			case string:
				col.DefaultValue = &t
				col.fields |= hasDefault
			default:
				if s := looseString(v); s != "" {
					col.DefaultValue = &s
				}
				keep(key, v)
			}
		case KeyMaxLength:
			n, canonical := looseInt(v)
			col.MaxLength = n
			if canonical {
				col.fields |= hasMaxLength
			} else {
				keep(key, v)
			}
		default:
			keep(key, v)
		}
	}
	return col
}

func looseNullable(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "YES", "TRUE":
			return true
		}
	}
	return false
}

// looseString renders a scalar as text. Objects, arrays and null give "".
func looseString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// looseInt reads an integer out of v. canonical is true only for null or a
// JSON integer literal.
func looseInt(v any) (n *int, canonical bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return &i, true
		}
		if f, err := t.Float64(); err == nil && f == math.Trunc(f) {
			i := int(f)
			return &i, false
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &i, false
		}
	}
	return nil, false
}

// plainValue replaces json.Number with int64 or float64 so extra attributes
// marshal the same way to JSON and YAML.
func plainValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = plainValue(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = plainValue(e)
		}
		return t
	default:
		return v
	}
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
