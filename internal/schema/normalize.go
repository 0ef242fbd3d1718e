package schema

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// NormalizeRelational builds a Column from one information_schema row.
// An empty default is treated as absent.
func NormalizeRelational(name, dataType, isNullable string, def *string, maxLen *int64) Column {
	col := Column{
		Name:       name,
		DataType:   dataType,
		IsNullable: isNullable == "YES",
	}
	if def != nil && *def != "" {
		d := *def
		col.DefaultValue = &d
	}
	if maxLen != nil {
		n := int(*maxLen)
		col.MaxLength = &n
	}
	return col
}

// NormalizeDocument derives one Column per top-level field of a sampled
// document, in document order. Every field is reported nullable since a
// single sample says nothing about other documents.
func NormalizeDocument(doc bson.D) []Column {
	cols := make([]Column, 0, len(doc))
	for _, e := range doc {
		cols = append(cols, Column{
			Name:       e.Key,
			DataType:   DocumentTypeName(e.Value),
			IsNullable: true,
		})
	}
	return cols
}

// DocumentTypeName returns the BSON type alias of a decoded value.
func DocumentTypeName(v any) string {
	switch v.(type) {
	case nil, bson.Null:
		return "null"
	case bson.ObjectID:
		return "objectId"
	case string:
		return "string"
	case int32:
		return "int"
	case int64:
		return "long"
	case float64:
		return "double"
	case bson.Decimal128:
		return "decimal"
	case bool:
		return "bool"
	case bson.DateTime:
		return "date"
	case bson.Timestamp:
		return "timestamp"
	case bson.D, bson.M:
		return "object"
	case bson.A:
		return "array"
	case bson.Binary:
		return "binData"
	case bson.Regex:
		return "regex"
	case bson.JavaScript:
		return "javascript"
	case bson.Symbol:
		return "symbol"
	case bson.MinKey:
		return "minKey"
	case bson.MaxKey:
		return "maxKey"
	case bson.Undefined:
		return "undefined"
	default:
		return fmt.Sprintf("%T", v)
	}
}
