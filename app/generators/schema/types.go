// Package schema holds the model definitions the generator works from and the
// field introspection shared by every route emitter.
package schema

import (
	"fmt"
	"strings"
)

// Type is the semantic type of a field, independent of any SQL dialect.
type Type string

const (
	TypeInt      Type = "int"
	TypeFloat    Type = "float"
	TypeDecimal  Type = "decimal"
	TypeString   Type = "str"
	TypeBool     Type = "bool"
	TypeDateTime Type = "datetime"
	TypeDate     Type = "date"
	TypeTime     Type = "time"
	TypeBytes    Type = "bytes"
	TypeJSON     Type = "json"
)

// typeAliases lets declarative model files spell types the way people do.
var typeAliases = map[string]Type{
	"int":       TypeInt,
	"integer":   TypeInt,
	"bigint":    TypeInt,
	"float":     TypeFloat,
	"double":    TypeFloat,
	"decimal":   TypeDecimal,
	"numeric":   TypeDecimal,
	"money":     TypeDecimal,
	"str":       TypeString,
	"string":    TypeString,
	"text":      TypeString,
	"varchar":   TypeString,
	"bool":      TypeBool,
	"boolean":   TypeBool,
	"datetime":  TypeDateTime,
	"timestamp": TypeDateTime,
	"date":      TypeDate,
	"time":      TypeTime,
	"bytes":     TypeBytes,
	"binary":    TypeBytes,
	"blob":      TypeBytes,
	"json":      TypeJSON,
	"jsonb":     TypeJSON,
}

// ParseType resolves a declared type name. Matching is case insensitive.
func ParseType(s string) (Type, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// Field is one named, typed attribute of a model.
type Field struct {
	Name       string `json:"name" yaml:"name"`
	Type       Type   `json:"type" yaml:"type"`
	PrimaryKey bool   `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Nullable   bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`

	// Quoted keeps the exact spelling of Name in generated SQL.
	Quoted bool `json:"quoted,omitempty" yaml:"quoted,omitempty"`
}

// Model is a named entity with an ordered list of fields. Field order is the
// declaration order and drives column order in every emitted statement.
type Model struct {
	Name   string  `json:"name" yaml:"name"`
	Quoted bool    `json:"quoted,omitempty" yaml:"quoted,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Introspection is the classification of a model's fields.
type Introspection struct {
	// Identifier is the first field flagged as primary key, nil when none is.
	Identifier *Field

	// Fields are the non-identifier fields in declaration order.
	Fields []Field

	// Flagged counts the fields flagged as primary key.
	Flagged int
}

// FieldNames returns the names of the non-identifier fields in order.
func (in Introspection) FieldNames() []string {
	names := make([]string, len(in.Fields))
	for i, f := range in.Fields {
		names[i] = f.Name
	}
	return names
}

// HasIdentifier reports whether the model declares an identifier.
func (in Introspection) HasIdentifier() bool {
	return in.Identifier != nil
}

// Field looks up a non-identifier field by name.
func (in Introspection) Field(name string) (Field, bool) {
	for _, f := range in.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
