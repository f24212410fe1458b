// Package jsonschema reads the schema snapshots the reflect command writes
// so they can be generated from like any other model file.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/schema/reflector"
)

// IsSnapshot reports whether data is a reflected schema snapshot rather than
// a declarative model document.
func IsSnapshot(data []byte) bool {
	var probe struct {
		Source *string          `json:"source"`
		Tables *json.RawMessage `json:"tables"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Source != nil && probe.Tables != nil
}

// Decode parses a snapshot.
func Decode(data []byte) (*reflector.ReflectedSchema, error) {
	var rs reflector.ReflectedSchema
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	for i, t := range rs.Tables {
		if t == nil || t.TableName == "" {
			return nil, fmt.Errorf("snapshot table %d: missing table_name", i+1)
		}
	}
	return &rs, nil
}

// Models converts a snapshot into model definitions in table order.
func Models(data []byte) ([]schema.Model, error) {
	rs, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if len(rs.Tables) == 0 {
		return nil, errors.New("snapshot has no tables")
	}
	return rs.Models(), nil
}
