package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a declarative model file. JSON files use
// the same keys since JSON is valid YAML.
//
//	models:
//	  - name: Car
//	    fields:
//	      - {name: CarID, type: int, primary_key: true}
//	      - {name: VIN, type: str}
type document struct {
	Models []modelDoc `yaml:"models"`
}

type modelDoc struct {
	Name   string     `yaml:"name"`
	Quoted bool       `yaml:"quoted"`
	Fields []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key"`
	Nullable   bool   `yaml:"nullable"`
	Quoted     bool   `yaml:"quoted"`
}

// Decode reads a declarative model document. The top level is either a
// mapping with a "models" key or a bare list of models. Model and field order
// in the document is preserved.
func Decode(r io.Reader) ([]Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read models: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("model document is empty")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse models: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("model document is empty")
	}

	var docs []modelDoc
	switch node := root.Content[0]; node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode models: %w", err)
		}
	case yaml.MappingNode:
		var doc document
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode models: %w", err)
		}
		docs = doc.Models
	default:
		return nil, fmt.Errorf("line %d: expected a list of models or a models mapping", node.Line)
	}

	models := make([]Model, 0, len(docs))
	for i, md := range docs {
		if md.Name == "" {
			return nil, fmt.Errorf("model %d: missing name", i+1)
		}
		m := Model{Name: md.Name, Quoted: md.Quoted, Fields: make([]Field, 0, len(md.Fields))}
		for j, fd := range md.Fields {
			if fd.Name == "" {
				return nil, fmt.Errorf("model %s field %d: missing name", md.Name, j+1)
			}
			t, err := ParseType(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("model %s field %s: %w", md.Name, fd.Name, err)
			}
			m.Fields = append(m.Fields, Field{
				Name:       fd.Name,
				Type:       t,
				PrimaryKey: fd.PrimaryKey,
				Nullable:   fd.Nullable,
				Quoted:     fd.Quoted,
			})
		}
		models = append(models, m)
	}
	return models, nil
}

// Encode writes models in the document shape Decode reads.
func Encode(w io.Writer, models []Model) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Models []Model `yaml:"models"`
	}{models}); err != nil {
		return fmt.Errorf("encode models: %w", err)
	}
	return enc.Close()
}
