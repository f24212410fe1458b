// Package routegen builds the typed route IR for every model: one RouteBlock
// per verb carrying the HTTP surface, the bound parameters and the SQL
// statements a handler runs. Rendering the IR into source is scriptgen's job.
package routegen

import (
	"fmt"
	"strings"

	"github.com/jrazmi/crudsmith/app/generators/schema"
)

// Verb is one of the four CRUD operations.
type Verb string

const (
	VerbCreate Verb = "create"
	VerbRead   Verb = "read"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Verbs lists the verbs in emission order.
var Verbs = []Verb{VerbCreate, VerbRead, VerbUpdate, VerbDelete}

// Source says where a handler parameter comes from.
type Source string

const (
	SourcePath Source = "path"
	SourceBody Source = "body"
)

// DeleteMode selects what a generated delete handler does.
type DeleteMode string

const (
	// DeleteUnspecified registers the route but answers 501 Not Implemented.
	DeleteUnspecified DeleteMode = "unspecified"
	// DeleteHard removes the row.
	DeleteHard DeleteMode = "hard"
	// DeleteSoft flags the row through a configured column.
	DeleteSoft DeleteMode = "soft"
)

// ParseDeleteMode resolves a delete mode name. Empty selects DeleteUnspecified.
func ParseDeleteMode(s string) (DeleteMode, error) {
	switch DeleteMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeleteUnspecified:
		return DeleteUnspecified, nil
	case DeleteHard:
		return DeleteHard, nil
	case DeleteSoft:
		return DeleteSoft, nil
	}
	return "", fmt.Errorf("unknown delete mode %q", s)
}

// Param is one handler parameter.
type Param struct {
	// Name is the wire name: the path wildcard or JSON key. It is also the
	// column name.
	Name string

	// GoName is the exported struct field name.
	GoName string

	// Var is the handler local variable holding a path parameter.
	Var string

	Type     schema.Type
	Source   Source
	Optional bool
	Nullable bool
}

// Statement is one SQL statement with positional bindings.
type Statement struct {
	// Name identifies the statement within its block.
	Name string

	// SQL uses the dialect's bind markers. Values are never interpolated.
	SQL string

	// Binds names the bound parameters in bind order.
	Binds []string
}

// Statement names.
const (
	StmtInsert    = "insert"
	StmtSelectAll = "selectAll"
	StmtSelectOne = "selectOne"
	StmtExists    = "exists"
	StmtUpdate    = "update"
	StmtDelete    = "delete"
)

// RouteBlock is the IR of one generated handler.
type RouteBlock struct {
	Model     string
	ModelType string
	Verb      Verb
	Method    string
	Path      string
	Handler   string
	Doc       string

	// BodyType is the Go type decoded from the request body, "" when the
	// handler reads no body.
	BodyType string

	// Params are the handler parameters in declaration order.
	Params []Param

	// Identifier is the path identifier, nil for models without one.
	Identifier *Param

	// Statements run in order.
	Statements []Statement

	// Success is the message of a successful write. A %v verb receives the
	// identifier value.
	Success string

	// NotFound is the 404 detail. A %v verb receives the identifier value.
	NotFound string

	// Unsupported, when set, makes the handler answer 501 with this detail
	// without touching the database.
	Unsupported string

	// SoftDelete is the column a soft delete flags, with its type.
	SoftDelete *Param
}

// Patterns returns the net/http mux patterns the block registers. A trailing
// slash is anchored with {$}; a read with an identifier also serves the
// collection.
func (b RouteBlock) Patterns() []string {
	anchor := func(p string) string {
		if strings.HasSuffix(p, "/") {
			return p + "{$}"
		}
		return p
	}
	patterns := []string{b.Method + " " + anchor(b.Path)}
	if b.Verb == VerbRead && b.Identifier != nil {
		patterns = append(patterns, b.Method+" "+anchor("/"+b.Model+"/"))
	}
	return patterns
}

// Statement looks up a statement by name.
func (b RouteBlock) Statement(name string) (Statement, bool) {
	for _, s := range b.Statements {
		if s.Name == name {
			return s, true
		}
	}
	return Statement{}, false
}

// BodyParams returns the parameters bound from the request body.
func (b RouteBlock) BodyParams() []Param {
	var out []Param
	for _, p := range b.Params {
		if p.Source == SourceBody {
			out = append(out, p)
		}
	}
	return out
}

// ModelRoutes groups a model with its introspection and its four blocks.
type ModelRoutes struct {
	Model         schema.Model
	Introspection schema.Introspection
	TypeName      string
	Fields        []Param
	Routes        []RouteBlock
}

// Route returns the block for a verb.
func (mr ModelRoutes) Route(v Verb) (RouteBlock, bool) {
	for _, r := range mr.Routes {
		if r.Verb == v {
			return r, true
		}
	}
	return RouteBlock{}, false
}
