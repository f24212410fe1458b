// Package scriptgen renders the route IR into the generated service: a single
// Go source file holding the connection literal, the model types, the shared
// query helper, every handler and the route table.
package scriptgen

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"
	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/schema/dialect"
)

// FileName is the fixed name of the generated file.
const FileName = "crud_api.go"

const headerComment = "Code generated by crudsmith. DO NOT EDIT."

// Header carries what the generated file is configured with before any
// model is rendered.
type Header struct {
	Package    string
	Dialect    dialect.Dialect
	Connection dialect.Connection
}

// Option configures the header of a Script.
type Option func(*Header)

// WithPackage sets the package clause. The default is main.
func WithPackage(name string) Option {
	return func(h *Header) {
		h.Package = name
	}
}

// WithDialect selects the driver and persistence error type.
func WithDialect(d dialect.Dialect) Option {
	return func(h *Header) {
		h.Dialect = d
	}
}

// WithConnection sets the connection literal.
func WithConnection(c dialect.Connection) Option {
	return func(h *Header) {
		h.Connection = c
	}
}

// Script is an assembled service: the header and the routes of every model
// in declaration order.
type Script struct {
	Header Header
	Models []routegen.ModelRoutes
}

// Assemble builds a Script from an emitted plan.
func Assemble(models []routegen.ModelRoutes, opts ...Option) *Script {
	h := Header{
		Package:    "main",
		Dialect:    dialect.Default,
		Connection: dialect.DefaultConnection(),
	}
	for _, opt := range opts {
		opt(&h)
	}
	return &Script{Header: h, Models: models}
}

// Routes returns every RouteBlock in emission order.
func (s *Script) Routes() []routegen.RouteBlock {
	var out []routegen.RouteBlock
	for _, mr := range s.Models {
		out = append(out, mr.Routes...)
	}
	return out
}

// File builds the jennifer file. Sections are added in a fixed order so the
// output only depends on the models and the header.
func (s *Script) File() *jen.File {
	f := jen.NewFile(s.Header.Package)
	f.HeaderComment(headerComment)

	genConfig(f, s.Header)
	for _, mr := range s.Models {
		genModelTypes(f, mr)
	}
	genHelpers(f, s.Header.Dialect)
	for _, mr := range s.Models {
		for _, b := range mr.Routes {
			genHandler(f, b)
		}
	}
	genRoutes(f, s.Models)
	genMain(f)
	return f
}

// Render writes the formatted source to w.
func (s *Script) Render(w io.Writer) error {
	if err := s.File().Render(w); err != nil {
		return fmt.Errorf("render %s: %w", FileName, err)
	}
	return nil
}

// Bytes returns the formatted source.
func (s *Script) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
