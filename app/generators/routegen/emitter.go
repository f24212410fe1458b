package routegen

import (
	"fmt"
	"go/token"
	"go/types"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/schema/dialect"
)

var (
	plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	goIdent    = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
)

// Emitter turns models into RouteBlocks.
type Emitter struct {
	dialect    dialect.Dialect
	deleteMode DeleteMode
	softColumn string
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithDialect selects the bind marker style. The default is mysql.
func WithDialect(d dialect.Dialect) Option {
	return func(e *Emitter) {
		e.dialect = d
	}
}

// WithDeleteMode selects the delete behavior. Soft deletes need the column
// to flag, which must exist on every model.
func WithDeleteMode(mode DeleteMode, softColumn string) Option {
	return func(e *Emitter) {
		e.deleteMode = mode
		e.softColumn = softColumn
	}
}

// New returns an Emitter with the given options applied.
func New(opts ...Option) *Emitter {
	e := &Emitter{
		dialect:    dialect.Default,
		deleteMode: DeleteUnspecified,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan emits the routes of every model, preserving model order.
func (e *Emitter) Plan(models []schema.Model) ([]ModelRoutes, error) {
	plan := make([]ModelRoutes, 0, len(models))
	types := make(map[string]string, 2*len(models))
	for _, m := range models {
		mr, err := e.Emit(m)
		if err != nil {
			return nil, err
		}
		for _, name := range []string{mr.TypeName, mr.TypeName + "Update"} {
			if prev, ok := types[name]; ok {
				return nil, &EmitError{Model: m.Name, Message: fmt.Sprintf("collides with model %s as Go type %s", prev, name)}
			}
			types[name] = m.Name
		}
		plan = append(plan, mr)
	}
	return plan, nil
}

// Emit introspects a model once and builds its four RouteBlocks in
// create, read, update, delete order.
func (e *Emitter) Emit(m schema.Model) (ModelRoutes, error) {
	if err := checkNames(m); err != nil {
		return ModelRoutes{}, err
	}

	in := schema.Introspect(m)
	mr := ModelRoutes{
		Model:         m,
		Introspection: in,
		TypeName:      inflect.Camelize(m.Name),
		Fields:        bodyParams(in.Fields),
	}

	update, err := e.Update(m, in)
	if err != nil {
		return ModelRoutes{}, err
	}
	del, err := e.Delete(m, in)
	if err != nil {
		return ModelRoutes{}, err
	}
	mr.Routes = []RouteBlock{e.Create(m, in), e.Read(m, in), update, del}
	return mr, nil
}

// Create builds POST /M/. The whole model is the body; the identifier is
// left to the database.
func (e *Emitter) Create(m schema.Model, in schema.Introspection) RouteBlock {
	fields := in.FieldNames()
	table := e.table(m)

	var sql string
	switch {
	case len(fields) > 0:
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, e.columns(in.Fields), strings.Join(e.dialect.Placeholders(1, len(fields)), ", "))
	case e.dialect == dialect.MySQL:
		sql = fmt.Sprintf("INSERT INTO %s () VALUES ()", table)
	default:
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	}

	typeName := inflect.Camelize(m.Name)
	return RouteBlock{
		Model:      m.Name,
		ModelType:  typeName,
		Verb:       VerbCreate,
		Method:     http.MethodPost,
		Path:       "/" + m.Name + "/",
		Handler:    "create" + typeName,
		Doc:        fmt.Sprintf("creates a %s from the JSON request body.", m.Name),
		BodyType:   typeName,
		Params:     bodyParams(in.Fields),
		Statements: []Statement{{Name: StmtInsert, SQL: sql, Binds: fields}},
		Success:    m.Name + " successfully created",
	}
}

// Read builds GET /M/{P}, or GET /M/None for models without identifier.
// Without an id every row is returned; with one the filter is bound.
func (e *Emitter) Read(m schema.Model, in schema.Introspection) RouteBlock {
	typeName := inflect.Camelize(m.Name)
	b := RouteBlock{
		Model:     m.Name,
		ModelType: typeName,
		Verb:      VerbRead,
		Method:    http.MethodGet,
		Path:      e.path(m, in),
		Handler:   "read" + typeName,
		NotFound:  "Data not found",
	}

	columns := e.columns(in.Fields)
	switch {
	case columns != "":
	case in.HasIdentifier():
		columns = e.column(*in.Identifier)
	default:
		columns = "*"
	}
	table := e.table(m)
	b.Statements = []Statement{{
		Name: StmtSelectAll,
		SQL:  fmt.Sprintf("SELECT %s FROM %s", columns, table),
	}}

	if in.HasIdentifier() {
		id := identifierParam(*in.Identifier, true)
		b.Identifier = &id
		b.Params = []Param{id}
		b.Doc = fmt.Sprintf("returns every %s, or the one whose %s matches the path.", m.Name, id.Name)
		b.Statements = append(b.Statements, Statement{
			Name:  StmtSelectOne,
			SQL:   fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", columns, table, e.column(*in.Identifier), e.dialect.Placeholder(1)),
			Binds: []string{id.Name},
		})
	} else {
		b.Doc = fmt.Sprintf("returns every %s. The model declares no identifier.", m.Name)
	}
	return b
}

// Update builds PUT /M/{P}. The identifier comes from the path, the fields
// from the body. The row must exist before it is updated.
func (e *Emitter) Update(m schema.Model, in schema.Introspection) (RouteBlock, error) {
	typeName := inflect.Camelize(m.Name)
	b := RouteBlock{
		Model:     m.Name,
		ModelType: typeName,
		Verb:      VerbUpdate,
		Method:    http.MethodPut,
		Path:      e.path(m, in),
		Handler:   "update" + typeName,
	}

	if !in.HasIdentifier() {
		b.Params = bodyParams(in.Fields)
		b.Doc = fmt.Sprintf("answers 501: %s declares no identifier to update by.", m.Name)
		b.Unsupported = m.Name + " declares no identifier field"
		return b, nil
	}

	id := identifierParam(*in.Identifier, false)
	b.Identifier = &id
	b.Params = append([]Param{id}, bodyParams(in.Fields)...)

	fields := in.FieldNames()
	if len(fields) == 0 {
		b.Doc = fmt.Sprintf("answers 501: %s has no fields besides %s.", m.Name, id.Name)
		b.Unsupported = m.Name + " has no fields to update"
		return b, nil
	}

	table := e.table(m)
	where := e.column(*in.Identifier)
	sets := make([]string, len(in.Fields))
	for i, f := range in.Fields {
		sets[i] = e.column(f) + " = " + e.dialect.Placeholder(i+1)
	}

	b.Doc = fmt.Sprintf("replaces the fields of the %s identified by %s.", m.Name, id.Name)
	b.BodyType = typeName + "Update"
	b.Statements = []Statement{
		e.exists(table, where, id.Name),
		{
			Name:  StmtUpdate,
			SQL:   fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s", table, strings.Join(sets, ", "), where, e.dialect.Placeholder(len(fields)+1)),
			Binds: append(append([]string{}, fields...), id.Name),
		},
	}
	b.NotFound = m.Name + " with ID %v not found"
	b.Success = m.Name + " with ID %v successfully updated"
	return b, nil
}

// Delete builds DELETE /M/{P}. What deleting means is configured; unless a
// mode is chosen the handler answers 501.
func (e *Emitter) Delete(m schema.Model, in schema.Introspection) (RouteBlock, error) {
	typeName := inflect.Camelize(m.Name)
	b := RouteBlock{
		Model:     m.Name,
		ModelType: typeName,
		Verb:      VerbDelete,
		Method:    http.MethodDelete,
		Path:      e.path(m, in),
		Handler:   "delete" + typeName,
	}

	if !in.HasIdentifier() {
		b.Doc = fmt.Sprintf("answers 501: %s declares no identifier to delete by.", m.Name)
		b.Unsupported = m.Name + " declares no identifier field"
		return b, nil
	}

	id := identifierParam(*in.Identifier, false)
	b.Identifier = &id
	b.Params = []Param{id}

	table := e.table(m)
	where := e.column(*in.Identifier)

	switch e.deleteMode {
	case DeleteHard:
		b.Doc = fmt.Sprintf("removes the %s identified by %s.", m.Name, id.Name)
		b.Statements = []Statement{
			e.exists(table, where, id.Name),
			{
				Name:  StmtDelete,
				SQL:   fmt.Sprintf("DELETE FROM %s WHERE %s = %s", table, where, e.dialect.Placeholder(1)),
				Binds: []string{id.Name},
			},
		}
		b.NotFound = m.Name + " with ID %v not found"
		b.Success = m.Name + " with ID %v successfully deleted"

	case DeleteSoft:
		field, ok := in.Field(e.softColumn)
		if !ok {
			return RouteBlock{}, &EmitError{Model: m.Name, Verb: VerbDelete, Field: e.softColumn, Message: "soft delete column does not exist"}
		}
		switch field.Type {
		case schema.TypeBool, schema.TypeDateTime, schema.TypeDate:
		default:
			return RouteBlock{}, &EmitError{Model: m.Name, Verb: VerbDelete, Field: field.Name, Message: "soft delete column must be bool, datetime or date"}
		}
		flag := fieldParam(field)
		b.SoftDelete = &flag
		b.Doc = fmt.Sprintf("deactivates the %s identified by %s by setting %s.", m.Name, id.Name, field.Name)
		b.Statements = []Statement{
			e.exists(table, where, id.Name),
			{
				Name:  StmtDelete,
				SQL:   fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s", table, e.column(field), e.dialect.Placeholder(1), where, e.dialect.Placeholder(2)),
				Binds: []string{field.Name, id.Name},
			},
		}
		b.NotFound = m.Name + " with ID %v not found"
		b.Success = m.Name + " with ID %v successfully deactivated"

	default:
		b.Doc = fmt.Sprintf("is registered for %s but answers 501 until a delete mode is configured.", m.Name)
		b.Unsupported = fmt.Sprintf("delete is not defined for %s", m.Name)
	}
	return b, nil
}

func (e *Emitter) exists(table, where, id string) Statement {
	return Statement{
		Name:  StmtExists,
		SQL:   fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", table, where, e.dialect.Placeholder(1)),
		Binds: []string{id},
	}
}

func (e *Emitter) path(m schema.Model, in schema.Introspection) string {
	if in.HasIdentifier() {
		return "/" + m.Name + "/{" + in.Identifier.Name + "}"
	}
	return "/" + m.Name + "/None"
}

func (e *Emitter) table(m schema.Model) string {
	return e.dialect.Ident(m.Name, m.Quoted)
}

func (e *Emitter) column(f schema.Field) string {
	return e.dialect.Ident(f.Name, f.Quoted)
}

func (e *Emitter) columns(fields []schema.Field) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = e.column(f)
	}
	return strings.Join(quoted, ", ")
}

func fieldParam(f schema.Field) Param {
	return Param{
		Name:     f.Name,
		GoName:   inflect.Camelize(f.Name),
		Var:      localName(f.Name),
		Type:     f.Type,
		Source:   SourceBody,
		Nullable: f.Nullable,
	}
}

func bodyParams(fields []schema.Field) []Param {
	params := make([]Param, len(fields))
	for i, f := range fields {
		params[i] = fieldParam(f)
	}
	return params
}

// identifierParam types the path identifier. String identifiers stay
// strings; everything else is parsed as an integer.
func identifierParam(f schema.Field, optional bool) Param {
	p := fieldParam(f)
	p.Source = SourcePath
	p.Optional = optional
	p.Nullable = false
	if p.Type != schema.TypeString {
		p.Type = schema.TypeInt
	}
	return p
}

// reservedLocals are names a generated handler already uses: its own
// parameters and locals, the file level helpers it calls and the packages
// it imports.
var reservedLocals = map[string]bool{
	"w": true, "r": true, "err": true, "input": true, "result": true,
	"raw": true, "existing": true, "ctx": true, "query": true, "params": true,
	"writeError": true, "writeJSON": true, "executeQuery": true, "fetchAll": true,
	"dbError": true, "httpError": true, "dbConfig": true,
	"json": true, "http": true, "fmt": true, "strconv": true, "errors": true,
	"time": true, "sql": true, "slog": true, "os": true, "context": true,
	"mysql": true, "pgconn": true, "sqlite": true,
}

// localName lower cases the first letter and steers clear of keywords,
// predeclared identifiers and names already taken inside a handler.
func localName(name string) string {
	v := inflect.CamelizeDownFirst(name)
	if token.IsKeyword(v) || reservedLocals[v] || types.Universe.Lookup(v) != nil {
		return v + "Param"
	}
	return v
}

// checkNames rejects names that cannot appear in a URL path, a mux wildcard
// and a Go identifier all at once.
func checkNames(m schema.Model) error {
	if m.Name == "" {
		return &EmitError{Message: "model has no name"}
	}
	if !plainIdent.MatchString(m.Name) || !goIdent.MatchString(inflect.Camelize(m.Name)) {
		return &EmitError{Model: m.Name, Message: "model name is not a plain identifier"}
	}

	seen := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		goName := inflect.Camelize(f.Name)
		if !plainIdent.MatchString(f.Name) || !goIdent.MatchString(goName) {
			return &EmitError{Model: m.Name, Field: f.Name, Message: "field name is not a plain identifier"}
		}
		if prev, ok := seen[goName]; ok {
			return &EmitError{Model: m.Name, Field: f.Name, Message: fmt.Sprintf("collides with field %s as Go name %s", prev, goName)}
		}
		seen[goName] = f.Name
	}
	return nil
}
