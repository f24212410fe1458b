// Package sqlparser turns CREATE TABLE statements into model definitions.
package sqlparser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/jrazmi/crudsmith/app/generators/schema"
)

// Parser parses a single CREATE TABLE statement.
var Parser = participle.MustBuild[CreateTable](
	participle.Lexer(SQLLexer),
	participle.Elide("Whitespace", "BlockComment", "LineComment"),
	participle.UseLookahead(4),
	participle.CaseInsensitive("Ident"),
)

var createTableRe = regexp.MustCompile(`(?is)^(?:\s+|(?:--|#)[^\n]*(?:\n|$)|/\*.*?\*/)*CREATE\s+(?:(?:GLOBAL|LOCAL)\s+)?(?:(?:TEMPORARY|TEMP)\s+)?(?:UNLOGGED\s+)?TABLE\b`)

// Table is the parsed shape of one CREATE TABLE statement.
type Table struct {
	Name        string
	Quoted      bool
	Schema      string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKeyInfo
}

// Column is one parsed column definition.
type Column struct {
	Name          string
	Quoted        bool
	DBType        string
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	HasDefault    bool
	Default       string
}

// ForeignKeyInfo is a resolved foreign key, inline or table level.
type ForeignKeyInfo struct {
	Columns    []string
	RefTable   string
	RefSchema  string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

// ParseError reports a CREATE TABLE statement that does not parse. Line is
// relative to the whole script.
type ParseError struct {
	Statement int
	Line      int
	Column    int
	Message   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("statement %d, line %d:%d: %s", e.Statement, e.Line, e.Column, e.Message)
}

// Parse extracts every CREATE TABLE statement of a script, in order. Other
// statements (CREATE DATABASE, USE, INSERT, indexes, ...) are skipped.
func Parse(sql string) ([]Table, error) {
	var tables []Table
	for i, stmt := range splitStatements(sql) {
		if !createTableRe.MatchString(stmt.text) {
			continue
		}
		ast, err := Parser.ParseString("", stmt.text)
		if err != nil {
			return nil, statementError(i+1, stmt.line, err)
		}
		tables = append(tables, ast.table())
	}
	return tables, nil
}

// ParseModels parses a script and converts each table into a model. Table
// order is model order and column order is field order. The first primary
// key column becomes the identifier.
func ParseModels(sql string) ([]schema.Model, error) {
	tables, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	models := make([]schema.Model, len(tables))
	for i, t := range tables {
		models[i] = t.Model()
	}
	return models, nil
}

// Model converts the table into a model definition.
func (t Table) Model() schema.Model {
	m := schema.Model{Name: t.Name, Quoted: t.Quoted, Fields: make([]schema.Field, len(t.Columns))}
	identifier := ""
	if len(t.PrimaryKey) > 0 {
		identifier = t.PrimaryKey[0]
	}
	for i, c := range t.Columns {
		typ, _ := schema.TypeFromSQL(c.DBType)
		m.Fields[i] = schema.Field{
			Name:       c.Name,
			Type:       typ,
			PrimaryKey: c.Name == identifier,
			Nullable:   c.Nullable,
			Quoted:     c.Quoted,
		}
	}
	return m
}

func statementError(n, line int, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &ParseError{
			Statement: n,
			Line:      line + pos.Line - 1,
			Column:    pos.Column,
			Message:   perr.Message(),
		}
	}
	return &ParseError{Statement: n, Line: line, Message: err.Error()}
}

func (ct *CreateTable) table() Table {
	t := Table{
		Name:   ct.Name.Table(),
		Quoted: ct.Name.Quoted(),
		Schema: ct.Name.Schema(),
	}

	for _, el := range ct.Elements {
		switch {
		case el.Column != nil:
			col, fk := el.Column.column()
			t.Columns = append(t.Columns, col)
			if col.PrimaryKey && len(t.PrimaryKey) == 0 {
				t.PrimaryKey = []string{col.Name}
			}
			if fk != nil {
				t.ForeignKeys = append(t.ForeignKeys, *fk)
			}

		case el.Constraint != nil:
			c := el.Constraint
			if c.PrimaryKey != nil {
				t.PrimaryKey = c.PrimaryKey.names()
			}
			if c.ForeignKey != nil {
				fk := c.ForeignKey.Reference.info(unquoteAll(c.ForeignKey.Columns))
				t.ForeignKeys = append(t.ForeignKeys, fk)
			}
		}
	}

	// Key columns are never nullable, whichever way the key was declared.
	for _, pk := range t.PrimaryKey {
		for i := range t.Columns {
			if t.Columns[i].Name == pk {
				t.Columns[i].PrimaryKey = true
				t.Columns[i].Nullable = false
			}
		}
	}

	return t
}

func (cd *ColumnDef) column() (Column, *ForeignKeyInfo) {
	col := Column{
		Name:     unquote(cd.Name),
		Quoted:   quoted(cd.Name),
		DBType:   cd.Type.String(),
		Nullable: true,
	}
	var fk *ForeignKeyInfo

	for _, c := range cd.Constraints {
		switch {
		case c.PrimaryKey:
			col.PrimaryKey = true
			col.Nullable = false
		case c.NotNull:
			col.Nullable = false
		case c.AutoIncrement:
			col.AutoIncrement = true
		case c.Default != nil:
			col.HasDefault = true
			col.Default = c.Default.String()
		case c.References != nil:
			info := c.References.info([]string{col.Name})
			fk = &info
		}
	}

	if base := strings.ToLower(cd.Type.Name); strings.HasSuffix(base, "serial") {
		col.AutoIncrement = true
		col.HasDefault = true
	}
	return col, fk
}

func (r *Reference) info(columns []string) ForeignKeyInfo {
	fk := ForeignKeyInfo{
		Columns:    columns,
		RefTable:   r.Table.Table(),
		RefSchema:  r.Table.Schema(),
		RefColumns: unquoteAll(r.Columns),
	}
	for _, a := range r.Actions {
		action := strings.ToUpper(strings.Join(a.Action, " "))
		switch strings.ToUpper(a.Event) {
		case "DELETE":
			fk.OnDelete = action
		case "UPDATE":
			fk.OnUpdate = action
		}
	}
	return fk
}

func (k *KeyColumns) names() []string {
	names := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		names[i] = unquote(c.Name)
	}
	return names
}

func unquoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = unquote(n)
	}
	return out
}
