package sqlparser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// ----------------------------------------------------------------------------
// CREATE TABLE AST
//
// Only the parts of a table definition that shape a model are modelled
// precisely: table name, columns with their types and key flags, and table
// level key constraints. Everything else is captured as opaque tokens so the
// common dialect extensions parse without error.
// ----------------------------------------------------------------------------

// CreateTable is a single CREATE TABLE statement.
type CreateTable struct {
	Pos         lexer.Position
	Temporary   bool            `"CREATE" ( "GLOBAL" | "LOCAL" )? @( "TEMPORARY" | "TEMP" )? "UNLOGGED"? "TABLE"`
	IfNotExists bool            `@( "IF" "NOT" "EXISTS" )?`
	Name        *QualifiedName  `@@`
	Elements    []*TableElement `"(" @@ ( "," @@ )* ")"`
	Options     []*GroupItem    `@@*`
}

// QualifiedName is a possibly schema qualified, possibly quoted name.
type QualifiedName struct {
	Parts []string `@( Ident | QuotedIdent ) ( "." @( Ident | QuotedIdent ) )*`
}

// TableElement is either a table constraint or a column definition.
type TableElement struct {
	Pos        lexer.Position
	Constraint *TableConstraint `  @@`
	Column     *ColumnDef       `| @@`
}

// TableConstraint is a table level key, check or index clause.
type TableConstraint struct {
	Pos        lexer.Position
	Name       string      `( "CONSTRAINT" @( Ident | QuotedIdent ) )?`
	PrimaryKey *KeyColumns `( "PRIMARY" "KEY" @@`
	ForeignKey *ForeignKey `| "FOREIGN" "KEY" @@`
	Unique     *KeyColumns `| "UNIQUE" ( "KEY" | "INDEX" )? @@`
	Check      *Group      `| "CHECK" @@`
	Index      *KeyColumns `| ( "KEY" | "INDEX" | "FULLTEXT" | "SPATIAL" ) ( "KEY" | "INDEX" )? @@ )`
	Rest       []*Chunk    `@@*`
}

// KeyColumns is an optionally named, parenthesized column list.
type KeyColumns struct {
	Name    string       `@( Ident | QuotedIdent )?`
	Columns []*KeyColumn `"(" @@ ( "," @@ )* ")"`
}

// KeyColumn is one entry of a key column list.
type KeyColumn struct {
	Name   string `@( Ident | QuotedIdent )`
	Length string `( "(" @Number ")" )?`
	Order  string `@( "ASC" | "DESC" )?`
}

// ForeignKey is a table level FOREIGN KEY clause.
type ForeignKey struct {
	Name      string     `@( Ident | QuotedIdent )?`
	Columns   []string   `"(" @( Ident | QuotedIdent ) ( "," @( Ident | QuotedIdent ) )* ")"`
	Reference *Reference `@@`
}

// Reference is a REFERENCES clause shared by column and table constraints.
type Reference struct {
	Table   *QualifiedName `"REFERENCES" @@`
	Columns []string       `( "(" @( Ident | QuotedIdent ) ( "," @( Ident | QuotedIdent ) )* ")" )?`
	Actions []*RefAction   `@@*`
}

// RefAction is ON DELETE / ON UPDATE with its referential action.
type RefAction struct {
	Event  string   `"ON" @( "DELETE" | "UPDATE" )`
	Action []string `@( "CASCADE" | "RESTRICT" | "SET" "NULL" | "SET" "DEFAULT" | "NO" "ACTION" )`
}

// ColumnDef is a column name, its type and any inline constraints.
type ColumnDef struct {
	Pos         lexer.Position
	Name        string              `@( Ident | QuotedIdent )`
	Type        *DataType           `@@`
	Constraints []*ColumnConstraint `@@*`
}

// DataType is a column type such as VARCHAR(17), DECIMAL(10,2),
// DOUBLE PRECISION or TIMESTAMP WITH TIME ZONE.
type DataType struct {
	Name      string   `@Ident`
	Extra     []string `@( "PRECISION" | "VARYING" )*`
	Params    []string `( "(" @( Number | String | Ident ) ( "," @( Number | String | Ident ) )* ")" )?`
	Modifiers []string `@( "UNSIGNED" | "SIGNED" | "ZEROFILL" | "WITH" | "WITHOUT" | "TIME" | "ZONE" | "VARYING" )*`
	Array     bool     `@( "[" "]" )?`
}

// ColumnConstraint is one inline column clause.
type ColumnConstraint struct {
	PrimaryKey    bool       `  @( "PRIMARY" "KEY" )`
	NotNull       bool       `| @( "NOT" "NULL" )`
	Null          bool       `| @"NULL"`
	AutoIncrement bool       `| @( "AUTO_INCREMENT" | "AUTOINCREMENT" )`
	Unique        bool       `| @"UNIQUE" "KEY"?`
	Default       *Default   `| "DEFAULT" @@`
	References    *Reference `| @@`
	Check         *Group     `| "CHECK" @@`
	Named         string     `| "CONSTRAINT" @( Ident | QuotedIdent )`
	Group         *Group     `| @@`
	Other         string     `| @( Ident | QuotedIdent | String | Number | Operator | "." | "[" | "]" )`
}

// Default is a DEFAULT expression: a literal, a keyword, a parenthesized
// expression or a function call.
type Default struct {
	Value *Chunk `@@`
	Call  *Group `@@?`
}

// Chunk is an opaque token or balanced group that is not a list separator.
type Chunk struct {
	Group *Group `  @@`
	Token string `| @( Ident | QuotedIdent | String | Number | Operator | "." | "[" | "]" )`
}

// Group is a balanced parenthesized token sequence.
type Group struct {
	Items []*GroupItem `"(" @@* ")"`
}

// GroupItem is anything allowed inside a Group, commas included.
type GroupItem struct {
	Group *Group `  @@`
	Token string `| @( Ident | QuotedIdent | String | Number | Operator | "." | "," | "[" | "]" )`
}

// String renders the type back into a normalized SQL spelling.
func (d *DataType) String() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(d.Name))
	for _, w := range d.Extra {
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(w))
	}
	if len(d.Params) > 0 {
		b.WriteByte('(')
		b.WriteString(strings.Join(d.Params, ","))
		b.WriteByte(')')
	}
	for _, w := range d.Modifiers {
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(w))
	}
	if d.Array {
		b.WriteString("[]")
	}
	return b.String()
}

// String renders the chunk as SQL text.
func (c *Chunk) String() string {
	if c == nil {
		return ""
	}
	if c.Group != nil {
		return c.Group.String()
	}
	return c.Token
}

// String renders the group as SQL text.
func (g *Group) String() string {
	if g == nil {
		return ""
	}
	parts := make([]string, 0, len(g.Items))
	for _, it := range g.Items {
		if it.Group != nil {
			parts = append(parts, it.Group.String())
		} else {
			parts = append(parts, it.Token)
		}
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// String renders the default expression as SQL text.
func (d *Default) String() string {
	if d == nil {
		return ""
	}
	return d.Value.String() + d.Call.String()
}

// Table returns the unquoted table name, the last part of the qualified name.
func (n *QualifiedName) Table() string {
	if n == nil || len(n.Parts) == 0 {
		return ""
	}
	return unquote(n.Parts[len(n.Parts)-1])
}

// Quoted reports whether the table name was written quoted.
func (n *QualifiedName) Quoted() bool {
	return n != nil && len(n.Parts) > 0 && quoted(n.Parts[len(n.Parts)-1])
}

// Schema returns the unquoted schema qualifier, or "".
func (n *QualifiedName) Schema() string {
	if n == nil || len(n.Parts) < 2 {
		return ""
	}
	return unquote(n.Parts[len(n.Parts)-2])
}

func quoted(s string) bool {
	return len(s) >= 2 && (s[0] == '`' || s[0] == '"') && s[len(s)-1] == s[0]
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch q := s[0]; q {
	case '`', '"':
		if s[len(s)-1] == q {
			inner := s[1 : len(s)-1]
			return strings.ReplaceAll(inner, string([]byte{q, q}), string(q))
		}
	}
	return s
}
