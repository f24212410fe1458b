package sqlparser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SQLLexer tokenizes DDL for mysql, postgres and sqlite. Keywords are lexed as
// Ident and matched case insensitively by the parser.
var SQLLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "LineComment", Pattern: `(?:--|#)[^\r\n]*`},

	{Name: "String", Pattern: `'(?:[^'\\]|''|\\.)*'`},
	{Name: "QuotedIdent", Pattern: "`[^`]*`|\"(?:[^\"]|\"\")*\""},

	{Name: "Number", Pattern: `(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},

	{Name: "Punct", Pattern: `[(),.;\[\]]`},
	{Name: "Operator", Pattern: `::|<=|>=|<>|!=|\|\||[-+*/%<>=!~^&|:@?]`},
})
