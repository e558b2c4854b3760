package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer tokenizes SQL DDL. Keywords are ordinary Ident tokens; the
// parsers match them case-insensitively by literal. Identifiers may be
// double-quoted (with "" escapes) or backtick-quoted.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Whitespace and comments (elided by the parsers)
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "LineComment", Pattern: `--[^\r\n]*`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},

	// Literals
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"` + "|`[^`]+`"},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?(?:[eE][+-]?\d+)?|\.\d+`},

	// Multi-character operators before their single-character prefixes
	{Name: "NotEqual", Pattern: `<>|!=`},
	{Name: "LessEqual", Pattern: `<=`},
	{Name: "GreaterEqual", Pattern: `>=`},
	{Name: "Concat", Pattern: `\|\|`},

	{Name: "Eq", Pattern: `=`},
	{Name: "Less", Pattern: `<`},
	{Name: "Greater", Pattern: `>`},
	{Name: "Plus", Pattern: `\+`},
	{Name: "Minus", Pattern: `-`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Slash", Pattern: `/`},
	{Name: "Percent", Pattern: `%`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
})
