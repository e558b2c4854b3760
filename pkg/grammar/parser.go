// Package grammar parses SQL DDL text into typed statement nodes. It plays
// the external-grammar role in the schema pipeline: raw text comes in, a
// sequence of statement nodes goes out, and everything the vocabulary does
// not cover is returned as an Unsupported node rather than an error, so the
// downstream adapter can skip it.
package grammar

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var parserOptions = []participle.Option{
	participle.Lexer(sqlLexer),
	participle.Elide("Whitespace", "LineComment", "BlockComment"),
	participle.UseLookahead(10),
	participle.CaseInsensitive("Ident"), // SQL keywords are case-insensitive
}

var (
	createTableParser = participle.MustBuild[CreateTable](parserOptions...)
	createIndexParser = participle.MustBuild[CreateIndex](parserOptions...)
	alterTableParser  = participle.MustBuild[AlterTable](parserOptions...)
)

// ParseError reports input the grammar could not tokenize, or a statement
// inside the supported vocabulary that is malformed. It wraps the underlying
// lexer/parser error.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("grammar: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse turns raw DDL text into a sequence of statement nodes. Statements
// outside the supported vocabulary come back as *Unsupported; only a
// tokenizer failure or a malformed supported statement yields an error.
func Parse(sqlText string) ([]Statement, error) {
	tokens, err := tokenize(sqlText)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var stmts []Statement
	for _, group := range splitStatements(tokens) {
		text := statementText(sqlText, group)
		var (
			node Statement
			perr error
		)
		switch classify(group) {
		case headCreateTable:
			node, perr = createTableParser.ParseString("", text)
		case headCreateIndex:
			node, perr = createIndexParser.ParseString("", text)
		case headAlterTable:
			node, perr = alterTableParser.ParseString("", text)
		default:
			node = &Unsupported{Text: text}
		}
		if perr != nil {
			return nil, &ParseError{Err: perr}
		}
		stmts = append(stmts, node)
	}
	return stmts, nil
}

type statementHead int

const (
	headUnsupported statementHead = iota
	headCreateTable
	headCreateIndex
	headAlterTable
)

// classify inspects the leading tokens of a statement and decides which
// dedicated parser, if any, handles it. Anything else is out of vocabulary
// and must be skipped, never rejected.
func classify(tokens []lexer.Token) statementHead {
	kw := func(i int) string {
		if i >= len(tokens) {
			return ""
		}
		return strings.ToUpper(tokens[i].Value)
	}

	switch kw(0) {
	case "CREATE":
		switch kw(1) {
		case "TABLE":
			return headCreateTable
		case "INDEX":
			return headCreateIndex
		case "UNIQUE":
			if kw(2) == "INDEX" {
				return headCreateIndex
			}
		}
	case "ALTER":
		if kw(1) != "TABLE" {
			return headUnsupported
		}
		// Only the ADD CONSTRAINT family is in vocabulary; ALTER TABLE
		// ... DROP/RENAME/ADD COLUMN are skipped like any other foreign
		// statement.
		for i := 2; i < len(tokens)-1; i++ {
			if strings.ToUpper(tokens[i].Value) == "ADD" {
				switch strings.ToUpper(tokens[i+1].Value) {
				case "CONSTRAINT", "PRIMARY", "FOREIGN", "UNIQUE", "CHECK":
					return headAlterTable
				}
				return headUnsupported
			}
		}
	}
	return headUnsupported
}

// tokenize runs the lexer over the whole input. This is where adversarial
// byte sequences fail: an unterminated string or an unrecognized character
// surfaces here, before any statement is examined.
func tokenize(input string) ([]lexer.Token, error) {
	lx, err := sqlLexer.Lex("", strings.NewReader(input))
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// splitStatements groups significant tokens between top-level semicolons.
// Whitespace, comments and empty statements are dropped. String literals
// have already been tokenized, so semicolons inside them never split.
func splitStatements(tokens []lexer.Token) [][]lexer.Token {
	symbols := sqlLexer.Symbols()
	skip := map[lexer.TokenType]bool{
		symbols["Whitespace"]:   true,
		symbols["LineComment"]:  true,
		symbols["BlockComment"]: true,
		lexer.EOF:               true,
	}
	semicolon := symbols["Semicolon"]

	var groups [][]lexer.Token
	var current []lexer.Token
	for _, tok := range tokens {
		switch {
		case tok.Type == semicolon:
			if len(current) > 0 {
				groups = append(groups, current)
				current = nil
			}
		case skip[tok.Type]:
			// elided
		default:
			current = append(current, tok)
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// statementText slices the original input from the first to the last
// significant token of a statement, preserving the author's spelling.
func statementText(input string, tokens []lexer.Token) string {
	first := tokens[0].Pos.Offset
	last := tokens[len(tokens)-1]
	return input[first : last.Pos.Offset+len(last.Value)]
}
