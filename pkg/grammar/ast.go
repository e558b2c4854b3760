package grammar

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Statement is a parsed DDL statement node. The concrete types are
// *CreateTable, *CreateIndex, *AlterTable and *Unsupported; consumers switch
// over them and must treat unknown kinds as no-ops.
type Statement interface {
	stmt()
}

func (*CreateTable) stmt() {}
func (*CreateIndex) stmt() {}
func (*AlterTable) stmt()  {}
func (*Unsupported) stmt() {}

// Unsupported is a statement outside the supported DDL vocabulary (CREATE
// TRIGGER, CREATE POLICY, SELECT, ...). It carries the raw text so callers
// can report what was skipped.
type Unsupported struct {
	Text string
}

// ObjectName is a possibly schema-qualified name such as users or
// public.users.
type ObjectName struct {
	Parts []string `parser:"@(Ident | QuotedIdent) ( \".\" @(Ident | QuotedIdent) )*"`
}

// Name returns the unquoted object name (the last path component).
func (n *ObjectName) Name() string {
	if n == nil || len(n.Parts) == 0 {
		return ""
	}
	return unquoteIdent(n.Parts[len(n.Parts)-1])
}

// SchemaName returns the unquoted schema qualifier, or "" when the name is
// unqualified.
func (n *ObjectName) SchemaName() string {
	if n == nil || len(n.Parts) < 2 {
		return ""
	}
	return unquoteIdent(n.Parts[len(n.Parts)-2])
}

func (n *ObjectName) String() string {
	if n == nil {
		return ""
	}
	return strings.Join(n.Parts, ".")
}

// CreateTable is a CREATE TABLE statement.
type CreateTable struct {
	Pos         lexer.Position
	IfNotExists bool         `parser:"\"CREATE\" \"TABLE\" ( @\"IF\" \"NOT\" \"EXISTS\" )?"`
	Name        *ObjectName  `parser:"@@"`
	Defs        []*TableDef  `parser:"\"(\" @@ ( \",\" @@ )* \")\""`
}

// TableDef is one comma-separated element of a CREATE TABLE body: either a
// column definition or an out-of-line constraint.
type TableDef struct {
	Constraint *ConstraintDef `parser:"  @@"`
	Column     *ColumnDef     `parser:"| @@"`
}

// ConstraintDef is a table-level constraint, optionally named.
type ConstraintDef struct {
	Name       string          `parser:"( \"CONSTRAINT\" @(Ident | QuotedIdent) )?"`
	PrimaryKey *PrimaryKeyDef  `parser:"( @@"`
	ForeignKey *ForeignKeyDef  `parser:"| @@"`
	Unique     *UniqueDef      `parser:"| @@"`
	Check      *CheckDef       `parser:"| @@ )"`
}

// PrimaryKeyDef is PRIMARY KEY (col, ...).
type PrimaryKeyDef struct {
	Columns []string `parser:"\"PRIMARY\" \"KEY\" \"(\" @(Ident | QuotedIdent) ( \",\" @(Ident | QuotedIdent) )* \")\""`
}

// UniqueDef is UNIQUE (col, ...).
type UniqueDef struct {
	Columns []string `parser:"\"UNIQUE\" \"(\" @(Ident | QuotedIdent) ( \",\" @(Ident | QuotedIdent) )* \")\""`
}

// ForeignKeyDef is FOREIGN KEY (col, ...) REFERENCES ...
type ForeignKeyDef struct {
	Columns []string    `parser:"\"FOREIGN\" \"KEY\" \"(\" @(Ident | QuotedIdent) ( \",\" @(Ident | QuotedIdent) )* \")\""`
	Ref     *References `parser:"@@"`
}

// CheckDef is CHECK (expr).
type CheckDef struct {
	Expr *Expr `parser:"\"CHECK\" \"(\" @@ \")\""`
}

// References is the REFERENCES clause of a foreign key, shared by column
// options and table constraints.
type References struct {
	Table   *ObjectName  `parser:"\"REFERENCES\" @@"`
	Columns []string     `parser:"( \"(\" @(Ident | QuotedIdent) ( \",\" @(Ident | QuotedIdent) )* \")\" )?"`
	Actions []*RefAction `parser:"@@*"`
}

// RefAction is one ON DELETE / ON UPDATE clause.
type RefAction struct {
	OnDelete bool     `parser:"\"ON\" ( @\"DELETE\""`
	OnUpdate bool     `parser:"     | @\"UPDATE\" )"`
	Action   []string `parser:"( @\"CASCADE\" | @\"RESTRICT\" | @\"SET\" @(\"NULL\" | \"DEFAULT\") | @\"NO\" @\"ACTION\" )"`
}

// ActionText returns the action keywords joined and uppercased, e.g.
// "SET NULL".
func (a *RefAction) ActionText() string {
	return strings.ToUpper(strings.Join(a.Action, " "))
}

// ColumnDef is a single column definition.
type ColumnDef struct {
	Name    string          `parser:"@(Ident | QuotedIdent)"`
	Type    *TypeName       `parser:"@@"`
	Options []*ColumnOption `parser:"@@*"`
}

// UnquotedName returns the column name with identifier quoting removed.
func (c *ColumnDef) UnquotedName() string {
	return unquoteIdent(c.Name)
}

// TypeName is a declared column type, including the common multi-word and
// parameterized forms (CHARACTER VARYING(20), DOUBLE PRECISION, TIMESTAMP
// WITH TIME ZONE).
type TypeName struct {
	Name      string   `parser:"@Ident"`
	Varying   bool     `parser:"( @\"VARYING\""`
	Precision bool     `parser:"| @\"PRECISION\" )?"`
	Args      []string `parser:"( \"(\" @Number ( \",\" @Number )* \")\" )?"`
	With      bool     `parser:"( ( @\"WITH\""`
	Without   bool     `parser:"  | @\"WITHOUT\" ) \"TIME\" \"ZONE\" )?"`
}

func (t *TypeName) String() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	if t.Varying {
		sb.WriteString(" VARYING")
	}
	if t.Precision {
		sb.WriteString(" PRECISION")
	}
	if len(t.Args) > 0 {
		sb.WriteString("(")
		sb.WriteString(strings.Join(t.Args, ", "))
		sb.WriteString(")")
	}
	if t.With {
		sb.WriteString(" WITH TIME ZONE")
	}
	if t.Without {
		sb.WriteString(" WITHOUT TIME ZONE")
	}
	return sb.String()
}

// ColumnOption is one inline column option. NOT NULL must precede the bare
// NULL branch so "NOT NULL" never parses as two options.
type ColumnOption struct {
	PrimaryKey    bool        `parser:"  \"PRIMARY\" @\"KEY\""`
	Autoincrement bool        `parser:"| @\"AUTOINCREMENT\""`
	NotNull       bool        `parser:"| \"NOT\" @\"NULL\""`
	Null          bool        `parser:"| @\"NULL\""`
	Unique        bool        `parser:"| @\"UNIQUE\""`
	Default       *Expr       `parser:"| \"DEFAULT\" @@"`
	Collate       string      `parser:"| \"COLLATE\" @(Ident | QuotedIdent)"`
	References    *References `parser:"| @@"`
	Check         *CheckDef   `parser:"| @@"`
}

// CreateIndex is a CREATE [UNIQUE] INDEX statement, optionally partial.
type CreateIndex struct {
	Pos         lexer.Position
	Unique      bool           `parser:"\"CREATE\" @\"UNIQUE\"? \"INDEX\""`
	IfNotExists bool           `parser:"( @\"IF\" \"NOT\" \"EXISTS\" )?"`
	Name        *ObjectName    `parser:"@@"`
	Table       *ObjectName    `parser:"\"ON\" @@"`
	Columns     []*IndexColumn `parser:"\"(\" @@ ( \",\" @@ )* \")\""`
	Where       *Expr          `parser:"( \"WHERE\" @@ )?"`
}

// IndexColumn is one indexed column with its sort direction.
type IndexColumn struct {
	Name string `parser:"@(Ident | QuotedIdent)"`
	Asc  bool   `parser:"( @\"ASC\""`
	Desc bool   `parser:"| @\"DESC\" )?"`
}

// AlterTable is an ALTER TABLE ... ADD [CONSTRAINT name] <constraint>
// statement. Other ALTER TABLE forms never reach this parser; the statement
// classifier routes them to Unsupported.
type AlterTable struct {
	Pos        lexer.Position
	Table      *ObjectName    `parser:"\"ALTER\" \"TABLE\" @@"`
	Constraint *ConstraintDef `parser:"\"ADD\" @@"`
}

// ----------------------------------------------------------------------------
// Expressions
//
// A deliberately small expression grammar covering what shows up in DEFAULT
// clauses, CHECK constraints and partial-index predicates. Every node can
// render itself back to text, which is how predicate and default expressions
// are preserved.
// ----------------------------------------------------------------------------

// Expr is a disjunction of AND-expressions.
type Expr struct {
	Left  *AndExpr   `parser:"@@"`
	Right []*AndExpr `parser:"( \"OR\" @@ )*"`
}

// AndExpr is a conjunction of conditions.
type AndExpr struct {
	Left  *Condition   `parser:"@@"`
	Right []*Condition `parser:"( \"AND\" @@ )*"`
}

// Condition is an optionally negated comparison.
type Condition struct {
	Not     *Condition  `parser:"  \"NOT\" @@"`
	Operand *Comparison `parser:"| @@"`
}

// Comparison is an operand with an optional comparison tail.
type Comparison struct {
	Left *Sum     `parser:"@@"`
	Rest *CmpRest `parser:"@@?"`
}

// CmpRest is the tail of a comparison: an operator and right operand, an
// IS [NOT] NULL test, or an IN list.
type CmpRest struct {
	Op *CmpOp  `parser:"  @@"`
	Is *IsNull `parser:"| @@"`
	In *InList `parser:"| @@"`
}

// CmpOp is a binary comparison operator and its right operand.
type CmpOp struct {
	Op    string `parser:"@( \"=\" | \"!=\" | \"<>\" | \"<=\" | \">=\" | \"<\" | \">\" | \"LIKE\" )"`
	Right *Sum   `parser:"@@"`
}

// IsNull is IS [NOT] NULL.
type IsNull struct {
	Not  bool   `parser:"\"IS\" @\"NOT\"?"`
	Null string `parser:"@\"NULL\""`
}

// InList is IN (expr, ...).
type InList struct {
	Exprs []*Expr `parser:"\"IN\" \"(\" @@ ( \",\" @@ )* \")\""`
}

// Sum is a chain of additive operations.
type Sum struct {
	Left *Term    `parser:"@@"`
	Rest []*SumOp `parser:"@@*"`
}

// SumOp is one additive step.
type SumOp struct {
	Op   string `parser:"@( \"+\" | \"-\" | \"||\" )"`
	Term *Term  `parser:"@@"`
}

// Term is a chain of multiplicative operations.
type Term struct {
	Left *Factor   `parser:"@@"`
	Rest []*TermOp `parser:"@@*"`
}

// TermOp is one multiplicative step.
type TermOp struct {
	Op     string  `parser:"@( \"*\" | \"/\" | \"%\" )"`
	Factor *Factor `parser:"@@"`
}

// Factor is an optionally negated primary.
type Factor struct {
	Minus   bool     `parser:"@\"-\"?"`
	Primary *Primary `parser:"@@"`
}

// Primary is a leaf expression.
type Primary struct {
	Func   *FuncCall  `parser:"  @@"`
	Number *string    `parser:"| @Number"`
	Str    *string    `parser:"| @String"`
	True   bool       `parser:"| @\"TRUE\""`
	False  bool       `parser:"| @\"FALSE\""`
	Null   bool       `parser:"| @\"NULL\""`
	Sub    *Expr      `parser:"| \"(\" @@ \")\""`
	Ref    *ColumnRef `parser:"| @@"`
}

// FuncCall is a function invocation such as now() or count(*).
type FuncCall struct {
	Name string  `parser:"@Ident \"(\""`
	Star bool    `parser:"( @\"*\""`
	Args []*Expr `parser:"| ( @@ ( \",\" @@ )* )? ) \")\""`
}

// ColumnRef is a possibly qualified column reference.
type ColumnRef struct {
	Parts []string `parser:"@(Ident | QuotedIdent) ( \".\" @(Ident | QuotedIdent) )*"`
}

func (e *Expr) String() string {
	parts := []string{e.Left.String()}
	for _, r := range e.Right {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " OR ")
}

func (a *AndExpr) String() string {
	parts := []string{a.Left.String()}
	for _, r := range a.Right {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " AND ")
}

func (c *Condition) String() string {
	if c.Not != nil {
		return "NOT " + c.Not.String()
	}
	return c.Operand.String()
}

func (c *Comparison) String() string {
	s := c.Left.String()
	if c.Rest == nil {
		return s
	}
	switch {
	case c.Rest.Op != nil:
		return s + " " + c.Rest.Op.Op + " " + c.Rest.Op.Right.String()
	case c.Rest.Is != nil:
		if c.Rest.Is.Not {
			return s + " IS NOT NULL"
		}
		return s + " IS NULL"
	case c.Rest.In != nil:
		elems := make([]string, len(c.Rest.In.Exprs))
		for i, e := range c.Rest.In.Exprs {
			elems[i] = e.String()
		}
		return s + " IN (" + strings.Join(elems, ", ") + ")"
	}
	return s
}

func (s *Sum) String() string {
	out := s.Left.String()
	for _, r := range s.Rest {
		out += " " + r.Op + " " + r.Term.String()
	}
	return out
}

func (t *Term) String() string {
	out := t.Left.String()
	for _, r := range t.Rest {
		out += " " + r.Op + " " + r.Factor.String()
	}
	return out
}

func (f *Factor) String() string {
	if f.Minus {
		return "-" + f.Primary.String()
	}
	return f.Primary.String()
}

func (p *Primary) String() string {
	switch {
	case p.Func != nil:
		return p.Func.String()
	case p.Number != nil:
		return *p.Number
	case p.Str != nil:
		return *p.Str
	case p.True:
		return "TRUE"
	case p.False:
		return "FALSE"
	case p.Null:
		return "NULL"
	case p.Sub != nil:
		return "(" + p.Sub.String() + ")"
	case p.Ref != nil:
		return p.Ref.String()
	}
	return ""
}

func (f *FuncCall) String() string {
	if f.Star {
		return f.Name + "(*)"
	}
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

func (r *ColumnRef) String() string {
	return strings.Join(r.Parts, ".")
}

// Unquote strips double-quote or backtick identifier quoting and unescapes
// doubled quotes. Unquoted identifiers pass through unchanged; case is
// preserved either way.
func Unquote(s string) string {
	return unquoteIdent(s)
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}
	return s
}
