// Package ddl builds a queryable schema model from parsed DDL statements.
// It is the parsed-AST backend of pkg/schema: its node types satisfy the
// capability interfaces, and its Builder consumes grammar statement nodes
// one at a time, skipping everything outside its vocabulary.
package ddl

import (
	"github.com/schemalens/schemalens/pkg/schema"
)

// DB is the schema container specialized for this backend's node types.
type DB = schema.Container[*Table, *Index]

// Table is a table assembled from a CREATE TABLE statement plus any
// constraints replayed onto it by later ALTER TABLE statements. Immutable
// once the build completes.
type Table struct {
	schemaName  string
	name        string
	columns     []*Column
	constraints []*Constraint
}

// TableName returns the table name.
func (t *Table) TableName() string { return t.name }

// TableSchema returns the schema qualifier, or "" when none was declared.
func (t *Table) TableSchema() string { return t.schemaName }

// RawColumns returns the columns in declaration order.
func (t *Table) RawColumns() []schema.Column {
	out := make([]schema.Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c
	}
	return out
}

// RawConstraints returns the table's constraints: inline column constraints
// hoisted to table scope, out-of-line constraints, and ALTER additions, in
// the order they were declared.
func (t *Table) RawConstraints() []schema.Constraint {
	out := make([]schema.Constraint, len(t.constraints))
	for i, c := range t.constraints {
		out[i] = c
	}
	return out
}

// Column is a single column definition.
type Column struct {
	name        string
	typeName    string
	position    int
	notNull     bool
	hasDefault  bool
	defaultExpr string
}

// ColumnName returns the column name.
func (c *Column) ColumnName() string { return c.name }

// ColumnType returns the declared type as written, e.g. "VARCHAR(100)".
func (c *Column) ColumnType() string { return c.typeName }

// IsNullable reports whether the column accepts NULL. Inline PRIMARY KEY
// implies NOT NULL.
func (c *Column) IsNullable() bool { return !c.notNull }

// OrdinalPosition returns the 0-based declaration position.
func (c *Column) OrdinalPosition() int { return c.position }

// DefaultExpr returns the default expression text, if one was declared.
func (c *Column) DefaultExpr() (string, bool) {
	return c.defaultExpr, c.hasDefault
}

// Constraint is a tagged constraint variant. The foreign key fields are set
// only for KindForeignKey; the expression only for KindCheck.
type Constraint struct {
	name       string
	kind       schema.Kind
	columns    []string
	refTable   schema.TableRef
	refColumns []string
	onDelete   schema.ReferentialAction
	onUpdate   schema.ReferentialAction
	expr       string
}

// ConstraintName returns the declared constraint name, or "" for anonymous
// constraints.
func (c *Constraint) ConstraintName() string { return c.name }

// ConstraintKind returns the constraint variant tag.
func (c *Constraint) ConstraintKind() schema.Kind { return c.kind }

// ConstraintColumns returns the declaring table's columns the constraint
// applies to, in constraint order.
func (c *Constraint) ConstraintColumns() []string { return c.columns }

// ReferencedTable returns the foreign key target as an unresolved reference.
// The target is looked up against the finished database only when a caller
// dereferences it; forward references across a script are legal.
func (c *Constraint) ReferencedTable() schema.TableRef { return c.refTable }

// ReferencedColumns returns the columns named in the REFERENCES clause.
// Empty when the clause relies on the target's primary key.
func (c *Constraint) ReferencedColumns() []string { return c.refColumns }

// OnDelete returns the foreign key's ON DELETE action.
func (c *Constraint) OnDelete() schema.ReferentialAction { return c.onDelete }

// OnUpdate returns the foreign key's ON UPDATE action.
func (c *Constraint) OnUpdate() schema.ReferentialAction { return c.onUpdate }

// CheckExpr returns the CHECK expression text, or "" for other kinds.
func (c *Constraint) CheckExpr() string { return c.expr }

// Index is a database-scoped index built from a CREATE INDEX statement.
type Index struct {
	name      string
	table     schema.TableRef
	columns   []schema.IndexedColumn
	unique    bool
	hasPred   bool
	predicate string
}

// IndexName returns the index name, unique at database scope.
func (x *Index) IndexName() string { return x.name }

// IndexTable returns the indexed table as an unresolved reference.
func (x *Index) IndexTable() schema.TableRef { return x.table }

// IndexedColumns returns the (column, direction) pairs in index order.
func (x *Index) IndexedColumns() []schema.IndexedColumn { return x.columns }

// IsUnique reports whether the index was declared UNIQUE.
func (x *Index) IsUnique() bool { return x.unique }

// Predicate returns the partial-index predicate text, if the index has one.
func (x *Index) Predicate() (string, bool) {
	return x.predicate, x.hasPred
}
