// Package schema provides a backend-agnostic model of a relational database
// schema. Backends (a parsed-DDL adapter, a live-connection introspector)
// supply concrete node types satisfying the small capability interfaces
// below; everything else is derived from those accessors and works the same
// for every backend.
package schema

import (
	"iter"
	"slices"
)

// Kind tags the variant of a Constraint.
type Kind int

const (
	KindPrimaryKey Kind = iota
	KindForeignKey
	KindUnique
	KindCheck
)

func (k Kind) String() string {
	switch k {
	case KindPrimaryKey:
		return "PRIMARY KEY"
	case KindForeignKey:
		return "FOREIGN KEY"
	case KindUnique:
		return "UNIQUE"
	case KindCheck:
		return "CHECK"
	}
	return "UNKNOWN"
}

// ReferentialAction is a foreign key's ON DELETE / ON UPDATE behavior.
type ReferentialAction int

const (
	NoAction ReferentialAction = iota
	Restrict
	Cascade
	SetNull
	SetDefault
)

func (a ReferentialAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	}
	return "NO ACTION"
}

// TableRef identifies a table by (schema, name) without owning it. Foreign
// keys hold TableRefs so that mutually referencing tables never form an
// ownership cycle; the ref is resolved against a finished container only
// when a caller asks for the target.
type TableRef struct {
	Schema string // "" means no explicit schema
	Name   string
}

func (r TableRef) String() string {
	if r.Schema == "" {
		return r.Name
	}
	return r.Schema + "." + r.Name
}

// Column is the capability surface a backend column type must provide.
type Column interface {
	ColumnName() string
	ColumnType() string
	IsNullable() bool
	// OrdinalPosition is the 0-based declaration position, dense within the
	// owning table.
	OrdinalPosition() int
	DefaultExpr() (string, bool)
}

// Constraint is the capability surface a backend constraint type must
// provide. ConstraintColumns are the columns of the declaring table the
// constraint applies to, in the order the constraint lists them.
type Constraint interface {
	ConstraintKind() Kind
	ConstraintColumns() []string
}

// ForeignKey extends Constraint with the fields only KindForeignKey
// constraints carry.
type ForeignKey interface {
	Constraint
	ReferencedTable() TableRef
	ReferencedColumns() []string
	OnDelete() ReferentialAction
	OnUpdate() ReferentialAction
}

// IndexedColumn is one (column, sort direction) entry of an index.
type IndexedColumn struct {
	Name string
	Desc bool
}

// Index is the capability surface a backend index type must provide. Indexes
// are database-scoped entities: their names are unique per database, and
// they reference their table by name rather than owning it.
type Index interface {
	IndexName() string
	IndexTable() TableRef
	IndexedColumns() []IndexedColumn
	IsUnique() bool
	Predicate() (string, bool)
}

// Table is the capability surface a backend table type must provide.
// RawColumns is the declaration-order column sequence; RawConstraints is the
// table's constraint collection, inline and out-of-line alike.
type Table interface {
	TableName() string
	TableSchema() string // "" means no explicit schema
	RawColumns() []Column
	RawConstraints() []Constraint
}

// Database is the minimal surface a backend database type must provide.
// *Container satisfies it.
type Database interface {
	RawTables() []Table
}

// HasDefault reports whether the column declares a default expression.
func HasDefault(c Column) bool {
	_, ok := c.DefaultExpr()
	return ok
}

// IsForeignKey reports whether the constraint is a foreign key.
func IsForeignKey(c Constraint) bool {
	return c.ConstraintKind() == KindForeignKey
}

// IsUniqueConstraint reports whether the constraint guarantees uniqueness,
// i.e. is a UNIQUE or PRIMARY KEY constraint.
func IsUniqueConstraint(c Constraint) bool {
	k := c.ConstraintKind()
	return k == KindUnique || k == KindPrimaryKey
}

// CoversColumns reports whether the uniqueness guarantee of c applies to the
// given column set. A composite UNIQUE(a, b) makes the pair unique, not each
// column on its own, so the constraint covers a set only when every one of
// its columns is in that set.
func CoversColumns(c Constraint, columns ...string) bool {
	if !IsUniqueConstraint(c) {
		return false
	}
	own := c.ConstraintColumns()
	if len(own) == 0 {
		return false
	}
	for _, name := range own {
		if !slices.Contains(columns, name) {
			return false
		}
	}
	return true
}

// Covers reports whether the index includes the named column.
func Covers(ix Index, column string) bool {
	for _, c := range ix.IndexedColumns() {
		if c.Name == column {
			return true
		}
	}
	return false
}

// TableColumns returns a restartable sequence over the table's columns in
// declaration order, each bound with its owning-table context.
func TableColumns(t Table) iter.Seq[TableColumn] {
	return func(yield func(TableColumn) bool) {
		for _, c := range t.RawColumns() {
			if !yield(BindColumn(t, c)) {
				return
			}
		}
	}
}

// PrimaryKey returns the table's PRIMARY KEY constraint, if it declares one.
func PrimaryKey(t Table) (Constraint, bool) {
	for _, c := range t.RawConstraints() {
		if c.ConstraintKind() == KindPrimaryKey {
			return c, true
		}
	}
	return nil, false
}

// PrimaryKeyColumns returns the table's primary key columns in the order the
// PRIMARY KEY constraint lists them, or nil when the table has none.
func PrimaryKeyColumns(t Table) []TableColumn {
	pk, ok := PrimaryKey(t)
	if !ok {
		return nil
	}
	var cols []TableColumn
	for _, name := range pk.ConstraintColumns() {
		if tc, ok := LookupColumn(t, name); ok {
			cols = append(cols, tc)
		}
	}
	return cols
}

// LookupColumn finds a column by name. The second result is false when the
// table has no such column; absence is a normal query outcome, not an error.
func LookupColumn(t Table, name string) (TableColumn, bool) {
	for _, c := range t.RawColumns() {
		if c.ColumnName() == name {
			return BindColumn(t, c), true
		}
	}
	return TableColumn{}, false
}

// Tables returns a restartable sequence over every table of the database.
func Tables(db Database) iter.Seq[Table] {
	return func(yield func(Table) bool) {
		for _, t := range db.RawTables() {
			if !yield(t) {
				return
			}
		}
	}
}

// LookupTable finds a table by exact (schema, name) key.
func LookupTable(db Database, schemaName, name string) (Table, bool) {
	for _, t := range db.RawTables() {
		if t.TableSchema() == schemaName && t.TableName() == name {
			return t, true
		}
	}
	return nil, false
}
