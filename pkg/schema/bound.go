package schema

import (
	"iter"
	"slices"
)

// TableColumn pairs a column with the table that declares it. The raw column
// node does not know its table, but some queries need that context: whether
// the column is part of the primary key, for one. The pairing is transient
// and non-owning; it is handed out by BindColumn and the derived table
// iterators and is meant to be discarded once the call returns.
type TableColumn struct {
	Column
	owner Table
}

// BindColumn attaches owning-table context to a column. The caller must
// already hold a valid parent-child relationship; binding a column to a
// table that does not declare it yields a wrapper whose derived methods
// simply report false.
func BindColumn(t Table, c Column) TableColumn {
	return TableColumn{Column: c, owner: t}
}

// Owner returns the table the column was bound to.
func (tc TableColumn) Owner() Table {
	return tc.owner
}

// IsPrimaryKey reports whether the column is part of the owning table's
// PRIMARY KEY constraint.
func (tc TableColumn) IsPrimaryKey() bool {
	pk, ok := PrimaryKey(tc.owner)
	if !ok {
		return false
	}
	return slices.Contains(pk.ConstraintColumns(), tc.ColumnName())
}

// TableConstraint pairs a constraint with the table that declares it.
type TableConstraint struct {
	Constraint
	owner Table
}

// BindConstraint attaches owning-table context to a constraint.
func BindConstraint(t Table, c Constraint) TableConstraint {
	return TableConstraint{Constraint: c, owner: t}
}

// Owner returns the table the constraint was bound to.
func (tc TableConstraint) Owner() Table {
	return tc.owner
}

// TableConstraints returns a restartable sequence over the table's
// constraints, each bound with its owning-table context.
func TableConstraints(t Table) iter.Seq[TableConstraint] {
	return func(yield func(TableConstraint) bool) {
		for _, c := range t.RawConstraints() {
			if !yield(BindConstraint(t, c)) {
				return
			}
		}
	}
}
