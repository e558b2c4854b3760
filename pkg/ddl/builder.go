package ddl

import (
	"errors"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/pkg/grammar"
	"github.com/schemalens/schemalens/pkg/schema"
)

// ErrBuilt is returned when a Builder is used after Build. A builder runs
// one build pass and is not reusable.
var ErrBuilt = errors.New("ddl: builder already produced its database")

type buildState int

const (
	stateEmpty buildState = iota
	stateBuilding
	stateBuilt
)

// Builder consumes parsed DDL statements in order and assembles the schema
// container. Statements outside the supported vocabulary are counted and
// skipped; structural errors (duplicate definitions, unresolvable ALTER
// targets) abort the build.
type Builder struct {
	state   buildState
	cb      *schema.ContainerBuilder[*Table, *Index]
	log     *zap.Logger
	skipped int
	eagerFK bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger makes skipped statements visible on a logger. The default is
// a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		b.log = log
	}
}

// WithEagerFKChecks makes Build fail with *UnresolvedReferenceError when a
// foreign key names a table that never appeared in the build. The default
// resolves targets lazily at query time, tolerating references to tables
// outside the script.
func WithEagerFKChecks() Option {
	return func(b *Builder) {
		b.eagerFK = true
	}
}

// NewBuilder returns a Builder ready to accept statements.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		cb:  schema.NewContainerBuilder[*Table, *Index](),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Apply feeds one statement into the build. Unsupported statement kinds are
// a deliberate no-op: they contribute nothing and never fail the build.
func (b *Builder) Apply(stmt grammar.Statement) error {
	if b.state == stateBuilt {
		return ErrBuilt
	}
	b.state = stateBuilding

	switch s := stmt.(type) {
	case *grammar.CreateTable:
		table, err := buildTable(s)
		if err != nil {
			return err
		}
		return b.cb.InsertTable(table)

	case *grammar.CreateIndex:
		return b.cb.InsertIndex(buildIndex(s))

	case *grammar.AlterTable:
		ref := objectRef(s.Table)
		table, ok := b.cb.Table(ref.Schema, ref.Name)
		if !ok {
			return &schema.UnresolvedReferenceError{
				Ref:     ref,
				Context: "ALTER TABLE ... ADD CONSTRAINT",
			}
		}
		table.constraints = append(table.constraints, buildConstraint(s.Constraint))
		return nil

	case *grammar.Unsupported:
		b.skipped++
		b.log.Debug("skipping unsupported statement", zap.String("sql", s.Text))
		return nil

	default:
		// Future statement kinds the grammar may grow are treated exactly
		// like unsupported text: skipped, never fatal.
		b.skipped++
		return nil
	}
}

// ApplyAll feeds a batch of statements, stopping at the first error.
func (b *Builder) ApplyAll(stmts []grammar.Statement) error {
	for _, stmt := range stmts {
		if err := b.Apply(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Skipped returns how many statements were outside the supported
// vocabulary.
func (b *Builder) Skipped() int { return b.skipped }

// Build freezes and returns the database. The builder accepts no further
// statements; calling Build twice is an error.
func (b *Builder) Build() (*DB, error) {
	if b.state == stateBuilt {
		return nil, ErrBuilt
	}
	b.state = stateBuilt
	db := b.cb.Seal()
	if b.eagerFK {
		for t := range db.Tables() {
			for _, c := range t.constraints {
				if c.kind != schema.KindForeignKey {
					continue
				}
				if _, ok := db.TableByRef(c.refTable); !ok {
					return nil, &schema.UnresolvedReferenceError{
						Ref:     c.refTable,
						Context: "FOREIGN KEY",
					}
				}
			}
		}
	}
	return db, nil
}

// buildTable assembles a Table from a CREATE TABLE node. Columns keep
// declaration order with dense 0-based ordinals; inline column constraints
// are hoisted into the table's constraint list so the derived queries see a
// single collection.
func buildTable(s *grammar.CreateTable) (*Table, error) {
	table := &Table{
		schemaName: s.Name.SchemaName(),
		name:       s.Name.Name(),
	}

	seen := make(map[string]bool)
	for _, def := range s.Defs {
		switch {
		case def.Column != nil:
			name := def.Column.UnquotedName()
			if seen[name] {
				return nil, &schema.DuplicateDefinitionError{
					Object: "column",
					Name:   name,
					Table:  table.name,
				}
			}
			seen[name] = true

			col := &Column{
				name:     name,
				typeName: def.Column.Type.String(),
				position: len(table.columns),
			}
			for _, opt := range def.Column.Options {
				applyColumnOption(table, col, opt)
			}
			table.columns = append(table.columns, col)

		case def.Constraint != nil:
			table.constraints = append(table.constraints, buildConstraint(def.Constraint))
		}
	}
	return table, nil
}

// applyColumnOption folds one inline option into the column, hoisting
// constraint-shaped options to table scope.
func applyColumnOption(table *Table, col *Column, opt *grammar.ColumnOption) {
	switch {
	case opt.PrimaryKey:
		col.notNull = true
		table.constraints = append(table.constraints, &Constraint{
			kind:    schema.KindPrimaryKey,
			columns: []string{col.name},
		})
	case opt.NotNull:
		col.notNull = true
	case opt.Null:
		col.notNull = false
	case opt.Unique:
		table.constraints = append(table.constraints, &Constraint{
			kind:    schema.KindUnique,
			columns: []string{col.name},
		})
	case opt.Default != nil:
		col.hasDefault = true
		col.defaultExpr = opt.Default.String()
	case opt.References != nil:
		fk := &Constraint{
			kind:    schema.KindForeignKey,
			columns: []string{col.name},
		}
		applyReferences(fk, opt.References)
		table.constraints = append(table.constraints, fk)
	case opt.Check != nil:
		table.constraints = append(table.constraints, &Constraint{
			kind: schema.KindCheck,
			expr: opt.Check.Expr.String(),
		})
	}
}

// buildConstraint converts an out-of-line constraint definition, whether it
// came from a CREATE TABLE body or an ALTER TABLE ... ADD.
func buildConstraint(def *grammar.ConstraintDef) *Constraint {
	c := &Constraint{name: grammar.Unquote(def.Name)}
	switch {
	case def.PrimaryKey != nil:
		c.kind = schema.KindPrimaryKey
		c.columns = unquoteAll(def.PrimaryKey.Columns)
	case def.Unique != nil:
		c.kind = schema.KindUnique
		c.columns = unquoteAll(def.Unique.Columns)
	case def.ForeignKey != nil:
		c.kind = schema.KindForeignKey
		c.columns = unquoteAll(def.ForeignKey.Columns)
		applyReferences(c, def.ForeignKey.Ref)
	case def.Check != nil:
		c.kind = schema.KindCheck
		c.expr = def.Check.Expr.String()
	}
	return c
}

// applyReferences records the REFERENCES clause: the target stays a lazy
// (schema, name) reference, never a pointer into the build.
func applyReferences(c *Constraint, ref *grammar.References) {
	c.refTable = objectRef(ref.Table)
	c.refColumns = unquoteAll(ref.Columns)
	for _, action := range ref.Actions {
		act := referentialAction(action.ActionText())
		if action.OnDelete {
			c.onDelete = act
		}
		if action.OnUpdate {
			c.onUpdate = act
		}
	}
}

func buildIndex(s *grammar.CreateIndex) *Index {
	x := &Index{
		name:   s.Name.Name(),
		table:  objectRef(s.Table),
		unique: s.Unique,
	}
	for _, col := range s.Columns {
		x.columns = append(x.columns, schema.IndexedColumn{
			Name: grammar.Unquote(col.Name),
			Desc: col.Desc,
		})
	}
	if s.Where != nil {
		x.hasPred = true
		x.predicate = s.Where.String()
	}
	return x
}

func objectRef(name *grammar.ObjectName) schema.TableRef {
	return schema.TableRef{Schema: name.SchemaName(), Name: name.Name()}
}

func unquoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = grammar.Unquote(n)
	}
	return out
}

func referentialAction(text string) schema.ReferentialAction {
	switch text {
	case "CASCADE":
		return schema.Cascade
	case "RESTRICT":
		return schema.Restrict
	case "SET NULL":
		return schema.SetNull
	case "SET DEFAULT":
		return schema.SetDefault
	}
	return schema.NoAction
}
