package ddl

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalens/schemalens/pkg/grammar"
	"github.com/schemalens/schemalens/pkg/schema"
)

const storeDDL = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    bio TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE orders (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    number VARCHAR(20) NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    CHECK (status != '')
);

CREATE TABLE order_items (
    order_id INTEGER,
    item_id INTEGER,
    qty INTEGER NOT NULL,
    PRIMARY KEY (order_id, item_id),
    FOREIGN KEY (order_id) REFERENCES orders (id)
);

CREATE INDEX idx_orders_user ON orders (user_id);
CREATE UNIQUE INDEX idx_active_orders ON orders (user_id) WHERE status != 'completed';

ALTER TABLE orders ADD CONSTRAINT uq_number UNIQUE (number);
`

func buildStore(t *testing.T) *DB {
	t.Helper()
	db, err := FromSQL(storeDDL)
	require.NoError(t, err)
	return db
}

func TestFromSQLColumns(t *testing.T) {
	db := buildStore(t)
	require.Equal(t, 3, db.NumTables())

	users, ok := db.Table("", "users")
	require.True(t, ok)

	cols := users.RawColumns()
	require.Len(t, cols, 4)
	for i, want := range []string{"id", "email", "bio", "created_at"} {
		assert.Equal(t, want, cols[i].ColumnName())
		assert.Equal(t, i, cols[i].OrdinalPosition())
	}

	assert.Equal(t, "INTEGER", cols[0].ColumnType())
	assert.Equal(t, "VARCHAR(255)", cols[1].ColumnType())

	assert.False(t, cols[0].IsNullable(), "inline PRIMARY KEY implies NOT NULL")
	assert.False(t, cols[1].IsNullable())
	assert.True(t, cols[2].IsNullable())

	expr, ok := cols[3].DefaultExpr()
	require.True(t, ok)
	assert.Equal(t, "CURRENT_TIMESTAMP", expr)
	_, ok = cols[2].DefaultExpr()
	assert.False(t, ok)
}

func TestPrimaryKeyQueries(t *testing.T) {
	db := buildStore(t)

	users, _ := db.Table("", "users")
	id, ok := schema.LookupColumn(users, "id")
	require.True(t, ok)
	assert.True(t, id.IsPrimaryKey())
	email, _ := schema.LookupColumn(users, "email")
	assert.False(t, email.IsPrimaryKey())

	// Composite key columns come back in constraint order.
	items, _ := db.Table("", "order_items")
	pk := schema.PrimaryKeyColumns(items)
	require.Len(t, pk, 2)
	assert.Equal(t, "order_id", pk[0].ColumnName())
	assert.Equal(t, "item_id", pk[1].ColumnName())
}

func TestInlineConstraintsHoisted(t *testing.T) {
	db := buildStore(t)
	users, _ := db.Table("", "users")

	var kinds []schema.Kind
	for _, c := range users.RawConstraints() {
		kinds = append(kinds, c.ConstraintKind())
	}
	assert.Equal(t, []schema.Kind{schema.KindPrimaryKey, schema.KindUnique}, kinds)
}

func TestCompositeUniqueCoverage(t *testing.T) {
	db, err := FromSQL(`CREATE TABLE t (a INTEGER, b INTEGER, UNIQUE (a, b));`)
	require.NoError(t, err)

	tbl, _ := db.Table("", "t")
	cons := tbl.RawConstraints()
	require.Len(t, cons, 1)

	assert.True(t, schema.CoversColumns(cons[0], "a", "b"))
	assert.False(t, schema.CoversColumns(cons[0], "a"),
		"composite unique does not make a single column unique")
	assert.False(t, schema.CoversColumns(cons[0], "b"))
}

func TestForeignKeyLazyResolution(t *testing.T) {
	// The child table references a parent defined later in the script.
	db, err := FromSQL(`
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER REFERENCES users (id) ON DELETE SET NULL ON UPDATE RESTRICT
		);
		CREATE TABLE users (id INTEGER PRIMARY KEY);
	`)
	require.NoError(t, err)

	orders, _ := db.Table("", "orders")
	var fk schema.ForeignKey
	for _, c := range orders.RawConstraints() {
		if schema.IsForeignKey(c) {
			fk = c.(schema.ForeignKey)
		}
	}
	require.NotNil(t, fk)

	assert.Equal(t, []string{"user_id"}, fk.ConstraintColumns())
	assert.Equal(t, schema.TableRef{Name: "users"}, fk.ReferencedTable())
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns())
	assert.Equal(t, schema.SetNull, fk.OnDelete())
	assert.Equal(t, schema.Restrict, fk.OnUpdate())

	target, ok := db.TableByRef(fk.ReferencedTable())
	require.True(t, ok, "forward reference resolves once the build is done")
	assert.Equal(t, "users", target.TableName())
}

func TestForeignKeyDanglingReference(t *testing.T) {
	db, err := FromSQL(`
		CREATE TABLE orders (user_id INTEGER REFERENCES users (id));
	`)
	require.NoError(t, err, "a dangling foreign key target is not a build error")

	orders, _ := db.Table("", "orders")
	fk := orders.RawConstraints()[0].(schema.ForeignKey)
	_, ok := db.TableByRef(fk.ReferencedTable())
	assert.False(t, ok)
}

func TestEagerForeignKeyChecks(t *testing.T) {
	forward := `
		CREATE TABLE orders (user_id INTEGER REFERENCES users (id));
		CREATE TABLE users (id INTEGER PRIMARY KEY);
	`
	_, err := FromSQL(forward, WithEagerFKChecks())
	require.NoError(t, err, "forward references resolve by the end of the build")

	dangling := `CREATE TABLE orders (user_id INTEGER REFERENCES users (id));`
	_, err = FromSQL(dangling, WithEagerFKChecks())
	require.Error(t, err)
	var unres *schema.UnresolvedReferenceError
	require.ErrorAs(t, err, &unres)
	assert.Equal(t, schema.TableRef{Name: "users"}, unres.Ref)
}

func TestForeignKeyDefaultAction(t *testing.T) {
	db, err := FromSQL(`CREATE TABLE t (u INTEGER REFERENCES users (id));`)
	require.NoError(t, err)

	tbl, _ := db.Table("", "t")
	fk := tbl.RawConstraints()[0].(schema.ForeignKey)
	assert.Equal(t, schema.NoAction, fk.OnDelete())
	assert.Equal(t, schema.NoAction, fk.OnUpdate())
}

func TestIndexes(t *testing.T) {
	db := buildStore(t)
	require.Equal(t, 2, db.NumIndexes())

	plain, ok := db.Index("idx_orders_user")
	require.True(t, ok)
	assert.False(t, plain.IsUnique())
	assert.Equal(t, schema.TableRef{Name: "orders"}, plain.IndexTable())
	assert.True(t, schema.Covers(plain, "user_id"))
	assert.False(t, schema.Covers(plain, "status"))
	_, hasPred := plain.Predicate()
	assert.False(t, hasPred)

	partial, ok := db.Index("idx_active_orders")
	require.True(t, ok)
	assert.True(t, partial.IsUnique())
	pred, hasPred := partial.Predicate()
	require.True(t, hasPred)
	assert.Equal(t, "status != 'completed'", pred)

	_, ok = db.Index("missing")
	assert.False(t, ok)
}

func TestAlterTableAddConstraint(t *testing.T) {
	db := buildStore(t)
	orders, _ := db.Table("", "orders")

	var uq *Constraint
	for _, c := range orders.RawConstraints() {
		cc := c.(*Constraint)
		if cc.ConstraintName() == "uq_number" {
			uq = cc
		}
	}
	require.NotNil(t, uq, "ALTER TABLE constraint should land on the table")
	assert.Equal(t, schema.KindUnique, uq.ConstraintKind())
	assert.Equal(t, []string{"number"}, uq.ConstraintColumns())
}

func TestAlterTableUnknownTable(t *testing.T) {
	_, err := FromSQL(`ALTER TABLE ghosts ADD UNIQUE (name);`)
	require.Error(t, err)

	var unres *schema.UnresolvedReferenceError
	require.ErrorAs(t, err, &unres)
	assert.Equal(t, schema.TableRef{Name: "ghosts"}, unres.Ref)
}

func TestDuplicateTable(t *testing.T) {
	_, err := FromSQL(`
		CREATE TABLE users (id INTEGER);
		CREATE TABLE users (id INTEGER);
	`)
	require.Error(t, err)

	var dup *schema.DuplicateDefinitionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "table", dup.Object)
	assert.Equal(t, "users", dup.Name)
}

func TestDuplicateColumn(t *testing.T) {
	_, err := FromSQL(`CREATE TABLE users (id INTEGER, id TEXT);`)
	require.Error(t, err)

	var dup *schema.DuplicateDefinitionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "column", dup.Object)
	assert.Equal(t, "id", dup.Name)
	assert.Equal(t, "users", dup.Table)
}

func TestDuplicateIndex(t *testing.T) {
	_, err := FromSQL(`
		CREATE INDEX idx ON a (x);
		CREATE INDEX idx ON b (y);
	`)
	require.Error(t, err)

	var dup *schema.DuplicateDefinitionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "index", dup.Object)
}

func TestUnsupportedStatementsSkipped(t *testing.T) {
	b := NewBuilder()
	stmts, err := grammar.Parse(`
		CREATE POLICY p1 ON orders USING (TRUE);
		DROP TABLE users;
		CREATE TABLE kept (id INTEGER);
	`)
	require.NoError(t, err)
	require.NoError(t, b.ApplyAll(stmts))

	assert.Equal(t, 2, b.Skipped())

	db, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, db.NumTables())
	_, ok := db.Table("", "kept")
	assert.True(t, ok)
}

func TestOnlyUnsupportedYieldsEmptyDB(t *testing.T) {
	db, err := FromSQL(`CREATE POLICY p1 ON orders USING (TRUE);`)
	require.NoError(t, err)
	assert.Equal(t, 0, db.NumTables())
	assert.Equal(t, 0, db.NumIndexes())
}

func TestBuilderSingleUse(t *testing.T) {
	b := NewBuilder()
	stmts, err := grammar.Parse(`CREATE TABLE t (id INTEGER);`)
	require.NoError(t, err)
	require.NoError(t, b.ApplyAll(stmts))

	_, err = b.Build()
	require.NoError(t, err)

	assert.ErrorIs(t, b.Apply(stmts[0]), ErrBuilt)
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilt)
}

func TestQuotedIdentifiersNormalized(t *testing.T) {
	db, err := FromSQL(`
		CREATE TABLE "audit"."event log" (
			"entry id" INTEGER,
			PRIMARY KEY ("entry id")
		);
	`)
	require.NoError(t, err)

	tbl, ok := db.Table("audit", "event log")
	require.True(t, ok)

	col, ok := schema.LookupColumn(tbl, "entry id")
	require.True(t, ok)
	assert.True(t, col.IsPrimaryKey(), "quoted constraint column must match the unquoted column name")
}

func TestCheckConstraintKeepsExpression(t *testing.T) {
	db := buildStore(t)
	orders, _ := db.Table("", "orders")

	var check *Constraint
	for _, c := range orders.RawConstraints() {
		if c.ConstraintKind() == schema.KindCheck {
			check = c.(*Constraint)
		}
	}
	require.NotNil(t, check)
	assert.Equal(t, "status != ''", check.CheckExpr())
}

func TestFromSQLParseError(t *testing.T) {
	_, err := FromSQL(`CREATE TABLE broken (`)
	require.Error(t, err)

	var perr *grammar.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestReadFilesFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/001_users.sql": &fstest.MapFile{Data: []byte(
			`CREATE TABLE users (id INTEGER PRIMARY KEY);`)},
		"sql/002_orders.sql": &fstest.MapFile{Data: []byte(
			`CREATE TABLE orders (id INTEGER, user_id INTEGER REFERENCES users (id));
			 CREATE INDEX idx_orders_user ON orders (user_id);`)},
		"sql/readme.txt": &fstest.MapFile{Data: []byte(`not sql`)},
	}
	SetBaseFS(fsys)
	defer SetBaseFS(nil)

	db, err := ReadFiles("sql")
	require.NoError(t, err)
	assert.Equal(t, 2, db.NumTables())
	assert.Equal(t, 1, db.NumIndexes())

	// ALTER in a later file sees tables from earlier files.
	fsys["sql/003_alter.sql"] = &fstest.MapFile{Data: []byte(
		`ALTER TABLE users ADD UNIQUE (id);`)}
	db, err = ReadFiles("sql")
	require.NoError(t, err)
	users, _ := db.Table("", "users")
	assert.Len(t, users.RawConstraints(), 2)
}

func TestContainerIterationOrder(t *testing.T) {
	db := buildStore(t)

	var names []string
	for tbl := range db.Tables() {
		names = append(names, tbl.TableName())
	}
	assert.Equal(t, []string{"users", "orders", "order_items"}, names,
		"tables iterate in declaration order")
}

func FuzzFromSQL(f *testing.F) {
	f.Add(storeDDL)
	f.Add("CREATE TABLE t (a INTEGER);; SELECT * FROM t;")
	f.Add("ALTER TABLE nope ADD UNIQUE (x);")
	f.Add("garbage !!!")

	f.Fuzz(func(t *testing.T, input string) {
		db, err := FromSQL(input)
		if err != nil {
			var perr *grammar.ParseError
			var dup *schema.DuplicateDefinitionError
			var unres *schema.UnresolvedReferenceError
			if !errors.As(err, &perr) && !errors.As(err, &dup) && !errors.As(err, &unres) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			return
		}
		// Whatever was built must be internally consistent.
		for tbl := range db.Tables() {
			for i, col := range tbl.RawColumns() {
				if col.OrdinalPosition() != i {
					t.Fatalf("table %s: ordinal %d at position %d",
						tbl.TableName(), col.OrdinalPosition(), i)
				}
			}
		}
	})
}
