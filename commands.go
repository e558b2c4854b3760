package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/schemalens/schemalens/pkg/ddl"
	"github.com/schemalens/schemalens/pkg/schema"
)

var commands = []*cli.Command{inspectCMD, tablesCMD}

var sourceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "schema",
		Aliases: []string{"s"},
		Usage:   "Path to a .sql file or a directory of .sql files",
	},
	&cli.StringFlag{
		Name:    "database",
		Aliases: []string{"db"},
		Usage:   "Path to SQLite database file",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Log skipped statements while building the schema",
	},
}

var inspectCMD = &cli.Command{
	Name:  "inspect",
	Usage: "Show the full schema: tables, columns, constraints and indexes",
	Flags: sourceFlags,
	Action: func(ctx context.Context, cmd *cli.Command) error {
		db, err := loadDB(cmd)
		if err != nil {
			return err
		}

		for table := range db.Tables() {
			fmt.Printf("%s\n", qualifiedName(table))
			for col := range schema.TableColumns(table) {
				fmt.Printf("  %s\n", describeColumn(col))
			}
			for con := range schema.TableConstraints(table) {
				fmt.Printf("  %s\n", describeConstraint(db, con))
			}
			for index := range db.Indexes() {
				if index.IndexTable().Name != table.TableName() {
					continue
				}
				fmt.Printf("  %s\n", describeIndex(index))
			}
			fmt.Println()
		}
		fmt.Printf("%d tables, %d indexes\n", db.NumTables(), db.NumIndexes())
		return nil
	},
}

var tablesCMD = &cli.Command{
	Name:  "tables",
	Usage: "List table names with column and constraint counts",
	Flags: sourceFlags,
	Action: func(ctx context.Context, cmd *cli.Command) error {
		db, err := loadDB(cmd)
		if err != nil {
			return err
		}

		for table := range db.Tables() {
			fmt.Printf("%s\t%d columns\t%d constraints\n",
				qualifiedName(table), len(table.RawColumns()), len(table.RawConstraints()))
		}
		return nil
	},
}

// loadDB builds the schema database from whichever source flag was given.
// Exactly one of --schema and --database must be set.
func loadDB(cmd *cli.Command) (*ddl.DB, error) {
	schemaPath := cmd.String("schema")
	dbPath := cmd.String("database")

	var opts []ddl.Option
	if cmd.Bool("verbose") {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, ddl.WithLogger(log))
	}

	switch {
	case schemaPath != "" && dbPath != "":
		return nil, errors.New("use either --schema or --database, not both")

	case schemaPath != "":
		info, err := os.Stat(schemaPath)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return ddl.ReadFiles(schemaPath, opts...)
		}
		content, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, err
		}
		return ddl.FromSQL(string(content), opts...)

	case dbPath != "":
		conn, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer func() {
			_ = conn.Close()
		}()
		return ddl.FromDB(conn, opts...)
	}
	return nil, errors.New("one of --schema or --database is required")
}

func qualifiedName(t schema.Table) string {
	if s := t.TableSchema(); s != "" {
		return s + "." + t.TableName()
	}
	return t.TableName()
}

func describeColumn(col schema.TableColumn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %s", col.ColumnName(), col.ColumnType())
	if !col.IsNullable() {
		b.WriteString(" NOT NULL")
	}
	if expr, ok := col.DefaultExpr(); ok {
		fmt.Fprintf(&b, " DEFAULT %s", expr)
	}
	if col.IsPrimaryKey() {
		b.WriteString(" [pk]")
	}
	return b.String()
}

func describeConstraint(db *ddl.DB, con schema.TableConstraint) string {
	cols := strings.Join(con.ConstraintColumns(), ", ")
	switch con.ConstraintKind() {
	case schema.KindForeignKey:
		fk := con.Constraint.(schema.ForeignKey)
		target := fk.ReferencedTable()
		status := ""
		if _, ok := db.TableByRef(target); !ok {
			status = " (unresolved)"
		}
		return fmt.Sprintf("FOREIGN KEY (%s) -> %s%s", cols, target, status)
	case schema.KindCheck:
		if c, ok := con.Constraint.(*ddl.Constraint); ok {
			return fmt.Sprintf("CHECK (%s)", c.CheckExpr())
		}
		return "CHECK"
	default:
		return fmt.Sprintf("%s (%s)", con.ConstraintKind(), cols)
	}
}

func describeIndex(index schema.Index) string {
	parts := make([]string, 0, len(index.IndexedColumns()))
	for _, col := range index.IndexedColumns() {
		if col.Desc {
			parts = append(parts, col.Name+" DESC")
		} else {
			parts = append(parts, col.Name)
		}
	}
	kind := "INDEX"
	if index.IsUnique() {
		kind = "UNIQUE INDEX"
	}
	out := fmt.Sprintf("%s %s (%s)", kind, index.IndexName(), strings.Join(parts, ", "))
	if pred, ok := index.Predicate(); ok {
		out += " WHERE " + pred
	}
	return out
}
