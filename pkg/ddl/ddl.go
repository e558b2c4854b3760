package ddl

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/schemalens/schemalens/pkg/grammar"
)

var baseFS fs.FS

// SetBaseFS sets the base filesystem for reading schema files.
// Use an embed.FS to read from embedded files.
// Pass nil to revert to the OS filesystem.
func SetBaseFS(fsys fs.FS) {
	baseFS = fsys
}

func BaseFS() fs.FS {
	return baseFS
}

// FromSQL parses DDL text and builds the schema database from it.
func FromSQL(sqlText string, opts ...Option) (*DB, error) {
	stmts, err := grammar.Parse(sqlText)
	if err != nil {
		return nil, err
	}
	return FromStatements(stmts, opts...)
}

// FromStatements builds the schema database from already-parsed statements.
func FromStatements(stmts []grammar.Statement, opts ...Option) (*DB, error) {
	b := NewBuilder(opts...)
	if err := b.ApplyAll(stmts); err != nil {
		return nil, err
	}
	return b.Build()
}

// FromDB extracts the stored DDL from an open SQLite connection and builds
// the schema database from it. Objects without stored DDL (internal indexes,
// the sqlite_ tables) are left out.
func FromDB(db *sql.DB, opts ...Option) (*DB, error) {
	rows, err := db.Query(`
		SELECT sql FROM sqlite_master
		WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		ORDER BY type DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("read sqlite_master: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ddl []string
	for rows.Next() {
		var sqlText string
		if err := rows.Scan(&sqlText); err != nil {
			return nil, err
		}
		ddl = append(ddl, sqlText)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return FromSQL(strings.Join(ddl, ";\n"), opts...)
}

// ReadFiles parses every .sql file under dir, in sorted path order, and
// builds a single schema database from the combined statement stream.
func ReadFiles(dir string, opts ...Option) (*DB, error) {
	var err error
	var files []string
	if baseFS != nil {
		files, err = fromFS(baseFS, dir)
	} else {
		files, err = fromDir(dir)
	}
	if err != nil {
		return nil, err
	}

	b := NewBuilder(opts...)
	for _, path := range files {
		var content []byte
		if baseFS != nil {
			content, err = fs.ReadFile(baseFS, path)
		} else {
			content, err = os.ReadFile(filepath.Clean(path))
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		stmts, err := grammar.Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		if err := b.ApplyAll(stmts); err != nil {
			return nil, fmt.Errorf("apply %s: %w", filepath.Base(path), err)
		}
	}
	return b.Build()
}

// fromDir loads all .sql files from a directory
func fromDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".sql") {
			return err
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// fromFS loads all .sql files from an fs.FS
func fromFS(fsys fs.FS, dir string) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".sql") {
			return err
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}
