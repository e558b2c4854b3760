package schema

import (
	"errors"
	"fmt"
)

// ErrSealed is returned by builder mutations after Seal has been called.
// A sealed container has no supported mutation path; rebuild instead.
var ErrSealed = errors.New("schema: container already sealed")

// DuplicateDefinitionError reports a table, index or column whose name
// collides with one already present in the build. It is fatal to the build:
// no partial database is exposed.
type DuplicateDefinitionError struct {
	Object string // "table", "index" or "column"
	Schema string // table schema, "" when none
	Name   string
	Table  string // owning table, set for columns only
}

func (e *DuplicateDefinitionError) Error() string {
	switch e.Object {
	case "column":
		return fmt.Sprintf("schema: duplicate column %q in table %q", e.Name, e.Table)
	case "index":
		return fmt.Sprintf("schema: duplicate index %q", e.Name)
	default:
		return fmt.Sprintf("schema: duplicate table %q", TableRef{Schema: e.Schema, Name: e.Name})
	}
}

// UnresolvedReferenceError reports a statement that named a table not
// present in the build at a point where the reference must resolve
// immediately, such as ALTER TABLE ... ADD CONSTRAINT. Foreign key targets
// are not checked this way; they resolve lazily at query time.
type UnresolvedReferenceError struct {
	Ref     TableRef
	Context string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("schema: %s references unknown table %q", e.Context, e.Ref)
}
