package schema

import "iter"

// Key is the unique identity of a table within a database.
type Key struct {
	Schema string
	Name   string
}

// Container is the concrete, backend-parameterized schema model: tables
// keyed by (schema, name), indexes keyed by name. T and X are the backend's
// own node types, so lookups return them without type assertions.
//
// A Container is produced by ContainerBuilder.Seal and is read-only from
// then on; it may be shared by any number of concurrent readers.
type Container[T Table, X Index] struct {
	tables  []T
	byTable map[Key]int
	indexes []X
	byIndex map[string]int
}

// Table returns the table with the exact (schema, name) key.
func (c *Container[T, X]) Table(schemaName, name string) (T, bool) {
	i, ok := c.byTable[Key{Schema: schemaName, Name: name}]
	if !ok {
		var zero T
		return zero, false
	}
	return c.tables[i], true
}

// TableByRef resolves a lazily recorded table reference, such as a foreign
// key target. A dangling reference yields (zero, false), never an error.
func (c *Container[T, X]) TableByRef(ref TableRef) (T, bool) {
	return c.Table(ref.Schema, ref.Name)
}

// Tables iterates over the tables in declaration order.
func (c *Container[T, X]) Tables() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, t := range c.tables {
			if !yield(t) {
				return
			}
		}
	}
}

// Index returns the index with the given name.
func (c *Container[T, X]) Index(name string) (X, bool) {
	i, ok := c.byIndex[name]
	if !ok {
		var zero X
		return zero, false
	}
	return c.indexes[i], true
}

// Indexes iterates over the indexes in declaration order.
func (c *Container[T, X]) Indexes() iter.Seq[X] {
	return func(yield func(X) bool) {
		for _, x := range c.indexes {
			if !yield(x) {
				return
			}
		}
	}
}

// NumTables returns the number of tables in the container.
func (c *Container[T, X]) NumTables() int { return len(c.tables) }

// NumIndexes returns the number of indexes in the container.
func (c *Container[T, X]) NumIndexes() int { return len(c.indexes) }

// RawTables satisfies the Database capability interface, so the generic
// derived algorithms run over any sealed container.
func (c *Container[T, X]) RawTables() []Table {
	out := make([]Table, len(c.tables))
	for i, t := range c.tables {
		out[i] = t
	}
	return out
}

// ContainerBuilder assembles a Container during a single build pass. It is
// the only mutation path; once Seal is called the builder refuses further
// inserts and the container is frozen.
type ContainerBuilder[T Table, X Index] struct {
	c      *Container[T, X]
	sealed bool
}

// NewContainerBuilder returns an empty builder.
func NewContainerBuilder[T Table, X Index]() *ContainerBuilder[T, X] {
	return &ContainerBuilder[T, X]{
		c: &Container[T, X]{
			byTable: make(map[Key]int),
			byIndex: make(map[string]int),
		},
	}
}

// InsertTable adds a table, failing with *DuplicateDefinitionError when its
// (schema, name) key is already taken.
func (b *ContainerBuilder[T, X]) InsertTable(t T) error {
	if b.sealed {
		return ErrSealed
	}
	key := Key{Schema: t.TableSchema(), Name: t.TableName()}
	if _, exists := b.c.byTable[key]; exists {
		return &DuplicateDefinitionError{Object: "table", Schema: key.Schema, Name: key.Name}
	}
	b.c.byTable[key] = len(b.c.tables)
	b.c.tables = append(b.c.tables, t)
	return nil
}

// InsertIndex adds an index, failing with *DuplicateDefinitionError when its
// name is already taken. Index names are unique at database scope.
func (b *ContainerBuilder[T, X]) InsertIndex(x X) error {
	if b.sealed {
		return ErrSealed
	}
	name := x.IndexName()
	if _, exists := b.c.byIndex[name]; exists {
		return &DuplicateDefinitionError{Object: "index", Name: name}
	}
	b.c.byIndex[name] = len(b.c.indexes)
	b.c.indexes = append(b.c.indexes, x)
	return nil
}

// Table looks a table up mid-build. Statements that must resolve a table
// immediately (ALTER TABLE ... ADD CONSTRAINT) use this before the container
// is sealed.
func (b *ContainerBuilder[T, X]) Table(schemaName, name string) (T, bool) {
	return b.c.Table(schemaName, name)
}

// Seal freezes the container and returns it. The builder accepts no inserts
// afterwards.
func (b *ContainerBuilder[T, X]) Seal() *Container[T, X] {
	b.sealed = true
	return b.c
}
