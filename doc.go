/*
Package xsqlgraph reconstructs typed object graphs from flat, joined query
results. One parent row joined against many child rows collapses into one
parent value holding a collection of children; you write plain SQL and
describe which columns belong to which entity.

# Overview

A result row of a joined query carries several entities side by side. xsqlgraph
splits the columns into groups at identifier columns (the split specifier,
"id" by default), materializes each group at most once per identity, and
after reading the whole result attaches the secondary entities to their root.
It works with *sql.DB, *sql.Tx and *sql.Conn through [Query] and [Get], or
with any [Cursor] through [Assemble].

# Column groups

  - A column starts a new group when its name ends with one of the split
    identifiers ("childId" and "pet_id" match "id") or is named inside the
    split specifier. A name that only begins with one ("idx") does not.
    The first group is the root (position 0), the following groups are
    secondary positions 1..N in order.
  - Columns before the first identifier column belong to no entity and are
    ignored.
  - A split specifier matching no column is a configuration error
    ([ErrNoIdentifiers]), reported before any row is read.

# Identity

  - A root is identified by its identifier cell. Secondary entities are
    identified by their own identifier cell within the current row's root:
    the same child id under two different roots yields two instances.
  - Rows repeating an identity reuse the first instance; later cells for it
    are ignored.
  - A null or empty identifier skips that position for the row. A row with
    no root identifier contributes nothing.

# Mapping rules

  - Fields bind by `db:"name"` first; otherwise case-insensitive field ←→ column name.
  - Nested structs can be flattened with `db:",inline"`; `db:"-"` skips a field.
  - Scalar fields (bool, numbers, string, []byte, time.Time, uuid.UUID,
    decimal.Decimal, [Char], and types implementing sql.Scanner) are set from
    their column. Any other field is a relation and is never set from a
    column.
  - A null cell leaves a non-pointer field at its zero value and a pointer
    field nil.
  - uint16 reads as int32, uint32 as int64, uint64 as decimal; float32 reads
    single precision only from REAL/FLOAT4 columns; a byte reads a TINYINT
    column directly and the first byte of anything else; named integer types
    with a String method read as int32.
  - A cell that cannot be converted fails the call with a [*TypeCoercionError].

# Relations

Secondary positions are declared with [Include] or inferred from the
parameters of a [Relate] func. A position type may be a struct, a pointer to
one, a [Record], or a collection of them (slice, array, or a type with an Add
or Append method). With a relation func, it is called once per root with all
positions in order. Without one, each position is stored in the first root
field of exactly its type.

# Performance

On first use of a type, xsqlgraph builds an entity descriptor (column → field
index path and read strategy) and caches it in a lazily-initialized,
concurrency-safe map (sync.Map). Subsequent queries reuse it. Each call keeps
its identity index private, so calls share nothing else.

# Error handling

  - Layout mistakes wrap [ErrConfig].
  - Conversion failures return [*TypeCoercionError], naming the column and the field type.
  - Get returns sql.ErrNoRows when no root is found.
  - Driver and iteration errors propagate unchanged.
*/
package xsqlgraph
