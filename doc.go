/*
Package rowdb implements typed rows on top of a transactional key-value store
(in this case, on top of Bolt).

We implement:

1. Tables of tuple-encoded rows with a declared primary key column. A table
either holds one row per key, or several distinct rows per key.

2. Conversion between Go-side values (Value) and typed tuple fields, with
range, length and type checks on the way in.

3. Key derivation from the primary key field, preserving the natural order of
values.

4. Put and delete operations with insert, update and upsert conflict policies.

# Technical Details

**Buckets.**
All table buckets are nested inside a single root bucket. A table's bucket is
named after the table and its ordinal.

**Table ordinal.**
We assign a unique positive integer ordinal to each table. Ordinals are never
reused, even if a table is dropped and added again, so stale rows never
resurface.

**Catalog.**
We store a msgpack document describing every table, its columns, their
numbers and types. Open reconciles it with the declared Schema; the catalog
generation increases whenever it changes. TableName and ColumnName cache their
resolution against a generation.

## Binary encoding

**Rows** use the tuple encoding, see package tuple.

**Key encoding.**
Keys are derived from the primary key field (column 0). Fixed-width numbers
are big-endian with sign handling that keeps byte order equal to numeric
order. Long string and binary keys are truncated and suffixed with a hash.

**Storage keys.**
Unique tables store varbytes(key) -> row. Tables with duplicates store
varbytes(key) || row -> empty, so rows of a key are adjacent and distinct.
*/
package rowdb
