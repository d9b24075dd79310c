package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/wurm/internal/predicate"
	"github.com/roach88/wurm/internal/schema"
)

// Quote returns name as a quoted SQLite identifier.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// CreateTable returns the CREATE TABLE statement of s. The primary key is
// declared inline; WithoutRowid record types get a WITHOUT ROWID table.
//
// A single INTEGER column named rowid in the primary key makes the column an
// alias of SQLite's own rowid, so inserts without it are auto-assigned.
func CreateTable(s *schema.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(Quote(s.Name))
	b.WriteString(" (")
	for i, c := range s.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Quote(c.Name))
		b.WriteString(" ")
		b.WriteString(string(c.Kind))
	}
	b.WriteString(", PRIMARY KEY (")
	b.WriteString(quoteAll(s.PrimaryKeyColumnNames()))
	b.WriteString("))")
	if s.WithoutRowID {
		b.WriteString(" WITHOUT ROWID")
	}
	return b.String()
}

// CreateIndexes returns one CREATE UNIQUE INDEX statement per unique field.
// A multi-column field gets a single index spanning its columns.
func CreateIndexes(s *schema.Schema) []string {
	stmts := make([]string, 0, len(s.Unique))
	for _, f := range s.Unique {
		stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			Quote(s.Name+"_"+f.Name), Quote(s.Name), quoteAll(f.ColumnNames())))
	}
	return stmts
}

// DDL returns every statement needed to create the table of s.
func DDL(s *schema.Schema) []string {
	return append([]string{CreateTable(s)}, CreateIndexes(s)...)
}

// Select returns a SELECT of every column of s, filtered by where (compiled
// with Compile; empty for no filter). Rows are always ordered by primary key
// so results are deterministic. With limit set, the statement ends with a
// LIMIT placeholder bound after the filter arguments.
func Select(s *schema.Schema, where string, limit bool) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(quoteAll(s.ColumnNames()))
	b.WriteString(" FROM ")
	b.WriteString(Quote(s.Name))
	writeWhere(&b, where)
	b.WriteString(" ORDER BY ")
	b.WriteString(quoteAll(s.PrimaryKeyColumnNames()))
	if limit {
		b.WriteString(" LIMIT ?")
	}
	return b.String()
}

// SelectKeys returns a SELECT of the primary-key columns of the rows of s
// matching where.
func SelectKeys(s *schema.Schema, where string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(quoteAll(s.PrimaryKeyColumnNames()))
	b.WriteString(" FROM ")
	b.WriteString(Quote(s.Name))
	writeWhere(&b, where)
	return b.String()
}

// Count returns a SELECT COUNT(*) over the rows of s matching where.
func Count(s *schema.Schema, where string) string {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(Quote(s.Name))
	writeWhere(&b, where)
	return b.String()
}

// Insert returns an INSERT listing every column of s. Without withRowID the
// implicit rowid column is left out so SQLite assigns it. A statement with
// no columns at all inserts DEFAULT VALUES.
func Insert(s *schema.Schema, withRowID bool) string {
	names := InsertColumns(s, withRowID)
	if len(names) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", Quote(s.Name))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Quote(s.Name), quoteAll(names), placeholders(len(names)))
}

// InsertColumns returns the columns Insert lists, in order.
func InsertColumns(s *schema.Schema, withRowID bool) []string {
	names := s.ColumnNames()
	if s.WithoutRowID || withRowID {
		return names
	}
	return names[1:]
}

// Update returns an UPDATE of every data column of s, matched by primary key.
// Data arguments come first, then key arguments. Record types without data
// columns have nothing to update and get an empty string.
func Update(s *schema.Schema) string {
	data := s.DataColumnNames()
	if len(data) == 0 {
		return ""
	}
	set := make([]string, len(data))
	for i, n := range data {
		set[i] = Quote(n) + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		Quote(s.Name), strings.Join(set, ", "), keyWhere(s))
}

// Delete returns a DELETE of the rows of s matching where. An empty where
// deletes every row.
func Delete(s *schema.Schema, where string) string {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(Quote(s.Name))
	writeWhere(&b, where)
	return b.String()
}

// KeyFilter returns the predicate matching the row of s whose primary-key
// columns equal key.
func KeyFilter(s *schema.Schema, key []any) predicate.Predicate {
	names := s.PrimaryKeyColumnNames()
	preds := make([]predicate.Predicate, len(names))
	for i, n := range names {
		preds[i] = predicate.Compare{Column: n, Op: predicate.OpEq, Value: key[i]}
	}
	return predicate.And{Predicates: preds}
}

func keyWhere(s *schema.Schema) string {
	names := s.PrimaryKeyColumnNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = Quote(n) + " = ?"
	}
	return strings.Join(parts, " AND ")
}

func writeWhere(b *strings.Builder, where string) {
	if where == "" {
		return
	}
	b.WriteString(" WHERE ")
	b.WriteString(where)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
