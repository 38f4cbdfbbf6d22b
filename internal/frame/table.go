package frame

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDuplicateColumn is returned when a column name is already present.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrRowCount is returned when a column length differs from the table's row count.
	ErrRowCount = errors.New("row count mismatch")
	// ErrUnknownColumn is returned when a named column does not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotNumeric is returned when a numeric operation meets a string column.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrEmpty is returned when an operation needs at least one row and column.
	ErrEmpty = errors.New("empty table")
)

// Kind is the storage type of a column.
type Kind int

const (
	Numeric Kind = iota
	String
)

func (k Kind) String() string {
	if k == String {
		return "string"
	}
	return "numeric"
}

// Column is a named sequence of values. Numeric columns mark missing values
// with NaN; string columns carry an explicit Missing mask.
//
// Columns are shared between tables and must not be modified after they
// have been added to one.
type Column struct {
	Name    string
	Kind    Kind
	Num     []float64
	Str     []string
	Missing []bool
}

// NumericColumn returns a numeric column over values.
func NumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Num: values}
}

// StringColumn returns a string column. A nil missing mask means no value is missing.
func StringColumn(name string, values []string, missing []bool) *Column {
	if missing == nil {
		missing = make([]bool, len(values))
	}
	return &Column{Name: name, Kind: String, Str: values, Missing: missing}
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	if c.Kind == String {
		return len(c.Str)
	}
	return len(c.Num)
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == String {
		return c.Missing[i]
	}
	return math.IsNaN(c.Num[i])
}

func (c *Column) rename(name string) *Column {
	out := *c
	out.Name = name
	return &out
}

// gather builds a column from the rows at idx; -1 yields a missing value.
func (c *Column) gather(idx []int) *Column {
	if c.Kind == String {
		vals := make([]string, len(idx))
		missing := make([]bool, len(idx))
		for i, j := range idx {
			if j < 0 {
				missing[i] = true
				continue
			}
			vals[i] = c.Str[j]
			missing[i] = c.Missing[j]
		}
		return StringColumn(c.Name, vals, missing)
	}
	vals := make([]float64, len(idx))
	for i, j := range idx {
		if j < 0 {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = c.Num[j]
	}
	return NumericColumn(c.Name, vals)
}

// Table is an ordered collection of named columns of equal length.
//
// Names are expected to be unique. Append tolerates duplicates so that tables
// read from untrusted sources can be inspected and repaired with DedupColumns.
type Table struct {
	rows int
	cols []*Column
}

// New returns an empty table with the given row count.
func New(rows int) *Table {
	return &Table{rows: rows}
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// Width returns the column count.
func (t *Table) Width() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Has reports whether a column named name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Column returns the first column named name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Append adds c to the end of the table without checking for duplicate names.
func (t *Table) Append(c *Column) error {
	if c.Len() != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d: %w", c.Name, c.Len(), t.rows, ErrRowCount)
	}
	t.cols = append(t.cols, c)
	return nil
}

// Add adds c to the end of the table. The name must be new.
func (t *Table) Add(c *Column) error {
	if t.Has(c.Name) {
		return fmt.Errorf("adding %q: %w", c.Name, ErrDuplicateColumn)
	}
	return t.Append(c)
}

// AddNumeric adds a numeric column.
func (t *Table) AddNumeric(name string, values []float64) error {
	return t.Add(NumericColumn(name, values))
}

// AddString adds a string column.
func (t *Table) AddString(name string, values []string, missing []bool) error {
	return t.Add(StringColumn(name, values, missing))
}

// Drop returns a table without any column named in names. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := New(t.rows)
	for _, c := range t.cols {
		if !skip[c.Name] {
			out.cols = append(out.cols, c)
		}
	}
	return out
}

// Take returns a table holding the rows at idx, in idx order.
func (t *Table) Take(idx []int) *Table {
	out := New(len(idx))
	for _, c := range t.cols {
		out.cols = append(out.cols, c.gather(idx))
	}
	return out
}

// Duplicates returns every name that appears more than once, in first-seen order.
func (t *Table) Duplicates() []string {
	seen := make(map[string]int, len(t.cols))
	var dups []string
	for _, c := range t.cols {
		seen[c.Name]++
		if seen[c.Name] == 2 {
			dups = append(dups, c.Name)
		}
	}
	return dups
}

// DedupColumns returns a table keeping only the first column of each name.
func (t *Table) DedupColumns() *Table {
	seen := make(map[string]bool, len(t.cols))
	out := New(t.rows)
	for _, c := range t.cols {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out.cols = append(out.cols, c)
	}
	return out
}
