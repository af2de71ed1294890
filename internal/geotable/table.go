// Package geotable defines the geometry-aware table that every pipeline
// stage consumes and produces: ordered rows carrying a go-geom geometry plus
// attribute columns, tagged with a single EPSG code shared by all rows.
package geotable

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Row is one record: a geometry plus attribute values aligned to the owning
// table's column schema. Attrs may hold string, float64, int, or nil.
type Row struct {
	Geom  geom.T
	Attrs []any
}

// Table is an ordered sequence of rows with a shared column schema and a
// single CRS tag. EPSG 0 means untagged. Operations never mutate a table in
// place; they build a new one.
type Table struct {
	cols   []string
	colIdx map[string]int
	rows   []Row
	epsg   int
}

// New creates an empty table with the given columns and EPSG tag.
func New(cols []string, epsg int) *Table {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return &Table{
		cols:   append([]string(nil), cols...),
		colIdx: idx,
		epsg:   epsg,
	}
}

// Columns returns the column names in schema order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// EPSG returns the table's CRS tag (0 = untagged).
func (t *Table) EPSG() int {
	return t.epsg
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// ColumnIndex returns the index of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.colIdx[name]
	return i, ok
}

// Append adds a row after checking it matches the schema width.
func (t *Table) Append(r Row) error {
	if len(r.Attrs) != len(t.cols) {
		return eris.Errorf("geotable: row has %d attrs, schema has %d columns", len(r.Attrs), len(t.cols))
	}
	t.rows = append(t.rows, r)
	return nil
}

// MustAppend is Append for rows built by trusted code paths.
func (t *Table) MustAppend(r Row) {
	if err := t.Append(r); err != nil {
		panic(err)
	}
}

// Empty returns a new table with the same schema and EPSG tag but no rows.
func (t *Table) Empty() *Table {
	return New(t.cols, t.epsg)
}

// WithEPSG returns a shallow copy of the table carrying a different EPSG tag.
// Geometries are shared with the receiver; callers that recompute coordinates
// must build fresh rows instead.
func (t *Table) WithEPSG(epsg int) *Table {
	out := New(t.cols, epsg)
	out.rows = append(out.rows, t.rows...)
	return out
}

// String returns the value of the named column in row i rendered as a string.
func (t *Table) String(i int, col string) (string, error) {
	idx, ok := t.colIdx[col]
	if !ok {
		return "", eris.Errorf("geotable: no column %q", col)
	}
	v := t.rows[i].Attrs[idx]
	if v == nil {
		return "", nil
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	default:
		return fmt.Sprintf("%v", x), nil
	}
}

// Float returns the value of the named column in row i as a float64.
func (t *Table) Float(i int, col string) (float64, error) {
	idx, ok := t.colIdx[col]
	if !ok {
		return 0, eris.Errorf("geotable: no column %q", col)
	}
	switch x := t.rows[i].Attrs[idx].(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, eris.Wrapf(err, "geotable: column %q row %d is not numeric", col, i)
		}
		return f, nil
	case nil:
		return 0, eris.Errorf("geotable: column %q row %d is null", col, i)
	default:
		return 0, eris.Errorf("geotable: column %q row %d has type %T", col, i, x)
	}
}

// AddColumn returns a new table with an extra column appended to the schema.
// values must have one entry per row.
func (t *Table) AddColumn(name string, values []any) (*Table, error) {
	if _, exists := t.colIdx[name]; exists {
		return nil, eris.Errorf("geotable: column %q already exists", name)
	}
	if len(values) != len(t.rows) {
		return nil, eris.Errorf("geotable: %d values for %d rows", len(values), len(t.rows))
	}
	out := New(append(t.Columns(), name), t.epsg)
	for i, r := range t.rows {
		attrs := make([]any, 0, len(r.Attrs)+1)
		attrs = append(attrs, r.Attrs...)
		attrs = append(attrs, values[i])
		out.rows = append(out.rows, Row{Geom: r.Geom, Attrs: attrs})
	}
	return out, nil
}

// Bounds returns the bounding box of all row geometries, or nil for an empty
// table or a table of nil geometries.
func (t *Table) Bounds() *geom.Bounds {
	var b *geom.Bounds
	for _, r := range t.rows {
		if r.Geom == nil {
			continue
		}
		if b == nil {
			b = geom.NewBounds(geom.XY)
		}
		b = b.Extend(r.Geom)
	}
	return b
}

// SameCRS reports whether two tables carry the same non-zero EPSG tag.
// Binary spatial operations require this before combining tables.
func SameCRS(a, b *Table) error {
	if a.epsg == 0 || b.epsg == 0 {
		return eris.New("geotable: operation on untagged CRS")
	}
	if a.epsg != b.epsg {
		return eris.Errorf("geotable: CRS mismatch EPSG:%d vs EPSG:%d", a.epsg, b.epsg)
	}
	return nil
}
