// Package aggregate counts joined records per group key and merges the
// counts back onto the reference polygon table, zero-filling polygons that
// the inner spatial join dropped.
package aggregate

import (
	"github.com/rotisserie/eris"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// CountByKey returns the number of rows per distinct value of the key column.
func CountByKey(joined *geotable.Table, key string) (map[string]int, error) {
	if _, ok := joined.ColumnIndex(key); !ok {
		return nil, eris.Errorf("aggregate: joined table has no column %q", key)
	}
	counts := make(map[string]int)
	for i := 0; i < joined.Len(); i++ {
		k, err := joined.String(i, key)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: row %d", i)
		}
		counts[k]++
	}
	return counts, nil
}

// MergeCounts left-outer-merges per-key counts onto the polygon table as a
// new integer column. Every polygon row appears exactly once in the result;
// polygons whose key has no count get zero rather than being dropped. This is
// the explicit missing-data policy of the pipeline: the inner join loses
// unmatched polygons, and the remerge restores them.
func MergeCounts(polygons *geotable.Table, counts map[string]int, key, col string) (*geotable.Table, error) {
	if _, ok := polygons.ColumnIndex(key); !ok {
		return nil, eris.Errorf("aggregate: polygon table has no column %q", key)
	}
	values := make([]any, polygons.Len())
	for i := 0; i < polygons.Len(); i++ {
		k, err := polygons.String(i, key)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: row %d", i)
		}
		values[i] = counts[k] // zero-fill via map default
	}
	out, err := polygons.AddColumn(col, values)
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: merge counts")
	}
	return out, nil
}

// JoinCountMerge runs the count-then-remerge sequence in one call.
func JoinCountMerge(joined, polygons *geotable.Table, key, col string) (*geotable.Table, error) {
	counts, err := CountByKey(joined, key)
	if err != nil {
		return nil, err
	}
	return MergeCounts(polygons, counts, key, col)
}
