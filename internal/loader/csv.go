package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// PointOptions configures delimited-text point loading. EPSG is required:
// the source CRS is never inferred from the file.
type PointOptions struct {
	LonColumn string // header name of the longitude column
	LatColumn string // header name of the latitude column
	EPSG      int
	Delimiter rune // default ','
	Sheet     string // XLSX only; default first sheet
}

func (o PointOptions) validate() error {
	if o.LonColumn == "" || o.LatColumn == "" {
		return eris.New("loader: longitude and latitude columns are required")
	}
	if o.EPSG == 0 {
		return eris.New("loader: source EPSG is required for coordinate data")
	}
	return nil
}

// CSVPoints reads a delimited text file with numeric longitude/latitude
// columns into a point table. Rows with an empty or unparsable coordinate in
// either column are skipped; there is no other partial-row recovery.
func CSVPoints(path string, opts PointOptions) (*geotable.Table, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read header of %s", path)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "loader: read row of %s", path)
		}
		rows = append(rows, record)
	}

	return pointTable(path, header, rows, opts)
}

// pointTable builds a point table from header + string rows. Shared by the
// CSV and XLSX loaders.
func pointTable(path string, header []string, rows [][]string, opts PointOptions) (*geotable.Table, error) {
	lonIdx, latIdx := -1, -1
	for i, h := range header {
		switch {
		case strings.EqualFold(h, opts.LonColumn):
			lonIdx = i
		case strings.EqualFold(h, opts.LatColumn):
			latIdx = i
		}
	}
	if lonIdx < 0 {
		return nil, eris.Errorf("loader: %s has no column %q", path, opts.LonColumn)
	}
	if latIdx < 0 {
		return nil, eris.Errorf("loader: %s has no column %q", path, opts.LatColumn)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(h)
	}

	table := geotable.New(cols, opts.EPSG)
	var skipped int

	for _, record := range rows {
		lon, lonOK := parseCoord(record, lonIdx)
		lat, latOK := parseCoord(record, latIdx)
		if !lonOK || !latOK {
			skipped++
			continue
		}

		attrs := make([]any, len(cols))
		for i := range cols {
			if i < len(record) {
				val := strings.TrimSpace(record[i])
				if val != "" {
					attrs[i] = val
				}
			}
		}

		g := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(opts.EPSG)
		table.MustAppend(geotable.Row{Geom: g, Attrs: attrs})
	}

	if skipped > 0 {
		zap.L().Debug("loader: skipped rows with missing coordinates",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return table, nil
}

func parseCoord(record []string, idx int) (float64, bool) {
	if idx >= len(record) {
		return 0, false
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
