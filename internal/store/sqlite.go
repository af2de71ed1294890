// Package store persists fetched boundary layers in a local SQLite cache so
// repeat queries by state, geography, and year never re-download.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	_ "modernc.org/sqlite"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// Store is a SQLite-backed boundary layer cache.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at the given path and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS boundary_layers (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	geography  TEXT NOT NULL,
	year       INTEGER NOT NULL,
	epsg       INTEGER NOT NULL,
	columns    TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (state, geography, year)
);

CREATE TABLE IF NOT EXISTS boundary_geometries (
	id       TEXT PRIMARY KEY,
	layer_id TEXT NOT NULL REFERENCES boundary_layers(id),
	seq      INTEGER NOT NULL,
	attrs    TEXT NOT NULL,
	geom     BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS report_runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	rows        INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_boundary_geometries_layer ON boundary_geometries(layer_id, seq);
CREATE INDEX IF NOT EXISTS idx_report_runs_stage ON report_runs(stage);
`

// Migrate creates the cache schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HasLayer reports whether a layer is already cached for the combo.
func (s *Store) HasLayer(ctx context.Context, state, geography string, year int) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM boundary_layers WHERE state = ? AND geography = ? AND year = ?`,
		state, geography, year,
	)
	if err := row.Scan(&count); err != nil {
		return false, eris.Wrap(err, "store: check layer")
	}
	return count > 0, nil
}

// PutLayer caches a boundary table under (state, geography, year), replacing
// any previous entry for the combo. Geometries are stored as EWKB blobs.
func (s *Store) PutLayer(ctx context.Context, state, geography string, year int, t *geotable.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin")
	}
	defer func() { _ = tx.Rollback() }()

	var oldID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM boundary_layers WHERE state = ? AND geography = ? AND year = ?`,
		state, geography, year,
	).Scan(&oldID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return eris.Wrap(err, "store: find previous layer")
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM boundary_geometries WHERE layer_id = ?`, oldID); err != nil {
			return eris.Wrap(err, "store: delete previous geometries")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM boundary_layers WHERE id = ?`, oldID); err != nil {
			return eris.Wrap(err, "store: delete previous layer")
		}
	}

	layerID := uuid.New().String()
	colsJSON, err := json.Marshal(t.Columns())
	if err != nil {
		return eris.Wrap(err, "store: marshal columns")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO boundary_layers (id, state, geography, year, epsg, columns, row_count, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		layerID, state, geography, year, t.EPSG(), string(colsJSON), t.Len(), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "store: insert layer")
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		wkb, err := ewkb.Marshal(row.Geom, ewkb.NDR)
		if err != nil {
			return eris.Wrapf(err, "store: encode geometry %d", i)
		}
		attrsJSON, err := json.Marshal(row.Attrs)
		if err != nil {
			return eris.Wrapf(err, "store: marshal attrs %d", i)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO boundary_geometries (id, layer_id, seq, attrs, geom) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), layerID, i, string(attrsJSON), wkb,
		)
		if err != nil {
			return eris.Wrapf(err, "store: insert geometry %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "store: commit layer")
}

// GetLayer loads a cached boundary table, or nil when the combo is absent.
func (s *Store) GetLayer(ctx context.Context, state, geography string, year int) (*geotable.Table, error) {
	var layerID, colsJSON string
	var epsg int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, epsg, columns FROM boundary_layers WHERE state = ? AND geography = ? AND year = ?`,
		state, geography, year,
	).Scan(&layerID, &epsg, &colsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: load layer")
	}

	var cols []string
	if err := json.Unmarshal([]byte(colsJSON), &cols); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal columns")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT attrs, geom FROM boundary_geometries WHERE layer_id = ? ORDER BY seq`, layerID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query geometries")
	}
	defer rows.Close()

	table := geotable.New(cols, epsg)
	for rows.Next() {
		var attrsJSON string
		var wkb []byte
		if err := rows.Scan(&attrsJSON, &wkb); err != nil {
			return nil, eris.Wrap(err, "store: scan geometry row")
		}
		var attrs []any
		if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal attrs")
		}
		g, err := ewkb.Unmarshal(wkb)
		if err != nil {
			return nil, eris.Wrap(err, "store: decode geometry")
		}
		if err := table.Append(geotable.Row{Geom: g, Attrs: attrs}); err != nil {
			return nil, eris.Wrap(err, "store: append row")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate geometry rows")
	}
	return table, nil
}

// RecordStage records a report pipeline stage outcome.
func (s *Store) RecordStage(ctx context.Context, stage string, rowCount int, duration time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_runs (id, stage, rows, duration_ms) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), stage, rowCount, duration.Milliseconds(),
	)
	return eris.Wrap(err, "store: record stage")
}

// LayerStatus is one row of the cache status listing.
type LayerStatus struct {
	State     string
	Geography string
	Year      int
	RowCount  int
	FetchedAt time.Time
}

// Status lists cached layers ordered by state and geography.
func (s *Store) Status(ctx context.Context) ([]LayerStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, geography, year, row_count, fetched_at FROM boundary_layers ORDER BY state, geography`)
	if err != nil {
		return nil, eris.Wrap(err, "store: query status")
	}
	defer rows.Close()

	var status []LayerStatus
	for rows.Next() {
		var ls LayerStatus
		if err := rows.Scan(&ls.State, &ls.Geography, &ls.Year, &ls.RowCount, &ls.FetchedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan status row")
		}
		status = append(status, ls)
	}
	return status, rows.Err()
}
