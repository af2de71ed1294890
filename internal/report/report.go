// Package report runs the reference analysis end to end as an explicit
// pipeline of named stages: load point data, crop to the boundary extent,
// spatially join, count per region with zero-fill, and buffer the points in
// a projected CRS. Each stage's inputs and outputs are named values; any
// stage error aborts the run.
package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chesapeake-analytics/geopipe/internal/aggregate"
	"github.com/chesapeake-analytics/geopipe/internal/crs"
	"github.com/chesapeake-analytics/geopipe/internal/geotable"
	"github.com/chesapeake-analytics/geopipe/internal/loader"
	"github.com/chesapeake-analytics/geopipe/internal/ops"
	"github.com/chesapeake-analytics/geopipe/internal/store"
)

// Inputs names everything the pipeline consumes.
type Inputs struct {
	PointsCSV  string // delimited text with coordinate columns
	LonColumn  string
	LatColumn  string
	PointsEPSG int // source CRS of the CSV coordinates

	Regions *geotable.Table // polygon table sharing the points' CRS
	Key     string          // unique region identifier column

	BufferDistance float64 // buffer radius, in BufferUnit
	BufferUnit     ops.Unit
	BufferEPSG     int // projected CRS used for the buffer computation

	CountColumn string // name of the merged count column; default "count"
}

// Result holds every named intermediate of a run.
type Result struct {
	Points   *geotable.Table // loaded points, rows with null coordinates dropped
	Cropped  *geotable.Table // points within the regions' bounding extent
	Joined   *geotable.Table // inner spatial join points x regions
	Counted  *geotable.Table // regions with the zero-filled count column
	Buffered *geotable.Table // point buffers in the projected CRS
	Stages   []StageStat
}

// StageStat records one stage outcome.
type StageStat struct {
	Name     string
	Rows     int
	Duration time.Duration
}

// Pipeline runs the report stages, optionally recording stage stats.
type Pipeline struct {
	store *store.Store // may be nil
}

// New creates a pipeline. st may be nil to skip stage recording.
func New(st *store.Store) *Pipeline {
	return &Pipeline{store: st}
}

// Run executes all stages in order.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Result, error) {
	if in.Regions == nil {
		return nil, eris.New("report: regions table is required")
	}
	if in.Key == "" {
		return nil, eris.New("report: region key column is required")
	}
	if in.CountColumn == "" {
		in.CountColumn = "count"
	}
	if in.BufferUnit == "" {
		in.BufferUnit = ops.UnitMiles
	}

	log := zap.L().With(zap.String("component", "report"))
	res := &Result{}

	// Load points. The CSV loader drops rows missing either coordinate.
	points, err := p.stage(ctx, res, "load_points", func() (*geotable.Table, error) {
		return loader.CSVPoints(in.PointsCSV, loader.PointOptions{
			LonColumn: in.LonColumn,
			LatColumn: in.LatColumn,
			EPSG:      in.PointsEPSG,
		})
	})
	if err != nil {
		return nil, err
	}
	res.Points = points

	// Crop to the regions' bounding extent.
	cropped, err := p.stage(ctx, res, "crop", func() (*geotable.Table, error) {
		return ops.Crop(points, in.Regions)
	})
	if err != nil {
		return nil, err
	}
	res.Cropped = cropped

	// Inner spatial join; unmatched regions drop out here and are restored
	// by the zero-fill remerge below.
	joined, err := p.stage(ctx, res, "sjoin", func() (*geotable.Table, error) {
		return ops.SJoin(cropped, in.Regions)
	})
	if err != nil {
		return nil, err
	}
	res.Joined = joined

	counted, err := p.stage(ctx, res, "count_remerge", func() (*geotable.Table, error) {
		return aggregate.JoinCountMerge(joined, in.Regions, in.Key, in.CountColumn)
	})
	if err != nil {
		return nil, err
	}
	res.Counted = counted

	// Buffering needs linear units: transform to the projected CRS first.
	buffered, err := p.stage(ctx, res, "buffer", func() (*geotable.Table, error) {
		projected, err := crs.Transform(cropped, in.BufferEPSG)
		if err != nil {
			return nil, err
		}
		return ops.Buffer(projected, in.BufferDistance, in.BufferUnit)
	})
	if err != nil {
		return nil, err
	}
	res.Buffered = buffered

	log.Info("report pipeline complete",
		zap.Int("points", res.Points.Len()),
		zap.Int("cropped", res.Cropped.Len()),
		zap.Int("joined", res.Joined.Len()),
		zap.Int("regions", res.Counted.Len()),
	)
	return res, nil
}

// stage times one stage, records its outcome, and logs it.
func (p *Pipeline) stage(ctx context.Context, res *Result, name string, fn func() (*geotable.Table, error)) (*geotable.Table, error) {
	start := time.Now()
	t, err := fn()
	if err != nil {
		return nil, eris.Wrapf(err, "report: stage %s", name)
	}
	elapsed := time.Since(start)

	res.Stages = append(res.Stages, StageStat{Name: name, Rows: t.Len(), Duration: elapsed})
	if p.store != nil {
		if err := p.store.RecordStage(ctx, name, t.Len(), elapsed); err != nil {
			zap.L().Warn("report: failed to record stage", zap.String("stage", name), zap.Error(err))
		}
	}
	zap.L().Debug("report stage complete",
		zap.String("stage", name),
		zap.Int("rows", t.Len()),
		zap.Duration("duration", elapsed),
	)
	return t, nil
}
