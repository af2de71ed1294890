// Package crs implements coordinate reference system tagging and
// transformation for geometry-aware tables. Only the EPSG codes in the
// registry are supported; geographic coordinates are the pivot for every
// transform.
package crs

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// Unit is the linear unit of a CRS axis.
type Unit string

const (
	UnitDegree Unit = "degree"
	UnitMeter  Unit = "meter"
	UnitFootUS Unit = "us-foot"
)

// metersPerUnit converts one CRS unit to meters.
var metersPerUnit = map[Unit]float64{
	UnitMeter:  1,
	UnitFootUS: 1200.0 / 3937.0,
}

// projection converts geographic lon/lat degrees to projected native units
// and back.
type projection interface {
	forward(lon, lat float64) (x, y float64)
	inverse(x, y float64) (lon, lat float64)
}

// Def describes a registered CRS.
type Def struct {
	EPSG       int
	Name       string
	Unit       Unit
	Geographic bool
	proj       projection
}

// MetersPerUnit returns the length of one native unit in meters.
// Geographic CRSs have no linear unit.
func (d Def) MetersPerUnit() (float64, error) {
	m, ok := metersPerUnit[d.Unit]
	if !ok {
		return 0, eris.Errorf("crs: EPSG:%d has no linear unit", d.EPSG)
	}
	return m, nil
}

var registry = map[int]Def{
	4326: {EPSG: 4326, Name: "WGS 84", Unit: UnitDegree, Geographic: true},
	3857: {
		EPSG: 3857, Name: "WGS 84 / Pseudo-Mercator", Unit: UnitMeter,
		proj: webMercator{},
	},
	2248: {
		EPSG: 2248, Name: "NAD83 / Maryland (ftUS)", Unit: UnitFootUS,
		proj: newLambert(lambertParams{
			lat1: 38.3, lat2: 39.45, lat0: 37.0 + 40.0/60.0, lon0: -77,
			falseEastingM: 400000, falseNorthingM: 0,
			metersPerUnit: 1200.0 / 3937.0,
		}),
	},
	2249: {
		EPSG: 2249, Name: "NAD83 / Massachusetts Mainland (ftUS)", Unit: UnitFootUS,
		proj: newLambert(lambertParams{
			lat1: 41.0 + 43.0/60.0, lat2: 42.0 + 41.0/60.0, lat0: 41, lon0: -71.5,
			falseEastingM: 200000, falseNorthingM: 750000,
			metersPerUnit: 1200.0 / 3937.0,
		}),
	},
}

// Lookup returns the definition for an EPSG code.
func Lookup(epsg int) (Def, error) {
	d, ok := registry[epsg]
	if !ok {
		return Def{}, eris.Errorf("crs: unknown EPSG:%d", epsg)
	}
	return d, nil
}

// Set attaches an EPSG tag to an untagged table without touching coordinate
// values. Geometries are rebuilt with the matching SRID so the table tag and
// per-geometry SRIDs never disagree. Retagging a table that already carries
// a different CRS is an error; transform exists for that.
func Set(t *geotable.Table, epsg int) (*geotable.Table, error) {
	if _, err := Lookup(epsg); err != nil {
		return nil, err
	}
	if t.EPSG() != 0 && t.EPSG() != epsg {
		return nil, eris.Errorf("crs: table already tagged EPSG:%d, use Transform", t.EPSG())
	}

	out := geotable.New(t.Columns(), epsg)
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		if r.Geom == nil {
			out.MustAppend(r)
			continue
		}
		g, err := rebuild(r.Geom, append([]float64(nil), r.Geom.FlatCoords()...), epsg)
		if err != nil {
			return nil, eris.Wrapf(err, "crs: row %d", i)
		}
		out.MustAppend(geotable.Row{Geom: g, Attrs: r.Attrs})
	}
	return out, nil
}

// Transform reprojects every geometry into the target CRS and retags the
// table. The source table must be tagged. Transforming to the current CRS
// returns a copy with unchanged coordinates.
func Transform(t *geotable.Table, epsg int) (*geotable.Table, error) {
	if t.EPSG() == 0 {
		return nil, eris.New("crs: transform on untagged table, source CRS unknown")
	}
	src, err := Lookup(t.EPSG())
	if err != nil {
		return nil, err
	}
	dst, err := Lookup(epsg)
	if err != nil {
		return nil, err
	}
	if src.EPSG == dst.EPSG {
		return t.WithEPSG(epsg), nil
	}

	out := geotable.New(t.Columns(), epsg)
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		g, err := transformGeom(r.Geom, src, dst)
		if err != nil {
			return nil, eris.Wrapf(err, "crs: row %d", i)
		}
		out.MustAppend(geotable.Row{Geom: g, Attrs: r.Attrs})
	}
	return out, nil
}

// transformGeom rebuilds a geometry with every coordinate converted from src
// to dst, pivoting through geographic degrees.
func transformGeom(g geom.T, src, dst Def) (geom.T, error) {
	if g == nil {
		return nil, nil
	}
	flat := append([]float64(nil), g.FlatCoords()...)
	stride := g.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		x, y := flat[i], flat[i+1]
		lon, lat := x, y
		if !src.Geographic {
			lon, lat = src.proj.inverse(x, y)
		}
		if dst.Geographic {
			flat[i], flat[i+1] = lon, lat
		} else {
			flat[i], flat[i+1] = dst.proj.forward(lon, lat)
		}
	}
	return rebuild(g, flat, dst.EPSG)
}

func rebuild(g geom.T, flat []float64, srid int) (geom.T, error) {
	switch s := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(s.Layout(), flat).SetSRID(srid), nil
	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(s.Layout(), flat).SetSRID(srid), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(s.Layout(), flat).SetSRID(srid), nil
	case *geom.MultiLineString:
		return geom.NewMultiLineStringFlat(s.Layout(), flat, s.Ends()).SetSRID(srid), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(s.Layout(), flat, s.Ends()).SetSRID(srid), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(s.Layout(), flat, s.Endss()).SetSRID(srid), nil
	default:
		return nil, eris.Errorf("crs: unsupported geometry %T", g)
	}
}
