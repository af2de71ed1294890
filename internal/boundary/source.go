package boundary

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
	"github.com/chesapeake-analytics/geopipe/internal/loader"
	"github.com/chesapeake-analytics/geopipe/internal/store"
)

// Source resolves boundary queries against the local cache, downloading and
// parsing shapefiles on a miss.
type Source struct {
	dl      *Downloader
	cache   *store.Store
	tempDir string
}

// NewSource creates a boundary source backed by a downloader and cache.
func NewSource(dl *Downloader, cache *store.Store, tempDir string) *Source {
	if tempDir == "" {
		tempDir = "/tmp/geopipe"
	}
	return &Source{dl: dl, cache: cache, tempDir: tempDir}
}

// Get returns the boundary table for (state, geography, year), from cache
// when present. National geographies ignore the state for the download but
// are cached under "US".
func (s *Source) Get(ctx context.Context, state, geography string, year int) (*geotable.Table, error) {
	g, ok := GeographyByName(geography)
	if !ok {
		return nil, eris.Errorf("boundary: unknown geography %q", geography)
	}

	state = strings.ToUpper(state)
	cacheState := state
	stateFIPS := ""
	if g.National {
		cacheState = "US"
	} else {
		fips, ok := FIPSCodes[state]
		if !ok {
			return nil, eris.Errorf("boundary: unknown state %q", state)
		}
		stateFIPS = fips
	}

	if s.cache != nil {
		cached, err := s.cache.GetLayer(ctx, cacheState, g.Name, year)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			zap.L().Debug("boundary: cache hit",
				zap.String("state", cacheState),
				zap.String("geography", g.Name),
				zap.Int("year", year),
			)
			return cached, nil
		}
	}

	destDir := filepath.Join(s.tempDir, g.Name, strings.ToLower(cacheState))
	shpPath, err := s.dl.Fetch(ctx, g, year, stateFIPS, destDir)
	if err != nil {
		return nil, err
	}

	table, err := loader.Shapefile(shpPath, boundaryEPSG)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: parse %s", shpPath)
	}

	zap.L().Info("boundary layer loaded",
		zap.String("state", cacheState),
		zap.String("geography", g.Name),
		zap.Int("year", year),
		zap.Int("rows", table.Len()),
	)

	if s.cache != nil {
		if err := s.cache.PutLayer(ctx, cacheState, g.Name, year, table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Prefetch warms the cache for several states in parallel, bounded by
// concurrency. Already-cached combos are skipped.
func (s *Source) Prefetch(ctx context.Context, states []string, geography string, year, concurrency int) (map[string]*geotable.Table, error) {
	if concurrency <= 0 {
		concurrency = 3
	}
	if _, err := ValidateStates(states); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	out := make(map[string]*geotable.Table, len(states))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, st := range states {
		st := st
		g.Go(func() error {
			t, err := s.Get(gCtx, st, geography, year)
			if err != nil {
				return eris.Wrapf(err, "boundary: prefetch %s", st)
			}
			mu.Lock()
			out[strings.ToUpper(st)] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
