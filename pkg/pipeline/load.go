package pipeline

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowmap/pkg/cache"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/geo"
	"github.com/matzehuels/flowmap/pkg/httputil"
	"github.com/matzehuels/flowmap/pkg/migration"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/scene"
	"github.com/matzehuels/flowmap/pkg/topo"
)

// Dataset is a loaded migration graph with its projected boundaries. It is
// immutable once loaded and safe for concurrent use.
type Dataset struct {
	Graph   *migration.Graph
	Adapter *geo.Adapter

	// Hash identifies the input bytes; cache keys derive from it.
	Hash string

	// LoadedAt is when the inputs were read.
	LoadedAt time.Time

	// TopologyHit reports whether the topology download came from cache.
	TopologyHit bool

	mu        sync.Mutex
	composers map[composerKey]*scene.Composer
}

type composerKey struct {
	taper   bool
	palette scene.Palette
}

// Composer returns the composer for the given drawing options. Composers
// are kept per option set so their projected layouts are reused.
func (d *Dataset) Composer(opts Options) *scene.Composer {
	k := composerKey{taper: opts.Taper, palette: opts.Palette}

	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.composers[k]; ok {
		return c
	}
	if d.composers == nil {
		d.composers = make(map[composerKey]*scene.Composer)
	}
	c := scene.NewComposer(d.Graph, d.Adapter,
		scene.WithTaper(opts.Taper),
		scene.WithPalette(opts.Palette),
		scene.WithLogger(opts.logger()))
	d.composers[k] = c
	return c
}

// Load reads the migration table and the topology concurrently and builds
// the dataset.
func (r *Runner) Load(ctx context.Context, opts Options) (*Dataset, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	r.withLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.DataPath)
	start := time.Now()

	ds, err := r.load(ctx, opts)
	var locations, edges int
	if err == nil {
		locations, edges = len(ds.Graph.Locations()), len(ds.Graph.Edges())
	}
	hooks.OnLoadComplete(ctx, opts.DataPath, locations, edges, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("loaded dataset",
		"locations", locations,
		"flows", edges,
		"topology_cached", ds.TopologyHit,
		"duration", time.Since(start))
	return ds, nil
}

func (r *Runner) load(ctx context.Context, opts Options) (*Dataset, error) {
	var (
		csvData, topoData []byte
		table             *migration.Table
		topology          *topo.Topology
		topoHit           bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := readInput(opts.DataPath, "dataset")
		if err != nil {
			return err
		}
		t, err := migration.ReadTable(bytes.NewReader(data))
		if err != nil {
			return err
		}
		csvData, table = data, t
		return nil
	})
	g.Go(func() error {
		data, hit, err := r.topologyBytes(gctx, opts)
		if err != nil {
			return err
		}
		t, err := topo.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
		topoData, topology, topoHit = data, t, hit
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	simplified := topology.Simplified(opts.Simplify)
	features, err := simplified.Features(opts.Object)
	if err != nil {
		return nil, err
	}
	graph, err := migration.Build(table, migration.IndexNames(features))
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("simplified boundaries", "object", opts.Object, "features", len(features), "keep", opts.Simplify)

	return &Dataset{
		Graph:       graph,
		Adapter:     geo.NewAdapter(features, simplified.Mesh()),
		Hash:        cache.Hash(csvData, topoData, []byte(opts.Object), []byte(strconv.FormatFloat(opts.Simplify, 'g', -1, 64))),
		LoadedAt:    time.Now(),
		TopologyHit: topoHit,
	}, nil
}

// topologyBytes reads the topology file, or downloads it through the cache
// when the path is a URL.
func (r *Runner) topologyBytes(ctx context.Context, opts Options) ([]byte, bool, error) {
	if !httputil.IsURL(opts.TopologyPath) {
		data, err := readInput(opts.TopologyPath, "topology")
		return data, false, err
	}

	hooks := observability.Cache()
	key := r.Keyer.TopologyKey(opts.TopologyPath)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "topology")
			return data, true, nil
		}
	}
	hooks.OnCacheMiss(ctx, "topology")

	r.Logger.Debug("downloading topology", "url", opts.TopologyPath)
	data, err := opts.HTTP.Get(ctx, opts.TopologyPath)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLTopology); err != nil {
		r.Logger.Warn("cache topology", "error", err)
	} else {
		hooks.OnCacheSet(ctx, "topology", len(data))
	}
	return data, false, nil
}

func readInput(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "%s %s", what, path)
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "read %s %s", what, path)
	}
	return data, nil
}
