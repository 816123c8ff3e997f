package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/scene"
)

// sceneKind labels render cache events.
const sceneKind = "scene"

// Runner drives load, compose and render over a shared render cache. It
// keeps no per-selection state; the CLI and every server session use one
// Runner concurrently.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner fills nil arguments with a NullCache, the DefaultKeyer and
// log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	r := &Runner{Cache: c, Keyer: keyer, Logger: logger}
	if r.Cache == nil {
		r.Cache = cache.NewNullCache()
	}
	if r.Keyer == nil {
		r.Keyer = cache.NewDefaultKeyer()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// Execute loads the inputs and runs one selection: the whole CLI render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.withLogger(&opts)

	start := time.Now()
	ds, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	loaded := time.Since(start)

	res, err := r.Run(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = loaded
	res.CacheInfo.TopologyHit = ds.TopologyHit
	return res, nil
}

// Run composes opts.Selection on ds and renders opts.Formats. With
// opts.Previous set, the result carries the enter/update/exit patch and the
// SVG animates the entering flows.
func (r *Runner) Run(ctx context.Context, ds *Dataset, opts Options) (*Result, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	r.withLogger(&opts)

	res := &Result{DatasetHash: ds.Hash, Artifacts: map[string][]byte{}}
	res.Stats.Locations = len(ds.Graph.Locations())
	res.Stats.Edges = len(ds.Graph.Edges())

	t0 := time.Now()
	s, err := r.Compose(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	res.Scene = s
	res.Stats.ComposeTime = time.Since(t0)
	res.Stats.Flows, res.Stats.Skipped = len(s.Flows), len(s.Skipped)
	if opts.Previous != nil {
		res.Patch = scene.Diff(opts.Previous, s.Keys())
	}
	r.Logger.Debug("composed scene",
		"selection", opts.Selection.Key(), "flows", len(s.Flows), "skipped", len(s.Skipped),
		"enter", len(res.Patch.Enter), "exit", len(res.Patch.Exit))

	t1 := time.Now()
	res.Artifacts, res.CacheInfo.RenderHit, err = r.render(ctx, ds.Hash, s, res.Patch, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.RenderTime = time.Since(t1)
	r.Logger.Debug("rendered scene",
		"formats", opts.Formats, "cached", res.CacheInfo.RenderHit, "duration", res.Stats.RenderTime)
	return res, nil
}

// Compose resolves the focal location (id, abbreviation or name) and
// builds its scene. It never touches the cache.
func (r *Runner) Compose(ctx context.Context, ds *Dataset, opts Options) (*scene.Scene, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	r.withLogger(&opts)

	loc, err := ds.Graph.Resolve(opts.Selection.Location)
	if err != nil {
		return nil, err
	}
	sel := opts.Selection
	sel.Location = loc.ID

	hooks := observability.Pipeline()
	hooks.OnComposeStart(ctx, sel.Key())
	start := time.Now()
	s, err := ds.Composer(opts).Compose(sel, opts.Width)

	flows, skipped := 0, 0
	if s != nil {
		flows, skipped = len(s.Flows), len(s.Skipped)
	}
	hooks.OnComposeComplete(ctx, sel.Key(), flows, skipped, time.Since(start), err)
	return s, err
}

// render returns the artifacts for every requested format. It reports a hit
// only when all of them came from the cache; a partial hit re-renders.
func (r *Runner) render(ctx context.Context, datasetHash string, s *scene.Scene, patch scene.Patch, opts Options) (map[string][]byte, bool, error) {
	keys := make(map[string]string, len(opts.Formats))
	for _, f := range opts.Formats {
		keys[f] = r.Keyer.SceneKey(datasetHash, opts.SceneKeyOpts(f, patch.Enter))
	}

	hooks := observability.Cache()
	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, keys); ok {
			hooks.OnCacheHit(ctx, sceneKind)
			return cached, true, nil
		}
		hooks.OnCacheMiss(ctx, sceneKind)
	}

	out, err := Render(ctx, s, patch, opts)
	if err != nil {
		return nil, false, err
	}
	for f, data := range out {
		if err := r.Cache.Set(ctx, keys[f], data, cache.TTLScene); err != nil {
			r.Logger.Warn("render cache write failed", "format", f, "error", err)
			continue
		}
		hooks.OnCacheSet(ctx, sceneKind, len(data))
	}
	return out, false, nil
}

func (r *Runner) lookup(ctx context.Context, keys map[string]string) (map[string][]byte, bool) {
	found := make(map[string][]byte, len(keys))
	for f, k := range keys {
		data, ok, err := r.Cache.Get(ctx, k)
		if err != nil || !ok {
			return nil, false
		}
		found[f] = data
	}
	return found, true
}

// Close closes the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

func (r *Runner) withLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
