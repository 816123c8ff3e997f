package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSession struct {
	NoopSessionHooks
	started int
	changed []string
}

func (r *recordingSession) OnSessionStart(context.Context) { r.started++ }

func (r *recordingSession) OnSelectionChange(_ context.Context, control string) {
	r.changed = append(r.changed, control)
}

type recordingCache struct {
	NoopCacheHooks
	hits int
}

func (r *recordingCache) OnCacheHit(context.Context, string) { r.hits++ }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Errorf("Session() = %T, want NoopSessionHooks", Session())
	}

	// Emitting through the defaults must be safe.
	Pipeline().OnLoadComplete(ctx, "migration.csv", 51, 2550, time.Second, nil)
	Cache().OnCacheSet(ctx, "scene", 1024)
	HTTP().OnError(ctx, "GET", "cdn.jsdelivr.net", "/npm/us-atlas@3/states-10m.json", errors.New("timeout"))
	Session().OnReload(ctx, nil)
}

func TestInstallMergesFamilies(t *testing.T) {
	t.Cleanup(Reset)
	Reset()
	ctx := context.Background()

	sess := &recordingSession{}
	Install(Hooks{Session: sess})

	c := &recordingCache{}
	Install(Hooks{Cache: c})

	if Session() != SessionHooks(sess) {
		t.Fatalf("second Install replaced session hooks with %T", Session())
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want untouched noop", Pipeline())
	}

	Session().OnSessionStart(ctx)
	Session().OnSelectionChange(ctx, "direction")
	Cache().OnCacheHit(ctx, "scene")

	if sess.started != 1 || len(sess.changed) != 1 || sess.changed[0] != "direction" {
		t.Errorf("session hooks saw started=%d changed=%v", sess.started, sess.changed)
	}
	if c.hits != 1 {
		t.Errorf("cache hits = %d, want 1", c.hits)
	}

	Reset()
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Errorf("Reset left %T installed", Session())
	}
}

func TestAllInstallsMetricsEverywhere(t *testing.T) {
	t.Cleanup(Reset)
	m := NewMetricsForTesting()
	Install(All(m))

	if Pipeline() != PipelineHooks(m) || Cache() != CacheHooks(m) || HTTP() != HTTPHooks(m) || Session() != SessionHooks(m) {
		t.Fatal("All(m) did not install m for every family")
	}
}
