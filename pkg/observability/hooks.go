// Package observability carries instrumentation events out of the flow map
// libraries.
//
// Libraries emit events through the package-level accessors ([Pipeline],
// [Cache], [HTTP], [Session]); what happens to them is decided once at
// startup by [Install]. Until something is installed every accessor returns a
// no-op, so tests and the CLI commands that do not export metrics pay nothing.
//
// [Metrics] implements every hook interface on top of Prometheus collectors:
//
//	m := observability.NewMetrics()
//	observability.Install(observability.All(m))
//	defer observability.Reset()
//
// Emitting side:
//
//	start := time.Now()
//	ds, err := load(ctx)
//	observability.Pipeline().OnLoadComplete(ctx, path, len(ds.Locations), len(ds.Flows), time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Hook interfaces
// =============================================================================

// PipelineHooks receives dataset load, scene composition and render events.
// The selection argument is the "<location>/<direction>/<display>" triple.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, locations, flows int, duration time.Duration, err error)

	OnComposeStart(ctx context.Context, selection string)
	OnComposeComplete(ctx context.Context, selection string, flows, skipped int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives lookups and writes against the render cache. kind is
// the entry family, "scene" or "topology".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives outgoing requests made while downloading a remote
// topology.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError is called for transport failures; HTTP error statuses arrive
	// through OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

// SessionHooks receives events from the interactive server.
type SessionHooks interface {
	// OnSessionStart is called when a browser without a valid cookie gets
	// a fresh selection.
	OnSessionStart(ctx context.Context)
	// OnSelectionChange is called once per control that changed: control
	// is "location", "direction" or "display".
	OnSelectionChange(ctx context.Context, control string)
	// OnSessionsSwept reports the live session count after expired ones
	// were dropped.
	OnSessionsSwept(ctx context.Context, active int)
	// OnReload is called after every dataset reload attempt.
	OnReload(ctx context.Context, err error)
}

// =============================================================================
// No-op implementations
// =============================================================================

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                      {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error)    {}
func (NoopPipelineHooks) OnComposeStart(context.Context, string)                                   {}
func (NoopPipelineHooks) OnComposeComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                                  {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)          {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

type NoopSessionHooks struct{}

func (NoopSessionHooks) OnSessionStart(context.Context)            {}
func (NoopSessionHooks) OnSelectionChange(context.Context, string) {}
func (NoopSessionHooks) OnSessionsSwept(context.Context, int)      {}
func (NoopSessionHooks) OnReload(context.Context, error)           {}

// =============================================================================
// Registry
// =============================================================================

// Hooks bundles one implementation per event family. Nil fields leave the
// installed implementation for that family untouched.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
	Session  SessionHooks
}

// AllHooks is implemented by backends that observe every event family.
type AllHooks interface {
	PipelineHooks
	CacheHooks
	HTTPHooks
	SessionHooks
}

// All fills every family of a [Hooks] with h.
func All(h AllHooks) Hooks {
	return Hooks{Pipeline: h, Cache: h, HTTP: h, Session: h}
}

func noop() *Hooks {
	return &Hooks{
		Pipeline: NoopPipelineHooks{},
		Cache:    NoopCacheHooks{},
		HTTP:     NoopHTTPHooks{},
		Session:  NoopSessionHooks{},
	}
}

var installed atomic.Pointer[Hooks]

func init() { installed.Store(noop()) }

// Install merges h into the installed hooks. Call it at startup, before the
// libraries start emitting.
func Install(h Hooks) {
	for {
		cur := installed.Load()
		next := *cur
		if h.Pipeline != nil {
			next.Pipeline = h.Pipeline
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if h.Session != nil {
			next.Session = h.Session
		}
		if installed.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Reset puts the no-op hooks back.
func Reset() { installed.Store(noop()) }

func Pipeline() PipelineHooks { return installed.Load().Pipeline }
func Cache() CacheHooks       { return installed.Load().Cache }
func HTTP() HTTPHooks         { return installed.Load().HTTP }
func Session() SessionHooks   { return installed.Load().Session }
