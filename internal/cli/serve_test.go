package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/matzehuels/flowmap/internal/config"
	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/session"
)

func TestDisplayAddr(t *testing.T) {
	tests := []struct {
		addr, want string
	}{
		{":8080", "http://localhost:8080"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		if got := displayAddr(tt.addr); got != tt.want {
			t.Errorf("displayAddr(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestOpenSessionStore(t *testing.T) {
	dir := t.TempDir()

	store, err := openSessionStore(context.Background(), config.Default(), dir)
	if err != nil {
		t.Fatalf("openSessionStore(memory) error: %v", err)
	}
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Errorf("store = %T, want *session.MemoryStore", store)
	}

	cfg := config.Default()
	cfg.Server.Sessions = config.SessionsFile
	store, err = openSessionStore(context.Background(), cfg, dir)
	if err != nil {
		t.Fatalf("openSessionStore(file) error: %v", err)
	}
	fs, ok := store.(*session.FileStore)
	if !ok {
		t.Fatalf("store = %T, want *session.FileStore", store)
	}
	if fs.Dir() != filepath.Join(dir, "sessions") {
		t.Errorf("Dir() = %q", fs.Dir())
	}
}

func TestCacheLocation(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	tests := []struct {
		name string
		set  func(*config.CacheConfig)
		want string
	}{
		{"file", func(*config.CacheConfig) {}, "/tmp/xdg/flowmap"},
		{"file dir", func(c *config.CacheConfig) { c.Dir = "/srv/cache" }, "/srv/cache"},
		{"sqlite", func(c *config.CacheConfig) { c.Backend = cache.BackendSQLite }, "/tmp/xdg/flowmap/cache.db"},
		{"sqlite path", func(c *config.CacheConfig) { c.Backend = cache.BackendSQLite; c.SQLitePath = "/x.db" }, "/x.db"},
		{"redis", func(c *config.CacheConfig) { c.Backend = cache.BackendRedis; c.RedisAddr = "r:6379" }, "redis://r:6379"},
		{"none", func(c *config.CacheConfig) { c.Backend = cache.BackendNone }, "(disabled)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, LogInfo)
			c.config = config.Default()
			tt.set(&c.config.Cache)
			if got := c.cacheLocation(); got != tt.want {
				t.Errorf("cacheLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}
