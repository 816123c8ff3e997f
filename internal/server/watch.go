package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/httputil"
)

// reloadDelay collapses the burst of events an editor or a copy produces.
const reloadDelay = 250 * time.Millisecond

// watchedFiles returns the absolute paths of the local input files.
func (s *Server) watchedFiles() []string {
	var files []string
	for _, p := range []string{s.opts.Pipeline.DataPath, s.opts.Pipeline.TopologyPath} {
		if p == "" || httputil.IsURL(p) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			files = append(files, abs)
		}
	}
	return files
}

// watch reloads the dataset when an input file changes. Parent
// directories are watched so files replaced by rename are still seen.
func (s *Server) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "create watcher")
	}
	defer w.Close()

	targets := make(map[string]bool)
	for _, f := range s.watchedFiles() {
		targets[f] = true
		dir := filepath.Dir(f)
		if err := w.Add(dir); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInternal, err, "watch %s", dir)
		}
	}
	if len(targets) == 0 {
		s.logger.Warn("nothing to watch: inputs are remote")
		<-ctx.Done()
		return nil
	}
	s.logger.Info("watching inputs", "files", len(targets))

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			s.logger.Debug("input changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(reloadDelay)
		case <-timer.C:
			start := time.Now()
			if err := s.Reload(ctx); err != nil {
				s.logger.Error("reload failed, keeping previous dataset", "error", err)
				continue
			}
			s.logger.Info("reloaded dataset", "duration", time.Since(start))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher", "error", err)
		}
	}
}
