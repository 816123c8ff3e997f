package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
)

const fileExt = ".json"

// FileStore keeps one JSON document per session in a directory, so
// selections survive a server restart. Writes go through a temp file and a
// rename; readers never see half a session.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed and stores sessions in it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "session directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "create session dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the session directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, filepath.Base(id)+fileExt)
}

func (s *FileStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(s.path(id))
}

// load reads one session file. Missing files, unreadable JSON and expired
// sessions all read as no session; the last two are removed.
func (s *FileStore) load(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "read session")
	}
	var sess Session
	if json.Unmarshal(b, &sess) != nil || sess.IsExpired() {
		_ = os.Remove(path)
		return nil, nil
	}
	return &sess, nil
}

func (s *FileStore) Set(_ context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "encode session %s", sess.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "write session")
	}
	_, werr := tmp.Write(b)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "write session")
	}
	if err := os.Rename(tmp.Name(), s.path(sess.ID)); err != nil {
		_ = os.Remove(tmp.Name())
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "write session")
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "delete session")
	}
	return nil
}

// Cleanup removes expired and unreadable session files and counts the rest.
func (s *FileStore) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, ferrors.Wrap(ferrors.ErrCodeInternal, err, "list sessions")
	}
	live := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return live, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		sess, err := s.load(filepath.Join(s.dir, name))
		if err != nil {
			return live, err
		}
		if sess != nil {
			live++
		}
	}
	return live, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)

// =============================================================================
// Explorer memory
// =============================================================================

// CLITTL keeps the explorer's last selection for a month.
const CLITTL = 30 * DefaultTTL

const lastSelectionID = "last"

// CLIStore remembers the selection the terminal explorer was left on.
type CLIStore struct {
	files *FileStore
}

func NewCLIStore(dir string) (*CLIStore, error) {
	files, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{files: files}, nil
}

// LastSelection returns the remembered selection, or def when there is
// none.
func (c *CLIStore) LastSelection(ctx context.Context, def flow.Selection) (flow.Selection, error) {
	sess, err := c.files.Get(ctx, lastSelectionID)
	if err != nil || sess == nil {
		return def, err
	}
	return sess.Selection, nil
}

func (c *CLIStore) SaveSelection(ctx context.Context, sel flow.Selection) error {
	sess := New(sel, CLITTL)
	sess.ID = lastSelectionID
	return c.files.Set(ctx, sess)
}

func (c *CLIStore) Forget(ctx context.Context) error {
	return c.files.Delete(ctx, lastSelectionID)
}

// Path returns the file holding the remembered selection.
func (c *CLIStore) Path() string { return c.files.path(lastSelectionID) }
