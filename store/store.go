// Package store persists ledger state as JSON with a one-generation backup.
//
// Every Save first copies the current primary file to the backup, then
// replaces the primary. Both writes go through a temp file, fsync and
// rename, so a crash leaves either the old or the new file in place, never
// a torn one. Load falls back from primary to backup to a fresh ledger.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/gridsniper/grid"
)

var (
	ErrRead   = errors.New("ledger state read failed")
	ErrWrite  = errors.New("ledger state write failed")
	ErrLocked = errors.New("ledger is owned by another process")
)

// Source says where a loaded state came from.
type Source string

const (
	SourcePrimary Source = "primary"
	SourceBackup  Source = "backup"
	SourceFresh   Source = "fresh"
)

// LoadReport describes how Load arrived at its state.
type LoadReport struct {
	Source Source
	// Errors holds the failures of every source tried before Source.
	Errors []error
}

// Degraded reports whether Load skipped a file that exists but could not be
// used. Missing files alone are not a degradation.
func (r LoadReport) Degraded() bool {
	for _, err := range r.Errors {
		if !errors.Is(err, fs.ErrNotExist) {
			return true
		}
	}
	return false
}

type FileStore struct {
	mu         sync.Mutex
	path       string
	backupPath string
	lock       *flock.Flock
}

// New returns a store for path. An empty backupPath means path + ".bak".
func New(path, backupPath string) *FileStore {
	if backupPath == "" {
		backupPath = path + ".bak"
	}
	return &FileStore{path: path, backupPath: backupPath, lock: flock.New(path + ".lock")}
}

func (s *FileStore) Path() string       { return s.path }
func (s *FileStore) BackupPath() string { return s.backupPath }
func (s *FileStore) LockPath() string   { return s.lock.Path() }

// Lock takes an exclusive lock on <path>.lock so that only one process
// writes the ledger. It does not wait: a lock held elsewhere is ErrLocked.
func (s *FileStore) Lock() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is locked", ErrLocked, s.lock.Path())
	}
	return nil
}

// Unlock releases the lock taken by Lock.
func (s *FileStore) Unlock() error {
	return s.lock.Unlock()
}

// Save makes st durable.
func (s *FileStore) Save(st grid.State) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrWrite, err)
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	prev, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := writeAtomic(s.backupPath, prev); err != nil {
			return fmt.Errorf("%w: backup %s: %v", ErrWrite, s.backupPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// first save, nothing to back up
	default:
		return fmt.Errorf("%w: read %s: %v", ErrWrite, s.path, err)
	}

	if err := writeAtomic(s.path, b); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, s.path, err)
	}
	return nil
}

// Load returns the newest readable state valid under cfg. It never fails:
// when neither file can be used the result is a fresh state and the report
// carries the reasons.
func (s *FileStore) Load(cfg grid.Config) (grid.State, LoadReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rep LoadReport
	candidates := []struct {
		src  Source
		path string
	}{
		{SourcePrimary, s.path},
		{SourceBackup, s.backupPath},
	}

	for _, c := range candidates {
		st, err := readState(c.path, cfg)
		if err == nil {
			rep.Source = c.src
			if rep.Degraded() {
				log.Warn().Str("source", string(c.src)).Str("path", c.path).Msg("ledger state recovered from fallback")
			}
			return st, rep
		}
		rep.Errors = append(rep.Errors, err)
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("source", string(c.src)).Str("path", c.path).Msg("ledger state unusable")
		}
	}

	rep.Source = SourceFresh
	if rep.Degraded() {
		log.Warn().Str("path", s.path).Msg("no usable ledger state, starting fresh")
	}
	return grid.FreshState(cfg), rep
}

func readState(path string, cfg grid.Config) (grid.State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return grid.State{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return grid.State{}, fmt.Errorf("%w: %s is empty", ErrRead, path)
	}

	var st grid.State
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		return grid.State{}, fmt.Errorf("%w: parse %s: %v", ErrRead, path, err)
	}
	if err := st.Validate(); err != nil {
		return grid.State{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	if err := st.CheckConfig(cfg); err != nil {
		return grid.State{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	if st.History == nil {
		st.History = []grid.ClosedTrade{}
	}
	if st.BaseCapital != cfg.BaseCapital {
		log.Info().Float64("stored", st.BaseCapital).Float64("configured", cfg.BaseCapital).
			Str("path", path).Msg("base capital taken from config")
		st.BaseCapital = cfg.BaseCapital
	}
	return st, nil
}

// writeAtomic writes b to a temp file in the target directory, syncs it and
// renames it over path.
func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// some filesystems refuse fsync on directories
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}
	return nil
}
