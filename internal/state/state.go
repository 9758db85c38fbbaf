// Package state implements the graph state service (C8): a process-wide
// singleton holding the live engine, gated by a single-writer/multi-reader
// lock, with mtime-triggered reload and atomic persistence (spec.md §4.7).
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/emergent-company/orgtwin/internal/config"
	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/ioexport"
	"github.com/emergent-company/orgtwin/internal/model"
)

// Service owns the process-wide graph singleton.
//
// Two locks are kept deliberately separate:
//   - fieldsMu guards the graph/loadedPath/loadedMod bookkeeping itself,
//     held only for the brief critical sections that read or swap them.
//   - callMu is the single-writer/multi-reader lock spec.md §5 describes:
//     dispatcher read tools hold it shared for their whole serialisation
//     pass; write tools hold it exclusive for validate->mutate->persist.
//     The mtime reload inside RequireGraph does not take callMu; it swaps
//     the engine under fieldsMu.
type Service struct {
	fieldsMu sync.RWMutex
	callMu   sync.RWMutex

	graph      engine.Engine
	loadedPath string
	loadedMod  time.Time

	strict  bool
	backend string
}

// New constructs an empty Service. No graph is loaded until Load or
// AutoLoadDefault succeeds.
func New(strict bool) *Service {
	return &Service{strict: strict, backend: "memory"}
}

// SetBackend selects the engine.Register'd backend fresh engines are built
// from (GraphConfig.Backend, spec.md §4.1.1). An empty name leaves the
// default "memory" backend in place.
func (s *Service) SetBackend(name string) {
	if name == "" {
		return
	}
	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()
	s.backend = name
}

// newEngine builds a fresh, empty engine from the configured backend.
func (s *Service) newEngine() (engine.Engine, error) {
	s.fieldsMu.RLock()
	name := s.backend
	s.fieldsMu.RUnlock()
	if name == "" {
		name = "memory"
	}
	return engine.NewBackend(name)
}

// AutoLoadDefault reads GraphConfig.DefaultPath and tries to load it.
// A missing file is not an error: the service silently starts with no
// graph loaded (spec.md §4.7).
func (s *Service) AutoLoadDefault(cfg config.GraphConfig) error {
	if cfg.DefaultPath == "" {
		return nil
	}
	if _, err := os.Stat(cfg.DefaultPath); os.IsNotExist(err) {
		return nil
	}
	return s.Load(cfg.DefaultPath)
}

// Load reads path as canonical JSON into a fresh engine and installs it
// as the current graph, recording the file's mtime.
func (s *Service) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Wrap(model.ErrPersistence, err, "reading graph file %s", path)
	}
	fresh, err := s.newEngine()
	if err != nil {
		return model.Wrap(model.ErrPersistence, err, "selecting engine backend")
	}
	if err := ioexport.Import(data, fresh, ioexport.ImportOptions{Strict: s.strict}); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return model.Wrap(model.ErrPersistence, err, "stat graph file %s", path)
	}

	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()
	s.graph = fresh
	s.loadedPath = path
	s.loadedMod = info.ModTime()
	return nil
}

// RequireGraph implements the per-call contract of spec.md §4.7:
//  1. no graph loaded -> ErrNoGraphLoaded
//  2. stat failure -> return current graph with a warning, don't drop state
//  3. mtime changed -> synchronously re-import into a fresh engine;
//     swap on success, retain and log on parse failure
//  4. return the (possibly just-swapped) graph
//
// The returned warning, if non-empty, should be logged by the caller; it
// never indicates the call itself failed.
func (s *Service) RequireGraph() (engine.Engine, string, error) {
	s.fieldsMu.RLock()
	graph := s.graph
	path := s.loadedPath
	known := s.loadedMod
	s.fieldsMu.RUnlock()

	if graph == nil {
		return nil, "", model.NewError(model.ErrNoGraphLoaded, "no graph is currently loaded")
	}

	info, err := os.Stat(path)
	if err != nil {
		return graph, fmt.Sprintf("stat %s failed: %v; serving last-known graph", path, err), nil
	}

	if info.ModTime().Equal(known) {
		return graph, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return graph, fmt.Sprintf("reload of %s failed: %v; serving last-known graph", path, err), nil
	}
	fresh, err := s.newEngine()
	if err != nil {
		return graph, fmt.Sprintf("reload of %s failed to select backend: %v; serving last-known graph", path, err), nil
	}
	if err := ioexport.Import(data, fresh, ioexport.ImportOptions{Strict: s.strict}); err != nil {
		return graph, fmt.Sprintf("reload of %s failed to parse: %v; serving last-known graph", path, err), nil
	}

	s.fieldsMu.Lock()
	s.graph = fresh
	s.loadedMod = info.ModTime()
	s.fieldsMu.Unlock()

	return fresh, "", nil
}

// SetGraph installs eng as the current graph without an associated file
// (used after generation, before the first persist_graph call).
func (s *Service) SetGraph(eng engine.Engine) {
	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()
	s.graph = eng
}

// Persist writes the current graph to path as canonical JSON via a
// temp-file write + fsync + rename, then records the post-rename mtime.
// The rename-then-update order prevents the self-triggered reload race: a
// persist that would otherwise look like an external change is absorbed
// before RequireGraph ever observes the new mtime as "different".
func (s *Service) Persist(path string) error {
	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()

	if s.graph == nil {
		return model.NewError(model.ErrNoGraphLoaded, "no graph is currently loaded")
	}

	data, err := ioexport.Export(s.graph)
	if err != nil {
		return model.Wrap(model.ErrPersistence, err, "serialising graph")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".graph-*.tmp")
	if err != nil {
		return model.Wrap(model.ErrPersistence, err, "creating temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return model.Wrap(model.ErrPersistence, err, "writing temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return model.Wrap(model.ErrPersistence, err, "fsyncing temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return model.Wrap(model.ErrPersistence, err, "closing temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return model.Wrap(model.ErrPersistence, err, "renaming into place")
	}

	info, err := os.Stat(path)
	if err != nil {
		return model.Wrap(model.ErrPersistence, err, "stat after persist")
	}
	s.loadedPath = path
	s.loadedMod = info.ModTime()
	return nil
}

// LoadedPath returns the path the current graph was last loaded from or
// persisted to, or "" if the graph has no associated file.
func (s *Service) LoadedPath() string {
	s.fieldsMu.RLock()
	defer s.fieldsMu.RUnlock()
	return s.loadedPath
}

// RLockCall acquires the shared lock a read tool holds for the duration
// of its RequireGraph-through-Serialise pass (spec.md §5).
func (s *Service) RLockCall()   { s.callMu.RLock() }
func (s *Service) RUnlockCall() { s.callMu.RUnlock() }

// LockCall acquires the exclusive lock a write tool holds across
// validate->mutate->persist.
func (s *Service) LockCall()   { s.callMu.Lock() }
func (s *Service) UnlockCall() { s.callMu.Unlock() }
