// Package githist provides the file+history persistence backend.
//
// Each layer is serialized to one JSON file in a git work tree, and every
// materialized write or delete becomes one commit under a fixed author
// identity. The git history is an audit trail of materialized writes, not a
// fine-grained event log: replay granularity is whole-entity.
package githist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/tacmap/layerstore/layers"
)

// FileExt is the extension of per-layer files in the work tree.
const FileExt = ".json"

// Config contains configuration for the file+history backend.
// Configuration is immutable after construction.
type Config struct {
	// Logger is an optional logger for observability.
	// If nil, logging is disabled.
	Logger layers.Logger

	// AuthorName and AuthorEmail form the deterministic commit identity.
	AuthorName  string
	AuthorEmail string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		AuthorName:  "layerstore",
		AuthorEmail: "layerstore@localhost",
	}
}

// Option is a functional option for configuring the backend.
type Option func(*Config)

// WithLogger sets a logger for the backend.
func WithLogger(logger layers.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithAuthor sets the commit author identity.
func WithAuthor(name, email string) Option {
	return func(c *Config) {
		c.AuthorName = name
		c.AuthorEmail = email
	}
}

// Store is the git-backed file+history adapter.
type Store struct {
	dir    string
	repo   *git.Repository
	config Config
	logger layers.Logger
	source layers.StateSource
	queue  *layers.WriteQueue

	// persistedSeq records, per entity, the update sequence at the last
	// successful commit. A flush whose current sequence equals it is
	// skipped; a failed commit leaves it stale so the next write for the
	// entity re-attempts.
	persistedSeq *xsync.MapOf[string, uint64]
}

var _ layers.Adapter = (*Store)(nil)

// Open opens the store directory, initializing a git repository in it on
// first use.
func Open(dir string, opts ...Option) (*Store, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = layers.NoOpLogger{}
	}

	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open history repository: %w", err)
	}

	return &Store{
		dir:          dir,
		repo:         repo,
		config:       config,
		logger:       config.Logger,
		queue:        layers.NewWriteQueue(config.Logger),
		persistedSeq: xsync.NewMapOf[string, uint64](),
	}, nil
}

// Bind implements layers.Adapter.
func (s *Store) Bind(source layers.StateSource) {
	s.source = source
}

// RecordEvent implements layers.Adapter. Layer-scoped events schedule a
// materialization of the affected layer; deletions remove its file. All
// work for one layer runs on that layer's write lane, in order.
func (s *Store) RecordEvent(e layers.Event) *layers.WriteResult {
	switch e.Kind {
	case layers.KindSnapshot, layers.KindReplayReady:
		return layers.CompletedWriteResult(nil)
	case layers.KindLayerDeleted:
		id := e.LayerID
		return s.queue.Enqueue(id, func() error {
			return s.remove(id, fmt.Sprintf("deleted layer %s", id))
		})
	default:
		return s.FlushEntity(e.Entity())
	}
}

// FlushEntity implements layers.Adapter.
func (s *Store) FlushEntity(id string) *layers.WriteResult {
	return s.queue.Enqueue(id, func() error {
		return s.flush(id)
	})
}

// RemoveEntity implements layers.Adapter.
func (s *Store) RemoveEntity(id string) *layers.WriteResult {
	return s.queue.Enqueue(id, func() error {
		return s.remove(id, fmt.Sprintf("removed layer %s", id))
	})
}

// flush serializes one layer to its file and commits. Runs on the entity's
// write lane.
func (s *Store) flush(id string) error {
	seq := s.source.Seq()
	if persisted, ok := s.persistedSeq.Load(id); ok && persisted == seq {
		return nil
	}

	layer, ok := s.source.LayerSnapshot(id)
	if !ok {
		// Deleted before this flush ran; the deletion's own lane job
		// handles the removal.
		return nil
	}

	data, err := json.MarshalIndent(layer, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize layer %s: %w", id, err)
	}

	name := id + FileExt
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("write layer file %s: %w", name, err)
	}
	if err := s.commit(name, fmt.Sprintf("persisted layer id %s", id), false); err != nil {
		return err
	}

	s.persistedSeq.Store(id, seq)
	return nil
}

// remove deletes one layer's file and commits. Runs on the entity's write
// lane. Removing an already-absent file is a no-op, which makes the
// deleted/removed double notification idempotent.
func (s *Store) remove(id, message string) error {
	name := id + FileExt
	if _, err := os.Stat(filepath.Join(s.dir, name)); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := s.commit(name, message, true); err != nil {
		return err
	}

	s.persistedSeq.Delete(id)
	return nil
}

// commit stages one file (or its removal) and commits with the fixed author
// identity. A clean work tree is treated as success: the write was already
// materialized.
func (s *Store) commit(name, message string, removal bool) error {
	wt, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("history worktree: %w", err)
	}

	if removal {
		_, err = wt.Remove(name)
	} else {
		_, err = wt.Add(name)
	}
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.config.AuthorName,
			Email: s.config.AuthorEmail,
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

// Replay implements layers.Adapter. It assembles every layer file in the
// work tree into one synthetic snapshot event. There is no finer-grained
// journal in this mode.
func (s *Store) Replay(apply func(layers.Event) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list store directory: %w", err)
	}

	st := layers.State{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, FileExt) {
			continue
		}
		id := strings.TrimSuffix(name, FileExt)

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("read layer file %s: %w", name, err)
		}
		layer := &layers.Layer{}
		if err := json.Unmarshal(data, layer); err != nil {
			return fmt.Errorf("parse layer file %s: %w", name, err)
		}
		layer.ID = id
		if layer.Features == nil {
			layer.Features = map[string]layers.Document{}
		}
		st[id] = layer
	}

	return apply(layers.Event{Kind: layers.KindSnapshot, Snapshot: st})
}

// Close implements layers.Adapter.
func (s *Store) Close() error {
	s.queue.Drain()
	return nil
}
