// Package bolt provides the journal+snapshot persistence backend.
//
// Every committed event is appended to a durable journal bucket under a
// time-ordered key; every SnapshotEvery events a full-projection snapshot is
// written to bound replay cost. The journal is authoritative and
// write-ahead; snapshot writes are best-effort — losing one only lengthens
// replay, it never loses data.
package bolt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/tacmap/layerstore/layers"
)

const (
	journalBucket   = "journal"
	snapshotsBucket = "snapshots"

	// journalLane serializes journal appends so they retire in event
	// order; snapshotLane keeps snapshot writes off the journal's lane.
	journalLane  = "journal"
	snapshotLane = "snapshot"
)

// Config contains configuration for the bolt backend.
// Configuration is immutable after construction.
type Config struct {
	// Logger is an optional logger for observability.
	// If nil, logging is disabled.
	Logger layers.Logger

	// SnapshotEvery is the number of recorded events between full-state
	// snapshots.
	SnapshotEvery int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SnapshotEvery: 500,
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

// WithSnapshotEvery sets the snapshot compaction interval.
func WithSnapshotEvery(n int) Option {
	return func(c *Config) {
		c.SnapshotEvery = n
	}
}

// Store is the bbolt-backed journal+snapshot adapter.
type Store struct {
	db     *bbolt.DB
	config Config
	logger layers.Logger
	source layers.StateSource
	queue  *layers.WriteQueue

	// sinceSnapshot counts events recorded since the last snapshot;
	// snapshotSeq is the update sequence captured by the last snapshot,
	// used to short-circuit redundant flushes.
	sinceSnapshot atomic.Uint64
	snapshotSeq   atomic.Uint64
}

var _ layers.Adapter = (*Store)(nil)

// Open opens (or creates) the backend database at path.
func Open(path string, opts ...Option) (*Store, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = layers.NoOpLogger{}
	}
	if config.SnapshotEvery <= 0 {
		config.SnapshotEvery = DefaultConfig().SnapshotEvery
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{journalBucket, snapshotsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		config: config,
		logger: config.Logger,
		queue:  layers.NewWriteQueue(config.Logger),
	}, nil
}

// Bind implements layers.Adapter.
func (s *Store) Bind(source layers.StateSource) {
	s.source = source
}

// RecordEvent implements layers.Adapter. The journal key is assigned
// synchronously, so keys carry the commit order even though the append
// itself retires later on the journal lane.
func (s *Store) RecordEvent(e layers.Event) *layers.WriteResult {
	if e.Kind == layers.KindReplayReady {
		return layers.CompletedWriteResult(nil)
	}

	key, err := journalKey()
	if err != nil {
		return layers.CompletedWriteResult(err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return layers.CompletedWriteResult(fmt.Errorf("marshal event: %w", err))
	}

	result := s.queue.Enqueue(journalLane, func() error {
		return s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket([]byte(journalBucket)).Put([]byte(key), data)
		})
	})

	if s.sinceSnapshot.Add(1) >= uint64(s.config.SnapshotEvery) {
		s.sinceSnapshot.Store(0)
		s.queue.Enqueue(snapshotLane, s.writeSnapshot)
	}

	return result
}

// FlushEntity implements layers.Adapter. A journal has no per-entity
// materialization, so flushing writes a full snapshot; the sequence guard
// makes back-to-back flushes with no intervening mutation a single write.
func (s *Store) FlushEntity(string) *layers.WriteResult {
	return s.queue.Enqueue(snapshotLane, s.writeSnapshot)
}

// RemoveEntity implements layers.Adapter. The deletion event is already
// journaled and authoritative; there is nothing else to remove.
func (s *Store) RemoveEntity(string) *layers.WriteResult {
	return layers.CompletedWriteResult(nil)
}

func (s *Store) writeSnapshot() error {
	seq := s.source.Seq()
	if s.snapshotSeq.Load() == seq {
		return nil
	}

	// The key must be assigned before the state is captured: every event
	// missing from the snapshot then keys after it and is replayed from
	// the journal tail. The reverse order could key an event below the
	// boundary without including it in the snapshot.
	key, err := journalKey()
	if err != nil {
		return err
	}
	snap := layers.Event{Kind: layers.KindSnapshot, Snapshot: s.source.Snapshot()}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(snapshotsBucket)).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.snapshotSeq.Store(seq)
	return nil
}

// Replay implements layers.Adapter. It folds the most recent snapshot, if
// any, then streams every journal record keyed after it, in ascending key
// order. Records keyed at or before the snapshot are already contained in
// it.
func (s *Store) Replay(apply func(layers.Event) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		var boundary []byte

		snapKey, snapData := tx.Bucket([]byte(snapshotsBucket)).Cursor().Last()
		if snapKey != nil {
			var snap layers.Event
			if err := json.Unmarshal(snapData, &snap); err != nil {
				return fmt.Errorf("decode snapshot %q: %w", snapKey, err)
			}
			if err := apply(snap); err != nil {
				return err
			}
			boundary = snapKey
		}

		c := tx.Bucket([]byte(journalBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if boundary != nil && bytes.Compare(k, boundary) <= 0 {
				continue
			}
			var e layers.Event
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode journal record %q: %w", k, err)
			}
			if err := apply(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements layers.Adapter.
func (s *Store) Close() error {
	s.queue.Drain()
	return s.db.Close()
}

// journalKey returns a time-ordered, collision-resistant key. UUIDv7 string
// form sorts lexically by creation time and is strictly increasing within a
// process.
func journalKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("journal key: %w", err)
	}
	return id.String(), nil
}
