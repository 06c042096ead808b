package layers

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// DefaultLayerID is the id of the layer materialized on demand when a
// feature is added to an empty store.
const DefaultLayerID = "0"

// DefaultLayerName is the name given to the materialized default layer.
const DefaultLayerName = "Default Layer"

// Reducer observes committed events. The store delivers every event to every
// registered reducer, in registration order, after applying it to canonical
// state, so all observers share one consistent, ordered view of history.
type Reducer func(e Event)

// Config contains configuration for a Store.
type Config struct {
	// Logger is an optional logger for observability.
	// If nil, logging is disabled.
	Logger Logger
}

// Option is a functional option for configuring a Store.
type Option func(*Config)

// WithLogger sets a logger for the store.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Store is the single source of truth for all layers and their features.
//
// It accepts intent-level commands, converts them into immutable events,
// folds them into the in-memory projection, fans them out to subscribers,
// and hands them to the persistence adapter. Event application is
// synchronous: a command returns only after every reducer has observed its
// events. Durable persistence is asynchronous relative to the caller.
type Store struct {
	adapter Adapter
	logger  Logger

	mu       sync.Mutex
	state    State
	reducers []Reducer
	counts   map[Kind]uint64
	closed   bool

	updateSeq atomic.Uint64
}

var _ StateSource = (*Store)(nil)

// Open constructs a store over the given adapter and replays the durable
// history into it. Replay failure is fatal: no safe default state exists, so
// the error is surfaced instead of starting empty. After a successful replay
// the store emits a replay-ready sentinel to mark the bootstrap/live
// boundary.
func Open(adapter Adapter, opts ...Option) (*Store, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = NoOpLogger{}
	}

	s := &Store{
		adapter: adapter,
		logger:  cfg.Logger,
		state:   State{},
		counts:  map[Kind]uint64{},
	}
	adapter.Bind(s)

	if err := adapter.Replay(func(e Event) error {
		s.state = Apply(s.state, e)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReplay, err)
	}
	s.dispatch(Event{Kind: KindReplayReady})

	return s, nil
}

// Close marks the store closed and drains the adapter's pending writes.
// Commands issued after Close are silent no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// The adapter drains its write lanes; lane workers read state through
	// the StateSource, so the store lock must not be held here.
	return s.adapter.Close()
}

// Register synchronously catches reducer up to the current projection, then
// adds it to the live fan-out list.
//
// Catch-up is a targeted replay pass: the reducer receives one synthetic
// snapshot of the canonical state followed by replay-ready, the same shape
// the file-backed replay strategy produces. Folding the current projection
// is equivalent to folding the full history (the projection is a
// deterministic fold of it) and, unlike re-reading durable storage, cannot
// race writes still in flight.
func (s *Store) Register(r Reducer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	r(Event{Kind: KindSnapshot, Snapshot: CloneState(s.state)})
	r(Event{Kind: KindReplayReady})
	s.reducers = append(s.reducers, r)
}

// persist commits one event: bump the update sequence, fold into canonical
// state, fan out synchronously, then hand the event to the adapter. Must be
// called with the store lock held.
func (s *Store) persist(e Event) {
	s.updateSeq.Add(1)
	s.state = Apply(s.state, e)
	s.counts[e.Kind]++
	s.dispatch(e)
	s.adapter.RecordEvent(e)
}

// dispatch delivers e to every registered reducer in registration order.
func (s *Store) dispatch(e Event) {
	for _, r := range s.reducers {
		r(e)
	}
}

// AddLayer creates a layer with the given id and name, visible.
//
// Name uniqueness is enforced by eviction, not rejection: any existing layer
// carrying the same name is deleted first, durable materialization included.
func (s *Store) AddLayer(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	var evict []string
	for lid, l := range s.state {
		if l.Name == name {
			evict = append(evict, lid)
		}
	}
	sort.Strings(evict)
	for _, lid := range evict {
		s.persist(Event{Kind: KindLayerDeleted, LayerID: lid})
		s.adapter.RemoveEntity(lid)
	}

	s.persist(Event{Kind: KindLayerAdded, LayerID: id, Name: name})
}

// UpdateBounds replaces the bounding box of a layer. No-op if the layer does
// not exist.
func (s *Store) UpdateBounds(id string, bbox []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.state[id]; !ok {
		return
	}
	s.persist(Event{Kind: KindBoundsUpdated, LayerID: id, BBox: bbox})
}

// DeleteLayer deletes the given layers, defaulting to all layers when no ids
// are given. Missing ids are skipped. Each deletion also removes the layer's
// durable materialization through the adapter.
func (s *Store) DeleteLayer(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, id := range s.targets(ids) {
		s.persist(Event{Kind: KindLayerDeleted, LayerID: id})
		s.adapter.RemoveEntity(id)
	}
}

// HideLayer hides the given layers, defaulting to all layers when no ids are
// given. Missing ids are skipped.
func (s *Store) HideLayer(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, id := range s.targets(ids) {
		s.persist(Event{Kind: KindLayerHidden, LayerID: id})
	}
}

// ShowLayer shows the given layers, defaulting to all layers when no ids are
// given. Missing ids are skipped.
func (s *Store) ShowLayer(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, id := range s.targets(ids) {
		s.persist(Event{Kind: KindLayerShown, LayerID: id})
	}
}

// targets resolves a command's layer id list: empty means every layer,
// anything else is filtered to the layers that exist. Must be called with
// the store lock held.
func (s *Store) targets(ids []string) []string {
	var out []string
	if len(ids) == 0 {
		for id := range s.state {
			out = append(out, id)
		}
		sort.Strings(out)
		return out
	}
	for _, id := range ids {
		if _, ok := s.state[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// AddFeature inserts a feature document into a layer.
//
// Adding to the default layer id materializes the default layer on demand.
// Adding to a hidden layer shows it first. Adding a feature id that already
// exists is a silent no-op: first write wins, which guards against duplicate
// insertion; use UpdateFeature to change an existing feature.
func (s *Store) AddFeature(layerID, featureID string, feature Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if _, ok := s.state[layerID]; !ok && layerID == DefaultLayerID {
		s.persist(Event{Kind: KindLayerAdded, LayerID: DefaultLayerID, Name: DefaultLayerName})
	}
	l, ok := s.state[layerID]
	if !ok {
		return
	}
	if !l.Show {
		s.persist(Event{Kind: KindLayerShown, LayerID: layerID})
	}
	if _, exists := l.Features[featureID]; exists {
		return
	}
	s.persist(Event{Kind: KindFeatureAdded, LayerID: layerID, FeatureID: featureID, Feature: feature})
}

// UpdateFeature merges a partial feature document over the existing one.
// Keys present in feature override, absent keys are preserved; this is what
// makes partial updates possible. The caller must guarantee the layer
// exists; an update against a missing layer folds to nothing.
func (s *Store) UpdateFeature(layerID, featureID string, feature Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.persist(Event{Kind: KindFeatureUpdated, LayerID: layerID, FeatureID: featureID, Feature: feature})
}

// DeleteFeature removes a feature from a layer. No-op if the layer or the
// feature does not exist.
func (s *Store) DeleteFeature(layerID, featureID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	l, ok := s.state[layerID]
	if !ok {
		return
	}
	if _, ok := l.Features[featureID]; !ok {
		return
	}
	s.persist(Event{Kind: KindFeatureDeleted, LayerID: layerID, FeatureID: featureID})
}

// Layer returns a deep copy of one layer. Reads never emit events; copies
// keep the projection sealed against mutation outside the fold.
func (s *Store) Layer(id string) (*Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state[id]
	if !ok {
		return nil, false
	}
	return CloneLayer(l), true
}

// Feature returns a deep copy of one feature document.
func (s *Store) Feature(layerID, featureID string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state[layerID]
	if !ok {
		return nil, false
	}
	doc, ok := l.Features[featureID]
	if !ok {
		return nil, false
	}
	return CloneDocument(doc), true
}

// Seq implements StateSource.
func (s *Store) Seq() uint64 {
	return s.updateSeq.Load()
}

// Snapshot implements StateSource. It returns a deep copy of the full
// projection.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneState(s.state)
}

// LayerSnapshot implements StateSource.
func (s *Store) LayerSnapshot(id string) (*Layer, bool) {
	return s.Layer(id)
}

// eventCounts returns a copy of the per-kind event counters, for the
// prometheus collector.
func (s *Store) eventCounts() (map[Kind]uint64, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Kind]uint64, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out, len(s.state), len(s.reducers)
}
