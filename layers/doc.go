// Package layers provides the in-process event-sourcing engine for map
// layers and their features.
//
// # Overview
//
// The package defines the fundamental types of the engine:
//   - Event: immutable domain events over a closed kind set
//   - Apply: the pure fold from (state, event) to state
//   - Store: commands in, events out, with synchronous fan-out
//   - Adapter: the durable persistence backend interface
//
// # Design Philosophy
//
// Events are the only mutation vector. Commands perform their existence
// guards, then emit events; the projection changes exclusively through
// Apply. Direct mutation of projected state outside the fold is forbidden,
// which is why every read returns a deep copy.
//
// Ordering before durability: a command returns once its events have been
// applied and fanned out to every registered reducer, so all observers see
// state in the exact order events were issued. Durable persistence runs
// asynchronously behind per-entity write lanes; callers that need a
// durability guarantee wait on the WriteResult from Commands().Commit.
//
// Permissive command contract: commands whose target entity is absent are
// silent no-ops, not errors. Callers that need to distinguish no-op from
// success check via the read API first.
//
// # Quick Start
//
// 1. Open a backend and a store:
//
//	adapter, err := bolt.Open("layers.db")
//	if err != nil { ... }
//	store, err := layers.Open(adapter)
//	if err != nil { ... }
//	defer store.Close()
//
// 2. Issue commands:
//
//	store.AddLayer("recon", "Recon Overlay")
//	store.AddFeature("recon", "unit-7", layers.Document{"sidc": "SFGPUCI"})
//
// 3. Observe committed events:
//
//	store.Register(func(e layers.Event) {
//	    // e.Kind == layers.KindSnapshot first (catch-up), then
//	    // layers.KindReplayReady, then the live stream.
//	})
//
// # Undo
//
// Commands().Update packages a feature mutation with its inverse:
//
//	cmd := store.Commands().Update("recon", "unit-7", newValue)
//	cmd.Run()
//	cmd.Inverse().Run() // restores the captured prior value
//
// # Backends
//
// Two interchangeable backends implement Adapter:
//   - adapters/bolt: append-only journal with periodic snapshot compaction
//   - adapters/githist: one file per layer, one git commit per write
//
// They are mutually exclusive deployment choices selected at construction
// time. Both guarantee deterministic replay: folding the durable history
// from the same prefix always rebuilds the identical projection.
package layers
