// Package layerstore provides an in-process event-sourcing engine for map
// layers.
//
// This package serves as the main entry point for the layerstore library.
// For the core functionality, see the layers package and its subpackages:
//
//	layers                  - Store, events, projection, reversible commands
//	layers/adapters/bolt    - journal+snapshot backend (bbolt)
//	layers/adapters/githist - file+history backend (git)
//
// Quick Start:
//
//  1. Open a backend and a store:
//     adapter, err := bolt.Open("layers.db")
//     store, err := layers.Open(adapter)
//
//  2. Issue commands:
//     store.AddLayer("recon", "Recon Overlay")
//     store.AddFeature("recon", "unit-7", layers.Document{"sidc": "SFGPUCI"})
//
//  3. Observe committed events:
//     store.Register(func(e layers.Event) { ... })
//
// See the examples directory for complete working examples.
package layerstore

// Version returns the current version of the library.
func Version() string {
	return "0.1.0-dev"
}
