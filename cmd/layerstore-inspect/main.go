// Command layerstore-inspect opens a layer store backend, replays it, and
// prints a per-layer summary. It is a read-only debugging tool for
// inspecting what a store directory actually contains.
//
// Configuration comes from the environment:
//
//	LAYERSTORE_BACKEND  "bolt" or "githist" (default "bolt")
//	LAYERSTORE_PATH     database file (bolt) or store directory (githist)
package main

import (
	"fmt"
	"log"
	"sort"

	"github.com/caarlos0/env/v11"

	"github.com/tacmap/layerstore/layers"
	"github.com/tacmap/layerstore/layers/adapters/bolt"
	"github.com/tacmap/layerstore/layers/adapters/githist"
)

type config struct {
	Backend string `env:"LAYERSTORE_BACKEND" envDefault:"bolt"`
	Path    string `env:"LAYERSTORE_PATH" envDefault:"layers.db"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse environment: %v", err)
	}

	adapter, err := openAdapter(cfg)
	if err != nil {
		log.Fatalf("open backend: %v", err)
	}

	store, err := layers.Open(adapter)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	state := store.Snapshot()
	ids := make([]string, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%s (%s): %d layer(s)\n", cfg.Path, cfg.Backend, len(ids))
	for _, id := range ids {
		l := state[id]
		visibility := "visible"
		if !l.Show {
			visibility = "hidden"
		}
		fmt.Printf("  %s  %-24q %s, %d feature(s)\n", id, l.Name, visibility, len(l.Features))
	}
}

func openAdapter(cfg config) (layers.Adapter, error) {
	switch cfg.Backend {
	case "bolt":
		return bolt.Open(cfg.Path)
	case "githist":
		return githist.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
