package layers_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tacmap/layerstore/layers"
)

func TestCollector(t *testing.T) {
	store, _ := newTestStore(t)
	store.AddLayer("a", "Alpha")
	store.AddFeature("a", "f1", layers.Document{"k": "v"})

	collector := layers.NewCollector(store)
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// One series per event kind seen so far.
	if got := testutil.CollectAndCount(collector, "layerstore_events_total"); got != 2 {
		t.Errorf("layerstore_events_total has %d series, want 2", got)
	}

	expected := `
# HELP layerstore_layers Number of layers in the projection
# TYPE layerstore_layers gauge
layerstore_layers 1
# HELP layerstore_update_sequence Current value of the global update sequence counter
# TYPE layerstore_update_sequence counter
layerstore_update_sequence 2
`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"layerstore_layers", "layerstore_update_sequence")
	if err != nil {
		t.Errorf("unexpected metric values: %v", err)
	}
}
