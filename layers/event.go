package layers

// Kind identifies the type of an event.
//
// The set of kinds is closed: the projection dispatches over it with an
// exhaustive switch, so adding a kind means adding a fold arm. Unknown kinds
// read back from storage are ignored rather than rejected.
type Kind string

const (
	// KindSnapshot carries a full projection, replacing all prior state.
	KindSnapshot Kind = "snapshot"

	// KindLayerAdded creates a layer. New layers are visible.
	KindLayerAdded Kind = "layer-added"

	// KindBoundsUpdated replaces a layer's bounding box (last writer wins).
	KindBoundsUpdated Kind = "bounds-updated"

	// KindLayerDeleted removes a layer and all of its features.
	KindLayerDeleted Kind = "layer-deleted"

	// KindLayerHidden marks a layer invisible.
	KindLayerHidden Kind = "layer-hidden"

	// KindLayerShown marks a layer visible.
	KindLayerShown Kind = "layer-shown"

	// KindFeatureAdded inserts a feature document into a layer.
	KindFeatureAdded Kind = "feature-added"

	// KindFeatureUpdated merges a partial feature document over an
	// existing one. Keys present in the update override, absent keys are
	// preserved.
	KindFeatureUpdated Kind = "feature-updated"

	// KindFeatureDeleted removes a feature from a layer.
	KindFeatureDeleted Kind = "feature-deleted"

	// KindReplayReady marks the end of replay. It is a synchronization
	// sentinel for subscribers, never mutates state, and is never
	// persisted.
	KindReplayReady Kind = "replay-ready"
)

// Event represents an immutable change to the layer projection.
// Events are value objects; which payload fields are set depends on Kind.
// Events are the only mutation vector for the projection.
type Event struct {
	// Kind identifies the type of event.
	Kind Kind `json:"type"`

	// LayerID identifies the affected layer for all layer- and
	// feature-scoped kinds.
	LayerID string `json:"layerId,omitempty"`

	// Name is the layer name, set on layer-added.
	Name string `json:"name,omitempty"`

	// BBox is the bounding box payload of bounds-updated.
	BBox []float64 `json:"bbox,omitempty"`

	// FeatureID identifies the affected feature for feature-scoped kinds.
	FeatureID string `json:"featureId,omitempty"`

	// Feature is the document payload of feature-added and
	// feature-updated. For feature-updated it may be partial.
	Feature Document `json:"feature,omitempty"`

	// Snapshot is the full projection carried by snapshot events.
	Snapshot State `json:"snapshot,omitempty"`
}

// Entity returns the id of the entity this event persists under, or ""
// for events that are not entity-scoped (snapshot, replay-ready).
func (e Event) Entity() string {
	switch e.Kind {
	case KindSnapshot, KindReplayReady:
		return ""
	default:
		return e.LayerID
	}
}
