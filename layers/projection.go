package layers

// Apply folds one event into the projection and returns the resulting state.
//
// Apply is the single code path state changes through: snapshot loading,
// replay, and live events all pass here. It is pure in the fold sense — the
// caller owns the canonical reference — and total over the known kind set.
// Unknown kinds are a no-op, which keeps old engines forward-compatible with
// journals written by newer ones.
//
// Events referencing a missing layer are a no-op; the existence guards live
// at the command surface, not in the fold.
func Apply(st State, e Event) State {
	if st == nil {
		st = State{}
	}

	switch e.Kind {
	case KindSnapshot:
		return CloneState(e.Snapshot)

	case KindLayerAdded:
		st[e.LayerID] = &Layer{
			ID:       e.LayerID,
			Name:     e.Name,
			Show:     true,
			Features: map[string]Document{},
		}

	case KindBoundsUpdated:
		if l, ok := st[e.LayerID]; ok {
			l.BBox = append([]float64(nil), e.BBox...)
		}

	case KindLayerDeleted:
		delete(st, e.LayerID)

	case KindLayerHidden:
		if l, ok := st[e.LayerID]; ok {
			l.Show = false
		}

	case KindLayerShown:
		if l, ok := st[e.LayerID]; ok {
			l.Show = true
		}

	case KindFeatureAdded:
		if l, ok := st[e.LayerID]; ok {
			l.Features[e.FeatureID] = CloneDocument(e.Feature)
		}

	case KindFeatureUpdated:
		if l, ok := st[e.LayerID]; ok {
			l.Features[e.FeatureID] = MergeDocuments(l.Features[e.FeatureID], e.Feature)
		}

	case KindFeatureDeleted:
		if l, ok := st[e.LayerID]; ok {
			delete(l.Features, e.FeatureID)
		}

	case KindReplayReady:
		// Sentinel only. Subscribers use it to split bootstrap from
		// live; it must never mutate state.
	}

	return st
}
