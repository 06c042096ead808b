package layers

// Document is an opaque feature document: arbitrary nested attributes as
// decoded from JSON. The engine never interprets its contents beyond merging
// and copying; geometric or symbology validity is the consumer's concern.
type Document = map[string]any

// Layer is a named collection of feature documents.
type Layer struct {
	// ID is the opaque layer identifier.
	ID string `json:"id"`

	// Name is unique among active layers. Uniqueness is enforced by
	// eviction on AddLayer, not by rejection.
	Name string `json:"name"`

	// Show is the layer's visibility flag.
	Show bool `json:"show"`

	// BBox is an optional bounding box, last writer wins.
	BBox []float64 `json:"bbox,omitempty"`

	// Features maps feature id to document.
	Features map[string]Document `json:"features"`
}

// State is the materialized projection: layer id to layer.
type State = map[string]*Layer

// MergeDocuments returns a deep, non-destructive merge of src over dst.
//
// Keys present in src always override, including explicit zero values
// (false, 0, nil). Keys absent from src are preserved from dst. Nested
// documents merge recursively; any other value type is replaced wholesale.
// Neither input is mutated.
func MergeDocuments(dst, src Document) Document {
	out := make(Document, len(dst)+len(src))
	for k, v := range dst {
		out[k] = cloneValue(v)
	}
	for k, v := range src {
		if sub, ok := v.(Document); ok {
			if cur, ok := out[k].(Document); ok {
				out[k] = MergeDocuments(cur, sub)
				continue
			}
		}
		out[k] = cloneValue(v)
	}
	return out
}

// CloneDocument returns a deep copy of doc. A nil doc clones to nil.
func CloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Document:
		return CloneDocument(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// CloneLayer returns a deep copy of l.
func CloneLayer(l *Layer) *Layer {
	if l == nil {
		return nil
	}
	out := &Layer{
		ID:       l.ID,
		Name:     l.Name,
		Show:     l.Show,
		Features: make(map[string]Document, len(l.Features)),
	}
	if l.BBox != nil {
		out.BBox = append([]float64(nil), l.BBox...)
	}
	for id, doc := range l.Features {
		out.Features[id] = CloneDocument(doc)
	}
	return out
}

// CloneState returns a deep copy of st.
func CloneState(st State) State {
	out := make(State, len(st))
	for id, l := range st {
		out[id] = CloneLayer(l)
	}
	return out
}
