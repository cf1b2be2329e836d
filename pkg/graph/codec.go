package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MalformedInputError reports a structurally invalid generic graph input,
// such as a missing "nodes"/"edges" key or a duplicate node identity.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed graph input: %s", e.Reason)
}

// jsonGraph is the serialized full form: nodes carry their attributes and
// edges carry their kind. Written in sorted order for determinism.
type jsonGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// rawGraph is the first-stage decode target. Node and edge entries are kept
// raw so both the full form and the generic node/edge list form can be
// distinguished per element.
type rawGraph struct {
	Nodes *[]json.RawMessage `json:"nodes"`
	Edges *[]json.RawMessage `json:"edges"`
}

// WriteJSON serializes the graph in full form with nodes and edges sorted.
func (g *Graph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonGraph{Nodes: g.SortedNodes(), Edges: g.SortedEdges()})
}

// DecodeJSON parses a graph from JSON. Two shapes are accepted:
//
//   - full form: {"nodes": [{"label": ...}], "edges": [{"from","to","kind"}]}
//   - generic form: {"nodes": ["a","b"], "edges": [["a","b"], ...]}
//
// The generic form carries identities only; its edges default to kind
// "jump". Both keys must be present and node identities must be unique,
// otherwise a *MalformedInputError is returned.
func DecodeJSON(data []byte) (*Graph, error) {
	var raw rawGraph
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedInputError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if raw.Nodes == nil {
		return nil, &MalformedInputError{Reason: `missing "nodes" key`}
	}
	if raw.Edges == nil {
		return nil, &MalformedInputError{Reason: `missing "edges" key`}
	}

	g := New()

	for i, rn := range *raw.Nodes {
		var label string
		if err := json.Unmarshal(rn, &label); err == nil {
			if g.HasNode(label) {
				return nil, &MalformedInputError{Reason: fmt.Sprintf("duplicate node identity %q", label)}
			}
			g.AddNode(Node{Label: label, StartLine: -1, EndLine: -1})
			continue
		}
		var n Node
		if err := json.Unmarshal(rn, &n); err != nil {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("node %d is neither a string nor an object", i)}
		}
		if n.Label == "" {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("node %d has an empty label", i)}
		}
		if g.HasNode(n.Label) {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("duplicate node identity %q", n.Label)}
		}
		g.AddNode(n)
	}

	for i, re := range *raw.Edges {
		var pair []string
		if err := json.Unmarshal(re, &pair); err == nil {
			if len(pair) != 2 {
				return nil, &MalformedInputError{Reason: fmt.Sprintf("edge %d: expected [from, to] pair, got %d elements", i, len(pair))}
			}
			g.AddEdge(Edge{From: pair[0], To: pair[1], Kind: EdgeJump})
			continue
		}
		var e Edge
		if err := json.Unmarshal(re, &e); err != nil {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("edge %d is neither a pair nor an object", i)}
		}
		if e.Kind == "" {
			e.Kind = EdgeJump
		}
		g.AddEdge(e)
	}

	if err := g.Validate(); err != nil {
		return nil, &MalformedInputError{Reason: err.Error()}
	}

	return g, nil
}

// savedGraph is the on-wire msgpack layout. Versioned so the format can
// evolve without breaking old payloads.
type savedGraph struct {
	Version int    `msgpack:"version"`
	Nodes   []Node `msgpack:"nodes"`
	Edges   []Edge `msgpack:"edges"`
}

const saveVersion = 1

// Save writes the graph to w using msgpack, sorted for determinism.
func (g *Graph) Save(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(savedGraph{
		Version: saveVersion,
		Nodes:   g.SortedNodes(),
		Edges:   g.SortedEdges(),
	})
}

// Load reads a msgpack graph written by Save.
func Load(r io.Reader) (*Graph, error) {
	var saved savedGraph
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&saved); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	if saved.Version != saveVersion {
		return nil, fmt.Errorf("unsupported graph format version %d", saved.Version)
	}

	g := New()
	for _, n := range saved.Nodes {
		g.AddNode(n)
	}
	for _, e := range saved.Edges {
		g.AddEdge(e)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
