package flow

// =============================================================================
// Flowchart - Canonical Document Format
// =============================================================================

// Flowchart is the canonical document format for stored graphs.
// Used for API payloads, persistence, caching, and file import/export.
//
// Node and edge order is preserved exactly as submitted: the engine's
// traversal order and the adjacency projection both depend on it.
type Flowchart struct {
	ID       int64  `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	Revision int64  `json:"revision,omitempty" bson:"revision,omitempty"`
	Nodes    []Node `json:"nodes" bson:"nodes"`
	Edges    []Edge `json:"edges" bson:"edges"`
}

// Node is a labeled vertex identified by a caller-supplied string.
type Node struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to ID)
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two node identifiers.
// Duplicate edges between the same ordered pair are legal and preserved.
type Edge struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// Validate checks the flowchart's structural integrity.
// See the package-level Validate for the contract.
func (f *Flowchart) Validate() error {
	return Validate(f.Nodes, f.Edges)
}

// HasNode reports whether a node with the given ID is declared.
func (f *Flowchart) HasNode(id string) bool {
	for _, n := range f.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// OutgoingEdges returns the edges whose source is nodeID, in declaration
// order. Returns an empty slice (never nil) for unknown or sink nodes.
func (f *Flowchart) OutgoingEdges(nodeID string) []Edge {
	out := []Edge{}
	for _, e := range f.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Normalize replaces nil node and edge slices with empty ones so the
// document always serializes as [] rather than null.
func (f *Flowchart) Normalize() {
	if f.Nodes == nil {
		f.Nodes = []Node{}
	}
	if f.Edges == nil {
		f.Edges = []Edge{}
	}
}

// Clone returns a deep copy of the flowchart.
func (f *Flowchart) Clone() *Flowchart {
	out := &Flowchart{
		ID:       f.ID,
		Name:     f.Name,
		Revision: f.Revision,
		Nodes:    make([]Node, len(f.Nodes)),
		Edges:    make([]Edge, len(f.Edges)),
	}
	copy(out.Nodes, f.Nodes)
	copy(out.Edges, f.Edges)
	return out
}
