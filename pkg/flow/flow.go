package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrEdgeEndpoint is returned by [Validate] when an edge's source or
	// target names a node that is not declared in the node set.
	ErrEdgeEndpoint = errors.New("edge references unknown node")

	// ErrCycle is returned by [Validate] when the directed graph contains
	// a cycle. Self-loops count as cycles of length one.
	ErrCycle = errors.New("graph contains a cycle")
)

// ValidationError is the failure value returned by [Validate]. Reason is
// always one of the two sentinels above; NodeID carries the offending
// identifier for endpoint errors and is empty for cycle errors.
type ValidationError struct {
	Reason error
	NodeID string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%v: %q", e.Reason, e.NodeID)
	}
	return e.Reason.Error()
}

// Unwrap returns the sentinel reason for errors.Is compatibility.
func (e *ValidationError) Unwrap() error { return e.Reason }

// Validate checks that every edge endpoint resolves to a declared node and
// that the directed graph formed by the edges is acyclic. It returns nil on
// success and a *ValidationError otherwise.
//
// Validate performs no other judgment: duplicate edges, disconnected
// components, and empty graphs are all valid. It never mutates its inputs
// and runs in O(V+E) time.
func Validate(nodes []Node, edges []Edge) error {
	declared := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		declared[n.ID] = struct{}{}
	}

	// Reference check before any traversal so the diagnostic names the
	// exact offending identifier.
	for _, e := range edges {
		if _, ok := declared[e.Source]; !ok {
			return &ValidationError{Reason: ErrEdgeEndpoint, NodeID: e.Source}
		}
		if _, ok := declared[e.Target]; !ok {
			return &ValidationError{Reason: ErrEdgeEndpoint, NodeID: e.Target}
		}
	}

	return detectCycles(nodes, adjacency(nodes, edges))
}

// ReachableFrom computes the set of node identifiers reachable from startID
// via one or more directed edges, in depth-first first-discovery order with
// a node's targets visited in edge declaration order. The start node itself
// is never included, even when a cycle routes back to it.
//
// An unknown start node is not an error: the result is simply empty. The
// traversal tolerates cyclic input regardless of whether the graph passed
// validation.
func ReachableFrom(nodes []Node, edges []Edge, startID string) []string {
	adj := adjacency(nodes, edges)
	result := []string{}
	if _, ok := adj[startID]; !ok {
		return result
	}

	seen := map[string]bool{startID: true}
	stack := []frame{{id: startID}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		targets := adj[f.id]
		if f.next >= len(targets) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := targets[f.next]
		f.next++
		if seen[child] {
			continue
		}
		seen[child] = true
		result = append(result, child)
		stack = append(stack, frame{id: child})
	}
	return result
}

// adjacency builds the projection from node ID to the ordered list of
// one-hop targets. Every declared node gets an entry, so map membership
// doubles as a declaration check. Edges with an undeclared source are
// skipped; Validate reports them before this projection is trusted.
func adjacency(nodes []Node, edges []Edge) map[string][]string {
	adj := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		adj[n.ID] = []string{}
	}
	for _, e := range edges {
		if _, ok := adj[e.Source]; ok {
			adj[e.Source] = append(adj[e.Source], e.Target)
		}
	}
	return adj
}

// frame is one level of the explicit DFS stack: a node and a cursor into
// its adjacency list.
type frame struct {
	id   string
	next int
}

// detectCycles runs an iterative depth-first search with white/gray/black
// coloring. A gray target is a back-edge, hence a cycle. Launching from
// every unvisited node in declaration order covers disconnected components.
func detectCycles(nodes []Node, adj map[string][]string) error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if color[n.ID] != white {
			continue
		}
		color[n.ID] = gray
		stack := []frame{{id: n.ID}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			targets := adj[f.id]
			if f.next >= len(targets) {
				color[f.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := targets[f.next]
			f.next++
			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
			case gray:
				return &ValidationError{Reason: ErrCycle}
			}
		}
	}
	return nil
}
