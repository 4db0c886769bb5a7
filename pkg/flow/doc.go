// Package flow provides the flowchart document model and the graph engine
// behind it: structural validation and reachability queries over directed
// node/edge sets.
//
// A flowchart is an ordered sequence of nodes and an ordered sequence of
// edges. The engine enforces two invariants before a flowchart is accepted:
// every edge endpoint must reference a declared node, and the directed graph
// must be acyclic. The read side answers "which nodes are reachable from
// here" in deterministic depth-first order.
//
// All engine functions are pure: they read their arguments, allocate only
// local state, and are safe to call concurrently on the same data.
//
// # Usage
//
//	fc := flow.Flowchart{
//	    Nodes: []flow.Node{{ID: "a"}, {ID: "b"}},
//	    Edges: []flow.Edge{{Source: "a", Target: "b"}},
//	}
//	if err := flow.Validate(fc.Nodes, fc.Edges); err != nil {
//	    var verr *flow.ValidationError
//	    errors.As(err, &verr) // verr.Reason is ErrEdgeEndpoint or ErrCycle
//	}
//	reachable := flow.ReachableFrom(fc.Nodes, fc.Edges, "a") // ["b"]
package flow
