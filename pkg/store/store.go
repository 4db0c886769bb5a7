// Package store provides persistence for flowchart documents.
//
// This package defines the Store interface with implementations for
// different backends:
//   - memory: In-memory storage for development and testing
//   - mongo: MongoDB-backed storage for production deployments
//
// # Semantics
//
// The store is deliberately dumb: it assigns numeric IDs, tracks a
// monotonically increasing revision per document, and moves bytes. Graph
// validation happens in the service layer before anything reaches a store.
//
// Revisions start at 1 on Create and are bumped by every successful Update.
// Cache keys derived from (ID, revision) therefore never serve stale query
// results.
package store

import (
	"context"
	"errors"

	"github.com/matzehuels/flowboard/pkg/flow"
)

// ErrNotFound is returned when a flowchart does not exist.
var ErrNotFound = errors.New("flowchart not found")

// Store persists flowchart documents.
type Store interface {
	// Create assigns a fresh numeric ID and revision 1, persists the
	// flowchart, and fills in the assigned fields on fc.
	Create(ctx context.Context, fc *flow.Flowchart) error

	// Get returns the flowchart with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*flow.Flowchart, error)

	// List returns all flowcharts in ascending ID order.
	List(ctx context.Context) ([]*flow.Flowchart, error)

	// Update replaces name, nodes, and edges of the flowchart identified
	// by fc.ID, bumps its revision, and fills the new revision into fc.
	// Returns ErrNotFound if no such flowchart exists.
	Update(ctx context.Context, fc *flow.Flowchart) error

	// Delete removes a flowchart, or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
