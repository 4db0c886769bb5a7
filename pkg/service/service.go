// Package service provides the core flowchart operations shared by the API
// and the CLI.
//
// This package ties the graph engine, the store, and the query cache
// together: every write is validated before it is persisted, and
// connected-node queries are served from the cache when the flowchart has
// not changed since the result was computed. By centralizing this logic we
// ensure consistent behavior across all entry points.
package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowboard/pkg/cache"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/flow"
	"github.com/matzehuels/flowboard/pkg/observability"
	"github.com/matzehuels/flowboard/pkg/store"
)

// Service encapsulates flowchart operations with validation and caching.
//
// The Service is stateless except for its collaborators - multiple
// goroutines can safely share one instance.
type Service struct {
	Store    store.Store
	Cache    cache.Cache
	Logger   *log.Logger
	QueryTTL time.Duration
}

// New creates a service around the given store.
// If c is nil, a NullCache is used (query caching disabled).
// If logger is nil, the default logger is used.
func New(st store.Store, c cache.Cache, logger *log.Logger) *Service {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		Store:    st,
		Cache:    c,
		Logger:   logger,
		QueryTTL: cache.DefaultQueryTTL,
	}
}

// Create validates and persists a new flowchart, assigning its numeric ID.
func (s *Service) Create(ctx context.Context, name string, nodes []flow.Node, edges []flow.Edge) (*flow.Flowchart, error) {
	fc := &flow.Flowchart{Name: name, Nodes: nodes, Edges: edges}
	fc.Normalize()

	if err := s.admit(ctx, fc); err != nil {
		return nil, err
	}

	if err := s.Store.Create(ctx, fc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create flowchart")
	}

	s.Logger.Info("created flowchart",
		"id", fc.ID,
		"nodes", len(fc.Nodes),
		"edges", len(fc.Edges))
	return fc, nil
}

// Get returns a stored flowchart.
func (s *Service) Get(ctx context.Context, id int64) (*flow.Flowchart, error) {
	fc, err := s.Store.Get(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeFlowchartNotFound, "flowchart %d not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get flowchart %d", id)
	}
	return fc, nil
}

// List returns all stored flowcharts in ascending ID order.
func (s *Service) List(ctx context.Context) ([]*flow.Flowchart, error) {
	charts, err := s.Store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list flowcharts")
	}
	return charts, nil
}

// Update validates and replaces an existing flowchart. The returned
// document carries the bumped revision, which retires all cached query
// results for the previous contents.
func (s *Service) Update(ctx context.Context, id int64, name string, nodes []flow.Node, edges []flow.Edge) (*flow.Flowchart, error) {
	fc := &flow.Flowchart{ID: id, Name: name, Nodes: nodes, Edges: edges}
	fc.Normalize()

	if err := s.admit(ctx, fc); err != nil {
		return nil, err
	}

	err := s.Store.Update(ctx, fc)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeFlowchartNotFound, "flowchart %d not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "update flowchart %d", id)
	}

	s.Logger.Info("updated flowchart",
		"id", fc.ID,
		"revision", fc.Revision,
		"nodes", len(fc.Nodes),
		"edges", len(fc.Edges))
	return fc, nil
}

// Delete removes a flowchart.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.Store.Delete(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.New(errors.ErrCodeFlowchartNotFound, "flowchart %d not found", id)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete flowchart %d", id)
	}

	s.Logger.Info("deleted flowchart", "id", id)
	return nil
}

// OutgoingEdges returns the outgoing edges of a node in declaration order.
// An unknown node yields an empty result, mirroring the traversal contract.
func (s *Service) OutgoingEdges(ctx context.Context, id int64, nodeID string) ([]flow.Edge, error) {
	fc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fc.OutgoingEdges(nodeID), nil
}

// ConnectedNodes returns the IDs of all nodes reachable from startID, in
// depth-first discovery order. Results are cached per flowchart revision.
//
// An unknown start node is a valid empty answer, not an error - only a
// missing flowchart fails.
func (s *Service) ConnectedNodes(ctx context.Context, id int64, startID string) ([]string, error) {
	fc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := cache.QueryKey(fc.ID, fc.Revision, startID)
	if data, hit, err := s.Cache.Get(ctx, key); err == nil && hit {
		var cached []string
		if err := json.Unmarshal(data, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "query")
			return cached, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "query")

	start := time.Now()
	observability.Service().OnQueryStart(ctx, id, startID)
	result := flow.ReachableFrom(fc.Nodes, fc.Edges, startID)
	observability.Service().OnQueryComplete(ctx, id, startID, len(result), time.Since(start), nil)

	s.Logger.Debug("computed reachability",
		"id", id,
		"start", startID,
		"connected", len(result),
		"duration", time.Since(start))

	if data, err := json.Marshal(result); err == nil {
		if err := s.Cache.Set(ctx, key, data, s.QueryTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "query", len(data))
		}
	}

	return result, nil
}

// Close releases resources held by the service (primarily the cache).
func (s *Service) Close() error {
	if s.Cache != nil {
		return s.Cache.Close()
	}
	return nil
}

// admit runs input and graph validation for a write. Validation failures
// come back with ErrCodeInvalidGraph (or an input code) and the engine's
// diagnostic as the cause.
func (s *Service) admit(ctx context.Context, fc *flow.Flowchart) error {
	if err := errors.ValidateFlowchartName(fc.Name); err != nil {
		return err
	}
	for _, n := range fc.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return err
		}
	}

	start := time.Now()
	observability.Service().OnValidateStart(ctx, len(fc.Nodes), len(fc.Edges))
	err := fc.Validate()
	observability.Service().OnValidateComplete(ctx, len(fc.Nodes), len(fc.Edges), time.Since(start), err)

	if err != nil {
		s.Logger.Debug("rejected flowchart", "reason", err)
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "flowchart rejected")
	}
	return nil
}
