package service

import (
	"context"
	"slices"
	"testing"
	"time"

	apperrors "github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/flow"
	"github.com/matzehuels/flowboard/pkg/store"
)

// countingCache wraps an in-process map to observe cache traffic.
type countingCache struct {
	data         map[string][]byte
	gets, hits   int
	sets, closes int
}

func newCountingCache() *countingCache {
	return &countingCache{data: map[string][]byte{}}
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets++
	data, ok := c.data[key]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *countingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.sets++
	c.data[key] = data
	return nil
}

func (c *countingCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *countingCache) Close() error {
	c.closes++
	return nil
}

func newTestService(t *testing.T) (*Service, *countingCache) {
	t.Helper()
	c := newCountingCache()
	svc := New(store.NewMemoryStore(), c, nil)
	return svc, c
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "pipeline",
		[]flow.Node{{ID: "1"}, {ID: "2"}},
		[]flow.Edge{{Source: "1", Target: "2"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fc.ID == 0 {
		t.Error("Create should assign an ID")
	}
	if fc.Revision != 1 {
		t.Errorf("revision = %d, want 1", fc.Revision)
	}
}

func TestCreateRejectsInvalidGraph(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		nodes    []flow.Node
		edges    []flow.Edge
		wantCode apperrors.Code
	}{
		{
			name:     "DanglingEdge",
			nodes:    []flow.Node{{ID: "1"}},
			edges:    []flow.Edge{{Source: "1", Target: "9"}},
			wantCode: apperrors.ErrCodeInvalidGraph,
		},
		{
			name:     "Cycle",
			nodes:    []flow.Node{{ID: "1"}, {ID: "2"}},
			edges:    []flow.Edge{{Source: "1", Target: "2"}, {Source: "2", Target: "1"}},
			wantCode: apperrors.ErrCodeInvalidGraph,
		},
		{
			name:     "EmptyNodeID",
			nodes:    []flow.Node{{ID: ""}},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "bad", tt.nodes, tt.edges)
			if err == nil {
				t.Fatal("Create should reject the graph")
			}
			if got := apperrors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 999)
	if !apperrors.Is(err, apperrors.ErrCodeFlowchartNotFound) {
		t.Errorf("Get(999) code = %q, want FLOWCHART_NOT_FOUND", apperrors.GetCode(err))
	}
}

func TestUpdateBumpsRevision(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "v1", []flow.Node{{ID: "a"}}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, fc.ID, "v2", []flow.Node{{ID: "a"}, {ID: "b"}}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Revision != fc.Revision+1 {
		t.Errorf("revision = %d, want %d", updated.Revision, fc.Revision+1)
	}
}

func TestUpdateRejectsInvalidGraph(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "ok", []flow.Node{{ID: "a"}}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A cyclic update must not reach the store.
	_, err = svc.Update(ctx, fc.ID, "cyclic",
		[]flow.Node{{ID: "a"}},
		[]flow.Edge{{Source: "a", Target: "a"}})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidGraph) {
		t.Fatalf("Update code = %q, want INVALID_GRAPH", apperrors.GetCode(err))
	}

	stored, err := svc.Get(ctx, fc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Name != "ok" || stored.Revision != 1 {
		t.Error("rejected update must leave the stored document untouched")
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "gone", []flow.Node{{ID: "a"}}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, fc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, fc.ID); !apperrors.Is(err, apperrors.ErrCodeFlowchartNotFound) {
		t.Errorf("second Delete code = %q, want FLOWCHART_NOT_FOUND", apperrors.GetCode(err))
	}
}

func TestOutgoingEdges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "chart",
		[]flow.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]flow.Edge{{Source: "a", Target: "b"}, {Source: "a", Target: "c"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	edges, err := svc.OutgoingEdges(ctx, fc.ID, "a")
	if err != nil {
		t.Fatalf("OutgoingEdges: %v", err)
	}
	if len(edges) != 2 {
		t.Errorf("edges = %v, want 2 outgoing", edges)
	}

	empty, err := svc.OutgoingEdges(ctx, fc.ID, "missing")
	if err != nil {
		t.Fatalf("OutgoingEdges(missing): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown node should have no outgoing edges, got %v", empty)
	}
}

func TestConnectedNodes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "chain",
		[]flow.Node{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		[]flow.Edge{{Source: "1", Target: "2"}, {Source: "2", Target: "3"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.ConnectedNodes(ctx, fc.ID, "1")
	if err != nil {
		t.Fatalf("ConnectedNodes: %v", err)
	}
	if !slices.Equal(got, []string{"2", "3"}) {
		t.Errorf("ConnectedNodes = %v, want [2 3]", got)
	}

	// Unknown start node is a valid empty answer.
	empty, err := svc.ConnectedNodes(ctx, fc.ID, "missing")
	if err != nil {
		t.Fatalf("ConnectedNodes(missing): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown start node should yield empty result, got %v", empty)
	}

	// Missing flowchart is an error.
	if _, err := svc.ConnectedNodes(ctx, 999, "1"); !apperrors.Is(err, apperrors.ErrCodeFlowchartNotFound) {
		t.Errorf("code = %q, want FLOWCHART_NOT_FOUND", apperrors.GetCode(err))
	}
}

func TestConnectedNodesUsesCache(t *testing.T) {
	svc, c := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "cached",
		[]flow.Node{{ID: "1"}, {ID: "2"}},
		[]flow.Edge{{Source: "1", Target: "2"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.ConnectedNodes(ctx, fc.ID, "1")
	if err != nil {
		t.Fatalf("ConnectedNodes: %v", err)
	}
	if c.sets != 1 {
		t.Fatalf("cache sets = %d, want 1 after first query", c.sets)
	}

	second, err := svc.ConnectedNodes(ctx, fc.ID, "1")
	if err != nil {
		t.Fatalf("ConnectedNodes: %v", err)
	}
	if c.hits != 1 {
		t.Errorf("cache hits = %d, want 1 on repeat query", c.hits)
	}
	if !slices.Equal(first, second) {
		t.Errorf("cached result %v differs from computed %v", second, first)
	}
}

func TestConnectedNodesCacheInvalidatedByUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fc, err := svc.Create(ctx, "v1",
		[]flow.Node{{ID: "1"}, {ID: "2"}},
		[]flow.Edge{{Source: "1", Target: "2"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.ConnectedNodes(ctx, fc.ID, "1"); err != nil {
		t.Fatalf("ConnectedNodes: %v", err)
	}

	// Removing the edge must be visible immediately - the new revision
	// produces a new cache key.
	if _, err := svc.Update(ctx, fc.ID, "v2", []flow.Node{{ID: "1"}, {ID: "2"}}, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := svc.ConnectedNodes(ctx, fc.ID, "1")
	if err != nil {
		t.Fatalf("ConnectedNodes: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ConnectedNodes after edge removal = %v, want empty", got)
	}
}

func TestClose(t *testing.T) {
	svc, c := newTestService(t)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.closes != 1 {
		t.Error("Close should close the cache")
	}
}
