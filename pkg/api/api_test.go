package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowboard/pkg/flow"
	"github.com/matzehuels/flowboard/pkg/httputil"
	"github.com/matzehuels/flowboard/pkg/service"
	"github.com/matzehuels/flowboard/pkg/store"
)

// newTestRouter builds a server over a fresh in-memory store.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := log.New(io.Discard)
	svc := service.New(store.NewMemoryStore(), nil, logger)
	return NewServer(svc, ":0", logger).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[httputil.ErrorResponse](t, rec).Error.Code
}

// createChart posts a small valid flowchart and returns its ID.
func createChart(t *testing.T, h http.Handler) int64 {
	t.Helper()
	body := `{"name":"onboarding","nodes":[{"id":"1","label":"Start"},{"id":"2"},{"id":"3"}],"edges":[{"source":"1","target":"2"},{"source":"2","target":"3"}]}`
	rec := doJSON(t, h, "POST", "/flowcharts", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	fc := decode[flow.Flowchart](t, rec)
	if fc.ID == 0 {
		t.Fatal("create did not assign an ID")
	}
	return fc.ID
}

// =============================================================================
// CRUD
// =============================================================================

func TestCreate(t *testing.T) {
	h := newTestRouter(t)

	id := createChart(t, h)
	if id != 1 {
		t.Errorf("first ID = %d, want 1", id)
	}

	rec := doJSON(t, h, "GET", fmt.Sprintf("/flowcharts/%d", id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	fc := decode[flow.Flowchart](t, rec)
	if fc.Name != "onboarding" || len(fc.Nodes) != 3 || len(fc.Edges) != 2 {
		t.Errorf("unexpected document: %+v", fc)
	}
	if fc.Revision != 1 {
		t.Errorf("revision = %d, want 1", fc.Revision)
	}
}

func TestCreateRejected(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name     string
		body     string
		status   int
		wantCode string
	}{
		{
			name:     "dangling edge",
			body:     `{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"ghost"}]}`,
			status:   http.StatusUnprocessableEntity,
			wantCode: "INVALID_GRAPH",
		},
		{
			name:     "cycle",
			body:     `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"},{"source":"b","target":"a"}]}`,
			status:   http.StatusUnprocessableEntity,
			wantCode: "INVALID_GRAPH",
		},
		{
			name:     "self loop",
			body:     `{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"a"}]}`,
			status:   http.StatusUnprocessableEntity,
			wantCode: "INVALID_GRAPH",
		},
		{
			name:     "empty node id",
			body:     `{"nodes":[{"id":""}],"edges":[]}`,
			status:   http.StatusBadRequest,
			wantCode: "INVALID_INPUT",
		},
		{
			name:     "malformed json",
			body:     `{"nodes":`,
			status:   http.StatusBadRequest,
			wantCode: "INVALID_INPUT",
		},
		{
			name:     "unknown field",
			body:     `{"bogus":true}`,
			status:   http.StatusBadRequest,
			wantCode: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, "POST", "/flowcharts", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestList(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "GET", "/flowcharts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	empty := decode[listResponse](t, rec)
	if empty.Flowcharts == nil || len(empty.Flowcharts) != 0 {
		t.Errorf("empty list = %v, want []", empty.Flowcharts)
	}

	createChart(t, h)
	createChart(t, h)

	rec = doJSON(t, h, "GET", "/flowcharts", "")
	listed := decode[listResponse](t, rec)
	if len(listed.Flowcharts) != 2 {
		t.Fatalf("list length = %d, want 2", len(listed.Flowcharts))
	}
	if listed.Flowcharts[0].ID != 1 || listed.Flowcharts[1].ID != 2 {
		t.Errorf("list not in ID order: %d, %d", listed.Flowcharts[0].ID, listed.Flowcharts[1].ID)
	}
}

func TestGetNotFound(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "GET", "/flowcharts/42", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "FLOWCHART_NOT_FOUND" {
		t.Errorf("code = %q", code)
	}
}

func TestGetInvalidID(t *testing.T) {
	h := newTestRouter(t)

	for _, raw := range []string{"abc", "-1", "0", "1.5"} {
		rec := doJSON(t, h, "GET", "/flowcharts/"+raw, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", raw, rec.Code)
		}
	}
}

func TestUpdate(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	body := `{"name":"renamed","nodes":[{"id":"1"}],"edges":[]}`
	rec := doJSON(t, h, "PUT", fmt.Sprintf("/flowcharts/%d", id), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	fc := decode[flow.Flowchart](t, rec)
	if fc.Revision != 2 {
		t.Errorf("revision = %d, want 2", fc.Revision)
	}
	if fc.Name != "renamed" || len(fc.Nodes) != 1 {
		t.Errorf("unexpected document: %+v", fc)
	}
}

func TestUpdateRejectedLeavesStoredVersion(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	body := `{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"a"}]}`
	rec := doJSON(t, h, "PUT", fmt.Sprintf("/flowcharts/%d", id), body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, h, "GET", fmt.Sprintf("/flowcharts/%d", id), "")
	fc := decode[flow.Flowchart](t, rec)
	if fc.Revision != 1 || len(fc.Nodes) != 3 {
		t.Errorf("stored version changed after rejected update: %+v", fc)
	}
}

func TestUpdateNotFound(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "PUT", "/flowcharts/42", `{"nodes":[],"edges":[]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	rec := doJSON(t, h, "DELETE", fmt.Sprintf("/flowcharts/%d", id), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, h, "DELETE", fmt.Sprintf("/flowcharts/%d", id), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// Graph Queries
// =============================================================================

func TestOutgoingEdges(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	rec := doJSON(t, h, "GET", fmt.Sprintf("/flowcharts/%d/nodes/1/edges", id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[edgesResponse](t, rec)
	if len(resp.Edges) != 1 || resp.Edges[0].Target != "2" {
		t.Errorf("edges = %+v", resp.Edges)
	}

	// Unknown node is an empty answer, not an error.
	rec = doJSON(t, h, "GET", fmt.Sprintf("/flowcharts/%d/nodes/ghost/edges", id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown node status = %d, want 200", rec.Code)
	}
	resp = decode[edgesResponse](t, rec)
	if resp.Edges == nil || len(resp.Edges) != 0 {
		t.Errorf("unknown node edges = %v, want []", resp.Edges)
	}
}

func TestConnectedNodes(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	rec := doJSON(t, h, "GET", fmt.Sprintf("/flowcharts/%d/nodes/1/connected", id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[connectedResponse](t, rec)
	want := []string{"2", "3"}
	if len(resp.Connected) != len(want) {
		t.Fatalf("connected = %v, want %v", resp.Connected, want)
	}
	for i := range want {
		if resp.Connected[i] != want[i] {
			t.Fatalf("connected = %v, want %v", resp.Connected, want)
		}
	}
}

func TestConnectedNodesUnknownStart(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	rec := doJSON(t, h, "GET", fmt.Sprintf("/flowcharts/%d/nodes/ghost/connected", id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[connectedResponse](t, rec)
	if resp.Connected == nil || len(resp.Connected) != 0 {
		t.Errorf("connected = %v, want []", resp.Connected)
	}
}

func TestConnectedNodesMissingFlowchart(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "GET", "/flowcharts/42/nodes/1/connected", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// Export
// =============================================================================

func TestExportDOT(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	for _, path := range []string{
		fmt.Sprintf("/flowcharts/%d/export", id),
		fmt.Sprintf("/flowcharts/%d/export?format=dot", id),
	} {
		rec := doJSON(t, h, "GET", path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "digraph G {") {
			t.Errorf("%s: body is not DOT:\n%s", path, rec.Body.String())
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	h := newTestRouter(t)
	id := createChart(t, h)

	rec := doJSON(t, h, "GET", fmt.Sprintf("/flowcharts/%d/export?format=pdf", id), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_FORMAT" {
		t.Errorf("code = %q", code)
	}
}

// =============================================================================
// Health & Middleware
// =============================================================================

func TestHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "GET", "/healthz", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("response is missing a generated request ID")
	}

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "req-123" {
		t.Errorf("request ID = %q, want req-123", got)
	}
}
