package api

import (
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/flow"
	"github.com/matzehuels/flowboard/pkg/httputil"
	"github.com/matzehuels/flowboard/pkg/render"
)

// =============================================================================
// Request/Response Payloads
// =============================================================================

// flowchartRequest is the write payload for create and update.
type flowchartRequest struct {
	Name  string      `json:"name"`
	Nodes []flow.Node `json:"nodes"`
	Edges []flow.Edge `json:"edges"`
}

// listResponse wraps the flowchart collection.
type listResponse struct {
	Flowcharts []*flow.Flowchart `json:"flowcharts"`
}

// edgesResponse wraps an outgoing-edges query result.
type edgesResponse struct {
	Edges []flow.Edge `json:"edges"`
}

// connectedResponse wraps a connected-nodes query result.
type connectedResponse struct {
	Connected []string `json:"connected"`
}

// =============================================================================
// Flowchart CRUD
// =============================================================================

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req flowchartRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), err.Error())
		return
	}

	fc, err := s.svc.Create(r.Context(), req.Name, req.Nodes, req.Edges)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fc)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	charts, err := s.svc.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if charts == nil {
		charts = []*flow.Flowchart{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Flowcharts: charts})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.flowchartID(w, r)
	if !ok {
		return
	}

	fc, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fc)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.flowchartID(w, r)
	if !ok {
		return
	}

	var req flowchartRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), err.Error())
		return
	}

	fc, err := s.svc.Update(r.Context(), id, req.Name, req.Nodes, req.Edges)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fc)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.flowchartID(w, r)
	if !ok {
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Graph Queries
// =============================================================================

func (s *Server) handleOutgoingEdges(w http.ResponseWriter, r *http.Request) {
	id, ok := s.flowchartID(w, r)
	if !ok {
		return
	}

	edges, err := s.svc.OutgoingEdges(r.Context(), id, chi.URLParam(r, "nodeID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, edgesResponse{Edges: edges})
}

func (s *Server) handleConnectedNodes(w http.ResponseWriter, r *http.Request) {
	id, ok := s.flowchartID(w, r)
	if !ok {
		return
	}

	connected, err := s.svc.ConnectedNodes(r.Context(), id, chi.URLParam(r, "nodeID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, connectedResponse{Connected: connected})
}

// =============================================================================
// Export
// =============================================================================

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.flowchartID(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatDOT
	}

	fc, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	dot := render.ToDOT(fc)
	switch format {
	case render.FormatDOT:
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write([]byte(dot))
	case render.FormatSVG:
		svg, err := render.SVG(r.Context(), dot)
		if err != nil {
			s.logger.Error("svg render failed", "id", id, "err", err)
			httputil.WriteError(w, http.StatusInternalServerError, string(errors.ErrCodeInternal), "rendering failed")
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		httputil.WriteError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidFormat),
			"unknown format "+format+" (want dot or svg)")
	}
}

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Helpers
// =============================================================================

// flowchartID parses the {id} route parameter, writing a 400 on failure.
func (s *Server) flowchartID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := errors.ParseFlowchartID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return 0, false
	}
	return id, true
}

// writeServiceError maps service error codes to HTTP statuses and writes
// the failure envelope. Unknown errors become opaque 500s.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	var status int
	switch code {
	case errors.ErrCodeFlowchartNotFound, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidGraph:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidID,
		errors.ErrCodeInvalidName, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	default:
		s.logger.Error("internal error", "err", err)
		httputil.WriteError(w, http.StatusInternalServerError, string(errors.ErrCodeInternal), "internal error")
		return
	}

	var msg string
	var e *errors.Error
	if stderrors.As(err, &e) {
		msg = e.Message
		if e.Cause != nil {
			msg = e.Message + ": " + e.Cause.Error()
		}
	} else {
		msg = err.Error()
	}
	httputil.WriteError(w, status, string(code), msg)
}
