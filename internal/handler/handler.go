package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"topoview/internal/codec"
	"topoview/internal/domain"
	"topoview/internal/scenario"
	"topoview/internal/service"
)

// maxUploadBytes bounds imported topology documents
const maxUploadBytes = 8 << 20

// TopologyHandler handles topology, layout and scenario API requests
type TopologyHandler struct {
	topologies *service.TopologyService
	layouts    *service.LayoutService
	scenarios  *scenario.Registry
}

// NewTopologyHandler creates a new topology handler
func NewTopologyHandler(topologies *service.TopologyService, layouts *service.LayoutService, scenarios *scenario.Registry) *TopologyHandler {
	return &TopologyHandler{
		topologies: topologies,
		layouts:    layouts,
		scenarios:  scenarios,
	}
}

// Register adds the API routes to mux
func (h *TopologyHandler) Register(mux *http.ServeMux) {
	// Topologies
	mux.HandleFunc("GET /api/topologies", h.ListTopologies)
	mux.HandleFunc("POST /api/topologies", h.ImportTopology)
	mux.HandleFunc("GET /api/topologies/{id}", h.GetTopology)
	mux.HandleFunc("DELETE /api/topologies/{id}", h.DeleteTopology)
	mux.HandleFunc("GET /api/topologies/{id}/export", h.ExportTopology)

	// Layout
	mux.HandleFunc("POST /api/topologies/{id}/layout", h.ComputeLayout)
	mux.HandleFunc("GET /api/topologies/{id}/layout", h.GetLayout)
	mux.HandleFunc("GET /api/topologies/{id}/runs", h.ListRuns)
	mux.HandleFunc("PUT /api/topologies/{id}/positions/{node}", h.PinNode)
	mux.HandleFunc("POST /api/layout", h.PreviewLayout)

	// Details
	mux.HandleFunc("GET /api/topologies/{id}/nodes/{node}", h.NodeDetail)
	mux.HandleFunc("GET /api/topologies/{id}/edges/{edge}", h.EdgeDetail)

	// Scenarios and legend
	mux.HandleFunc("GET /api/scenarios", h.ListScenarios)
	mux.HandleFunc("GET /api/scenarios/{name}", h.GetScenario)
	mux.HandleFunc("GET /api/legend", h.Legend)
}

// ErrorResponse is the JSON body of every error
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ListTopologies returns summaries of every stored topology
func (h *TopologyHandler) ListTopologies(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.topologies.List(r.Context())
	if err != nil {
		log.Printf("Failed to list topologies: %v", err)
		writeServiceError(w, "Failed to list topologies", err)
		return
	}

	writeJSON(w, summaries, http.StatusOK)
}

// ImportTopology stores an uploaded topology. The format comes from the
// format query parameter, falling back to the Content-Type.
func (h *TopologyHandler) ImportTopology(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	result, err := h.topologies.Import(r.Context(), format, body)
	if err != nil {
		log.Printf("Failed to import topology: %v", err)
		writeServiceError(w, "Failed to import topology", err)
		return
	}

	writeJSON(w, result, http.StatusCreated)
}

// GetTopology returns a stored topology
func (h *TopologyHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	topo, err := h.topologies.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "Failed to get topology", err)
		return
	}

	writeJSON(w, topo, http.StatusOK)
}

// DeleteTopology removes a topology with its layout history
func (h *TopologyHandler) DeleteTopology(w http.ResponseWriter, r *http.Request) {
	if err := h.topologies.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "Failed to delete topology", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportTopology writes a topology in the requested format, JSON by default
func (h *TopologyHandler) ExportTopology(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	// Buffer so failures can still be reported as JSON errors
	var buf bytes.Buffer
	if err := h.topologies.Export(r.Context(), id, format, &buf); err != nil {
		writeServiceError(w, "Failed to export topology", err)
		return
	}

	w.Header().Set("Content-Type", codec.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", id, format))
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Failed to write export: %v", err)
	}
}

// ComputeLayout runs the engine over a stored topology. Parameters missing
// from the body keep the server's defaults.
func (h *TopologyHandler) ComputeLayout(w http.ResponseWriter, r *http.Request) {
	params, err := decodeParams(r.Body, h.layouts.Defaults())
	if err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.layouts.Compute(r.Context(), r.PathValue("id"), params)
	if err != nil {
		writeServiceError(w, "Failed to compute layout", err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// GetLayout returns the most recent stored layout
func (h *TopologyHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	result, err := h.layouts.Latest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "Failed to get layout", err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// ListRuns returns stored layout runs, newest first
func (h *TopologyHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, "Invalid limit", "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.layouts.Runs(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, "Failed to list layout runs", err)
		return
	}

	writeJSON(w, runs, http.StatusOK)
}

// PinRequest fixes or releases a node position
type PinRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned *bool   `json:"pinned,omitempty"`
}

// PinNode records where the operator dropped a node. Pinned defaults to true.
func (h *TopologyHandler) PinNode(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	pos := domain.NodePosition{
		NodeID: r.PathValue("node"),
		X:      req.X,
		Y:      req.Y,
		Pinned: req.Pinned == nil || *req.Pinned,
	}

	if err := h.layouts.Pin(r.Context(), r.PathValue("id"), pos); err != nil {
		writeServiceError(w, "Failed to update position", err)
		return
	}

	writeJSON(w, pos, http.StatusOK)
}

// PreviewRequest carries an ad-hoc topology to lay out
type PreviewRequest struct {
	Topology *domain.Topology    `json:"topology"`
	Params   *domain.LayoutParams `json:"params,omitempty"`
}

// PreviewLayout lays out a topology from the request without storing it
func (h *TopologyHandler) PreviewLayout(w http.ResponseWriter, r *http.Request) {
	defaults := h.layouts.Defaults()
	req := PreviewRequest{Params: &defaults}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Topology == nil {
		writeError(w, "Invalid request body", "topology: field is required", http.StatusBadRequest)
		return
	}

	result, err := h.layouts.Preview(r.Context(), req.Topology, req.Params)
	if err != nil {
		writeServiceError(w, "Failed to compute layout", err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// NodeDetail returns a node's metadata and its laid-out neighborhood
func (h *TopologyHandler) NodeDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.topologies.NodeDetail(r.Context(), r.PathValue("id"), r.PathValue("node"))
	if err != nil {
		writeServiceError(w, "Failed to get node", err)
		return
	}

	writeJSON(w, detail, http.StatusOK)
}

// EdgeDetail returns a link with its endpoints
func (h *TopologyHandler) EdgeDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.topologies.EdgeDetail(r.Context(), r.PathValue("id"), r.PathValue("edge"))
	if err != nil {
		writeServiceError(w, "Failed to get edge", err)
		return
	}

	writeJSON(w, detail, http.StatusOK)
}

// ScenarioSummary lists a scenario without its graph
type ScenarioSummary struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
}

// ScenarioView is a scenario with its computed layout
type ScenarioView struct {
	Scenario *scenario.Scenario   `json:"scenario"`
	Topology *domain.Topology     `json:"topology"`
	Layout   *domain.LayoutResult `json:"layout"`
	Next     string               `json:"next"`
	Prev     string               `json:"prev"`
}

// ListScenarios returns the canned scenarios in cycling order
func (h *TopologyHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	list := h.scenarios.List()
	summaries := make([]ScenarioSummary, 0, len(list))
	for _, sc := range list {
		summaries = append(summaries, ScenarioSummary{
			Name:        sc.Name,
			Title:       sc.Title,
			Description: sc.Description,
			NodeCount:   len(sc.Nodes),
			EdgeCount:   len(sc.Edges),
		})
	}

	writeJSON(w, summaries, http.StatusOK)
}

// GetScenario returns a scenario laid out with its own parameters
func (h *TopologyHandler) GetScenario(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	sc, ok := h.scenarios.Get(name)
	if !ok {
		writeError(w, "Not found", fmt.Sprintf("scenario %s not found", name), http.StatusNotFound)
		return
	}

	writeJSON(w, ScenarioView{
		Scenario: sc,
		Topology: sc.Topology(),
		Layout:   h.layouts.Scenario(sc),
		Next:     h.scenarios.Next(name).Name,
		Prev:     h.scenarios.Prev(name).Name,
	}, http.StatusOK)
}

// Legend returns the severity color scale
func (h *TopologyHandler) Legend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, domain.Legend(), http.StatusOK)
}

// Helper functions

// decodeParams reads optional layout parameters over a copy of defaults; an
// empty body yields nil
func decodeParams(body io.Reader, defaults domain.LayoutParams) (*domain.LayoutParams, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxUploadBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	params := defaults
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

func formatFromContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "json"
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml"
	case "application/toml":
		return "toml"
	default:
		return "json"
	}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidParams),
		errors.Is(err, service.ErrMalformed),
		errors.Is(err, domain.ErrInvalidTopology),
		errors.Is(err, codec.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusNotFound {
		message = "Not found"
	}
	writeError(w, message, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
