package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/domain"
	"topoview/internal/layout"
	"topoview/internal/metrics"
	"topoview/internal/repository/sqlite"
	"topoview/internal/scenario"
	"topoview/internal/service"
)

const campusYAML = `id: campus
name: Campus
nodes:
  - id: core
    type: router
    severity: ok
  - id: dist
    type: switch
    severity: major
  - id: ap
    type: access_point
edges:
  - id: core-dist
    from: core
    to: dist
  - id: dist-ap
    from: dist
    to: ap
`

// newTestHandler wires real services over an in-memory database
func newTestHandler(t *testing.T) (http.Handler, *metrics.Registry) {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	scenarios, err := scenario.Builtin()
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	bus := service.NewEventBus()
	h := NewTopologyHandler(
		service.NewTopologyService(repo, bus, reg),
		service.NewLayoutService(repo, bus, reg, layout.DefaultOptions()),
		scenarios,
	)

	mux := http.NewServeMux()
	h.Register(mux)

	return Chain(mux, Recover, CORS, Logger, Metrics(reg)), reg
}

func startTestServer(t *testing.T) (*httptest.Server, *metrics.Registry) {
	t.Helper()
	h, reg := newTestHandler(t)
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return server, reg
}

func doRequest(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func importCampus(t *testing.T, baseURL string) {
	t.Helper()
	resp := doRequest(t, http.MethodPost, baseURL+"/api/topologies", "application/yaml", strings.NewReader(campusYAML))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestTopologyLifecycle(t *testing.T) {
	server, _ := startTestServer(t)
	base := server.URL

	importCampus(t, base)

	resp := doRequest(t, http.MethodGet, base+"/api/topologies", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decode[[]domain.Summary](t, resp)
	require.Len(t, summaries, 1)
	assert.Equal(t, "campus", summaries[0].ID)
	assert.Equal(t, 3, summaries[0].NodeCount)

	resp = doRequest(t, http.MethodGet, base+"/api/topologies/campus", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	topo := decode[domain.Topology](t, resp)
	assert.Equal(t, "Campus", topo.Name)
	assert.Len(t, topo.Edges, 2)

	resp = doRequest(t, http.MethodGet, base+"/api/topologies/campus/export?format=yaml", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "dist")

	resp = doRequest(t, http.MethodDelete, base+"/api/topologies/campus", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, base+"/api/topologies/campus", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "Not found", errResp.Error)
}

func TestImportErrors(t *testing.T) {
	server, _ := startTestServer(t)

	tests := []struct {
		name        string
		url         string
		contentType string
		body        string
	}{
		{name: "malformed json", url: "/api/topologies", contentType: "application/json", body: "{"},
		{name: "unknown format", url: "/api/topologies?format=graphml", body: "<graphml/>"},
		{name: "duplicate node ids", url: "/api/topologies", contentType: "application/json",
			body: `{"name":"dup","nodes":[{"id":"a"},{"id":"a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, server.URL+tt.url, tt.contentType, strings.NewReader(tt.body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			errResp := decode[ErrorResponse](t, resp)
			assert.NotEmpty(t, errResp.Details)
		})
	}
}

func TestLayoutEndpoints(t *testing.T) {
	server, _ := startTestServer(t)
	base := server.URL
	importCampus(t, base)

	t.Run("no layout yet", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/topologies/campus/layout", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("compute with defaults", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, base+"/api/topologies/campus/layout", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := decode[domain.LayoutResult](t, resp)
		assert.Len(t, result.Positions, 3)
		assert.Equal(t, layout.DefaultOptions().Iterations, result.Params.Iterations)
		assert.NotEmpty(t, result.RunID)

		resp = doRequest(t, http.MethodGet, base+"/api/topologies/campus/layout", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		latest := decode[domain.LayoutResult](t, resp)
		assert.Equal(t, result.RunID, latest.RunID)
	})

	t.Run("compute with explicit parameters", func(t *testing.T) {
		body := `{"iterations":0,"repulsion":5000,"attraction":0.01,"damping":0.5,"radius":80}`
		resp := doRequest(t, http.MethodPost, base+"/api/topologies/campus/layout", "application/json", strings.NewReader(body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := decode[domain.LayoutResult](t, resp)

		first := result.Positions[0]
		assert.Equal(t, "core", first.NodeID)
		assert.InDelta(t, 80, first.X, 1e-9)
		assert.InDelta(t, 0, first.Y, 1e-9)
	})

	t.Run("partial parameters keep the defaults", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, base+"/api/topologies/campus/layout", "application/json",
			strings.NewReader(`{"iterations":200}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := decode[domain.LayoutResult](t, resp)

		defaults := layout.DefaultOptions()
		assert.Equal(t, 200, result.Params.Iterations)
		assert.Equal(t, defaults.Repulsion, result.Params.Repulsion)
		assert.Equal(t, defaults.Attraction, result.Params.Attraction)
		assert.Equal(t, defaults.Damping, result.Params.Damping)
		assert.Equal(t, defaults.Radius, result.Params.Radius)

		// The run moved away from the initial circle
		core, ok := result.Position("core")
		require.True(t, ok)
		assert.False(t, core.X == defaults.Radius && core.Y == 0, "expected forces to move core off the seed")
	})

	t.Run("oversized parameters", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, base+"/api/topologies/campus/layout", "application/json",
			strings.NewReader(`{"repulsion":1e308}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errResp := decode[ErrorResponse](t, resp)
		assert.Contains(t, errResp.Details, "Repulsion")
	})

	t.Run("invalid parameters", func(t *testing.T) {
		body := `{"iterations":10,"repulsion":5000,"attraction":0.01,"damping":3,"radius":80}`
		resp := doRequest(t, http.MethodPost, base+"/api/topologies/campus/layout", "application/json", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errResp := decode[ErrorResponse](t, resp)
		assert.Contains(t, errResp.Details, "Damping")
	})

	t.Run("pinned node keeps its place", func(t *testing.T) {
		resp := doRequest(t, http.MethodPut, base+"/api/topologies/campus/positions/ap", "application/json",
			strings.NewReader(`{"x":12.5,"y":-4}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doRequest(t, http.MethodPost, base+"/api/topologies/campus/layout", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := decode[domain.LayoutResult](t, resp)
		pos, ok := result.Position("ap")
		require.True(t, ok)
		assert.True(t, pos.Pinned)
		assert.Equal(t, 12.5, pos.X)
		assert.Equal(t, -4.0, pos.Y)
	})

	t.Run("pinning an unknown node", func(t *testing.T) {
		resp := doRequest(t, http.MethodPut, base+"/api/topologies/campus/positions/ghost", "application/json",
			strings.NewReader(`{"x":1,"y":1}`))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("runs are listed", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/topologies/campus/runs?limit=2", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		runs := decode[[]domain.LayoutResult](t, resp)
		assert.Len(t, runs, 2)

		resp = doRequest(t, http.MethodGet, base+"/api/topologies/campus/runs?limit=x", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDetailEndpoints(t *testing.T) {
	server, _ := startTestServer(t)
	base := server.URL
	importCampus(t, base)

	resp := doRequest(t, http.MethodGet, base+"/api/topologies/campus/nodes/dist", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	node := decode[domain.NodeDetail](t, resp)
	assert.Equal(t, "dist", node.Node.ID)
	assert.Len(t, node.Neighbors, 2)
	assert.Len(t, node.Layout.Positions, 3)

	resp = doRequest(t, http.MethodGet, base+"/api/topologies/campus/edges/core-dist", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edge := decode[domain.EdgeDetail](t, resp)
	assert.Equal(t, domain.SeverityMajor, edge.Severity)
	require.NotNil(t, edge.Source)
	assert.Equal(t, "core", edge.Source.ID)

	resp = doRequest(t, http.MethodGet, base+"/api/topologies/campus/edges/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPreviewLayout(t *testing.T) {
	server, _ := startTestServer(t)

	body := map[string]any{
		"topology": map[string]any{
			"nodes": []map[string]any{{"id": "a"}, {"id": "b"}, {"id": "c"}},
			"edges": []map[string]any{{"from": "a", "to": "b"}, {"from": "b", "to": "zzz"}},
		},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/layout", "application/json", bytes.NewReader(data))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[domain.LayoutResult](t, resp)
	assert.Len(t, result.Positions, 3)
	assert.Empty(t, result.RunID)

	body["params"] = map[string]any{"iterations": 0}
	data, err = json.Marshal(body)
	require.NoError(t, err)
	resp = doRequest(t, http.MethodPost, server.URL+"/api/layout", "application/json", bytes.NewReader(data))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decode[domain.LayoutResult](t, resp)
	assert.Equal(t, 0, result.Params.Iterations)
	assert.Equal(t, layout.DefaultOptions().Radius, result.Params.Radius)
	first, ok := result.Position("a")
	require.True(t, ok)
	assert.InDelta(t, layout.DefaultOptions().Radius, first.X, 1e-9)

	resp = doRequest(t, http.MethodPost, server.URL+"/api/layout", "application/json", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScenarioEndpoints(t *testing.T) {
	server, _ := startTestServer(t)
	base := server.URL

	resp := doRequest(t, http.MethodGet, base+"/api/scenarios", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decode[[]ScenarioSummary](t, resp)
	require.NotEmpty(t, summaries)

	first := summaries[0].Name
	last := summaries[len(summaries)-1].Name

	resp = doRequest(t, http.MethodGet, base+"/api/scenarios/"+first, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[ScenarioView](t, resp)
	assert.Equal(t, first, view.Scenario.Name)
	assert.Len(t, view.Layout.Positions, summaries[0].NodeCount)
	assert.Equal(t, last, view.Prev, "cycling backwards from the first scenario wraps to the last")

	resp = doRequest(t, http.MethodGet, base+"/api/scenarios/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLegend(t *testing.T) {
	server, _ := startTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/legend", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	legend := decode[[]domain.LegendEntry](t, resp)
	assert.Equal(t, domain.Legend(), legend)
}

func TestMiddleware(t *testing.T) {
	t.Run("recover returns 500", func(t *testing.T) {
		h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}), Recover)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "boom")
	})

	t.Run("cors preflight short-circuits", func(t *testing.T) {
		called := false
		h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}), CORS)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/topologies", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.False(t, called)
	})

	t.Run("write deadline reachable through wrappers", func(t *testing.T) {
		h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			time.Sleep(150 * time.Millisecond)
			io.WriteString(w, "still writing")
		}), Recover, CORS, Logger, Metrics(metrics.NewRegistry()))

		server := httptest.NewUnstartedServer(h)
		server.Config.WriteTimeout = 50 * time.Millisecond
		server.Start()
		t.Cleanup(server.Close)

		resp := doRequest(t, http.MethodGet, server.URL+"/stream", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "still writing", string(body))
	})

	t.Run("chain order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		h := Chain(http.NotFoundHandler(), mark("outer"), mark("inner"))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("metrics label by route pattern", func(t *testing.T) {
		h, reg := newTestHandler(t)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/legend", nil))

		families, err := reg.GetPrometheusRegistry().Gather()
		require.NoError(t, err)

		found := false
		for _, mf := range families {
			if mf.GetName() != "topoview_http_requests_total" {
				continue
			}
			for _, m := range mf.GetMetric() {
				for _, label := range m.GetLabel() {
					if label.GetName() == "route" && label.GetValue() == "GET /api/legend" {
						found = true
					}
				}
			}
		}
		assert.True(t, found, "expected a request counted under the GET /api/legend route")
	})
}
