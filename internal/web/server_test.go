package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/qcdash/internal/core/config"
	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/status"
	"github.com/colonyops/qcdash/internal/core/timeline"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/internal/tracker"
	"github.com/colonyops/qcdash/pkg/kv"
)

func backendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newBackend fakes the QC backend: milestone "m1" has two open issues, one
// of which fails its status lookup.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/milestones/{name}/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "m1" {
			w.WriteHeader(http.StatusNotFound)
			backendJSON(w, map[string]string{"message": "milestone not found"})
			return
		}
		backendJSON(w, []milestone.Item{
			{Number: 1, Title: "model", File: "R/model.R", State: milestone.StateOpen},
			{Number: 2, Title: "clean", File: "R/clean.R", State: milestone.StateOpen},
		})
	})
	mux.HandleFunc("GET /api/issues/1/commits", func(w http.ResponseWriter, r *http.Request) {
		backendJSON(w, []timeline.ProviderCommit{
			{Hash: "ccc", FileChanged: true},
			{Hash: "bbb", FileChanged: false},
			{Hash: "aaa", Statuses: []string{"initial"}, FileChanged: true},
		})
	})
	mux.HandleFunc("POST /api/issues/status", func(w http.ResponseWriter, r *http.Request) {
		backendJSON(w, status.BatchResponse{
			Results: []status.IssueStatus{{Number: 1, QCStatus: "awaiting review"}},
			Errors:  []status.StatusError{{Number: 2, Error: "branch missing"}},
		})
	})
	mux.HandleFunc("POST /api/issues/1/preview/notify", func(w http.ResponseWriter, r *http.Request) {
		backendJSON(w, map[string]string{"markdown": "# notify aaa..ccc"})
	})
	mux.HandleFunc("POST /api/issues/1/notify", func(w http.ResponseWriter, r *http.Request) {
		backendJSON(w, tracker.PostResult{URL: "https://tracker.example/1#c"})
	})
	mux.HandleFunc("POST /api/issues/{n}/unapprove", func(w http.ResponseWriter, r *http.Request) {
		backendJSON(w, tracker.PostResult{URL: "https://tracker.example/" + r.PathValue("n")})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()

	backend := newBackend(t)
	client := tracker.New(backend.URL, 5*time.Second, zerolog.Nop())
	loader := status.NewLoader(
		status.NewBatcher(client, status.WithScheduler(status.Immediate)),
		kv.New[int, status.IssueStatus](),
	)

	cfg := config.DefaultConfig().Milestones
	cfg.Names = []string{"m1"}

	svc := dashboard.NewService(client, loader, 2, zerolog.Nop())
	desk := dashboard.NewDesk(client, loader, zerolog.Nop())
	return New(svc, desk, cfg, 10*time.Second, zerolog.Nop(), opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestMilestoneStatus(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/milestones/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Milestones []struct {
			Name   string           `json:"name"`
			Health milestone.Health `json:"health"`
		} `json:"milestones"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Milestones, 1)
	assert.Equal(t, "m1", resp.Milestones[0].Name)
	assert.Equal(t, milestone.HealthPartial, resp.Milestones[0].Health)

	rec = do(t, h, http.MethodGet, "/api/milestones/status?milestone=gone&scope=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"health":"failed"`)

	rec = do(t, h, http.MethodGet, "/api/milestones/status?scope=closed", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMilestoneGate(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/milestones/gate?milestone=m1&milestone=gone", "")
	require.Equal(t, http.StatusOK, rec.Code)

	g := decode[milestone.Gating](t, rec)
	require.Len(t, g.Included, 1)
	require.Len(t, g.Excluded, 1)
	assert.Equal(t, "gone", g.Excluded[0].Name)
	assert.Len(t, g.Notices, 2)
}

func TestReviewLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/review", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/review", `{"number": 1, "mode": "notify"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[dashboard.View](t, rec)
	require.NotNil(t, v.Output.From)
	assert.Equal(t, "aaa", v.Output.From.Hash)
	assert.Equal(t, "ccc", v.Output.To.Hash)
	assert.Len(t, v.Output.Visible, 2)

	rec = do(t, h, http.MethodPatch, "/api/review", `{"show_all": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decode[dashboard.View](t, rec)
	assert.Len(t, v.Output.Visible, 3)

	rec = do(t, h, http.MethodPatch, "/api/review", `{"from": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "half a range is a client error")

	rec = do(t, h, http.MethodPost, "/api/review/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/review/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notify aaa..ccc")

	rec = do(t, h, http.MethodPost, "/api/review/post", `{"comment": "ready"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tracker.example/1#c")

	rec = do(t, h, http.MethodDelete, "/api/review", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/review/preview", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenReview_Errors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "bad json", body: `{`, code: http.StatusBadRequest},
		{name: "missing number", body: `{"mode": "notify"}`, code: http.StatusBadRequest},
		{name: "unknown mode", body: `{"number": 1, "mode": "merge"}`, code: http.StatusBadRequest},
		{name: "unknown issue", body: `{"number": 9, "mode": "review"}`, code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/review", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestIssueStatus(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/issues/1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ok := decode[status.Result](t, rec)
	require.NotNil(t, ok.Status)
	assert.Equal(t, "awaiting review", ok.Status.QCStatus)

	rec = do(t, h, http.MethodGet, "/api/issues/2/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	failed := decode[status.Result](t, rec)
	require.NotNil(t, failed.Failure)
	assert.Equal(t, status.FailureProcessing, failed.Failure.Kind)
	assert.Equal(t, "branch missing", failed.Failure.Message)

	rec = do(t, h, http.MethodGet, "/api/issues/abc/status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnapprove(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/issues/4/unapprove", `{"comment": "rework"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasSuffix(decode[tracker.PostResult](t, rec).URL, "/4"))

	rec = do(t, h, http.MethodPost, "/api/issues/four/unapprove", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfiler(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/debug/pprof/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, newTestServer(t, WithProfiler()), http.MethodGet, "/debug/pprof/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
