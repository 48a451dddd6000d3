package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/selection"
	"github.com/colonyops/qcdash/internal/core/status"
	"github.com/colonyops/qcdash/internal/core/timeline"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/milestones/{name}/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "release 1", r.PathValue("name"))
		writeJSON(w, []milestone.Item{
			{Number: 3, Title: "R/model.R", File: "R/model.R", State: milestone.StateOpen},
		})
	})

	items, err := newTestClient(t, mux).ListIssues(context.Background(), "release 1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Number)
	assert.Equal(t, "release 1", items[0].Milestone)
}

func TestClient_Commits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issues/7/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []timeline.ProviderCommit{
			{Hash: "b", Statuses: []string{"notification"}, FileChanged: true},
			{Hash: "a", Statuses: []string{"initial"}, FileChanged: true},
		})
	})

	commits, err := newTestClient(t, mux).Commits(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "b", commits[0].Hash)
}

func TestClient_FetchStatuses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/issues/status", func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int{1, 2, 3}, req.Issues)

		writeJSON(w, status.BatchResponse{
			Results: []status.IssueStatus{{Number: 1, QCStatus: "approved"}},
			Errors:  []status.StatusError{{Number: 2, Error: "branch missing"}},
		})
	})

	resp, err := newTestClient(t, mux).FetchStatuses(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, "branch missing", resp.Errors[0].Error)
}

func TestClient_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/milestones/{name}/issues", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"message": "milestone not found"})
	})
	mux.HandleFunc("POST /api/issues/status", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	c := newTestClient(t, mux)

	_, err := c.ListIssues(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "milestone not found")

	_, err = c.FetchStatuses(context.Background(), []int{1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestClient_PreviewAndPost(t *testing.T) {
	var posted Action
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/issues/4/preview/notify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, previewResponse{Markdown: "# QC notification"})
	})
	mux.HandleFunc("POST /api/issues/4/notify", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		writeJSON(w, PostResult{URL: "https://tracker.example/issues/4#c1"})
	})

	c := newTestClient(t, mux)
	action := Action{Kind: ActionNotify, FromCommit: "aaa", ToCommit: "bbb", IncludeDiff: true}

	md, err := c.Preview(context.Background(), 4, action)
	require.NoError(t, err)
	assert.Equal(t, "# QC notification", md)

	res, err := c.Post(context.Background(), 4, action)
	require.NoError(t, err)
	assert.Equal(t, "https://tracker.example/issues/4#c1", res.URL)
	assert.Equal(t, "aaa", posted.FromCommit)
	assert.True(t, posted.IncludeDiff)

	_, err = c.Post(context.Background(), 4, Action{Kind: "merge"})
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestActionFor(t *testing.T) {
	tl := timeline.Normalize([]timeline.ProviderCommit{
		{Hash: "bbb", FileChanged: true},
		{Hash: "aaa", Statuses: []string{"initial"}, FileChanged: true},
	})

	s, err := selection.Open(selection.ModeNotify, tl)
	require.NoError(t, err)
	a := ActionFor(s.Resolve(), "please review")
	assert.Equal(t, ActionNotify, a.Kind)
	assert.Equal(t, "aaa", a.FromCommit)
	assert.Equal(t, "bbb", a.ToCommit)
	assert.True(t, a.IncludeDiff)
	assert.Equal(t, "please review", a.Comment)

	s, err = selection.Open(selection.ModeApprove, tl)
	require.NoError(t, err)
	a = ActionFor(s.Resolve(), "")
	assert.Equal(t, ActionApprove, a.Kind)
	assert.Equal(t, "aaa", a.Commit)
	assert.False(t, a.IncludeDiff)
}
