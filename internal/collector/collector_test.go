package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal portfolio API with controllable failures.
type fakeAPI struct {
	failDetail     map[string]bool // project id -> 500 on detail
	failMilestones map[string]bool // project id -> 500 on milestones
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	envelope := func(w http.ResponseWriter, results []map[string]any) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": len(results), "next": nil, "previous": nil, "results": results,
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/moods", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, []map[string]any{
			{"code": "good", "label": "All good", "color": "#03E26B"},
			{"code": "blocked", "label": "Blocked", "color": "#FF0A55"},
		})
	})
	mux.HandleFunc("/api/statuses", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, []map[string]any{
			{"code": "in_progress", "label": "In progress"},
			{"code": "finished", "label": "Finished"},
		})
	})
	mux.HandleFunc("/api/risk-levels", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, []map[string]any{{"code": "low", "label": "Low"}})
	})
	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/projects/"):]
		if f.failDetail[id] {
			http.Error(w, "detail unavailable", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": id, "name": "Project " + id, "mood": "good", "status": "in_progress",
		})
	})
	mux.HandleFunc("/api/milestones", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("project")
		if f.failMilestones[id] {
			http.Error(w, "milestones unavailable", http.StatusInternalServerError)
			return
		}
		envelope(w, []map[string]any{{"name": "Kickoff " + id, "status": "done"}})
	})
	mux.HandleFunc("/api/decisions", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, nil)
	})
	mux.HandleFunc("/api/attention-points", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, nil)
	})
	return httptest.NewServer(mux)
}

func newTestCollector(srv *httptest.Server) *Collector {
	client := NewClient(srv.URL, "Token", "secret-token-abcdef")
	return New(client, WithCollectorClock(func() time.Time {
		return time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	}))
}

func TestFetchAll_HappyPath(t *testing.T) {
	srv := (&fakeAPI{}).server(t)
	defer srv.Close()

	snap, summary, err := newTestCollector(srv).FetchAll(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, snap.Projects, 2)
	assert.Equal(t, []string{"A", "B"}, summary.Succeeded)
	assert.Empty(t, summary.Failed)

	// Codes resolve against the same run's reference data.
	assert.Equal(t, "All good", snap.Projects[0].Resolved["mood"])
	assert.Equal(t, "In progress", snap.Projects[0].Resolved["status"])
	require.Len(t, snap.Projects[0].Milestones, 1)
}

func TestFetchAll_RelatedFailureIsolated(t *testing.T) {
	srv := (&fakeAPI{failMilestones: map[string]bool{"B": true}}).server(t)
	defer srv.Close()

	snap, summary, err := newTestCollector(srv).FetchAll(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)

	// B stays in the snapshot with an empty milestone list plus a
	// recorded note; A and C are untouched.
	require.Len(t, snap.Projects, 3)
	assert.Len(t, summary.Succeeded, 3)

	b := snap.Projects[1]
	assert.Equal(t, "B", b.ID)
	assert.Empty(t, b.Milestones)
	require.Len(t, b.Errors, 1)
	assert.Contains(t, b.Errors[0], "milestones")

	assert.Len(t, snap.Projects[0].Milestones, 1)
	assert.Len(t, snap.Projects[2].Milestones, 1)
}

func TestFetchAll_DetailFailureExcludesEntity(t *testing.T) {
	srv := (&fakeAPI{failDetail: map[string]bool{"p2": true}}).server(t)
	defer srv.Close()

	snap, summary, err := newTestCollector(srv).FetchAll(context.Background(), []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	require.Len(t, snap.Projects, 2)
	assert.Equal(t, []string{"p1", "p3"}, summary.Succeeded)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "p2", summary.Failed[0].ID)
	assert.Contains(t, summary.Failed[0].Reason, "500")
}

func TestFetchAll_ReferenceFailureAborts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snap, summary, err := newTestCollector(srv).FetchAll(context.Background(), []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference category")
	assert.Nil(t, snap)
	assert.Nil(t, summary)
}

func TestFetchAll_CancelAbortsWithoutSnapshot(t *testing.T) {
	srv := (&fakeAPI{}).server(t)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, _, err := newTestCollector(srv).FetchAll(ctx, []string{"A"})
	require.Error(t, err)
	assert.Nil(t, snap)
}

func TestReferenceSet_ResolveDegradesToRawCode(t *testing.T) {
	refs := ReferenceSet{"moods": {"good": {Label: "All good"}}}
	assert.Equal(t, "All good", refs.Resolve("moods", "good"))
	assert.Equal(t, "mystery", refs.Resolve("moods", "mystery"))
	assert.Equal(t, "good", refs.Resolve("unknown_category", "good"))
	assert.Equal(t, "", refs.Resolve("moods", ""))
}
