package httpserve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maparr/internal/analysis"
	"maparr/internal/dockerx"
	"maparr/internal/jobs"
	"maparr/internal/store"
)

type fakeDocker struct {
	status dockerx.Status
	snap   analysis.Snapshot
	err    error
}

func (f *fakeDocker) Status(context.Context) dockerx.Status { return f.status }

func (f *fakeDocker) Snapshot(context.Context) (analysis.Snapshot, error) {
	return f.snap, f.err
}

func connectedDocker(snap analysis.Snapshot) *fakeDocker {
	return &fakeDocker{status: dockerx.Status{Connected: true, Version: "1.47"}, snap: snap}
}

func newTestServer(t *testing.T, docker Snapshotter) (*Server, *jobs.Manager) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	jm := jobs.NewManager(context.Background())
	t.Cleanup(jm.Shutdown)

	return New(0, "test", docker, st, jm), jm
}

func doJSON(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	}
	return rec, payload
}

func collisionSnapshot() analysis.Snapshot {
	return analysis.Snapshot{
		Meta: analysis.Meta{OperatingSystem: "Ubuntu 24.04", OSType: "linux"},
		Containers: []analysis.Container{
			{ID: "aaa", Name: "app-x", Mounts: []analysis.Mount{
				{HostPath: "/mnt/user/one", ContainerPath: "/data", Mode: analysis.ModeRW}}},
			{ID: "bbb", Name: "app-y", Mounts: []analysis.Mount{
				{HostPath: "/mnt/user/two", ContainerPath: "/data", Mode: analysis.ModeRW}}},
		},
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(analysis.Snapshot{}))

	rec, payload := doJSON(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "test", payload["version"])
	assert.Equal(t, true, payload["dockerConnected"])
}

func TestDockerStatus(t *testing.T) {
	s, _ := newTestServer(t, &fakeDocker{status: dockerx.Status{Connected: false, Error: "no socket"}})

	rec, payload := doJSON(t, s, http.MethodGet, "/api/docker/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, payload["connected"])
	assert.Equal(t, "no socket", payload["error"])
}

func TestListContainers(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(collisionSnapshot()))

	rec, payload := doJSON(t, s, http.MethodGet, "/api/containers", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, payload["count"])
}

func TestListContainers_DaemonDown(t *testing.T) {
	s, _ := newTestServer(t, &fakeDocker{err: errors.New("daemon unreachable")})

	rec, _ := doJSON(t, s, http.MethodGet, "/api/containers", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAnalyze_SyncPersistsResult(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(collisionSnapshot()))

	rec, payload := doJSON(t, s, http.MethodPost, "/api/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code)

	result := payload["result"].(map[string]any)
	summary := result["summary"].(map[string]any)
	assert.Equal(t, "critical", summary["status"])
	assert.EqualValues(t, 2, summary["containersAnalyzed"])
	assert.EqualValues(t, 1, payload["analysisId"])

	rec, payload = doJSON(t, s, http.MethodGet, "/api/analyses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["analyses"], 1)
}

func TestAnalyze_Async(t *testing.T) {
	s, jm := newTestServer(t, connectedDocker(collisionSnapshot()))

	rec, payload := doJSON(t, s, http.MethodPost, "/api/analyze?async=true", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := payload["jobId"].(string)
	require.NotEmpty(t, jobID)

	deadline := time.After(2 * time.Second)
	for {
		job, ok := jm.Get(jobID)
		require.True(t, ok)
		if job.State == jobs.StateCompleted {
			resp := job.Result.(*analyzeResponse)
			assert.Equal(t, analysis.StatusCritical, resp.Result.Summary.Status)
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job stuck in state %s", job.State)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAnalyze_MergesManualPaths(t *testing.T) {
	snap := analysis.Snapshot{
		Meta: analysis.Meta{OperatingSystem: "Ubuntu 24.04", OSType: "linux"},
		Containers: []analysis.Container{
			{ID: "plx", Name: "plex", Mounts: []analysis.Mount{
				{HostPath: "/data/media", ContainerPath: "/media", Mode: analysis.ModeRW}}},
		},
	}
	s, _ := newTestServer(t, connectedDocker(snap))

	rec, _ := doJSON(t, s, http.MethodPost, "/api/manual-paths",
		`{"containerName":"nas-share","hostPath":"/data/export","containerPath":"/media"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, payload := doJSON(t, s, http.MethodPost, "/api/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := payload["result"].(map[string]any)
	summary := result["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["containersAnalyzed"])
	assert.Equal(t, "critical", summary["status"])
}

func TestRecommendations_DaemonDisconnected(t *testing.T) {
	s, _ := newTestServer(t, &fakeDocker{status: dockerx.Status{Connected: false, Error: "no socket"}})

	rec, payload := doJSON(t, s, http.MethodGet, "/api/recommendations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	recs := payload["recommendations"].([]any)
	require.Len(t, recs, 1)
	first := recs[0].(map[string]any)
	assert.Equal(t, analysis.TitleConnectDocker, first["title"])
	assert.Equal(t, string(analysis.PriorityConnectivity), first["priority"])
}

func TestRecommendations_HealthySetupIsEmpty(t *testing.T) {
	snap := analysis.Snapshot{
		Meta: analysis.Meta{OperatingSystem: "Ubuntu 24.04", OSType: "linux"},
		Containers: []analysis.Container{
			{ID: "aaa", Name: "app-x", Mounts: []analysis.Mount{
				{HostPath: "/mnt/user/data", ContainerPath: "/data", Mode: analysis.ModeRW}}},
		},
	}
	s, _ := newTestServer(t, connectedDocker(snap))

	rec, payload := doJSON(t, s, http.MethodGet, "/api/recommendations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, payload["recommendations"])
}

func TestRecommendations_DoesNotWriteHistory(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(collisionSnapshot()))

	for i := 0; i < 3; i++ {
		rec, payload := doJSON(t, s, http.MethodGet, "/api/recommendations", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, payload["recommendations"])
	}

	rec, payload := doJSON(t, s, http.MethodGet, "/api/analyses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, payload["analyses"], "a read-only view must not grow history")
}

func TestSaveMapping(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(analysis.Snapshot{}))

	rec, _ := doJSON(t, s, http.MethodPost, "/api/save-mapping", `{"name":"incomplete"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload := doJSON(t, s, http.MethodPost, "/api/save-mapping",
		`{"name":"media root","hostPath":"/mnt/user/data","containerPath":"/data"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 1, payload["id"])

	rec, payload = doJSON(t, s, http.MethodGet, "/api/mappings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["mappings"], 1)
}

func TestManualPathLifecycle(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(analysis.Snapshot{}))

	rec, _ := doJSON(t, s, http.MethodPost, "/api/manual-paths", `{"containerName":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload := doJSON(t, s, http.MethodPost, "/api/manual-paths",
		`{"containerName":"nas","hostPath":"/srv/a","containerPath":"/a"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := payload["id"].(float64)

	rec, payload = doJSON(t, s, http.MethodGet, "/api/manual-paths", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["manualPaths"], 1)

	rec, _ = doJSON(t, s, http.MethodDelete, "/api/manual-paths/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, s, http.MethodDelete, "/api/manual-paths/"+strconv.FormatInt(int64(id), 10), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestManualPathBatchReplace(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(analysis.Snapshot{}))

	rec, _ := doJSON(t, s, http.MethodPost, "/api/manual-paths",
		`{"containerName":"old","hostPath":"/old","containerPath":"/old"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, payload := doJSON(t, s, http.MethodPost, "/api/manual-paths/batch",
		`{"entries":[{"containerName":"a","hostPath":"/srv/a","containerPath":"/a"},{"containerName":"b","hostPath":"/srv/b","containerPath":"/b"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["manualPaths"], 2)
}

func TestGetAnalysis_Errors(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(analysis.Snapshot{}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/analyses/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, s, http.MethodGet, "/api/analyses/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJob_Unknown(t *testing.T) {
	s, _ := newTestServer(t, connectedDocker(analysis.Snapshot{}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
