package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

type fakeRunner struct {
	mu      sync.Mutex
	latest  *model.Report
	running bool
	runs    int
}

func (f *fakeRunner) RunOnce(context.Context) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	f.latest = &model.Report{RunID: "run-1"}
	return f.latest, nil
}

func (f *fakeRunner) Latest() *model.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *fakeRunner) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeRunner) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func newTestServer(r Runner) *httptest.Server {
	return httptest.NewServer(New("127.0.0.1:0", r, nil).Handler())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestLatest_NotFoundBeforeFirstRun(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/report/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatest_ReturnsReport(t *testing.T) {
	srv := newTestServer(&fakeRunner{latest: &model.Report{RunID: "abc"}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/report/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestRun_Accepted(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(runner)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/run", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool { return runner.runCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestRun_ConflictWhileInFlight(t *testing.T) {
	srv := newTestServer(&fakeRunner{running: true})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/run", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRun_GetNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/run")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
