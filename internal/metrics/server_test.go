package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_ExposesCounters(t *testing.T) {
	RetriesScheduled.WithLabelValues("failsafe", "dispatch").Inc()
	Redispatches.WithLabelValues("connector").Inc()
	TerminalFailures.WithLabelValues("failfast", "UNKNOWN").Inc()
	CallsCompleted.WithLabelValues("connector").Inc()

	ts := httptest.NewServer(NewServer(":0").Handler())
	defer ts.Close()

	status, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `rpcfail_retries_scheduled_total{kind="dispatch",mode="failsafe"}`)
	assert.Contains(t, body, `rpcfail_redispatch_total{server_type="connector"}`)
	assert.Contains(t, body, `rpcfail_terminal_total{code="UNKNOWN",mode="failfast"}`)
	assert.Contains(t, body, `rpcfail_calls_completed_total{server_type="connector"}`)
}

func TestServer_Health(t *testing.T) {
	ts := httptest.NewServer(NewServer(":0").Handler())
	defer ts.Close()

	status, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, http.ErrServerClosed), "unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
