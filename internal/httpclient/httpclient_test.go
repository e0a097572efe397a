package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_PassesThroughSuccess(t *testing.T) {
	g := NewGuard("test", 100, 10, 3, time.Minute)
	want := &http.Response{StatusCode: 200}

	got, err := g.Do(context.Background(), func() (*http.Response, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	g := NewGuard("test", 100, 10, 2, time.Minute)
	boom := errors.New("boom")
	fail := func() (*http.Response, error) { return nil, boom }

	for i := 0; i < 2; i++ {
		_, err := g.Do(context.Background(), fail)
		assert.ErrorIs(t, err, boom)
	}

	// Breaker is open now; fn must not run.
	ran := false
	_, err := g.Do(context.Background(), func() (*http.Response, error) {
		ran = true
		return nil, nil
	})
	require.Error(t, err)
	assert.False(t, ran)
}

func TestGuard_CancelledContext(t *testing.T) {
	g := NewGuard("test", 0.001, 1, 3, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the single burst token, then cancel while waiting for the next.
	_, err := g.Do(ctx, func() (*http.Response, error) { return &http.Response{}, nil })
	require.NoError(t, err)

	cancel()
	_, err = g.Do(ctx, func() (*http.Response, error) { return &http.Response{}, nil })
	assert.Error(t, err)
}

func TestNew_ProxyIsOptional(t *testing.T) {
	c := New("")
	assert.Equal(t, 30*time.Second, c.Timeout)

	c = New("http://127.0.0.1:8080")
	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.Proxy)
}
