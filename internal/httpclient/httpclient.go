package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// New builds an HTTP client with the standard 30s timeout and optional proxy.
func New(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// Guard combines a token-bucket rate limiter with a circuit breaker, one per
// upstream host. Every outbound client goes through a Guard so that a
// misbehaving upstream is throttled and, after repeated failures, short-circuited
// instead of hammered.
type Guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard creates a guard named after its upstream. The breaker trips after
// maxFailures consecutive failures and probes again after cooldown.
func NewGuard(name string, rps float64, burst int, maxFailures uint32, cooldown time.Duration) *Guard {
	st := gobreaker.Settings{Name: name, Timeout: cooldown}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= maxFailures
	}
	return &Guard{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Do waits for a rate-limit token, then runs fn under the circuit breaker.
func (g *Guard) Do(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := g.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return resp.(*http.Response), nil
}
