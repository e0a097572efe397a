package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/taichungmao-blip/soybean-monitor/internal/httpclient"
	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// RESTFetcher implements Fetcher against a generic internal bars endpoint,
// for deployments that mirror market data behind their own API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Guard   *httpclient.Guard
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  httpclient.New(proxyURL),
		Guard:   httpclient.NewGuard("rest", 5, 10, 5, time.Minute),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars endpoint.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
}

func (f *RESTFetcher) FetchDailyCloses(ctx context.Context, ticker string, lookbackDays int) ([]model.Candle, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d",
		f.BaseURL, url.QueryEscape(ticker), lookbackDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Guard.Do(ctx, func() (*http.Response, error) {
		return f.Client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars %s: status %d, body: %s", ticker, resp.StatusCode, string(body))
	}

	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}

	candles := make([]model.Candle, 0, len(bars))
	for _, b := range bars {
		if b.Close == 0 {
			continue
		}
		candles = append(candles, model.Candle{Date: time.Unix(b.Timestamp, 0).UTC(), Close: b.Close})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	return candles, nil
}
