package revenue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taichungmao-blip/soybean-monitor/internal/httpclient"
)

// Memo caches computed YoY values per (code, month) so that a flaky upstream
// does not flip an equity to the 0.0 default within the same month.
type Memo interface {
	RevenueYoY(code, month string) (float64, bool, error)
	PutRevenueYoY(code, month string, yoyPct float64) error
}

// FinMindSource reads the TaiwanStockMonthRevenue dataset from the FinMind
// open data API and derives the latest month's year-over-year change.
type FinMindSource struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Guard   *httpclient.Guard
	Memo    Memo // optional

	now func() time.Time
}

// NewFinMindSource creates a source with optional proxy support.
func NewFinMindSource(baseURL, token, proxyURL string) *FinMindSource {
	return &FinMindSource{
		BaseURL: baseURL,
		Token:   token,
		Client:  httpclient.New(proxyURL),
		Guard:   httpclient.NewGuard("finmind", 1, 2, 5, 2*time.Minute),
		now:     time.Now,
	}
}

type finMindResponse struct {
	Msg    string `json:"msg"`
	Status int    `json:"status"`
	Data   []struct {
		StockID      string  `json:"stock_id"`
		Revenue      float64 `json:"revenue"`
		RevenueMonth int     `json:"revenue_month"`
		RevenueYear  int     `json:"revenue_year"`
	} `json:"data"`
}

// RevenueYoY fetches monthly revenue rows covering the last 14 months and
// compares the latest month with the same month one year earlier. Any failure
// falls back to the memo for the current or previous month before reporting
// the value as absent.
func (s *FinMindSource) RevenueYoY(ctx context.Context, code string) (float64, bool, error) {
	yoy, ok, err := s.fetchYoY(ctx, code)
	if err == nil && ok {
		if s.Memo != nil {
			month := s.now().UTC().Format("2006-01")
			if putErr := s.Memo.PutRevenueYoY(code, month, yoy); putErr != nil {
				log.Warn().Err(putErr).Str("code", code).Msg("revenue memo write failed")
			}
		}
		return yoy, true, nil
	}
	if err != nil {
		log.Warn().Err(err).Str("code", code).Msg("revenue fetch failed")
		if s.Memo != nil {
			now := s.now().UTC()
			for _, month := range []string{now.Format("2006-01"), now.AddDate(0, -1, 0).Format("2006-01")} {
				if v, hit, memoErr := s.Memo.RevenueYoY(code, month); memoErr == nil && hit {
					log.Warn().Str("code", code).Str("month", month).Msg("using cached revenue yoy")
					return v, true, nil
				}
			}
		}
	}
	return 0, false, err
}

func (s *FinMindSource) fetchYoY(ctx context.Context, code string) (float64, bool, error) {
	start := s.now().UTC().AddDate(0, -14, 0).Format("2006-01-02")
	q := url.Values{}
	q.Set("dataset", "TaiwanStockMonthRevenue")
	q.Set("data_id", code)
	q.Set("start_date", start)
	if s.Token != "" {
		q.Set("token", s.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, false, err
	}

	resp, err := s.Guard.Do(ctx, func() (*http.Response, error) {
		return s.Client.Do(req)
	})
	if err != nil {
		return 0, false, fmt.Errorf("finmind fetch %s: %w", code, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, false, fmt.Errorf("finmind read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("finmind %s: status %d, body: %s", code, resp.StatusCode, string(body))
	}

	var fm finMindResponse
	if err := json.Unmarshal(body, &fm); err != nil {
		return 0, false, fmt.Errorf("finmind decode: %w", err)
	}
	if len(fm.Data) == 0 {
		return 0, false, nil
	}

	// Rows arrive oldest-first; index by (year, month) and take the newest.
	type ym struct{ y, m int }
	byMonth := make(map[ym]float64, len(fm.Data))
	latest := ym{}
	for _, row := range fm.Data {
		k := ym{row.RevenueYear, row.RevenueMonth}
		byMonth[k] = row.Revenue
		if k.y > latest.y || (k.y == latest.y && k.m > latest.m) {
			latest = k
		}
	}

	cur := byMonth[latest]
	prev, ok := byMonth[ym{latest.y - 1, latest.m}]
	if !ok || prev <= 0 {
		return 0, false, nil
	}
	return (cur - prev) / prev * 100.0, true, nil
}
