package revenue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const finMindFixture = `{
  "msg": "success",
  "status": 200,
  "data": [
    {"stock_id": "1210", "revenue": 8000000000, "revenue_month": 7, "revenue_year": 2025},
    {"stock_id": "1210", "revenue": 8200000000, "revenue_month": 6, "revenue_year": 2026},
    {"stock_id": "1210", "revenue": 8400000000, "revenue_month": 7, "revenue_year": 2026}
  ]
}`

func newTestSource(url string) *FinMindSource {
	s := NewFinMindSource(url, "", "")
	s.now = func() time.Time { return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC) }
	return s
}

type memoMap struct {
	vals map[string]float64
}

func (m *memoMap) RevenueYoY(code, month string) (float64, bool, error) {
	v, ok := m.vals[code+"|"+month]
	return v, ok, nil
}

func (m *memoMap) PutRevenueYoY(code, month string, yoy float64) error {
	if m.vals == nil {
		m.vals = map[string]float64{}
	}
	m.vals[code+"|"+month] = yoy
	return nil
}

func TestFinMind_ComputesYoYForLatestMonth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TaiwanStockMonthRevenue", r.URL.Query().Get("dataset"))
		assert.Equal(t, "1210", r.URL.Query().Get("data_id"))
		assert.NotEmpty(t, r.URL.Query().Get("start_date"))
		fmt.Fprint(w, finMindFixture)
	}))
	defer srv.Close()

	yoy, ok, err := newTestSource(srv.URL).RevenueYoY(context.Background(), "1210")
	require.NoError(t, err)
	require.True(t, ok)
	// 2026-07 vs 2025-07: (8.4e9 - 8.0e9) / 8.0e9 = +5%.
	assert.InDelta(t, 5.0, yoy, 1e-9)
}

func TestFinMind_NoPriorYearMonthIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"msg":"success","status":200,"data":[
			{"stock_id":"1210","revenue":8400000000,"revenue_month":7,"revenue_year":2026}]}`)
	}))
	defer srv.Close()

	_, ok, err := newTestSource(srv.URL).RevenueYoY(context.Background(), "1210")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinMind_EmptyDataIsAbsentNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"msg":"success","status":200,"data":[]}`)
	}))
	defer srv.Close()

	_, ok, err := newTestSource(srv.URL).RevenueYoY(context.Background(), "1210")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinMind_SuccessWritesMemo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, finMindFixture)
	}))
	defer srv.Close()

	memo := &memoMap{}
	s := newTestSource(srv.URL)
	s.Memo = memo

	_, ok, err := s.RevenueYoY(context.Background(), "1210")
	require.NoError(t, err)
	require.True(t, ok)
	_, hit, _ := memo.RevenueYoY("1210", "2026-08")
	assert.True(t, hit)
}

func TestFinMind_FetchFailureFallsBackToMemo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	memo := &memoMap{vals: map[string]float64{"1210|2026-08": 4.2}}
	s := newTestSource(srv.URL)
	s.Memo = memo

	yoy, ok, err := s.RevenueYoY(context.Background(), "1210")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 4.2, yoy, 1e-9)
}

func TestCodeFromTicker(t *testing.T) {
	assert.Equal(t, "1210", CodeFromTicker("1210.TW"))
	assert.Equal(t, "2330", CodeFromTicker("2330"))
}

func TestMockSource(t *testing.T) {
	m := &MockSource{
		Values: map[string]float64{"1210": 3.3},
		Errs:   map[string]error{"1215": errors.New("down")},
	}
	v, ok, err := m.RevenueYoY(context.Background(), "1210")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.3, v)

	_, ok, err = m.RevenueYoY(context.Background(), "1215")
	assert.Error(t, err)
	assert.False(t, ok)

	_, ok, _ = m.RevenueYoY(context.Background(), "9999")
	assert.False(t, ok)
}
