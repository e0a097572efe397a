package store

import "github.com/taichungmao-blip/soybean-monitor/internal/model"

// NoopStore is used when no SQLite path is configured; every read misses.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) PutDailyCloses(string, []model.Candle) error      { return nil }
func (n *NoopStore) DailyCloses(string, int) ([]model.Candle, error)  { return nil, nil }
func (n *NoopStore) PutRevenueYoY(string, string, float64) error      { return nil }
func (n *NoopStore) RevenueYoY(string, string) (float64, bool, error) { return 0, false, nil }
func (n *NoopStore) Close() error                                     { return nil }
