package market

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTakerVolumes(t *testing.T) {
	snap := Snapshot{Trades: []Trade{
		{Side: "buy", Size: 1},
		{Side: "sell", Size: 2},
		{Side: "buy", Size: 3},
		{Side: "hold", Size: 100}, // 未知方向忽略
	}}

	buy, sell := snap.TakerVolumes(0)
	assert.InDelta(t, 4.0, buy, 1e-9)
	assert.InDelta(t, 2.0, sell, 1e-9)

	buy, sell = snap.TakerVolumes(2)
	assert.InDelta(t, 1.0, buy, 1e-9)
	assert.InDelta(t, 2.0, sell, 1e-9)
}

func TestBinanceSymbol(t *testing.T) {
	assert.Equal(t, "ETHUSDT", binanceSymbol("ETH-USDT-SWAP"))
	assert.Equal(t, "BTCUSDT", binanceSymbol("btc-usdt"))
	assert.Equal(t, "ETHUSDT", binanceSymbol(" ETHUSDT "))
}

func TestConvertBookLevels(t *testing.T) {
	levels := convertBookLevels([][]string{
		{"2450.5", "1.2", "0", "3"},
		{"2450.0", "0.8"},
		{"too-short"},
	})
	assert.Len(t, levels, 2)
	assert.InDelta(t, 2450.5, levels[0].Price, 1e-9)
	assert.InDelta(t, 1.2, levels[0].Size, 1e-9)
}

type stubSource struct {
	failCandles bool
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchTicker(ctx context.Context, instID string) (Ticker, error) {
	return Ticker{InstID: instID, Last: 2450}, nil
}

func (s *stubSource) FetchOrderBook(ctx context.Context, instID string, depth int) (OrderBook, error) {
	return OrderBook{Bids: []BookLevel{{Price: 2449, Size: 1}}}, nil
}

func (s *stubSource) FetchCandles(ctx context.Context, instID, bar string, limit int) ([]Candle, error) {
	if s.failCandles {
		return nil, fmt.Errorf("boom")
	}
	return []Candle{{Close: 2450}}, nil
}

func (s *stubSource) FetchTrades(ctx context.Context, instID string, limit int) ([]Trade, error) {
	return []Trade{{Side: "buy", Size: 1}}, nil
}

func TestCollect(t *testing.T) {
	t.Run("assembles snapshot", func(t *testing.T) {
		snap, err := Collect(context.Background(), &stubSource{}, SnapshotSpec{InstID: "ETH-USDT-SWAP"})
		assert.NoError(t, err)
		assert.Equal(t, "ETH-USDT-SWAP", snap.InstID)
		assert.InDelta(t, 2450.0, snap.LastPrice(), 1e-9)
		assert.Len(t, snap.Candles, 1)
		assert.WithinDuration(t, time.Now(), snap.CapturedAt, 5*time.Second)
	})

	t.Run("any sub fetch failure fails the whole snapshot", func(t *testing.T) {
		_, err := Collect(context.Background(), &stubSource{failCandles: true}, SnapshotSpec{InstID: "X"})
		assert.Error(t, err)
	})

	t.Run("missing inst id rejected", func(t *testing.T) {
		_, err := Collect(context.Background(), &stubSource{}, SnapshotSpec{})
		assert.Error(t, err)
	})

	t.Run("nil source rejected", func(t *testing.T) {
		_, err := Collect(context.Background(), nil, SnapshotSpec{InstID: "X"})
		assert.Error(t, err)
	})
}
