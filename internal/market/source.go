package market

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Source 抽象一个行情数据源（OKX / Binance）。
type Source interface {
	Name() string
	FetchTicker(ctx context.Context, instID string) (Ticker, error)
	FetchOrderBook(ctx context.Context, instID string, depth int) (OrderBook, error)
	FetchCandles(ctx context.Context, instID, bar string, limit int) ([]Candle, error)
	FetchTrades(ctx context.Context, instID string, limit int) ([]Trade, error)
}

// SnapshotSpec 描述一次快照采集的参数。
type SnapshotSpec struct {
	InstID        string
	Bar           string
	CandleLimit   int
	OrderBookSize int
	TradesLimit   int
}

func (s SnapshotSpec) withDefaults() SnapshotSpec {
	if s.Bar == "" {
		s.Bar = "15m"
	}
	if s.CandleLimit <= 0 {
		s.CandleLimit = 100
	}
	if s.OrderBookSize <= 0 {
		s.OrderBookSize = 20
	}
	if s.TradesLimit <= 0 {
		s.TradesLimit = 50
	}
	return s
}

// Collect 并发抓取 ticker/orderbook/candles/trades，组装成 Snapshot。
// 任一子请求失败则整体失败，由调用方决定是否跳过本周期。
func Collect(ctx context.Context, src Source, spec SnapshotSpec) (Snapshot, error) {
	if src == nil {
		return Snapshot{}, fmt.Errorf("market source is nil")
	}
	spec = spec.withDefaults()
	if spec.InstID == "" {
		return Snapshot{}, fmt.Errorf("inst_id is required")
	}

	var snap Snapshot
	snap.InstID = spec.InstID

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		t, err := src.FetchTicker(gctx, spec.InstID)
		if err != nil {
			return fmt.Errorf("fetch ticker: %w", err)
		}
		snap.Ticker = t
		return nil
	})
	group.Go(func() error {
		ob, err := src.FetchOrderBook(gctx, spec.InstID, spec.OrderBookSize)
		if err != nil {
			return fmt.Errorf("fetch orderbook: %w", err)
		}
		snap.OrderBook = ob
		return nil
	})
	group.Go(func() error {
		cs, err := src.FetchCandles(gctx, spec.InstID, spec.Bar, spec.CandleLimit)
		if err != nil {
			return fmt.Errorf("fetch candles: %w", err)
		}
		snap.Candles = cs
		return nil
	})
	group.Go(func() error {
		ts, err := src.FetchTrades(gctx, spec.InstID, spec.TradesLimit)
		if err != nil {
			return fmt.Errorf("fetch trades: %w", err)
		}
		snap.Trades = ts
		return nil
	})
	if err := group.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.CapturedAt = time.Now()
	return snap, nil
}
