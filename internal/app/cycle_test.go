package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"alphawatch/internal/ai"
	"alphawatch/internal/config"
	"alphawatch/internal/decision"
	"alphawatch/internal/gateway/notifier"
	"alphawatch/internal/market"
	"alphawatch/internal/position"
	"alphawatch/internal/store/alertlog"
	"alphawatch/internal/store/sqlite"
	"alphawatch/internal/strategy"
)

type fakeSource struct {
	fail bool
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchTicker(ctx context.Context, instID string) (market.Ticker, error) {
	if f.fail {
		return market.Ticker{}, fmt.Errorf("network down")
	}
	return market.Ticker{InstID: instID, Last: 2450}, nil
}

func (f *fakeSource) FetchOrderBook(ctx context.Context, instID string, depth int) (market.OrderBook, error) {
	return market.OrderBook{}, nil
}

func (f *fakeSource) FetchCandles(ctx context.Context, instID, bar string, limit int) ([]market.Candle, error) {
	return []market.Candle{{Close: 2450}}, nil
}

func (f *fakeSource) FetchTrades(ctx context.Context, instID string, limit int) ([]market.Trade, error) {
	return nil, nil
}

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Name() string { return "fake-model" }

func (f *fakeClient) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.response, f.err
}

type fakeNotifier struct {
	sent []notifier.Alert
	err  error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(a notifier.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, a)
	return nil
}

func newTestApp(t *testing.T, client *fakeClient, src market.Source) *App {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Market.InstID = "ETH-USDT-SWAP"

	records, err := sqlite.NewRecordStore(filepath.Join(dir, "analysis.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { records.Close() })

	alerts, err := alertlog.New(filepath.Join(dir, "alerts.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { alerts.Close() })

	positions, err := position.NewFileStore(filepath.Join(dir, "positions.json"))
	assert.NoError(t, err)
	t.Cleanup(func() { positions.Close() })

	a := &App{
		cfg:       cfg,
		source:    src,
		analyzer:  ai.NewAnalyzer(client, nil),
		positions: positions,
		records:   records,
		alerts:    alerts,
		stats:     NewStats(),
	}
	a.applyStrategy(strategy.Params{
		Name:                "balanced",
		Timeframe:           "15m",
		AnalysisInterval:    "15m",
		ConfidenceThreshold: 80,
		RSIOversold:         30,
		RSIOverbought:       70,
		AdjustmentThreshold: 2,
	})
	return a
}

func TestRunCycleSuccess(t *testing.T) {
	client := &fakeClient{response: `{"action":"SELL","confidence":85,"analysis":"a","reasoning":"b"}`}
	a := newTestApp(t, client, &fakeSource{})
	fn := &fakeNotifier{}
	a.notifiers = []notifier.Notifier{fn}

	out := a.RunCycle(context.Background())

	assert.False(t, out.Skipped)
	assert.Equal(t, decision.ActionSell, out.Recommendation.Action)
	assert.InDelta(t, 2450.0, out.Price, 1e-9)
	assert.NotEmpty(t, out.RecordID)
	assert.True(t, out.Notified)
	assert.Len(t, fn.sent, 1)

	// 落库并回写 notification_sent
	rows, err := a.records.Recent(context.Background(), "ETH-USDT-SWAP", 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "SELL", rows[0].Action)
	assert.True(t, rows[0].NotificationSent)

	// 告警日志记录成功
	entries, err := a.alerts.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
}

func TestRunCycleFetchFailureSkips(t *testing.T) {
	client := &fakeClient{response: `{"action":"SELL","confidence":85}`}
	a := newTestApp(t, client, &fakeSource{fail: true})

	out := a.RunCycle(context.Background())

	assert.True(t, out.Skipped)
	assert.NotEmpty(t, out.SkipReason)

	rows, err := a.records.Recent(context.Background(), "", 10)
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunCycleAnalyzerFailureDegrades(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("timeout")}
	a := newTestApp(t, client, &fakeSource{})
	fn := &fakeNotifier{}
	a.notifiers = []notifier.Notifier{fn}

	out := a.RunCycle(context.Background())

	assert.False(t, out.Skipped)
	assert.True(t, out.Degraded)
	assert.Equal(t, decision.ActionHold, out.Recommendation.Action)
	assert.Zero(t, out.Recommendation.Confidence)
	assert.False(t, out.Notified)
	assert.Empty(t, fn.sent)

	// 降级结果照常落库
	rows, err := a.records.Recent(context.Background(), "", 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.True(t, rows[0].Degraded)
	assert.False(t, rows[0].NotificationSent)
}

func TestRunCycleHoldDoesNotNotify(t *testing.T) {
	client := &fakeClient{response: `{"action":"HOLD","confidence":95}`}
	a := newTestApp(t, client, &fakeSource{})
	fn := &fakeNotifier{}
	a.notifiers = []notifier.Notifier{fn}

	out := a.RunCycle(context.Background())

	assert.False(t, out.Skipped)
	assert.False(t, out.NotifyTried)
	assert.Empty(t, fn.sent)
}

func TestRunCycleNotifierFailureKeepsRecord(t *testing.T) {
	client := &fakeClient{response: `{"action":"BUY_LONG","confidence":90}`}
	a := newTestApp(t, client, &fakeSource{})
	fn := &fakeNotifier{err: fmt.Errorf("smtp down")}
	a.notifiers = []notifier.Notifier{fn}

	out := a.RunCycle(context.Background())

	assert.True(t, out.NotifyTried)
	assert.False(t, out.Notified)

	rows, err := a.records.Recent(context.Background(), "", 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.False(t, rows[0].NotificationSent)

	entries, err := a.alerts.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
}

func TestRunCycleUrgentBypassesGate(t *testing.T) {
	client := &fakeClient{response: `{"action":"HOLD","confidence":10,"urgent_action":true,"urgent_reason":"止损触发"}`}
	a := newTestApp(t, client, &fakeSource{})
	fn := &fakeNotifier{}
	a.notifiers = []notifier.Notifier{fn}

	out := a.RunCycle(context.Background())

	assert.True(t, out.Notified)
	assert.Len(t, fn.sent, 1)
	assert.True(t, fn.sent[0].Recommendation.UrgentAction)
}
