package market

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

const binanceMaxCandleLimit = 1500

// BinanceConfig 描述 Binance 合约行情接口的访问方式。
type BinanceConfig struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c BinanceConfig) withDefaults() BinanceConfig {
	c.RESTBaseURL = strings.TrimSpace(c.RESTBaseURL)
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

// BinanceSource 基于 go-binance SDK 的合约行情实现，作为 OKX 之外的备选数据源。
type BinanceSource struct {
	cfg    BinanceConfig
	client *futures.Client
}

func NewBinanceSource(cfg BinanceConfig) *BinanceSource {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	if final.RESTBaseURL != "" {
		client.BaseURL = final.RESTBaseURL
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &BinanceSource{cfg: final, client: client}
}

func (s *BinanceSource) Name() string { return "binance" }

// binanceSymbol 将 OKX 风格的 ETH-USDT-SWAP 转成 Binance 的 ETHUSDT。
func binanceSymbol(instID string) string {
	sym := strings.ToUpper(strings.TrimSpace(instID))
	sym = strings.TrimSuffix(sym, "-SWAP")
	return strings.ReplaceAll(sym, "-", "")
}

func (s *BinanceSource) FetchTicker(ctx context.Context, instID string) (Ticker, error) {
	sym := binanceSymbol(instID)
	stats, err := s.client.NewListPriceChangeStatsService().Symbol(sym).Do(ctx)
	if err != nil {
		return Ticker{}, err
	}
	if len(stats) == 0 {
		return Ticker{}, fmt.Errorf("binance ticker empty for %s", sym)
	}
	st := stats[0]
	t := Ticker{
		InstID:      instID,
		Last:        parseFloat(st.LastPrice),
		High24h:     parseFloat(st.HighPrice),
		Low24h:      parseFloat(st.LowPrice),
		QuoteVol24h: parseFloat(st.QuoteVolume),
		Timestamp:   st.CloseTime,
	}
	books, err := s.client.NewListBookTickersService().Symbol(sym).Do(ctx)
	if err != nil {
		return Ticker{}, err
	}
	if len(books) > 0 {
		t.BidPrice = parseFloat(books[0].BidPrice)
		t.BidSize = parseFloat(books[0].BidQuantity)
		t.AskPrice = parseFloat(books[0].AskPrice)
		t.AskSize = parseFloat(books[0].AskQuantity)
	}
	return t, nil
}

func (s *BinanceSource) FetchOrderBook(ctx context.Context, instID string, depth int) (OrderBook, error) {
	if depth <= 0 {
		depth = 20
	}
	resp, err := s.client.NewDepthService().Symbol(binanceSymbol(instID)).Limit(depth).Do(ctx)
	if err != nil {
		return OrderBook{}, err
	}
	ob := OrderBook{Timestamp: time.Now().UnixMilli()}
	for _, lv := range resp.Bids {
		ob.Bids = append(ob.Bids, BookLevel{Price: parseFloat(lv.Price), Size: parseFloat(lv.Quantity)})
	}
	for _, lv := range resp.Asks {
		ob.Asks = append(ob.Asks, BookLevel{Price: parseFloat(lv.Price), Size: parseFloat(lv.Quantity)})
	}
	return ob, nil
}

func (s *BinanceSource) FetchCandles(ctx context.Context, instID, bar string, limit int) ([]Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > binanceMaxCandleLimit {
		limit = binanceMaxCandleLimit
	}
	interval := strings.ToLower(strings.TrimSpace(bar))
	kls, err := s.client.NewKlinesService().
		Symbol(binanceSymbol(instID)).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return out, nil
}

func (s *BinanceSource) FetchTrades(ctx context.Context, instID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.client.NewAggTradesService().Symbol(binanceSymbol(instID)).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Trade, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		// IsBuyerMaker=true 表示卖方主动成交
		side := "buy"
		if r.IsBuyerMaker {
			side = "sell"
		}
		out = append(out, Trade{
			Price:     parseFloat(r.Price),
			Size:      parseFloat(r.Quantity),
			Side:      side,
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}
