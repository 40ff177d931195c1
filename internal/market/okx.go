package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"alphawatch/internal/logger"
	"alphawatch/internal/scheduler"
)

const (
	defaultOKXREST    = "https://www.okx.com"
	okxMaxCandleLimit = 300
)

// OKXConfig 描述 OKX 公共行情接口的访问方式。
type OKXConfig struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c OKXConfig) withDefaults() OKXConfig {
	if strings.TrimSpace(c.RESTBaseURL) == "" {
		c.RESTBaseURL = defaultOKXREST
	}
	c.RESTBaseURL = strings.TrimRight(strings.TrimSpace(c.RESTBaseURL), "/")
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

// OKXSource 基于 OKX v5 公共 REST 接口实现 Source，仅依赖公开行情，无需密钥。
type OKXSource struct {
	cfg    OKXConfig
	client *http.Client
}

func NewOKXSource(cfg OKXConfig) *OKXSource {
	final := cfg.withDefaults()
	return &OKXSource{
		cfg:    final,
		client: &http.Client{Timeout: final.HTTPTimeout},
	}
}

func (s *OKXSource) Name() string { return "okx" }

// okxEnvelope OKX v5 响应统一包裹：code!="0" 即业务错误。
type okxEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (s *OKXSource) get(ctx context.Context, path string, query url.Values, out any) error {
	u := s.cfg.RESTBaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("okx status=%d path=%s", resp.StatusCode, path)
	}
	var env okxEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("okx decode failed: %w", err)
	}
	if env.Code != "0" {
		return fmt.Errorf("okx code=%s msg=%s", env.Code, env.Msg)
	}
	return json.Unmarshal(env.Data, out)
}

func (s *OKXSource) FetchTicker(ctx context.Context, instID string) (Ticker, error) {
	var rows []struct {
		InstID    string `json:"instId"`
		Last      string `json:"last"`
		High24h   string `json:"high24h"`
		Low24h    string `json:"low24h"`
		BidPx     string `json:"bidPx"`
		BidSz     string `json:"bidSz"`
		AskPx     string `json:"askPx"`
		AskSz     string `json:"askSz"`
		VolCcy24h string `json:"volCcy24h"`
		TS        string `json:"ts"`
	}
	q := url.Values{"instId": {instID}}
	if err := s.get(ctx, "/api/v5/market/ticker", q, &rows); err != nil {
		return Ticker{}, err
	}
	if len(rows) == 0 {
		return Ticker{}, fmt.Errorf("okx ticker empty for %s", instID)
	}
	r := rows[0]
	return Ticker{
		InstID:      r.InstID,
		Last:        parseFloat(r.Last),
		High24h:     parseFloat(r.High24h),
		Low24h:      parseFloat(r.Low24h),
		BidPrice:    parseFloat(r.BidPx),
		BidSize:     parseFloat(r.BidSz),
		AskPrice:    parseFloat(r.AskPx),
		AskSize:     parseFloat(r.AskSz),
		QuoteVol24h: parseFloat(r.VolCcy24h),
		Timestamp:   parseInt(r.TS),
	}, nil
}

func (s *OKXSource) FetchOrderBook(ctx context.Context, instID string, depth int) (OrderBook, error) {
	if depth <= 0 {
		depth = 20
	}
	var rows []struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
		TS   string     `json:"ts"`
	}
	q := url.Values{"instId": {instID}, "sz": {strconv.Itoa(depth)}}
	if err := s.get(ctx, "/api/v5/market/books", q, &rows); err != nil {
		return OrderBook{}, err
	}
	if len(rows) == 0 {
		return OrderBook{}, fmt.Errorf("okx orderbook empty for %s", instID)
	}
	return OrderBook{
		Bids:      convertBookLevels(rows[0].Bids),
		Asks:      convertBookLevels(rows[0].Asks),
		Timestamp: parseInt(rows[0].TS),
	}, nil
}

func (s *OKXSource) FetchCandles(ctx context.Context, instID, bar string, limit int) ([]Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > okxMaxCandleLimit {
		limit = okxMaxCandleLimit
	}
	var rows [][]string
	q := url.Values{"instId": {instID}, "bar": {bar}, "limit": {strconv.Itoa(limit)}}
	if err := s.get(ctx, "/api/v5/market/candles", q, &rows); err != nil {
		logger.Errorf("[okx] fetch candles failed %s %s limit=%d: %v", instID, bar, limit, err)
		return nil, err
	}
	dur, _ := scheduler.ParseIntervalDuration(bar)
	// OKX 返回新 → 旧，统一翻转为旧 → 新
	out := make([]Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		openTime := parseInt(row[0])
		closeTime := openTime
		if dur > 0 {
			closeTime = openTime + dur.Milliseconds()
		}
		out = append(out, Candle{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      parseFloat(row[1]),
			High:      parseFloat(row[2]),
			Low:       parseFloat(row[3]),
			Close:     parseFloat(row[4]),
			Volume:    parseFloat(row[5]),
		})
	}
	return out, nil
}

func (s *OKXSource) FetchTrades(ctx context.Context, instID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []struct {
		Px   string `json:"px"`
		Sz   string `json:"sz"`
		Side string `json:"side"`
		TS   string `json:"ts"`
	}
	q := url.Values{"instId": {instID}, "limit": {strconv.Itoa(limit)}}
	if err := s.get(ctx, "/api/v5/market/trades", q, &rows); err != nil {
		return nil, err
	}
	out := make([]Trade, 0, len(rows))
	for _, r := range rows {
		out = append(out, Trade{
			Price:     parseFloat(r.Px),
			Size:      parseFloat(r.Sz),
			Side:      strings.ToLower(r.Side),
			Timestamp: parseInt(r.TS),
		})
	}
	return out, nil
}

func convertBookLevels(rows [][]string) []BookLevel {
	out := make([]BookLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		out = append(out, BookLevel{Price: parseFloat(row[0]), Size: parseFloat(row[1])})
	}
	return out
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}

func parseInt(v string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return n
}
