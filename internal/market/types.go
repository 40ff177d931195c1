package market

import "time"

type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades"`
}

// Ticker 单一合约的实时行情快照。
type Ticker struct {
	InstID      string  `json:"inst_id"`
	Last        float64 `json:"last"`
	High24h     float64 `json:"high_24h"`
	Low24h      float64 `json:"low_24h"`
	BidPrice    float64 `json:"bid_price"`
	BidSize     float64 `json:"bid_size"`
	AskPrice    float64 `json:"ask_price"`
	AskSize     float64 `json:"ask_size"`
	QuoteVol24h float64 `json:"quote_vol_24h"`
	Timestamp   int64   `json:"ts"`
}

type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

type OrderBook struct {
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp int64       `json:"ts"`
}

type Trade struct {
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Side      string  `json:"side"` // buy / sell（taker 方向）
	Timestamp int64   `json:"ts"`
}

// Snapshot 一次分析周期所需的全部市场数据。
type Snapshot struct {
	InstID     string    `json:"inst_id"`
	Ticker     Ticker    `json:"ticker"`
	OrderBook  OrderBook `json:"orderbook"`
	Candles    []Candle  `json:"candles"` // 旧 → 新
	Trades     []Trade   `json:"trades"`
	CapturedAt time.Time `json:"captured_at"`
}

func (s Snapshot) LastPrice() float64 {
	return s.Ticker.Last
}

// TakerVolumes 统计最近成交中买/卖方主动吃单量（最多取前 limit 条）。
func (s Snapshot) TakerVolumes(limit int) (buy, sell float64) {
	trades := s.Trades
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	for _, t := range trades {
		switch t.Side {
		case "buy":
			buy += t.Size
		case "sell":
			sell += t.Size
		}
	}
	return buy, sell
}
