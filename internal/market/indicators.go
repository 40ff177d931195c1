package market

import (
	"github.com/markcheno/go-talib"
)

// IndicatorSummary 送入分析 prompt 的技术指标摘要，取各序列最后一个有效值。
type IndicatorSummary struct {
	SMA10   float64
	SMA20   float64
	RSI14   float64
	MACD    float64
	Signal  float64
	Hist    float64
	HasSMA  bool
	HasRSI  bool
	HasMACD bool
}

// ComputeIndicators 基于 K 线收盘价计算指标摘要。数据不足时对应 Has* 为 false，
// prompt 侧按缺失处理，不中断周期。
func ComputeIndicators(candles []Candle) IndicatorSummary {
	var sum IndicatorSummary
	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		closes = append(closes, c.Close)
	}

	if len(closes) >= 20 {
		if v, ok := lastValid(talib.Sma(closes, 10)); ok {
			sum.SMA10 = v
			if w, ok2 := lastValid(talib.Sma(closes, 20)); ok2 {
				sum.SMA20 = w
				sum.HasSMA = true
			}
		}
	}
	if len(closes) >= 15 {
		if v, ok := lastValid(talib.Rsi(closes, 14)); ok {
			sum.RSI14 = v
			sum.HasRSI = true
		}
	}
	if len(closes) >= 35 {
		macd, signal, hist := talib.Macd(closes, 12, 26, 9)
		if v, ok := lastValid(macd); ok {
			sum.MACD = v
			sum.Signal, _ = lastValid(signal)
			sum.Hist, _ = lastValid(hist)
			sum.HasMACD = true
		}
	}
	return sum
}

func lastValid(series []float64) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if v != 0 {
			return v, true
		}
	}
	return 0, false
}
