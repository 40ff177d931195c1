package ai

import (
	"fmt"
	"strings"
	"time"

	"alphawatch/internal/market"
	"alphawatch/internal/position"
	"alphawatch/internal/strategy"
)

// 中文说明：
// prompt 构建：把行情快照、技术指标、持仓上下文和策略参数拼装成
// 发给分析模型的 system / user 两段文本。输出契约固定为单个 JSON 对象。

const systemPromptTemplate = `你是一名加密货币合约交易分析师。基于给出的市场数据与持仓状态，输出唯一一个 JSON 对象（不要输出多余文字），字段如下：
{
  "action": "%s",
  "confidence": 0-100 的数字,
  "analysis": "市场分析",
  "reasoning": "给出该建议的理由",
  "support_levels": [数字数组],
  "resistance_levels": [数字数组],
  "stop_adjustment": {
    "should_adjust": true/false,
    "new_take_profit": 数字或 null,
    "new_stop_loss": 数字或 null,
    "adjustment_percent": 数字或 null,
    "reason": "调整理由"
  },
  "urgent_action": true/false,
  "urgent_reason": "紧急原因，无则空字符串"
}
action 只能取给出的候选值之一。没有把握时选 HOLD 或 WATCH 并如实给出较低的 confidence。`

// BuildSystemPrompt 按是否有在场持仓限定候选动作。
func BuildSystemPrompt(hasPosition bool) string {
	actions := "BUY_LONG | BUY_SHORT | HOLD | WATCH"
	if hasPosition {
		actions = "SELL | ADJUST_STOPS | HOLD | WATCH"
	}
	return fmt.Sprintf(systemPromptTemplate, actions)
}

// PromptInput 一次分析所需的全部上下文。
type PromptInput struct {
	Snapshot   market.Snapshot
	Indicators market.IndicatorSummary
	Positions  []position.Position
	Strategy   strategy.Params
}

// BuildUserPrompt 渲染 user prompt。
func BuildUserPrompt(in PromptInput) string {
	var b strings.Builder
	snap := in.Snapshot
	price := snap.LastPrice()

	fmt.Fprintf(&b, "## 市场快照 %s\n", snap.InstID)
	fmt.Fprintf(&b, "时间: %s\n", snap.CapturedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "最新价: %.4f\n", price)
	fmt.Fprintf(&b, "24h 高/低: %.4f / %.4f\n", snap.Ticker.High24h, snap.Ticker.Low24h)
	fmt.Fprintf(&b, "买一: %.4f (%.4f)  卖一: %.4f (%.4f)\n",
		snap.Ticker.BidPrice, snap.Ticker.BidSize, snap.Ticker.AskPrice, snap.Ticker.AskSize)
	fmt.Fprintf(&b, "24h 成交额: %.2f\n", snap.Ticker.QuoteVol24h)

	writeOrderBook(&b, snap.OrderBook)
	writeIndicators(&b, in.Indicators, in.Strategy)
	writeTakerFlow(&b, snap)
	writeCandles(&b, snap.Candles)
	writePositions(&b, in.Positions, price)
	writeStrategy(&b, in.Strategy)

	return b.String()
}

func writeOrderBook(b *strings.Builder, ob market.OrderBook) {
	b.WriteString("\n## 盘口深度（前 5 档）\n")
	n := 5
	for i := 0; i < n && i < len(ob.Asks); i++ {
		fmt.Fprintf(b, "卖%d: %.4f x %.4f\n", i+1, ob.Asks[i].Price, ob.Asks[i].Size)
	}
	for i := 0; i < n && i < len(ob.Bids); i++ {
		fmt.Fprintf(b, "买%d: %.4f x %.4f\n", i+1, ob.Bids[i].Price, ob.Bids[i].Size)
	}
}

func writeIndicators(b *strings.Builder, ind market.IndicatorSummary, strat strategy.Params) {
	b.WriteString("\n## 技术指标\n")
	if ind.HasSMA {
		fmt.Fprintf(b, "SMA10: %.4f  SMA20: %.4f\n", ind.SMA10, ind.SMA20)
	} else {
		b.WriteString("SMA: 数据不足\n")
	}
	if ind.HasRSI {
		note := ""
		if ind.RSI14 <= strat.RSIOversold {
			note = fmt.Sprintf("（低于超卖线 %.0f）", strat.RSIOversold)
		} else if ind.RSI14 >= strat.RSIOverbought {
			note = fmt.Sprintf("（高于超买线 %.0f）", strat.RSIOverbought)
		}
		fmt.Fprintf(b, "RSI14: %.2f%s\n", ind.RSI14, note)
	} else {
		b.WriteString("RSI: 数据不足\n")
	}
	if ind.HasMACD {
		fmt.Fprintf(b, "MACD: %.4f  Signal: %.4f  Hist: %.4f\n", ind.MACD, ind.Signal, ind.Hist)
	}
}

func writeTakerFlow(b *strings.Builder, snap market.Snapshot) {
	buy, sell := snap.TakerVolumes(50)
	if buy == 0 && sell == 0 {
		return
	}
	b.WriteString("\n## 近期成交\n")
	fmt.Fprintf(b, "主动买量: %.4f  主动卖量: %.4f\n", buy, sell)
}

func writeCandles(b *strings.Builder, candles []market.Candle) {
	if len(candles) == 0 {
		return
	}
	// 只给最近 10 根，够模型判断短期形态
	n := 10
	if len(candles) < n {
		n = len(candles)
	}
	b.WriteString("\n## 最近 K 线（旧 → 新）\n")
	for _, c := range candles[len(candles)-n:] {
		fmt.Fprintf(b, "O:%.4f H:%.4f L:%.4f C:%.4f V:%.2f\n", c.Open, c.High, c.Low, c.Close, c.Volume)
	}
}

func writePositions(b *strings.Builder, positions []position.Position, price float64) {
	b.WriteString("\n## 持仓状态\n")
	if len(positions) == 0 {
		b.WriteString("当前无持仓。\n")
		return
	}
	for _, p := range positions {
		fmt.Fprintf(b, "%s %s 开仓价 %.4f 数量 %.4f 杠杆 %.0fx\n",
			p.Instrument, p.Direction, p.EntryPrice, p.Size, p.Leverage)
		if pnl, err := position.ComputePnL(p, price); err == nil {
			r := pnl.Rounded()
			fmt.Fprintf(b, "  未实现盈亏: %.2f%% (%.4f)\n", r.PnLPercent, r.PnLAmount)
		}
		if p.TakeProfit != nil {
			fmt.Fprintf(b, "  止盈: %.4f\n", *p.TakeProfit)
		}
		if p.StopLoss != nil {
			fmt.Fprintf(b, "  止损: %.4f\n", *p.StopLoss)
		}
		if trig := position.CheckStopTrigger(p, price); trig != position.TriggerNone {
			fmt.Fprintf(b, "  注意：当前价已触发 %s 价位\n", trig)
		}
	}
}

func writeStrategy(b *strings.Builder, strat strategy.Params) {
	b.WriteString("\n## 策略参数\n")
	fmt.Fprintf(b, "策略: %s  周期: %s\n", strat.Name, strat.Timeframe)
	fmt.Fprintf(b, "目标盈利: %.1f%%  止损: %.1f%%\n", strat.ProfitTargetPct, strat.StopLossPct)
}
