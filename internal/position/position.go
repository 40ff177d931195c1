package position

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction 持仓方向。
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// ParseDirection 宽松解析方向字符串，空白与大小写不敏感。
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy_long":
		return DirectionLong, nil
	case "short", "buy_short":
		return DirectionShort, nil
	default:
		return "", fmt.Errorf("unknown position direction %q", s)
	}
}

// Position 本地持仓账本中的一条在场仓位。账本由外部维护，决策核心只读快照。
type Position struct {
	Instrument string    `json:"instrument" yaml:"instrument"`
	Direction  Direction `json:"direction" yaml:"direction"`
	EntryPrice float64   `json:"entry_price" yaml:"entry_price"`
	Size       float64   `json:"size" yaml:"size"`
	Leverage   float64   `json:"leverage" yaml:"leverage"`
	// TakeProfit / StopLoss 允许缺省，缺省时永不触发
	TakeProfit *float64  `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
	StopLoss   *float64  `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	OpenTime   time.Time `json:"open_time" yaml:"open_time"`
}

// Validate 校验仓位基本不变量。
func (p Position) Validate() error {
	if strings.TrimSpace(p.Instrument) == "" {
		return fmt.Errorf("position instrument is empty")
	}
	if p.Direction != DirectionLong && p.Direction != DirectionShort {
		return fmt.Errorf("position %s: invalid direction %q", p.Instrument, p.Direction)
	}
	if p.EntryPrice <= 0 {
		return fmt.Errorf("position %s: entry_price must be positive, got %v", p.Instrument, p.EntryPrice)
	}
	if p.Size <= 0 {
		return fmt.Errorf("position %s: size must be positive, got %v", p.Instrument, p.Size)
	}
	if p.Leverage < 1 {
		return fmt.Errorf("position %s: leverage must be >= 1, got %v", p.Instrument, p.Leverage)
	}
	return nil
}

// PnLResult 单仓位的未实现盈亏，随每个周期的最新价重算，不落库。
type PnLResult struct {
	// PnLPercent 已按杠杆放大的收益率（%），PnLAmount 以计价币种计的盈亏
	PnLPercent float64
	PnLAmount  float64
}

// Rounded 输出展示/落库用的精度：收益率保留 2 位，金额保留 4 位。
// 中间计算链保持 float64 全精度，只在边界处截断。
func (r PnLResult) Rounded() PnLResult {
	return PnLResult{
		PnLPercent: decimal.NewFromFloat(r.PnLPercent).Round(2).InexactFloat64(),
		PnLAmount:  decimal.NewFromFloat(r.PnLAmount).Round(4).InexactFloat64(),
	}
}

// ComputePnL 按方向计算未实现盈亏。entry == 0 显式报错，不产出 Inf。
func ComputePnL(p Position, currentPrice float64) (PnLResult, error) {
	if p.EntryPrice == 0 {
		return PnLResult{}, fmt.Errorf("position %s: entry_price is zero", p.Instrument)
	}
	var r PnLResult
	switch p.Direction {
	case DirectionShort:
		r.PnLPercent = (p.EntryPrice - currentPrice) / p.EntryPrice * 100 * p.Leverage
		r.PnLAmount = (p.EntryPrice - currentPrice) * p.Size
	default:
		// 默认按 long 处理，方向合法性由 Validate 把关
		r.PnLPercent = (currentPrice - p.EntryPrice) / p.EntryPrice * 100 * p.Leverage
		r.PnLAmount = (currentPrice - p.EntryPrice) * p.Size
	}
	return r, nil
}

// StopTrigger 止盈/止损触发状态。
type StopTrigger int

const (
	TriggerNone StopTrigger = iota
	TriggerTakeProfit
	TriggerStopLoss
)

func (t StopTrigger) String() string {
	switch t {
	case TriggerTakeProfit:
		return "TAKE_PROFIT"
	case TriggerStopLoss:
		return "STOP_LOSS"
	default:
		return "NONE"
	}
}

// CheckStopTrigger 判断当前价是否触发止盈/止损。两条线同时越过时止盈优先。
// 缺省的价位永不触发。
func CheckStopTrigger(p Position, currentPrice float64) StopTrigger {
	switch p.Direction {
	case DirectionShort:
		if p.TakeProfit != nil && currentPrice <= *p.TakeProfit {
			return TriggerTakeProfit
		}
		if p.StopLoss != nil && currentPrice >= *p.StopLoss {
			return TriggerStopLoss
		}
	default:
		if p.TakeProfit != nil && currentPrice >= *p.TakeProfit {
			return TriggerTakeProfit
		}
		if p.StopLoss != nil && currentPrice <= *p.StopLoss {
			return TriggerStopLoss
		}
	}
	return TriggerNone
}
