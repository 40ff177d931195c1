package decision

import (
	"math"

	"alphawatch/internal/logger"
	"alphawatch/internal/position"
)

// significantBandRatio 止盈止损价位变化的显著性带宽：现价的 2%。
const significantBandRatio = 0.02

// Engine 通知判定引擎。阈值来自策略配置，构造后只读。
type Engine struct {
	confidenceThreshold float64
	adjustmentThreshold float64
}

func NewEngine(confidenceThreshold, adjustmentThreshold float64) *Engine {
	return &Engine{
		confidenceThreshold: confidenceThreshold,
		adjustmentThreshold: adjustmentThreshold,
	}
}

func (e *Engine) ConfidenceThreshold() float64 { return e.confidenceThreshold }
func (e *Engine) AdjustmentThreshold() float64 { return e.adjustmentThreshold }

// ShouldNotify 按严格优先级判定是否发送通知，命中即返回：
//  1. urgent_action 无条件通知，紧急信号不受置信度门槛约束；
//  2. 置信度低于门槛一律不通知；
//  3. 开平仓类动作（BUY_LONG / BUY_SHORT / SELL）通知；
//  4. ADJUST_STOPS 仅当 adjustment_percent 存在且绝对值超过阈值才通知，
//     未量化的调整按保守处理不通知；
//  5. HOLD / WATCH 不通知。
func (e *Engine) ShouldNotify(rec Recommendation) bool {
	if rec.UrgentAction {
		return true
	}
	if rec.Confidence < e.confidenceThreshold {
		return false
	}
	if rec.Action.IsPositionChanging() {
		return true
	}
	if rec.Action == ActionAdjustStops {
		pct := rec.StopAdjustment.AdjustmentPercent
		if pct == nil {
			logger.Debugf("ADJUST_STOPS 建议缺少 adjustment_percent，不通知")
			return false
		}
		return math.Abs(*pct) > e.adjustmentThreshold
	}
	return false
}

// IsSignificantAdjustment 独立于 adjustment_percent 的第二种显著性判定：
// 新旧止盈/止损的绝对价差超过现价 2% 即视为显著。不参与 ShouldNotify
// 的门控，只用于给报告和告警正文补充标注。
func IsSignificantAdjustment(adj StopAdjustment, pos position.Position, currentPrice float64) bool {
	if currentPrice <= 0 {
		return false
	}
	threshold := currentPrice * significantBandRatio
	if adj.NewTakeProfit != nil && pos.TakeProfit != nil {
		if math.Abs(*adj.NewTakeProfit-*pos.TakeProfit) > threshold {
			return true
		}
	}
	if adj.NewStopLoss != nil && pos.StopLoss != nil {
		if math.Abs(*adj.NewStopLoss-*pos.StopLoss) > threshold {
			return true
		}
	}
	return false
}
