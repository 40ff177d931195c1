package app

import (
	"context"
	"fmt"
	"time"

	"alphawatch/internal/ai"
	"alphawatch/internal/decision"
	"alphawatch/internal/gateway/notifier"
	"alphawatch/internal/logger"
	"alphawatch/internal/market"
	"alphawatch/internal/position"
	"alphawatch/internal/store/alertlog"
)

// 中文说明：
// 单周期编排：FETCH → ANALYZE → NORMALIZE → PERSIST → DECIDE → [NOTIFY] → REPORT。
// FETCH/ANALYZE 失败在周期边界吞掉，本周期产出"跳过"，外层轮询不中断；
// 已落库的记录不随后续失败回滚，通知失败只体现在 notification_sent 标记上。

// CycleOutcome 一个周期的最终结果。
type CycleOutcome struct {
	Skipped        bool
	SkipReason     string
	Degraded       bool
	Instrument     string
	Price          float64
	RecordID       string
	Recommendation decision.Recommendation
	Positions      []position.Position
	Significant    bool
	Notified       bool
	NotifyTried    bool
	Elapsed        time.Duration
}

// RunCycle 执行一个完整分析周期。周期内任何未预期 panic 也在此兜底，
// 只记日志不外抛。
func (a *App) RunCycle(ctx context.Context) (out CycleOutcome) {
	start := time.Now()
	out.Instrument = a.cfg.Market.InstID
	defer func() {
		out.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			logger.Errorf("分析周期 panic: %v", r)
			out.Skipped = true
			out.SkipReason = fmt.Sprintf("panic: %v", r)
		}
	}()

	// FETCH
	snap, err := market.Collect(ctx, a.source, market.SnapshotSpec{
		InstID:        a.cfg.Market.InstID,
		Bar:           a.params().Timeframe,
		CandleLimit:   a.cfg.Market.CandleLimit,
		OrderBookSize: a.cfg.Market.OrderBookSize,
		TradesLimit:   a.cfg.Market.TradesLimit,
	})
	if err != nil {
		logger.Errorf("行情抓取失败，跳过本周期: %v", err)
		out.Skipped = true
		out.SkipReason = err.Error()
		return out
	}
	a.setLastSnapshot(snap)
	out.Price = snap.LastPrice()

	positions := a.positions.ByInstrument(a.cfg.Market.InstID)
	out.Positions = positions

	// ANALYZE + NORMALIZE（解析失败在 decision.Parse 内部降级）
	res := a.analyzer.Analyze(ctx, ai.PromptInput{
		Snapshot:   snap,
		Indicators: market.ComputeIndicators(snap.Candles),
		Positions:  positions,
		Strategy:   a.params(),
	})
	out.Recommendation = res.Recommendation
	out.Degraded = res.Degraded

	// PERSIST：落库失败只影响回写标记，不中断决策
	recordID, err := a.records.Save(ctx, a.cfg.Market.InstID, a.params().Name, snap, res)
	if err != nil {
		logger.Errorf("分析记录落库失败: %v", err)
	} else {
		out.RecordID = recordID
	}

	// DECIDE：策略阈值判定是否通知；2% 价位带只做显著性标注
	notify := a.engine().ShouldNotify(res.Recommendation)
	out.Significant = a.anySignificantAdjustment(res.Recommendation, positions, snap.LastPrice())

	// NOTIFY
	if notify && len(a.notifiers) > 0 {
		out.NotifyTried = true
		out.Notified = a.dispatchAlert(ctx, snap, res.Recommendation, positions, out.Significant)
		if out.Notified && out.RecordID != "" {
			if err := a.records.MarkNotificationSent(ctx, out.RecordID); err != nil {
				logger.Errorf("回写 notification_sent 失败: %v", err)
			}
		}
	}

	return out
}

func (a *App) anySignificantAdjustment(rec decision.Recommendation, positions []position.Position, price float64) bool {
	if rec.Action != decision.ActionAdjustStops {
		return false
	}
	for _, p := range positions {
		if decision.IsSignificantAdjustment(rec.StopAdjustment, p, price) {
			return true
		}
	}
	return false
}

// dispatchAlert 逐通道发送并写告警日志，任一通道成功即视为已通知。
func (a *App) dispatchAlert(ctx context.Context, snap market.Snapshot, rec decision.Recommendation, positions []position.Position, significant bool) bool {
	alert := notifier.Alert{
		Instrument:            a.cfg.Market.InstID,
		Price:                 snap.LastPrice(),
		Recommendation:        rec,
		Positions:             positions,
		SignificantAdjustment: significant,
		Strategy:              a.params().Name,
		Time:                  time.Now(),
	}
	msg := notifier.BuildAlertMessage(alert).RenderMarkdown()

	anySuccess := false
	for _, n := range a.notifiers {
		err := n.Send(alert)
		if err != nil {
			logger.Errorf("通知发送失败 channel=%s: %v", n.Name(), err)
		} else {
			anySuccess = true
			logger.Infof("通知已发送 channel=%s action=%s", n.Name(), rec.Action)
		}
		if a.alerts != nil {
			entry := alertlog.Entry{
				Instrument: alert.Instrument,
				Action:     string(rec.Action),
				Confidence: rec.Confidence,
				Price:      alert.Price,
				Channel:    n.Name(),
				Message:    msg,
				Success:    err == nil,
			}
			if logErr := a.alerts.Append(ctx, entry); logErr != nil {
				logger.Errorf("告警日志写入失败: %v", logErr)
			}
		}
	}
	return anySuccess
}
