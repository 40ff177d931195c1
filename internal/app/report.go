package app

import (
	"fmt"
	"strings"
	"time"

	"alphawatch/internal/decision"
	"alphawatch/internal/position"
)

// buildReport 渲染单周期的控制台报告。
func buildReport(out CycleOutcome) string {
	var b strings.Builder
	b.WriteString("---------- 周期报告 ----------\n")
	if out.Skipped {
		fmt.Fprintf(&b, "⏭ %s 周期跳过: %s\n", out.Instrument, out.SkipReason)
		fmt.Fprintf(&b, "耗时: %s\n", out.Elapsed.Round(10*time.Millisecond))
		return b.String()
	}

	rec := out.Recommendation
	fmt.Fprintf(&b, "%s %s 现价 %.4f\n", actionEmoji(rec.Action), out.Instrument, out.Price)
	fmt.Fprintf(&b, "建议: %s  置信度: %.0f\n", rec.Action, rec.Confidence)
	if out.Degraded {
		b.WriteString("⚠️ 本周期为降级结果（上游调用失败）\n")
	}
	if rec.UrgentAction {
		fmt.Fprintf(&b, "🚨 紧急: %s\n", rec.UrgentReason)
	}
	if out.Significant {
		b.WriteString("📐 止盈止损变化超过现价 2%，属显著调整\n")
	}
	for _, p := range out.Positions {
		if pnl, err := position.ComputePnL(p, out.Price); err == nil {
			r := pnl.Rounded()
			fmt.Fprintf(&b, "持仓 %s %s: %.2f%% (%.4f)\n", p.Instrument, p.Direction, r.PnLPercent, r.PnLAmount)
		}
	}
	switch {
	case out.Notified:
		b.WriteString("📣 通知已发送\n")
	case out.NotifyTried:
		b.WriteString("📪 通知发送失败（记录保留 notification_sent=false）\n")
	default:
		b.WriteString("🔕 未触发通知\n")
	}
	if out.RecordID != "" {
		fmt.Fprintf(&b, "记录: %s\n", out.RecordID)
	}
	fmt.Fprintf(&b, "耗时: %s\n", out.Elapsed.Round(10*time.Millisecond))
	return b.String()
}

func actionEmoji(a decision.Action) string {
	switch a {
	case decision.ActionBuyLong:
		return "🟢"
	case decision.ActionBuyShort:
		return "🔴"
	case decision.ActionSell:
		return "💰"
	case decision.ActionAdjustStops:
		return "🛠"
	case decision.ActionWatch:
		return "👀"
	default:
		return "⏸"
	}
}
