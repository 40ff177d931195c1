package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"alphawatch/internal/decision"
	"alphawatch/internal/position"
)

const maxStructuredMessageLen = 3800

// MessageSection 表示通知中的一个段落。
type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage 描述统一格式的告警推送，同一份结构渲染成
// Markdown（Telegram）或 HTML（邮件）。
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Footer    string
	Timestamp time.Time
}

// BuildAlertMessage 把告警载荷整理成统一的段落结构。
func BuildAlertMessage(a Alert) StructuredMessage {
	rec := a.Recommendation

	core := MessageSection{Title: "建议"}
	core.Lines = append(core.Lines,
		fmt.Sprintf("动作: %s", rec.Action),
		fmt.Sprintf("置信度: %.0f", rec.Confidence),
		fmt.Sprintf("现价: %.4f", a.Price),
	)
	if a.Strategy != "" {
		core.Lines = append(core.Lines, fmt.Sprintf("策略: %s", a.Strategy))
	}

	levels := MessageSection{Title: "关键价位"}
	if len(rec.SupportLevels) > 0 {
		levels.Lines = append(levels.Lines, "支撑: "+joinLevels(rec.SupportLevels))
	}
	if len(rec.ResistanceLevels) > 0 {
		levels.Lines = append(levels.Lines, "阻力: "+joinLevels(rec.ResistanceLevels))
	}

	adj := MessageSection{Title: "止盈止损调整"}
	if rec.StopAdjustment.ShouldAdjust || rec.Action == decision.ActionAdjustStops {
		if rec.StopAdjustment.NewTakeProfit != nil {
			adj.Lines = append(adj.Lines, fmt.Sprintf("新止盈: %.4f", *rec.StopAdjustment.NewTakeProfit))
		}
		if rec.StopAdjustment.NewStopLoss != nil {
			adj.Lines = append(adj.Lines, fmt.Sprintf("新止损: %.4f", *rec.StopAdjustment.NewStopLoss))
		}
		if rec.StopAdjustment.AdjustmentPercent != nil {
			adj.Lines = append(adj.Lines, fmt.Sprintf("调整幅度: %.2f%%", *rec.StopAdjustment.AdjustmentPercent))
		}
		if rec.StopAdjustment.Reason != "" {
			adj.Lines = append(adj.Lines, "理由: "+rec.StopAdjustment.Reason)
		}
		if a.SignificantAdjustment {
			adj.Lines = append(adj.Lines, "价位变化超过现价 2%，属显著调整")
		}
	}

	pos := MessageSection{Title: "持仓"}
	for _, p := range a.Positions {
		line := fmt.Sprintf("%s %s @ %.4f x%.0f", p.Instrument, p.Direction, p.EntryPrice, p.Leverage)
		if pnl, err := position.ComputePnL(p, a.Price); err == nil {
			r := pnl.Rounded()
			line += fmt.Sprintf(" 盈亏 %.2f%%", r.PnLPercent)
		}
		pos.Lines = append(pos.Lines, line)
	}

	urgent := MessageSection{Title: "紧急"}
	if rec.UrgentAction {
		reason := rec.UrgentReason
		if reason == "" {
			reason = "上游标记为紧急"
		}
		urgent.Lines = append(urgent.Lines, reason)
	}

	analysis := MessageSection{Title: "分析"}
	if rec.Analysis != "" {
		analysis.Lines = append(analysis.Lines, rec.Analysis)
	}
	if rec.Reasoning != "" && rec.Reasoning != rec.Analysis {
		analysis.Lines = append(analysis.Lines, rec.Reasoning)
	}

	icon := "📊"
	if rec.UrgentAction {
		icon = "🚨"
	}
	return StructuredMessage{
		Icon:      icon,
		Title:     fmt.Sprintf("%s 交易提醒", a.Instrument),
		Sections:  []MessageSection{core, urgent, levels, adj, pos, analysis},
		Timestamp: a.Time,
	}
}

func joinLevels(levels []float64) string {
	parts := make([]string, 0, len(levels))
	for _, v := range levels {
		parts = append(parts, fmt.Sprintf("%.4f", v))
	}
	return strings.Join(parts, " / ")
}

// RenderMarkdown 生成 Markdown 文本，自动裁剪长度。
func (m StructuredMessage) RenderMarkdown() string {
	var b strings.Builder
	header := strings.TrimSpace(strings.TrimSpace(m.Icon + " " + m.Title))
	if header != "" {
		b.WriteString(header + "\n\n")
	}
	if block := renderSections(m.Sections); block != "" {
		b.WriteString(block)
	}
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString(sanitize(footer))
		b.WriteString("\n")
	}
	if !m.Timestamp.IsZero() {
		b.WriteString("时间：" + m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	body := strings.TrimSpace(b.String())
	if len(body) > maxStructuredMessageLen {
		body = body[:maxStructuredMessageLen] + "..."
	}
	return body
}

// RenderHTML 生成邮件正文。
func (m StructuredMessage) RenderHTML() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	header := strings.TrimSpace(m.Icon + " " + m.Title)
	if header != "" {
		fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(header))
	}
	for _, sec := range m.Sections {
		lines := sanitizeLines(sec.Lines)
		if len(lines) == 0 {
			continue
		}
		if title := strings.TrimSpace(sec.Title); title != "" {
			fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(title))
		}
		b.WriteString("<ul>")
		for _, line := range lines {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(line))
		}
		b.WriteString("</ul>")
	}
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(footer))
	}
	if !m.Timestamp.IsZero() {
		fmt.Fprintf(&b, "<p>时间：%s</p>", m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	b.WriteString("</body></html>")
	return b.String()
}

func renderSections(secs []MessageSection) string {
	hasContent := false
	for _, sec := range secs {
		if len(sanitizeLines(sec.Lines)) > 0 {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return ""
	}
	var b strings.Builder
	b.WriteString("```\n")
	for idx, sec := range secs {
		lines := sanitizeLines(sec.Lines)
		if len(lines) == 0 {
			continue
		}
		title := strings.TrimSpace(sec.Title)
		if title != "" {
			b.WriteString(sanitize(title))
			b.WriteString("\n")
		}
		for _, line := range lines {
			b.WriteString("- ")
			b.WriteString(sanitize(line))
			b.WriteString("\n")
		}
		if idx != len(secs)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("```\n\n")
	return b.String()
}

func sanitizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if text := strings.TrimSpace(line); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "```", "'''")
	return s
}
