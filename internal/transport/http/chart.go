package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleChart 渲染最近一次行情快照的 K 线与分析置信度曲线。
func (s *Server) handleChart(c *gin.Context) {
	page := components.NewPage()
	page.PageTitle = "alphawatch"

	if s.deps.Snapshot != nil {
		if snap, ok := s.deps.Snapshot(); ok && len(snap.Candles) > 0 {
			kline := charts.NewKLine()
			kline.SetGlobalOptions(
				charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s K线", snap.InstID)}),
				charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
				charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
				charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
			)
			xAxis := make([]string, 0, len(snap.Candles))
			series := make([]opts.KlineData, 0, len(snap.Candles))
			for _, cd := range snap.Candles {
				xAxis = append(xAxis, time.UnixMilli(cd.OpenTime).Format("01-02 15:04"))
				series = append(series, opts.KlineData{Value: [4]float64{cd.Open, cd.Close, cd.Low, cd.High}})
			}
			kline.SetXAxis(xAxis)
			kline.AddSeries("price", series)
			page.AddCharts(kline)
		}
	}

	if s.deps.Records != nil {
		rows, err := s.deps.Records.Recent(c.Request.Context(), "", 100)
		if err == nil && len(rows) > 0 {
			line := charts.NewLine()
			line.SetGlobalOptions(
				charts.WithTitleOpts(opts.Title{Title: "分析置信度"}),
				charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			)
			// Recent 返回新 → 旧，翻转成时间正序
			xAxis := make([]string, 0, len(rows))
			conf := make([]opts.LineData, 0, len(rows))
			for i := len(rows) - 1; i >= 0; i-- {
				r := rows[i]
				xAxis = append(xAxis, time.Unix(r.CreatedAtUnix, 0).Format("01-02 15:04"))
				conf = append(conf, opts.LineData{Value: r.Confidence, Name: r.Action})
			}
			line.SetXAxis(xAxis)
			line.AddSeries("confidence", conf)
			page.AddCharts(line)
		}
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Writer); err != nil {
		c.String(http.StatusInternalServerError, "render chart failed: %v", err)
	}
}
