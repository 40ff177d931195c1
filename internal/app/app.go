package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alphawatch/internal/ai"
	"alphawatch/internal/config"
	"alphawatch/internal/decision"
	"alphawatch/internal/gateway/notifier"
	"alphawatch/internal/gateway/provider"
	"alphawatch/internal/logger"
	"alphawatch/internal/market"
	"alphawatch/internal/pkg/circuit"
	"alphawatch/internal/position"
	"alphawatch/internal/scheduler"
	"alphawatch/internal/store/alertlog"
	"alphawatch/internal/store/sqlite"
	"alphawatch/internal/strategy"
	transporthttp "alphawatch/internal/transport/http"
)

// 中文说明：
// App 装配全部组件并驱动固定间隔的分析循环。配置在进程启动时构造一次，
// 按引用传入各构造函数，组件内部不做全局查找。

const statsReportEvery = 10

type App struct {
	cfg      *config.Config
	registry *strategy.Registry
	source   market.Source
	analyzer *ai.Analyzer
	positions *position.FileStore
	records  *sqlite.RecordStore
	alerts   *alertlog.Store
	notifiers []notifier.Notifier
	httpSrv  *transporthttp.Server
	stats    *Stats

	// 策略参数与引擎随策略文件热更新整体替换
	mu     sync.RWMutex
	strat  strategy.Params
	eng    *decision.Engine

	snapMu   sync.RWMutex
	lastSnap market.Snapshot
	hasSnap  bool
}

// Build 按配置装配 App。
func Build(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	a := &App{cfg: cfg, stats: NewStats()}

	registry, err := strategy.NewRegistry(cfg.Strategy.File)
	if err != nil {
		return nil, fmt.Errorf("build strategy registry: %w", err)
	}
	a.registry = registry
	a.applyStrategy(registry.Select(cfg.Strategy.Preset))
	registry.OnChange(func(snap strategy.Snapshot) {
		if p, ok := snap.Presets[cfg.Strategy.Preset]; ok {
			a.applyStrategy(p)
			logger.Infof("策略参数已热更新: %s", p.Name)
		}
	})

	switch cfg.Market.Source {
	case "binance":
		a.source = market.NewBinanceSource(market.BinanceConfig{
			RESTBaseURL: cfg.Market.RESTBaseURL,
			HTTPTimeout: cfg.Market.Timeout(),
		})
	default:
		a.source = market.NewOKXSource(market.OKXConfig{
			RESTBaseURL: cfg.Market.RESTBaseURL,
			HTTPTimeout: cfg.Market.Timeout(),
		})
	}

	client := provider.NewChatClient(cfg.AI.APIURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout())
	client.Temperature = cfg.AI.Temperature
	client.MaxRetries = cfg.AI.MaxRetries
	breaker := circuit.NewCircuitBreaker("ai", cfg.AI.BreakerThreshold, cfg.AI.BreakerCooldown())
	a.analyzer = ai.NewAnalyzer(client, breaker)

	positions, err := position.NewFileStore(cfg.Position.File)
	if err != nil {
		return nil, fmt.Errorf("load position file: %w", err)
	}
	if cfg.Position.Watch {
		if err := positions.Watch(); err != nil {
			return nil, fmt.Errorf("watch position file: %w", err)
		}
	}
	a.positions = positions

	records, err := sqlite.NewRecordStore(cfg.Store.RecordsDB)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	a.records = records

	alerts, err := alertlog.New(cfg.Store.AlertLogDB)
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}
	a.alerts = alerts

	if cfg.Notify.Email.Enabled {
		a.notifiers = append(a.notifiers, notifier.NewEmail(notifier.EmailConfig{
			Host:     cfg.Notify.Email.Host,
			Port:     cfg.Notify.Email.Port,
			Username: cfg.Notify.Email.Username,
			Password: cfg.Notify.Email.Password,
			From:     cfg.Notify.Email.From,
			To:       cfg.Notify.Email.To,
		}))
	}
	if cfg.Notify.Telegram.Enabled {
		a.notifiers = append(a.notifiers, notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
	}

	a.httpSrv = transporthttp.NewServer(cfg.App.HTTPAddr, transporthttp.Deps{
		Records:  records,
		Alerts:   alerts,
		Strategy: a.params,
		Snapshot: a.lastSnapshot,
	})
	return a, nil
}

func (a *App) applyStrategy(p strategy.Params) {
	merged := a.cfg.Strategy.Overrides.Apply(p)
	a.mu.Lock()
	a.strat = merged
	a.eng = decision.NewEngine(merged.ConfidenceThreshold, merged.AdjustmentThreshold)
	a.mu.Unlock()
}

func (a *App) params() strategy.Params {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.strat
}

func (a *App) engine() *decision.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eng
}

func (a *App) setLastSnapshot(s market.Snapshot) {
	a.snapMu.Lock()
	a.lastSnap = s
	a.hasSnap = true
	a.snapMu.Unlock()
}

func (a *App) lastSnapshot() (market.Snapshot, bool) {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.lastSnap, a.hasSnap
}

// Run 阻塞运行分析循环，ctx 取消后做统计汇总与收尾。
// 分析间隔取自启动时选定的策略；策略热更新只替换阈值，不改变循环节奏。
func (a *App) Run(ctx context.Context) error {
	p := a.params()
	logger.Infof("alphawatch 启动: inst=%s source=%s strategy=%s interval=%s",
		a.cfg.Market.InstID, a.source.Name(), p.Name, p.AnalysisInterval)
	a.httpSrv.Start()

	err := scheduler.RunEvery(ctx, p.Interval(), func(cctx context.Context) {
		out := a.RunCycle(cctx)
		a.stats.Record(out)
		logger.InfoBlock(buildReport(out))
		if n := a.stats.Cycles(); n > 0 && n%statsReportEvery == 0 {
			logger.InfoBlock(a.stats.Summary())
		}
	})

	logger.InfoBlock(a.stats.Summary())
	a.shutdown()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP 关闭异常: %v", err)
	}
	if err := a.positions.Close(); err != nil {
		logger.Warnf("持仓监听关闭异常: %v", err)
	}
	if err := a.records.Close(); err != nil {
		logger.Warnf("记录库关闭异常: %v", err)
	}
	if err := a.alerts.Close(); err != nil {
		logger.Warnf("告警日志关闭异常: %v", err)
	}
	logger.Infof("alphawatch 已退出")
}
