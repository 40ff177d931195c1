package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"alphawatch/internal/logger"
	"alphawatch/internal/market"
	"alphawatch/internal/store/alertlog"
	"alphawatch/internal/store/model"
	"alphawatch/internal/strategy"
)

// 中文说明：
// 管理端 HTTP：健康检查、分析记录/告警日志查询、K 线图表页。
// 只读接口，不提供任何改写入口。

// RecordReader 分析记录查询。
type RecordReader interface {
	Recent(ctx context.Context, instrument string, limit int) ([]model.AnalysisRecordModel, error)
}

// AlertReader 告警日志查询。
type AlertReader interface {
	Recent(ctx context.Context, limit int) ([]alertlog.Entry, error)
}

// Deps 服务依赖，由装配层注入。
type Deps struct {
	Records  RecordReader
	Alerts   AlertReader
	Strategy func() strategy.Params
	Snapshot func() (market.Snapshot, bool)
}

type Server struct {
	addr   string
	deps   Deps
	router *gin.Engine
	srv    *http.Server
}

func NewServer(addr string, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{addr: addr, deps: deps, router: router}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ts": time.Now().Unix()})
	})
	api := s.router.Group("/api")
	api.GET("/records", s.handleRecords)
	api.GET("/alerts", s.handleAlerts)
	api.GET("/strategy", s.handleStrategy)
	s.router.GET("/chart", s.handleChart)
}

func (s *Server) handleRecords(c *gin.Context) {
	if s.deps.Records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "record store unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := s.deps.Records.Recent(c.Request.Context(), c.Query("instrument"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": rows})
}

func (s *Server) handleAlerts(c *gin.Context) {
	if s.deps.Alerts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert log unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := s.deps.Alerts.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": rows})
}

func (s *Server) handleStrategy(c *gin.Context) {
	if s.deps.Strategy == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "strategy unavailable"})
		return
	}
	c.JSON(http.StatusOK, s.deps.Strategy())
}

// Start 非阻塞启动。
func (s *Server) Start() {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}
	go func() {
		logger.Infof("管理端 HTTP 监听 %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("HTTP 服务退出: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
