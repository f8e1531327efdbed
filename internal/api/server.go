package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"soundcheck/internal/config"
	"soundcheck/internal/errors"
	"soundcheck/internal/history"
	"soundcheck/internal/logging"
	"soundcheck/internal/pipeline"
	"soundcheck/internal/provider"
	"soundcheck/internal/validation"
	"soundcheck/pkg/models"
)

// Server API服务器
// 对外暴露存储槽校验与承诺历史查询接口
type Server struct {
	config  *config.Config
	store   *history.Store
	logger  *logrus.Logger
	slogger *logging.StructuredLogger
	server  *http.Server
	port    int
}

// VerifyRequest 校验请求
type VerifyRequest struct {
	Address  string `json:"address" binding:"required"`
	Slot     string `json:"slot" binding:"required"`
	BlockRef string `json:"block_ref"`
}

// NewServer 创建API服务器
// store可为nil，此时历史接口返回404
func NewServer(cfg *config.Config, store *history.Store, logger *logrus.Logger, port int) (*Server, error) {
	slogger, err := logging.NewStructuredLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("创建结构化日志失败: %w", err)
	}

	return &Server{
		config:  cfg,
		store:   store,
		logger:  logger,
		slogger: slogger,
		port:    port,
	}, nil
}

// Start 启动API服务器
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// CORS中间件
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: router,
	}

	s.logger.Infof("API服务器启动在端口 %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止API服务器
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", s.healthCheck)

	api := router.Group("/api/v1")
	{
		// 校验
		api.POST("/verify", s.verify)

		// 承诺历史
		api.GET("/history", s.getHistory)
		api.GET("/history/stats", s.getHistoryStats)

		// 节点配置（只读）
		api.GET("/providers", s.getProviders)
	}
}

// healthCheck 健康检查
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "soundcheck-api",
	})
}

// verify 执行一次存储槽校验
// 交叉不一致返回200并在verdict中体现；输入无效返回400；
// 节点连接或解析失败返回502
func (s *Server) verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := validation.ParseAddress(req.Address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := validation.ParseSlot(req.Slot)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, err := validation.ParseBlockReference(req.BlockRef)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plog := logging.NewPipelineLogger(s.slogger, req.Address, slot.String())
	plog.Info("收到校验请求", "block_ref", ref.String(), "remote", c.ClientIP())

	primary := provider.NewProvider(s.config.Providers.Primary, s.logger)
	var secondary pipeline.Node
	if s.config.Providers.Secondary != nil {
		secondary = provider.NewProvider(s.config.Providers.Secondary, s.logger)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	runner := pipeline.NewRunner(s.logger)
	result, err := runner.Run(ctx, primary, secondary, req.Address, slot, ref)
	if err != nil {
		plog.Error("校验执行失败", "error", err.Error())
		status := http.StatusInternalServerError
		if errors.IsConnectivity(err) || errors.IsType(err, errors.ErrorTypeResolution) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	report := &models.VerificationReport{CreatedAt: time.Now()}
	for i := range result.Results() {
		r := result.Results()[i]
		report.Observations = append(report.Observations, models.NewObservationReport(&r))
	}
	if crossChecked, ok := result.(*pipeline.CrossCheckedResult); ok {
		report.Verdict = models.NewVerdictReport(crossChecked.Verdict)
		plog.Info("交叉校验完成", "overall", crossChecked.Verdict.Overall())
	}

	if s.store != nil {
		for i := range result.Results() {
			r := result.Results()[i]
			drifted, err := s.store.Record(&r)
			if err != nil {
				s.logger.Warnf("写入历史记录失败: %v", err)
			} else if drifted != nil {
				plog.Warn("承诺漂移", "previous", drifted.Commitment, "current", r.Commitment.Hex())
			}
		}
	}

	c.JSON(http.StatusOK, report)
}

// getHistory 查询承诺历史记录
func (s *Server) getHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未启用承诺历史库"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数无效"})
			return
		}
		limit = parsed
	}

	records, err := s.store.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// getHistoryStats 查询历史库统计信息
func (s *Server) getHistoryStats(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未启用承诺历史库"})
		return
	}

	stats, err := s.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// getProviders 返回节点配置（不含凭证的URL按原样返回）
func (s *Server) getProviders(c *gin.Context) {
	providers := []gin.H{
		{"name": s.config.Providers.Primary.Name, "url": s.config.Providers.Primary.URL, "role": "primary"},
	}
	if s.config.Providers.Secondary != nil {
		providers = append(providers, gin.H{
			"name": s.config.Providers.Secondary.Name, "url": s.config.Providers.Secondary.URL, "role": "secondary",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"providers":          providers,
		"cross_check_active": s.config.Providers.Secondary != nil,
	})
}
