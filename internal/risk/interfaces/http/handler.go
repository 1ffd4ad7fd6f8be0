package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/quantengine/internal/risk/application"
	"github.com/wyfcoding/quantengine/internal/risk/domain"
	"github.com/wyfcoding/quantengine/pkg/logger"
	"github.com/wyfcoding/quantengine/pkg/response"
)

// RiskHandler 负责处理风控相关的 HTTP 请求
type RiskHandler struct {
	app *application.RiskService
}

// NewRiskHandler 创建 HTTP 处理器
func NewRiskHandler(app *application.RiskService) *RiskHandler {
	return &RiskHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *RiskHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/risk")
	{
		api.POST("/evaluate", h.Evaluate)
		api.GET("/status", h.Status)
		api.POST("/sizing", h.CalculateSize)
		api.POST("/resume", h.ForceResume)
		api.POST("/reset", h.Reset)
	}
}

type evaluateRequest struct {
	Equity *float64 `json:"equity"`
	AsOf   string   `json:"as_of"`
}

// Evaluate 以账户净值评估风控状态
func (h *RiskHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	var snapshot *application.EquitySnapshot
	if req.Equity != nil {
		asOf := time.Now()
		if req.AsOf != "" {
			parsed, err := time.Parse(domain.DateLayout, req.AsOf)
			if err != nil {
				response.ErrorWithStatus(c, http.StatusBadRequest, "invalid as_of, expected YYYY-MM-DD")
				return
			}
			asOf = parsed
		}
		snapshot = &application.EquitySnapshot{Equity: *req.Equity, AsOf: asOf}
	}

	state := h.app.Evaluate(c.Request.Context(), snapshot)
	response.Success(c, gin.H{
		"state":   state,
		"summary": state.Summary(),
	})
}

// Status 查询当前风控状态
func (h *RiskHandler) Status(c *gin.Context) {
	response.Success(c, h.app.Status())
}

// CalculateSize 仓位计算
func (h *RiskHandler) CalculateSize(c *gin.Context) {
	var req application.SizingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Price <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "price must be positive")
		return
	}
	if req.TotalCapital <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "total_capital must be positive")
		return
	}

	result := h.app.CalculateSize(c.Request.Context(), req)
	response.Success(c, result)
}

// ForceResume 人工恢复交易
func (h *RiskHandler) ForceResume(c *gin.Context) {
	logger.Info(c.Request.Context(), "force resume requested")
	response.Success(c, h.app.ForceResume(c.Request.Context()))
}

type resetRequest struct {
	Capital float64 `json:"capital"`
}

// Reset 重置回撤控制器
func (h *RiskHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Success(c, h.app.Reset(c.Request.Context(), req.Capital))
}
