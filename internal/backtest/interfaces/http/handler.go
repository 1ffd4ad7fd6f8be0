package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/quantengine/internal/backtest/application"
	"github.com/wyfcoding/quantengine/pkg/logger"
	"github.com/wyfcoding/quantengine/pkg/response"
)

// BacktestHandler 负责处理回测相关的 HTTP 请求
type BacktestHandler struct {
	app *application.BacktestService
}

// NewBacktestHandler 创建 HTTP 处理器
func NewBacktestHandler(app *application.BacktestService) *BacktestHandler {
	return &BacktestHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *BacktestHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/backtest")
	{
		api.POST("/tasks", h.SubmitTask)
		api.GET("/tasks/:id", h.GetTask)
		api.GET("/tasks/:id/report", h.GetReport)
		api.GET("/tasks/:id/trades", h.GetTrades)
		api.GET("/regime", h.GetRegime)
		api.GET("/regime/history", h.GetRegimeHistory)
	}
}

// SubmitTask 提交回测任务
func (h *BacktestHandler) SubmitTask(c *gin.Context) {
	var req application.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.app.Submit(c.Request.Context(), req)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to submit backtest task", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, task)
}

// GetTask 查询任务状态
func (h *BacktestHandler) GetTask(c *gin.Context) {
	id := c.Param("id")

	task, err := h.app.GetTask(c.Request.Context(), id)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get task", "task_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "task not found")
		return
	}

	response.Success(c, task)
}

// GetReport 查询回测报告
func (h *BacktestHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.app.GetReport(c.Request.Context(), id)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get report", "task_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "report not found")
		return
	}

	response.Success(c, report)
}

// GetTrades 查询成交明细
func (h *BacktestHandler) GetTrades(c *gin.Context) {
	id := c.Param("id")

	trades, err := h.app.GetTrades(c.Request.Context(), id)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get trades", "task_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, trades)
}

// GetRegime 查询当前市场状态与参数
func (h *BacktestHandler) GetRegime(c *gin.Context) {
	response.Success(c, h.app.CurrentRegime())
}

// GetRegimeHistory 查询市场状态识别历史
func (h *BacktestHandler) GetRegimeHistory(c *gin.Context) {
	response.Success(c, h.app.RegimeHistory())
}
