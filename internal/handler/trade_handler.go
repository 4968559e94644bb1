package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/trade-approval/internal/middleware"
	"github.com/yourorg/trade-approval/internal/model"
	"github.com/yourorg/trade-approval/internal/service"
	"github.com/yourorg/trade-approval/internal/utils"
	"github.com/yourorg/trade-approval/internal/workflow"
)

// TradeHandler handles trade-related HTTP requests
type TradeHandler struct {
	tradeService *service.TradeService
	logger       *zap.Logger
}

// NewTradeHandler creates a new trade handler
func NewTradeHandler(tradeService *service.TradeService, logger *zap.Logger) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
		logger:       logger,
	}
}

// CreateDraft handles creating a new draft trade
// POST /api/v1/trades
func (h *TradeHandler) CreateDraft(c *gin.Context) {
	userID, role, ok := actingUser(c)
	if !ok {
		utils.SendErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := workflow.CheckPermission(role, model.ActionRequestNew); err != nil {
		utils.SendDomainError(c, err)
		return
	}

	var input model.DraftCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	trade, entry, err := h.tradeService.CreateDraft(c.Request.Context(), userID, input)
	if err != nil {
		utils.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"trade":   trade,
		"version": entry,
	})
}

// SubmitAction handles applying a workflow action to a trade
// POST /api/v1/trades/:id/actions
func (h *TradeHandler) SubmitAction(c *gin.Context) {
	userID, role, ok := actingUser(c)
	if !ok {
		utils.SendErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var submission model.ActionSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	entry, err := h.tradeService.SubmitAction(c.Request.Context(), c.Param("id"), userID, role, submission)
	if err != nil {
		utils.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"version": entry})
}

// GetTrade handles fetching the current state and details of a trade
// GET /api/v1/trades/:id
func (h *TradeHandler) GetTrade(c *gin.Context) {
	trade, err := h.tradeService.GetTrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

// ListTrades handles listing current trade records
// GET /api/v1/trades
func (h *TradeHandler) ListTrades(c *gin.Context) {
	params := utils.ParsePaginationParams(c, 10, 100)

	trades, total, err := h.tradeService.ListTrades(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		h.logger.Error("Failed to list trades", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list trades")
		return
	}

	utils.SendPaginatedResponse(c, http.StatusOK, trades, total, params.Page, params.Limit)
}

// GetHistory handles fetching the ordered audit history of a trade
// GET /api/v1/trades/:id/history
func (h *TradeHandler) GetHistory(c *gin.Context) {
	params := utils.ParsePaginationParams(c, 10, 100)

	entries, total, err := h.tradeService.GetHistory(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		utils.SendDomainError(c, err)
		return
	}

	utils.SendPaginatedResponse(c, http.StatusOK, entries, total, params.Page, params.Limit)
}

// GetVersion handles fetching one point-in-time snapshot of a trade
// GET /api/v1/trades/:id/versions/:seq
func (h *TradeHandler) GetVersion(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid version sequence")
		return
	}

	entry, err := h.tradeService.GetVersion(c.Request.Context(), c.Param("id"), seq)
	if err != nil {
		utils.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// GetDiff handles computing the difference between two versions of a trade
// GET /api/v1/trades/:id/diff?from=0&to=1
func (h *TradeHandler) GetDiff(c *gin.Context) {
	from, err := strconv.Atoi(c.Query("from"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid 'from' version sequence")
		return
	}
	to, err := strconv.Atoi(c.Query("to"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid 'to' version sequence")
		return
	}

	changes, err := h.tradeService.GetDiff(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		utils.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":    from,
		"to":      to,
		"changes": changes,
	})
}

// actingUser reads the authenticated user id and role set by the auth
// middleware
func actingUser(c *gin.Context) (string, model.Role, bool) {
	userID, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return "", "", false
	}
	role, exists := c.Get(middleware.ContextRole)
	if !exists {
		return "", "", false
	}
	return userID.(string), role.(model.Role), true
}
