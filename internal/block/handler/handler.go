package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/block"
	"github.com/fekuna/omnipos-stock-service/internal/block/dto"
	"github.com/fekuna/omnipos-stock-service/internal/httputil"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type BlockHandler struct {
	uc     block.UseCase
	logger logger.ZapLogger
}

func NewBlockHandler(uc block.UseCase, log logger.ZapLogger) *BlockHandler {
	return &BlockHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *BlockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	blocks := rg.Group("/blocks")
	blocks.POST("", h.Block)
	blocks.GET("", h.List)
	blocks.GET("/summary", h.Summary)
	blocks.POST("/:id/release", h.UnblockByID)

	items := rg.Group("/items")
	items.GET("/:code/block", h.ActiveBlock)
	items.GET("/:code/blocks", h.History)
	items.POST("/:code/unblock", h.Unblock)
}

type blockRequest struct {
	QRCode    string `json:"qr_code" binding:"required"`
	BlockType string `json:"block_type" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	BlockedBy string `json:"blocked_by" binding:"required"`
	Notes     string `json:"notes"`
}

// Block POST /api/v1/blocks
func (h *BlockHandler) Block(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	b, err := h.uc.Block(c.Request.Context(), &dto.BlockInput{
		QRCode:    req.QRCode,
		BlockType: model.BlockType(req.BlockType),
		Reason:    req.Reason,
		BlockedBy: req.BlockedBy,
		Notes:     req.Notes,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

type unblockRequest struct {
	UnblockedBy string `json:"unblocked_by" binding:"required"`
	Notes       string `json:"notes"`
}

// Unblock POST /api/v1/items/:code/unblock
func (h *BlockHandler) Unblock(c *gin.Context) {
	var req unblockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	b, err := h.uc.Unblock(c.Request.Context(), c.Param("code"), req.UnblockedBy, req.Notes)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UnblockByID POST /api/v1/blocks/:id/release
func (h *BlockHandler) UnblockByID(c *gin.Context) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	var req unblockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	b, err := h.uc.UnblockByID(c.Request.Context(), id, req.UnblockedBy, req.Notes)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BlockHandler) ActiveBlock(c *gin.Context) {
	b, err := h.uc.ActiveBlock(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_blocked": b != nil, "block": b})
}

func (h *BlockHandler) History(c *gin.Context) {
	list, err := h.uc.History(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": list, "count": len(list)})
}

// List GET /api/v1/blocks?qr_code=&block_type=&status=&blocked_by=&date_from=&date_to=
func (h *BlockHandler) List(c *gin.Context) {
	from, to, err := httputil.DateRange(c)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	page, pageSize := httputil.Page(c)

	list, total, err := h.uc.List(c.Request.Context(), &dto.BlockFilters{
		QRCode:    c.Query("qr_code"),
		BlockType: model.BlockType(c.Query("block_type")),
		Status:    model.BlockStatus(c.Query("status")),
		BlockedBy: c.Query("blocked_by"),
		StartDate: from,
		EndDate:   to,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"blocks":    list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *BlockHandler) Summary(c *gin.Context) {
	from, to, err := httputil.DateRange(c)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	s, err := h.uc.Summary(c.Request.Context(), from, to)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": s})
}
