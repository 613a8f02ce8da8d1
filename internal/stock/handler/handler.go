package handler

import (
	"net/http"
	"strconv"

	itemdto "github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/httputil"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	uc     stock.UseCase
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/items")
	items.POST("", h.RegisterItem)
	items.GET("", h.ListItems)
	items.GET("/:code", h.GetItem)
	items.DELETE("/:code", h.DeleteItem)
	items.GET("/:code/stock", h.CurrentStock)
	items.GET("/:code/history", h.History)
	items.GET("/:code/movements", h.MovementHistory)

	rg.POST("/counts", h.RecordCount)

	movements := rg.Group("/movements")
	movements.POST("", h.ApplyMovement)
	movements.GET("", h.ListMovements)
	movements.GET("/stats", h.MovementStats)
}

type quantitiesRequest struct {
	Unrestrict int64 `json:"unrestrict"`
	FOC        int64 `json:"foc"`
	RFB        int64 `json:"rfb"`
}

func (q quantitiesRequest) toModel() model.Quantities {
	return model.Quantities{Unrestrict: q.Unrestrict, FOC: q.FOC, RFB: q.RFB}
}

type registerItemRequest struct {
	QRCode      string `json:"qr_code" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Notes       string `json:"notes"`
}

// RegisterItem creates or updates an item.
// POST /api/v1/items
func (h *StockHandler) RegisterItem(c *gin.Context) {
	var req registerItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	it, err := h.uc.RegisterItem(c.Request.Context(), &dto.RegisterItemInput{
		QRCode:      req.QRCode,
		Description: req.Description,
		Location:    req.Location,
		Notes:       req.Notes,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// ListItems GET /api/v1/items?search=&location=&status=&page=&page_size=
func (h *StockHandler) ListItems(c *gin.Context) {
	page, pageSize := httputil.Page(c)
	items, total, err := h.uc.ListItems(c.Request.Context(), &itemdto.ItemFilters{
		Search:   c.Query("search"),
		Location: c.Query("location"),
		Status:   model.ItemStatus(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *StockHandler) GetItem(c *gin.Context) {
	it, err := h.uc.GetItem(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *StockHandler) DeleteItem(c *gin.Context) {
	if err := h.uc.DeleteItem(c.Request.Context(), c.Param("code")); err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CurrentStock answers the zero sentinel for a code never counted.
func (h *StockHandler) CurrentStock(c *gin.Context) {
	snap, err := h.uc.CurrentStock(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *StockHandler) History(c *gin.Context) {
	counts, err := h.uc.History(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts, "count": len(counts)})
}

type recordCountRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
	quantitiesRequest
	CountType   string `json:"count_type"`
	Notes       string `json:"notes"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// RecordCount POST /api/v1/counts
func (h *StockHandler) RecordCount(c *gin.Context) {
	var req recordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	id, err := h.uc.RecordCount(c.Request.Context(), &dto.RecordCountInput{
		QRCode:      req.QRCode,
		Quantities:  req.toModel(),
		CountType:   model.CountType(req.CountType),
		Notes:       req.Notes,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type movementRequest struct {
	QRCode       string `json:"qr_code" binding:"required"`
	MovementType string `json:"movement_type" binding:"required"`
	quantitiesRequest
	AdjustmentMode string `json:"adjustment_mode"`
	FromLocation   string `json:"from_location"`
	ToLocation     string `json:"to_location"`
	Reason         string `json:"reason"`
	ReferenceDoc   string `json:"reference_doc"`
	CreatedBy      string `json:"created_by" binding:"required"`
}

// ApplyMovement POST /api/v1/movements
func (h *StockHandler) ApplyMovement(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	res, err := h.uc.ApplyMovement(c.Request.Context(), &dto.MovementInput{
		QRCode:         req.QRCode,
		MovementType:   model.MovementType(req.MovementType),
		Quantities:     req.toModel(),
		AdjustmentMode: dto.AdjustmentMode(req.AdjustmentMode),
		FromLocation:   req.FromLocation,
		ToLocation:     req.ToLocation,
		Reason:         req.Reason,
		ReferenceDoc:   req.ReferenceDoc,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListMovements GET /api/v1/movements?qr_code=&movement_type=&location=&created_by=&status=&date_from=&date_to=
func (h *StockHandler) ListMovements(c *gin.Context) {
	from, to, err := httputil.DateRange(c)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	page, pageSize := httputil.Page(c)

	list, total, err := h.uc.ListMovements(c.Request.Context(), &dto.MovementFilters{
		QRCode:       c.Query("qr_code"),
		MovementType: model.MovementType(c.Query("movement_type")),
		Location:     c.Query("location"),
		CreatedBy:    c.Query("created_by"),
		Status:       model.MovementStatus(c.Query("status")),
		StartDate:    from,
		EndDate:      to,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movements": list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *StockHandler) MovementHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.uc.MovementHistory(c.Request.Context(), c.Param("code"), limit)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": list, "count": len(list)})
}

func (h *StockHandler) MovementStats(c *gin.Context) {
	from, to, err := httputil.DateRange(c)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	stats, err := h.uc.MovementStats(c.Request.Context(), from, to)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
