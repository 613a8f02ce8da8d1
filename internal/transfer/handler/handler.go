package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/httputil"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	uc     transfer.UseCase
	logger logger.ZapLogger
}

func NewTransferHandler(uc transfer.UseCase, log logger.ZapLogger) *TransferHandler {
	return &TransferHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transfers := rg.Group("/transfers")
	transfers.POST("", h.Create)
	transfers.GET("", h.List)
	transfers.GET("/summary", h.Summary)
	transfers.GET("/:id", h.Get)
	transfers.POST("/:id/approve", h.Approve)
	transfers.POST("/:id/receive", h.Receive)
	transfers.POST("/:id/cancel", h.Cancel)
}

type transferLineRequest struct {
	QRCode     string `json:"qr_code" binding:"required"`
	Unrestrict int64  `json:"unrestrict"`
	FOC        int64  `json:"foc"`
	RFB        int64  `json:"rfb"`
}

type createTransferRequest struct {
	FromLocation string                `json:"from_location" binding:"required"`
	ToLocation   string                `json:"to_location" binding:"required"`
	Items        []transferLineRequest `json:"items" binding:"required,dive"`
	Notes        string                `json:"notes"`
	CreatedBy    string                `json:"created_by" binding:"required"`
}

// Create POST /api/v1/transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req createTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	lines := make([]dto.TransferLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = dto.TransferLine{
			QRCode:     it.QRCode,
			Quantities: model.Quantities{Unrestrict: it.Unrestrict, FOC: it.FOC, RFB: it.RFB},
		}
	}

	t, err := h.uc.Create(c.Request.Context(), &dto.CreateTransferInput{
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		Items:        lines,
		Notes:        req.Notes,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

type actorRequest struct {
	ApprovedBy  string `json:"approved_by"`
	ReceivedBy  string `json:"received_by"`
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason"`
}

func (h *TransferHandler) bindActor(c *gin.Context) (int64, *actorRequest, bool) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return 0, nil, false
	}
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return 0, nil, false
	}
	return id, &req, true
}

func (h *TransferHandler) Approve(c *gin.Context) {
	id, req, ok := h.bindActor(c)
	if !ok {
		return
	}
	t, err := h.uc.Approve(c.Request.Context(), id, req.ApprovedBy)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Receive(c *gin.Context) {
	id, req, ok := h.bindActor(c)
	if !ok {
		return
	}
	t, err := h.uc.Receive(c.Request.Context(), id, req.ReceivedBy)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Cancel(c *gin.Context) {
	id, req, ok := h.bindActor(c)
	if !ok {
		return
	}
	t, err := h.uc.Cancel(c.Request.Context(), id, req.CancelledBy, req.Reason)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Get(c *gin.Context) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	t, err := h.uc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// List GET /api/v1/transfers?status=&from_location=&to_location=&created_by=&date_from=&date_to=
func (h *TransferHandler) List(c *gin.Context) {
	from, to, err := httputil.DateRange(c)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	page, pageSize := httputil.Page(c)

	list, total, err := h.uc.List(c.Request.Context(), &dto.TransferFilters{
		Status:       model.TransferStatus(c.Query("status")),
		FromLocation: c.Query("from_location"),
		ToLocation:   c.Query("to_location"),
		CreatedBy:    c.Query("created_by"),
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
		"transfers": list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *TransferHandler) Summary(c *gin.Context) {
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
