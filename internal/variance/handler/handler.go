package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/httputil"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variance"
	"github.com/fekuna/omnipos-stock-service/internal/variance/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type VarianceHandler struct {
	uc     variance.UseCase
	logger logger.ZapLogger
}

func NewVarianceHandler(uc variance.UseCase, log logger.ZapLogger) *VarianceHandler {
	return &VarianceHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *VarianceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	variances := rg.Group("/variances")
	variances.POST("/detect", h.Detect)
	variances.GET("", h.List)
	variances.GET("/stats", h.Stats)
	variances.POST("/:id/approve", h.Approve)
	variances.POST("/:id/reject", h.Reject)
}

type detectRequest struct {
	QRCode            string `json:"qr_code" binding:"required"`
	CountedUnrestrict int64  `json:"counted_unrestrict"`
	CountedFOC        int64  `json:"counted_foc"`
	CountedRFB        int64  `json:"counted_rfb"`
	Location          string `json:"location"`
	Reason            string `json:"reason"`
}

// Detect POST /api/v1/variances/detect
func (h *VarianceHandler) Detect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	res, err := h.uc.Detect(c.Request.Context(), &dto.DetectInput{
		QRCode: req.QRCode,
		Counted: model.Quantities{
			Unrestrict: req.CountedUnrestrict,
			FOC:        req.CountedFOC,
			RFB:        req.CountedRFB,
		},
		Location: req.Location,
		Reason:   req.Reason,
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if res.HasVariance {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

type resolveRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
	Reason     string `json:"reason"`
}

func (h *VarianceHandler) Approve(c *gin.Context) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	v, err := h.uc.Approve(c.Request.Context(), id, req.ApprovedBy, req.Reason)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VarianceHandler) Reject(c *gin.Context) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	v, err := h.uc.Reject(c.Request.Context(), id, req.ApprovedBy, req.Reason)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// List GET /api/v1/variances?status=&location=&qr_code=&date_from=&date_to=
func (h *VarianceHandler) List(c *gin.Context) {
	from, to, err := httputil.DateRange(c)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	page, pageSize := httputil.Page(c)

	status := c.Query("status")
	if status == "all" {
		status = ""
	}
	list, total, err := h.uc.List(c.Request.Context(), &dto.VarianceFilters{
		Status:    model.VarianceStatus(status),
		Location:  c.Query("location"),
		QRCode:    c.Query("qr_code"),
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
		"variances": list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Stats GET /api/v1/variances/stats?date_from=
func (h *VarianceHandler) Stats(c *gin.Context) {
	from, _, err := httputil.DateRange(c)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	s, err := h.uc.Stats(c.Request.Context(), from)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
