package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/cyclic"
	"github.com/fekuna/omnipos-stock-service/internal/cyclic/dto"
	"github.com/fekuna/omnipos-stock-service/internal/httputil"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type CyclicHandler struct {
	uc     cyclic.UseCase
	logger logger.ZapLogger
}

func NewCyclicHandler(uc cyclic.UseCase, log logger.ZapLogger) *CyclicHandler {
	return &CyclicHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CyclicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cc := rg.Group("/cyclic-counts")
	cc.POST("", h.Schedule)
	cc.GET("", h.List)
	cc.GET("/performance", h.Performance)
	cc.GET("/pending/:location", h.Pending)
	cc.PUT("/:id", h.Update)
	cc.DELETE("/:id", h.Delete)
	cc.POST("/:id/execute", h.Execute)
}

type scheduleRequest struct {
	Location      string `json:"location" binding:"required"`
	FrequencyDays int    `json:"frequency_days" binding:"required"`
	CreatedBy     string `json:"created_by"`
}

// Schedule POST /api/v1/cyclic-counts
func (h *CyclicHandler) Schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	cc, err := h.uc.Schedule(c.Request.Context(), req.Location, req.FrequencyDays, req.CreatedBy)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cc)
}

type executeRequest struct {
	CreatedBy string `json:"created_by"`
}

func (h *CyclicHandler) Execute(c *gin.Context) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	var req executeRequest
	// The body is optional.
	_ = c.ShouldBindJSON(&req)

	res, err := h.uc.Execute(c.Request.Context(), id, req.CreatedBy)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CyclicHandler) Pending(c *gin.Context) {
	items, err := h.uc.PendingFor(c.Request.Context(), c.Param("location"))
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *CyclicHandler) List(c *gin.Context) {
	list, err := h.uc.List(c.Request.Context(), &dto.CyclicFilters{
		Status:   model.CyclicStatus(c.Query("status")),
		Location: c.Query("location"),
	})
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cyclic_counts": list, "count": len(list)})
}

type updateRequest struct {
	Location      *string `json:"location"`
	FrequencyDays *int    `json:"frequency_days"`
	Status        *string `json:"status"`
}

func (h *CyclicHandler) Update(c *gin.Context) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	input := &dto.UpdateCyclicInput{Location: req.Location, FrequencyDays: req.FrequencyDays}
	if req.Status != nil {
		s := model.CyclicStatus(*req.Status)
		input.Status = &s
	}
	cc, err := h.uc.Update(c.Request.Context(), id, input)
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cc)
}

func (h *CyclicHandler) Delete(c *gin.Context) {
	id, err := httputil.ParseID(c, "id")
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	if err := h.uc.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CyclicHandler) Performance(c *gin.Context) {
	p, err := h.uc.Performance(c.Request.Context())
	if err != nil {
		httputil.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"performance": p})
}
