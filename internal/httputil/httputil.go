// Package httputil holds the gin helpers shared by the domain handlers.
package httputil

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindInvalidRequest:    http.StatusBadRequest,
	apperr.KindInvalidState:      http.StatusConflict,
	apperr.KindInsufficientStock: http.StatusUnprocessableEntity,
	apperr.KindAlreadyBlocked:    http.StatusConflict,
	apperr.KindAlreadyProcessed:  http.StatusConflict,
	apperr.KindDuplicateLocation: http.StatusConflict,
	apperr.KindBlocked:           http.StatusLocked,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindInactive:          http.StatusConflict,
	apperr.KindStorageFailure:    http.StatusInternalServerError,
}

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	if errors.Is(err, lock.ErrBusy) {
		return http.StatusServiceUnavailable
	}
	if s, ok := statusByKind[apperr.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// RespondError writes err as {"error", "kind", ...details}. Server side
// failures are logged; their cause is not echoed to the client.
func RespondError(c *gin.Context, log logger.ZapLogger, err error) {
	status := StatusFor(err)
	kind := apperr.KindOf(err)
	body := gin.H{"error": err.Error(), "kind": kind}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Shortage != nil {
			body["shortage"] = ae.Shortage
		}
		if ae.BlockID != 0 {
			body["block_id"] = ae.BlockID
		}
		if status >= http.StatusInternalServerError {
			body["error"] = ae.Message
		}
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest answers a malformed body or query.
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request",
		"kind":    apperr.KindInvalidRequest,
		"details": err.Error(),
	})
}

// Page reads page and page_size, clamped to sane bounds.
func Page(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.InvalidRequest("invalid %s %q", name, c.Param(name))
	}
	return id, nil
}

// ParseTime accepts RFC3339, a bare date or a datetime without zone (UTC).
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.InvalidRequest("invalid date %q", s)
}

// DateRange reads the optional date_from / date_to query pair. A bare
// date_to covers the whole day.
func DateRange(c *gin.Context) (from, to *time.Time, err error) {
	if s := c.Query("date_from"); s != "" {
		t, err := ParseTime(s)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := ParseTime(s)
		if err != nil {
			return nil, nil, err
		}
		if len(s) == len("2006-01-02") {
			t = t.Add(24 * time.Hour)
		}
		to = &t
	}
	return from, to, nil
}
