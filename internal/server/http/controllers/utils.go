package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	jobsvc "github.com/rzbill/taxiway/internal/services/jobs"
)

// writeError aborts with a JSON error body.
func writeError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": message})
}

// writeServiceError maps service errors to status codes.
func writeServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, jobsvc.ErrInvalidFilter), errors.Is(err, jobsvc.ErrInvalidArgument):
		writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, jobsvc.ErrHistoryDisabled):
		writeError(ctx, http.StatusNotFound, err.Error())
	default:
		_ = ctx.Error(err)
		writeError(ctx, http.StatusInternalServerError, "internal error")
	}
}

// parseLimit reads ?limit=. Missing means 0 (service default); anything
// other than a non-negative integer is a 400.
func parseLimit(ctx *gin.Context) (int, bool) {
	raw := ctx.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(ctx, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return n, true
}

// parseJobID accepts decimal or 0x-prefixed hex.
func parseJobID(raw string) (uint64, error) {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		return strconv.ParseUint(raw[2:], 16, 64)
	}
	return strconv.ParseUint(raw, 10, 64)
}
