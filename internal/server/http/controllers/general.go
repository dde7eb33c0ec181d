package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rzbill/taxiway/internal/runtime"
	jobsvc "github.com/rzbill/taxiway/internal/services/jobs"
)

// GeneralController serves health and statistics.
type GeneralController struct {
	rt  *runtime.Runtime
	svc *jobsvc.Service
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime, svc *jobsvc.Service) *GeneralController {
	return &GeneralController{rt: rt, svc: svc}
}

// RegisterRoutes registers /healthz and /stats.
func (c *GeneralController) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", c.handleHealth)
	r.GET("/stats", c.handleStats)
}

// handleHealth returns 200 {"status":"ok"} when healthy and 503 otherwise.
func (c *GeneralController) handleHealth(ctx *gin.Context) {
	if err := c.rt.CheckHealth(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_serving", "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (c *GeneralController) handleStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.svc.Stats(ctx.Request.Context()))
}
