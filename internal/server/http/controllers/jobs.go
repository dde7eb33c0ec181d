package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	jobsvc "github.com/rzbill/taxiway/internal/services/jobs"
)

// JobsController serves job snapshots and history.
type JobsController struct {
	svc *jobsvc.Service
}

// NewJobsController creates a new jobs controller.
func NewJobsController(svc *jobsvc.Service) *JobsController {
	return &JobsController{svc: svc}
}

// RegisterRoutes registers the job and history routes.
func (c *JobsController) RegisterRoutes(r gin.IRoutes) {
	r.GET("/jobs/ready", c.handleListReady)
	r.GET("/jobs/pending", c.handleListPending)
	r.GET("/history", c.handleListHistory)
}

func (c *JobsController) handleListReady(ctx *gin.Context) {
	opts, ok := listOptions(ctx)
	if !ok {
		return
	}
	jobs, err := c.svc.ListReady(ctx.Request.Context(), opts)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (c *JobsController) handleListPending(ctx *gin.Context) {
	opts, ok := listOptions(ctx)
	if !ok {
		return
	}
	jobs, err := c.svc.ListPending(ctx.Request.Context(), opts)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (c *JobsController) handleListHistory(ctx *gin.Context) {
	limit, ok := parseLimit(ctx)
	if !ok {
		return
	}
	opts := jobsvc.HistoryOptions{Kind: ctx.Query("kind"), Limit: limit}
	if raw := ctx.Query("jobId"); raw != "" {
		jobID, err := parseJobID(raw)
		if err != nil {
			writeError(ctx, http.StatusBadRequest, "invalid jobId")
			return
		}
		opts.JobID = &jobID
	}
	entries, err := c.svc.ListHistory(ctx.Request.Context(), opts)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func listOptions(ctx *gin.Context) (jobsvc.ListOptions, bool) {
	limit, ok := parseLimit(ctx)
	if !ok {
		return jobsvc.ListOptions{}, false
	}
	return jobsvc.ListOptions{Limit: limit, Filter: ctx.Query("filter")}, true
}
