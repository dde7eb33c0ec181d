package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rzbill/taxiway/internal/runtime"
	jobsvc "github.com/rzbill/taxiway/internal/services/jobs"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	jobs    *JobsController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, svc *jobsvc.Service) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt, svc),
		jobs:    NewJobsController(svc),
	}
}

// RegisterAllRoutes registers every controller under /v1.
func (r *ControllerRegistry) RegisterAllRoutes(engine *gin.Engine) {
	v1 := engine.Group("/v1")
	r.general.RegisterRoutes(v1)
	r.jobs.RegisterRoutes(v1)
}
