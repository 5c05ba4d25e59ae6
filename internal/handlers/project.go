package handlers

import (
	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/internal/services"
	"github.com/easystock/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService   *services.ProjectService
	dashboardService *services.DashboardService
	access           *services.AccessService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService:   services.NewProjectService(db),
		dashboardService: services.NewDashboardService(db),
		access:           services.NewAccessService(db),
	}
}

// List returns the projects the current user is an active member of
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// Create creates a project with the caller as its first GESTOR
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// Get returns a single project with the caller's role
// GET /api/projects/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := pathID(c, "projectId", "ID do projeto")
	if !ok {
		return
	}

	member, err := h.access.RequireMember(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	project, err := h.projectService.Get(projectID, member)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Dashboard returns stock and movement statistics for a project
// GET /api/projects/:projectId/dashboard
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	projectID, ok := pathID(c, "projectId", "ID do projeto")
	if !ok {
		return
	}

	if _, err := h.access.RequireMember(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.dashboardService.GetStats(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
