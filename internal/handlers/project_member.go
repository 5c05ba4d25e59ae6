package handlers

import (
	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/internal/services"
	"github.com/easystock/backend/pkg/metrics"
	"github.com/easystock/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProjectMemberHandler manages the members of a project.
type ProjectMemberHandler struct {
	memberService *services.ProjectMemberService
	access        *services.AccessService
}

func NewProjectMemberHandler(db *gorm.DB, m *metrics.Inventory) *ProjectMemberHandler {
	return &ProjectMemberHandler{
		memberService: services.NewProjectMemberService(db, m),
		access:        services.NewAccessService(db),
	}
}

// List returns all members of a project.
// GET /api/projects/:projectId/members
func (h *ProjectMemberHandler) List(c *gin.Context) {
	projectID, ok := pathID(c, "projectId", "ID do projeto")
	if !ok {
		return
	}
	if _, err := h.access.RequireMember(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	members, err := h.memberService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}

// UpdateStatus activates or deactivates a member.
// PUT /api/projects/:projectId/members/:memberId/status
func (h *ProjectMemberHandler) UpdateStatus(c *gin.Context) {
	projectID, memberID, ok := h.managerTarget(c)
	if !ok {
		return
	}

	var req services.UpdateMemberStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	member, err := h.memberService.UpdateStatus(projectID, memberID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, member)
}

// UpdateRole changes a member's role.
// PUT /api/projects/:projectId/members/:memberId/role
func (h *ProjectMemberHandler) UpdateRole(c *gin.Context) {
	projectID, memberID, ok := h.managerTarget(c)
	if !ok {
		return
	}

	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	member, err := h.memberService.UpdateRole(projectID, memberID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, member)
}

// Remove removes a member from a project.
// DELETE /api/projects/:projectId/members/:memberId
func (h *ProjectMemberHandler) Remove(c *gin.Context) {
	projectID, memberID, ok := h.managerTarget(c)
	if !ok {
		return
	}

	if err := h.memberService.Remove(projectID, memberID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Membro removido com sucesso"})
}

// managerTarget parses the path ids and requires the caller to be an
// active GESTOR of the project.
func (h *ProjectMemberHandler) managerTarget(c *gin.Context) (projectID, memberID uint, ok bool) {
	if projectID, ok = pathID(c, "projectId", "ID do projeto"); !ok {
		return 0, 0, false
	}
	if memberID, ok = pathID(c, "memberId", "ID do membro"); !ok {
		return 0, 0, false
	}
	if _, err := h.access.RequireManager(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	return projectID, memberID, true
}
