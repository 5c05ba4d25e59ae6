package handlers

import (
	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/internal/services"
	"github.com/easystock/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InviteHandler exposes the project invite lifecycle.
type InviteHandler struct {
	inviteService *services.InviteService
	access        *services.AccessService
}

func NewInviteHandler(db *gorm.DB, inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		access:        services.NewAccessService(db),
	}
}

// List returns the invites of a project
// GET /api/projects/:projectId/invites
func (h *InviteHandler) List(c *gin.Context) {
	projectID, ok := pathID(c, "projectId", "ID do projeto")
	if !ok {
		return
	}
	if _, err := h.access.RequireManager(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	invites, err := h.inviteService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invites)
}

// Create invites an existing account into a project
// POST /api/projects/:projectId/invites
func (h *InviteHandler) Create(c *gin.Context) {
	projectID, ok := pathID(c, "projectId", "ID do projeto")
	if !ok {
		return
	}

	var req services.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	sentByID, ok := actingUser(c, req.SentByID)
	if !ok {
		return
	}
	if _, err := h.access.RequireManager(projectID, sentByID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.inviteService.Create(c.Request.Context(), projectID, sentByID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Resend issues a new token for an invite and emails it again
// POST /api/projects/:projectId/invites/:inviteId/resend
func (h *InviteHandler) Resend(c *gin.Context) {
	projectID, ok := pathID(c, "projectId", "ID do projeto")
	if !ok {
		return
	}
	inviteID, ok := pathID(c, "inviteId", "ID do convite")
	if !ok {
		return
	}
	if _, err := h.access.RequireManager(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.inviteService.Resend(c.Request.Context(), projectID, inviteID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Accept consumes an invite token for the current user
// POST /api/invites/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	var req services.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	userID, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}

	result, err := h.inviteService.Accept(req.Token, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Pending lists live invites addressed to the current user
// GET /api/invites/pending?userId=
func (h *InviteHandler) Pending(c *gin.Context) {
	var claimed uint
	if raw := c.Query("userId"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			response.BadRequest(c, "ID do usuário inválido")
			return
		}
		claimed = id
	}

	userID, ok := actingUser(c, claimed)
	if !ok {
		return
	}

	invites, err := h.inviteService.Pending(userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invites)
}
