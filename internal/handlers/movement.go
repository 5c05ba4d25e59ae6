package handlers

import (
	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/internal/services"
	"github.com/easystock/backend/pkg/metrics"
	"github.com/easystock/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MovementHandler struct {
	movementService *services.MovementService
	access          *services.AccessService
}

func NewMovementHandler(db *gorm.DB, m *metrics.Inventory) *MovementHandler {
	return &MovementHandler{
		movementService: services.NewMovementService(db, m),
		access:          services.NewAccessService(db),
	}
}

// Record appends an entry or exit to the stock ledger
// POST /api/movements
func (h *MovementHandler) Record(c *gin.Context) {
	var req services.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	userID, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}
	if _, err := h.access.RequireMember(req.ProjectID, userID); err != nil {
		response.Error(c, err)
		return
	}

	movement, err := h.movementService.Record(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, movement)
}

// List returns the movement history of a project, newest first
// GET /api/movements?projectId=
func (h *MovementHandler) List(c *gin.Context) {
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}
	if _, err := h.access.RequireMember(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	movements, err := h.movementService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, movements)
}
