package handlers

import (
	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/internal/services"
	"github.com/easystock/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MaterialHandler struct {
	materialService *services.MaterialService
	access          *services.AccessService
}

func NewMaterialHandler(db *gorm.DB) *MaterialHandler {
	return &MaterialHandler{
		materialService: services.NewMaterialService(db),
		access:          services.NewAccessService(db),
	}
}

// QRCodeResponse is the text to print in a material's QR label.
type QRCodeResponse struct {
	MaterialID uint   `json:"materialId"`
	Payload    string `json:"payload"`
}

// List returns the materials of a project
// GET /api/materials?projectId=
func (h *MaterialHandler) List(c *gin.Context) {
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}
	if _, err := h.access.RequireMember(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	materials, err := h.materialService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, materials)
}

// Create adds a material to a project
// POST /api/materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req services.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}
	if _, err := h.access.RequireMember(req.ProjectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	material, err := h.materialService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, material)
}

// Get returns a material with its derived stock status
// GET /api/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, projectID, ok := h.materialScope(c)
	if !ok {
		return
	}

	material, err := h.materialService.Get(materialID, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, material)
}

// Update edits a material's catalog fields
// PUT /api/materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	materialID, projectID, ok := h.materialScope(c)
	if !ok {
		return
	}

	var req services.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	material, err := h.materialService.Update(materialID, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, material)
}

// QRCode returns the QR payload for a material
// GET /api/materials/:id/qr
func (h *MaterialHandler) QRCode(c *gin.Context) {
	materialID, _, ok := h.materialScope(c)
	if !ok {
		return
	}

	response.Success(c, QRCodeResponse{
		MaterialID: materialID,
		Payload:    services.QRPayload(materialID),
	})
}

// Scan resolves a scanned QR code within a project
// GET /api/materials/scan?projectId=&code=
func (h *MaterialHandler) Scan(c *gin.Context) {
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}
	code := c.Query("code")
	if code == "" {
		response.Error(c, &response.AppError{
			HTTPStatus: 400,
			Message:    "Campos obrigatórios não preenchidos: code",
			Errors:     []string{"code é obrigatório"},
		})
		return
	}
	if _, err := h.access.RequireMember(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	material, err := h.materialService.Resolve(projectID, code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, material)
}

// materialScope parses :id and resolves the project through which the
// caller may see the material.
func (h *MaterialHandler) materialScope(c *gin.Context) (materialID, projectID uint, ok bool) {
	if materialID, ok = pathID(c, "id", "ID do material"); !ok {
		return 0, 0, false
	}
	projectID, err := h.access.RequireMaterialMember(materialID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	return materialID, projectID, true
}
