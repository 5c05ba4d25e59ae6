package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/pkg/response"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultCategory = "Geral"
	defaultSupplier = "Fornecedor"

	// QRPrefix starts the text encoded in a material's QR label.
	QRPrefix = "easystock:material:"
)

type MaterialService struct {
	db *gorm.DB
}

func NewMaterialService(db *gorm.DB) *MaterialService {
	return &MaterialService{db: db}
}

// MaterialView is a material with its derived stock status.
type MaterialView struct {
	ID           uint            `json:"id"`
	ProjectID    uint            `json:"projectId,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Supplier     string          `json:"supplier"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	MinStock     decimal.Decimal `json:"minStock"`
	Status       string          `json:"status"`
	IsConsumable bool            `json:"isConsumable"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// NewMaterialView derives the display fields of a material.
func NewMaterialView(m *models.Material, projectID uint) *MaterialView {
	minStock := EffectiveMinStock(m.MinStock)
	category := m.Type
	if category == "" {
		category = defaultCategory
	}
	supplier := m.Supplier
	if supplier == "" {
		supplier = defaultSupplier
	}
	return &MaterialView{
		ID:           m.ID,
		ProjectID:    projectID,
		Name:         m.Name,
		Description:  m.Description,
		Category:     category,
		Supplier:     supplier,
		Quantity:     m.CurrentQuantity,
		Unit:         m.Unit,
		Price:        m.Price,
		MinStock:     minStock,
		Status:       StockStatus(m.CurrentQuantity, minStock),
		IsConsumable: m.IsConsumable,
		UpdatedAt:    m.UpdatedAt,
	}
}

type CreateMaterialRequest struct {
	ProjectID       uint             `json:"projectId" binding:"required"`
	Name            string           `json:"name" binding:"required,max=200"`
	Unit            string           `json:"unit" binding:"required,max=20"`
	CurrentQuantity *decimal.Decimal `json:"currentQuantity"`
	Quantity        *decimal.Decimal `json:"quantity"` // alias of currentQuantity
	MinStock        *decimal.Decimal `json:"minStock"`
	Price           *decimal.Decimal `json:"price"`
	Category        string           `json:"category"`
	Supplier        string           `json:"supplier"`
	Description     string           `json:"description"`
	IsConsumable    *bool            `json:"isConsumable"`
}

type UpdateMaterialRequest struct {
	Name         string           `json:"name" binding:"omitempty,max=200"`
	Unit         string           `json:"unit" binding:"omitempty,max=20"`
	MinStock     *decimal.Decimal `json:"minStock"`
	Price        *decimal.Decimal `json:"price"`
	Category     *string          `json:"category"`
	Supplier     *string          `json:"supplier"`
	Description  *string          `json:"description"`
	IsConsumable *bool            `json:"isConsumable"`
}

// List returns the project's materials ordered by name.
func (s *MaterialService) List(projectID uint) ([]MaterialView, error) {
	var materials []models.Material
	err := s.db.Joins("JOIN project_materials ON project_materials.material_id = materials.id").
		Where("project_materials.project_id = ?", projectID).
		Order("materials.name ASC, materials.id ASC").
		Find(&materials).Error
	if err != nil {
		return nil, err
	}

	views := make([]MaterialView, 0, len(materials))
	for i := range materials {
		views = append(views, *NewMaterialView(&materials[i], projectID))
	}
	return views, nil
}

// Get returns one material as seen from projectID.
func (s *MaterialService) Get(id, projectID uint) (*MaterialView, error) {
	var material models.Material
	if err := s.db.First(&material, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	return NewMaterialView(&material, projectID), nil
}

// Create inserts a material and links it to its project in one transaction.
func (s *MaterialService) Create(req *CreateMaterialRequest) (*MaterialView, error) {
	initial := req.CurrentQuantity
	if initial == nil {
		initial = req.Quantity
	}
	if initial == nil {
		return nil, &response.AppError{
			HTTPStatus: 400,
			Message:    "Campos obrigatórios não preenchidos: currentQuantity",
			Errors:     []string{"currentQuantity é obrigatório"},
		}
	}
	if initial.IsNegative() {
		return nil, response.NewBadRequest("A quantidade inicial não pode ser negativa")
	}

	minStock := decimal.NewNullDecimal(DefaultMinStock)
	if req.MinStock != nil {
		if req.MinStock.IsNegative() {
			return nil, response.NewBadRequest("O estoque mínimo não pode ser negativo")
		}
		minStock = decimal.NewNullDecimal(*req.MinStock)
	}

	material := models.Material{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Type:            req.Category,
		CurrentQuantity: *initial,
		Unit:            req.Unit,
		Supplier:        req.Supplier,
		MinStock:        minStock,
		IsConsumable:    true,
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, response.NewBadRequest("O preço não pode ser negativo")
		}
		material.Price = *req.Price
	}
	if req.IsConsumable != nil {
		material.IsConsumable = *req.IsConsumable
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Select("id").First(&project, req.ProjectID).Error; err != nil {
			if isNotFound(err) {
				return ErrProjectNotFound
			}
			return err
		}
		if err := tx.Create(&material).Error; err != nil {
			return err
		}
		// gorm skips zero-valued bools that carry a default tag
		if !material.IsConsumable {
			if err := tx.Model(&material).Update("is_consumable", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.ProjectMaterial{ProjectID: req.ProjectID, MaterialID: material.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	return NewMaterialView(&material, req.ProjectID), nil
}

// Update edits catalog fields. Quantity only changes through movements.
func (s *MaterialService) Update(id, projectID uint, req *UpdateMaterialRequest) (*MaterialView, error) {
	var material models.Material
	if err := s.db.First(&material, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if req.Unit != "" {
		updates["unit"] = req.Unit
	}
	if req.MinStock != nil {
		if req.MinStock.IsNegative() {
			return nil, response.NewBadRequest("O estoque mínimo não pode ser negativo")
		}
		updates["min_stock"] = decimal.NewNullDecimal(*req.MinStock)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, response.NewBadRequest("O preço não pode ser negativo")
		}
		updates["price"] = *req.Price
	}
	if req.Category != nil {
		updates["type"] = *req.Category
	}
	if req.Supplier != nil {
		updates["supplier"] = *req.Supplier
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsConsumable != nil {
		updates["is_consumable"] = *req.IsConsumable
	}

	if len(updates) > 0 {
		if err := s.db.Model(&material).Updates(updates).Error; err != nil {
			return nil, err
		}
		if err := s.db.First(&material, id).Error; err != nil {
			return nil, err
		}
	}

	return NewMaterialView(&material, projectID), nil
}

// QRPayload is the text printed in the material's QR label.
func QRPayload(materialID uint) string {
	return QRPrefix + strconv.FormatUint(uint64(materialID), 10)
}

// ParseQRPayload accepts a full payload or a bare material id.
func ParseQRPayload(code string) (uint, bool) {
	raw := strings.TrimPrefix(strings.TrimSpace(code), QRPrefix)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Resolve finds the scanned material within the project.
func (s *MaterialService) Resolve(projectID uint, code string) (*MaterialView, error) {
	id, ok := ParseQRPayload(code)
	if !ok {
		return nil, response.NewBadRequest("Código QR inválido")
	}

	var count int64
	if err := s.db.Model(&models.ProjectMaterial{}).
		Where("project_id = ? AND material_id = ?", projectID, id).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, response.NewNotFound("Material não encontrado neste projeto")
	}
	return s.Get(id, projectID)
}
