package services

import (
	"time"

	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/pkg/metrics"
	"github.com/easystock/backend/pkg/response"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultLocation      = "Local do Projeto"
	defaultJustification = "Movimentação de estoque"
)

// MovementService records stock movements and keeps material quantities in
// step with the ledger.
type MovementService struct {
	db      *gorm.DB
	metrics *metrics.Inventory
}

func NewMovementService(db *gorm.DB, m *metrics.Inventory) *MovementService {
	return &MovementService{db: db, metrics: m}
}

type RecordMovementRequest struct {
	Quantity      *decimal.Decimal `json:"quantity" binding:"required"`
	Type          string           `json:"type" binding:"required"`
	UserID        uint             `json:"userId" binding:"required"`
	MaterialID    uint             `json:"materialId" binding:"required"`
	ProjectID     uint             `json:"projectId" binding:"required"`
	Location      string           `json:"location" binding:"max=200"`
	Justification string           `json:"justification" binding:"max=500"`
}

// MovementView is a ledger entry as shown in the movement history.
type MovementView struct {
	ID               uint            `json:"id"`
	ProjectID        uint            `json:"projectId"`
	UserID           uint            `json:"userId"`
	UserName         string          `json:"userName"`
	Type             string          `json:"type"`
	ActionType       string          `json:"actionType"`
	MaterialID       uint            `json:"materialId"`
	MaterialName     string          `json:"materialName"`
	MaterialCategory string          `json:"materialCategory"`
	Quantity         decimal.Decimal `json:"quantity"`
	Date             time.Time       `json:"date"`
	Location         string          `json:"location"`
	Justification    string          `json:"justification"`
	Material         *MaterialView   `json:"material,omitempty"`
}

func newMovementView(r *models.MovementRecord) *MovementView {
	v := &MovementView{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		UserID:        r.UserID,
		Type:          r.Type,
		ActionType:    ActionLabel(r.Type),
		MaterialID:    r.MaterialID,
		Quantity:      r.Quantity,
		Date:          r.Timestamp,
		Location:      r.Location,
		Justification: r.Justification,
	}
	if r.User != nil {
		v.UserName = r.User.Name
	}
	if r.Material != nil {
		v.MaterialName = r.Material.Name
		v.MaterialCategory = r.Material.Type
		if v.MaterialCategory == "" {
			v.MaterialCategory = defaultCategory
		}
	}
	return v
}

// quantityUpdate computes the new quantity inside the UPDATE statement so
// concurrent movements never overwrite each other.
func quantityUpdate(movementType string, quantity decimal.Decimal) clause.Expr {
	if movementType == models.MovementEntry {
		return gorm.Expr("ROUND(current_quantity + ?, 4)", quantity)
	}
	return gorm.Expr("ROUND(CASE WHEN current_quantity - ? < 0 THEN 0 ELSE current_quantity - ? END, 4)", quantity, quantity)
}

// Record validates the references, appends the movement and applies it to
// the material, all in one transaction.
func (s *MovementService) Record(req *RecordMovementRequest) (*MovementView, error) {
	movementType, ok := ParseMovementType(req.Type)
	if !ok {
		return nil, &response.AppError{
			HTTPStatus: 400,
			Message:    "Tipo de movimentação inválido",
			Errors:     []string{"type deve ser entrada ou saída"},
		}
	}
	if !req.Quantity.IsPositive() {
		return nil, &response.AppError{
			HTTPStatus: 400,
			Message:    "Quantidade inválida",
			Errors:     []string{"quantity deve ser maior que zero"},
		}
	}

	location := req.Location
	if location == "" {
		location = defaultLocation
	}
	justification := req.Justification
	if justification == "" {
		justification = defaultJustification
	}

	var view *MovementView
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var material models.Material
		if err := tx.First(&material, req.MaterialID).Error; err != nil {
			if isNotFound(err) {
				return ErrMaterialNotFound
			}
			return err
		}
		var project models.Project
		if err := tx.Select("id").First(&project, req.ProjectID).Error; err != nil {
			if isNotFound(err) {
				return ErrProjectNotFound
			}
			return err
		}
		var user models.User
		if err := tx.First(&user, req.UserID).Error; err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		var linked int64
		if err := tx.Model(&models.ProjectMaterial{}).
			Where("project_id = ? AND material_id = ?", req.ProjectID, req.MaterialID).
			Count(&linked).Error; err != nil {
			return err
		}
		if linked == 0 {
			return response.NewNotFound("Material não encontrado neste projeto")
		}

		record := models.MovementRecord{
			Quantity:      *req.Quantity,
			Type:          movementType,
			Location:      location,
			Justification: justification,
			Timestamp:     time.Now(),
			UserID:        user.ID,
			MaterialID:    material.ID,
			ProjectID:     req.ProjectID,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Material{}).
			Where("id = ?", material.ID).
			Update("current_quantity", quantityUpdate(movementType, *req.Quantity)).Error; err != nil {
			return err
		}
		if err := tx.First(&material, material.ID).Error; err != nil {
			return err
		}

		record.User = &user
		record.Material = &material
		view = newMovementView(&record)
		view.Material = NewMaterialView(&material, req.ProjectID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MovementRecorded(movementType)
	return view, nil
}

// List returns the project's movements, newest first.
func (s *MovementService) List(projectID uint) ([]MovementView, error) {
	var records []models.MovementRecord
	err := s.db.Preload("User").Preload("Material").
		Where("project_id = ?", projectID).
		Order("timestamp DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	views := make([]MovementView, 0, len(records))
	for i := range records {
		views = append(views, *newMovementView(&records[i]))
	}
	return views, nil
}
