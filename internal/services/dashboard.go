package services

import (
	"time"

	"github.com/easystock/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dashboardRecentLimit = 5

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type MaterialStats struct {
	Total      int64 `json:"total"`
	InStock    int64 `json:"inStock"`
	LowStock   int64 `json:"lowStock"`
	OutOfStock int64 `json:"outOfStock"`
}

type MovementStats struct {
	Total   int64 `json:"total"`
	Entries int64 `json:"entries"`
	Exits   int64 `json:"exits"`
	Last30  int64 `json:"last30Days"`
}

type DashboardResponse struct {
	ProjectID       uint            `json:"projectId"`
	Materials       MaterialStats   `json:"materials"`
	Movements       MovementStats   `json:"movements"`
	StockValue      decimal.Decimal `json:"stockValue"`
	ActiveMembers   int64           `json:"activeMembers"`
	PendingInvites  int64           `json:"pendingInvites"`
	LowStockItems   []MaterialView  `json:"lowStockItems"`
	RecentMovements []MovementView  `json:"recentMovements"`
}

// GetStats summarises one project. Material status is derived in Go with the
// same rule the material endpoints use.
func (s *DashboardService) GetStats(projectID uint) (*DashboardResponse, error) {
	resp := &DashboardResponse{
		ProjectID:       projectID,
		LowStockItems:   []MaterialView{},
		RecentMovements: []MovementView{},
	}

	var materials []models.Material
	err := s.db.Joins("JOIN project_materials ON project_materials.material_id = materials.id").
		Where("project_materials.project_id = ?", projectID).
		Order("materials.current_quantity ASC, materials.id ASC").
		Find(&materials).Error
	if err != nil {
		return nil, err
	}
	for i := range materials {
		view := NewMaterialView(&materials[i], projectID)
		resp.Materials.Total++
		resp.StockValue = resp.StockValue.Add(view.Quantity.Mul(view.Price))
		switch view.Status {
		case StockStatusOut:
			resp.Materials.OutOfStock++
			resp.LowStockItems = append(resp.LowStockItems, *view)
		case StockStatusLow:
			resp.Materials.LowStock++
			resp.LowStockItems = append(resp.LowStockItems, *view)
		default:
			resp.Materials.InStock++
		}
	}

	var byType []struct {
		Type  string
		Count int64
	}
	if err := s.db.Model(&models.MovementRecord{}).
		Select("type, COUNT(*) as count").
		Where("project_id = ?", projectID).
		Group("type").
		Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, row := range byType {
		resp.Movements.Total += row.Count
		if row.Type == models.MovementEntry {
			resp.Movements.Entries += row.Count
		} else {
			resp.Movements.Exits += row.Count
		}
	}

	s.db.Model(&models.MovementRecord{}).
		Where("project_id = ? AND timestamp >= ?", projectID, time.Now().AddDate(0, 0, -30)).
		Count(&resp.Movements.Last30)

	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND status = ?", projectID, models.StatusAtivo).
		Count(&resp.ActiveMembers)

	s.db.Model(&models.ProjectInvite{}).
		Where("project_id = ? AND status IN ? AND expires_at > ?", projectID,
			[]string{models.InviteStatusPendente, models.InviteStatusEnviado}, time.Now()).
		Count(&resp.PendingInvites)

	var recent []models.MovementRecord
	if err := s.db.Preload("User").Preload("Material").
		Where("project_id = ?", projectID).
		Order("timestamp DESC, id DESC").
		Limit(dashboardRecentLimit).
		Find(&recent).Error; err != nil {
		return nil, err
	}
	for i := range recent {
		resp.RecentMovements = append(resp.RecentMovements, *newMovementView(&recent[i]))
	}

	return resp, nil
}
