package services

import (
	"github.com/easystock/backend/internal/models"
	"gorm.io/gorm"
)

// AccessService answers "may this user act on this project" questions.
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// RequireMember returns the user's active membership in the project.
func (s *AccessService) RequireMember(projectID, userID uint) (*models.ProjectMember, error) {
	var project models.Project
	if err := s.db.Select("id").First(&project, projectID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	var member models.ProjectMember
	err := s.db.Where("project_id = ? AND user_id = ? AND status = ?", projectID, userID, models.StatusAtivo).
		First(&member).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotProjectMember
		}
		return nil, err
	}
	return &member, nil
}

// RequireManager is RequireMember restricted to GESTOR.
func (s *AccessService) RequireManager(projectID, userID uint) (*models.ProjectMember, error) {
	member, err := s.RequireMember(projectID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsActiveManager() {
		return nil, ErrManagerRequired
	}
	return member, nil
}

// RequireMaterialMember resolves a material to a project the user is an
// active member of.
func (s *AccessService) RequireMaterialMember(materialID, userID uint) (uint, error) {
	var material models.Material
	if err := s.db.Select("id").First(&material, materialID).Error; err != nil {
		if isNotFound(err) {
			return 0, ErrMaterialNotFound
		}
		return 0, err
	}

	var projectIDs []uint
	err := s.db.Table("project_materials AS pm").
		Joins("JOIN project_members AS m ON m.project_id = pm.project_id").
		Where("pm.material_id = ? AND m.user_id = ? AND m.status = ?", materialID, userID, models.StatusAtivo).
		Order("pm.project_id").
		Limit(1).
		Pluck("pm.project_id", &projectIDs).Error
	if err != nil {
		return 0, err
	}
	if len(projectIDs) == 0 {
		return 0, ErrNotProjectMember
	}
	return projectIDs[0], nil
}
