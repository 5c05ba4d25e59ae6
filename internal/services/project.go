package services

import (
	"strings"
	"time"

	"github.com/easystock/backend/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// ProjectView is a project as seen by one of its members.
type ProjectView struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	OwnerID      uint      `json:"ownerId"`
	Role         string    `json:"role"`
	MemberStatus string    `json:"memberStatus"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newProjectView(p *models.Project, m *models.ProjectMember) *ProjectView {
	v := &ProjectView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if m != nil {
		v.Role = m.Role
		v.MemberStatus = m.Status
	}
	return v
}

// Create inserts the project and makes the creator its first active GESTOR.
// Both rows are written in one transaction.
func (s *ProjectService) Create(req *CreateProjectRequest, userID uint) (*ProjectView, error) {
	project := models.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		OwnerID:     userID,
	}
	member := models.ProjectMember{
		UserID:   userID,
		Role:     models.RoleGestor,
		Status:   models.StatusAtivo,
		JoinedAt: time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		member.ProjectID = project.ID
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	return newProjectView(&project, &member), nil
}

// ListForUser returns the projects the user is an active member of.
func (s *ProjectService) ListForUser(userID uint) ([]ProjectView, error) {
	var members []models.ProjectMember
	err := s.db.Preload("Project").
		Where("user_id = ? AND status = ?", userID, models.StatusAtivo).
		Order("project_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	views := make([]ProjectView, 0, len(members))
	for i := range members {
		if members[i].Project == nil {
			continue
		}
		views = append(views, *newProjectView(members[i].Project, &members[i]))
	}
	return views, nil
}

// Get returns the project with the caller's membership folded in.
func (s *ProjectService) Get(projectID uint, member *models.ProjectMember) (*ProjectView, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return newProjectView(&project, member), nil
}
