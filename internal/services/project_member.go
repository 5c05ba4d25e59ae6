package services

import (
	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinActiveManagers is the number of active GESTOR members a project must
// keep at all times.
const MinActiveManagers = 1

const (
	guardActionRemove     = "remove"
	guardActionDeactivate = "deactivate"
	guardActionDowngrade  = "downgrade"
)

// keepsManagerCondition is true when the row being changed is not a GESTOR
// or when enough active GESTOR rows remain. The target's own status is not
// consulted. The derived table lets MySQL read the table it is updating.
const keepsManagerCondition = "(role <> ? OR " +
	"(SELECT COUNT(*) FROM (SELECT id FROM project_members WHERE project_id = ? AND role = ? AND status = ?) AS managers) > ?)"

type ProjectMemberService struct {
	db      *gorm.DB
	metrics *metrics.Inventory
}

func NewProjectMemberService(db *gorm.DB, m *metrics.Inventory) *ProjectMemberService {
	return &ProjectMemberService{db: db, metrics: m}
}

type UpdateMemberStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ATIVO INATIVO"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=GESTOR COLABORADOR"`
}

// MemberView is a membership with the member's account details.
type MemberView struct {
	ID        uint   `json:"id"`
	ProjectID uint   `json:"projectId"`
	UserID    uint   `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	JoinedAt  string `json:"joinedAt"`
}

func newMemberView(m *models.ProjectMember) *MemberView {
	v := &MemberView{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      m.Role,
		Status:    m.Status,
		JoinedAt:  m.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if m.User != nil {
		v.Name = m.User.Name
		v.Email = m.User.Email
	}
	return v
}

// List returns every member of the project, managers first.
func (s *ProjectMemberService) List(projectID uint) ([]MemberView, error) {
	var members []models.ProjectMember
	err := s.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("role DESC, joined_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	views := make([]MemberView, 0, len(members))
	for i := range members {
		views = append(views, *newMemberView(&members[i]))
	}
	return views, nil
}

// UpdateStatus changes a member's status. Deactivating a GESTOR is rejected
// while the project has at most one active GESTOR.
func (s *ProjectMemberService) UpdateStatus(projectID, memberID uint, status string) (*MemberView, error) {
	if status == models.StatusAtivo {
		return s.update(projectID, memberID, "status", status, "")
	}
	return s.update(projectID, memberID, "status", status, guardActionDeactivate)
}

// UpdateRole changes a member's role. Downgrading the last active GESTOR is
// rejected.
func (s *ProjectMemberService) UpdateRole(projectID, memberID uint, role string) (*MemberView, error) {
	if role == models.RoleGestor {
		return s.update(projectID, memberID, "role", role, "")
	}
	return s.update(projectID, memberID, "role", role, guardActionDowngrade)
}

func (s *ProjectMemberService) update(projectID, memberID uint, column, value, guardAction string) (*MemberView, error) {
	var member models.ProjectMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, projectID); err != nil {
			return err
		}

		query := tx.Model(&models.ProjectMember{}).Where("id = ? AND project_id = ?", memberID, projectID)
		if guardAction != "" {
			query = query.Where(keepsManagerCondition, guardArgs(projectID)...)
		}
		result := query.Update(column, value)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := s.explainNoop(tx, projectID, memberID, guardAction); err != nil {
				return err
			}
		}

		return tx.Preload("User").First(&member, memberID).Error
	})
	if err != nil {
		return nil, err
	}
	return newMemberView(&member), nil
}

// Remove deletes a membership. Removing a GESTOR is rejected while the
// project has at most one active GESTOR.
func (s *ProjectMemberService) Remove(projectID, memberID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, projectID); err != nil {
			return err
		}

		result := tx.Where("id = ? AND project_id = ?", memberID, projectID).
			Where(keepsManagerCondition, guardArgs(projectID)...).
			Delete(&models.ProjectMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return s.explainNoop(tx, projectID, memberID, guardActionRemove)
		}
		return nil
	})
}

// explainNoop tells a missing member apart from a guard rejection after a
// conditional write touched no rows.
func (s *ProjectMemberService) explainNoop(tx *gorm.DB, projectID, memberID uint, guardAction string) error {
	var member models.ProjectMember
	if err := tx.Where("id = ? AND project_id = ?", memberID, projectID).First(&member).Error; err != nil {
		if isNotFound(err) {
			return ErrMemberNotFound
		}
		return err
	}
	// MySQL reports zero affected rows when the value is already set
	if guardAction == "" || member.Role != models.RoleGestor {
		return nil
	}
	s.metrics.GuardRejected(guardAction)
	return ErrLastManager
}

func guardArgs(projectID uint) []interface{} {
	return []interface{}{
		models.RoleGestor,
		projectID, models.RoleGestor, models.StatusAtivo,
		MinActiveManagers,
	}
}

// lockProject serialises membership writes per project where the dialect
// supports row locks, and reports a missing project.
func lockProject(tx *gorm.DB, projectID uint) error {
	var project models.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&project, projectID).Error
	if err != nil {
		if isNotFound(err) {
			return ErrProjectNotFound
		}
		return err
	}
	return nil
}
