package models

import "time"

// ProjectMember represents a user's membership and role within a project.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"projectId"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:20;not null;index" json:"role"`   // GESTOR, COLABORADOR
	Status    string    `gorm:"size:20;not null;index" json:"status"` // ATIVO, INATIVO, PENDENTE
	JoinedAt  time.Time `json:"joinedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ProjectMember) TableName() string { return "project_members" }

// IsActiveManager reports whether the member counts towards the project's managers.
func (m *ProjectMember) IsActiveManager() bool {
	return m.Role == RoleGestor && m.Status == StatusAtivo
}
