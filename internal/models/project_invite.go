package models

import "time"

const (
	InviteStatusPendente = "PENDENTE"
	InviteStatusEnviado  = "ENVIADO"
	InviteStatusAceito   = "ACEITO"

	// InviteStatusExpirado is derived from ExpiresAt and never stored.
	InviteStatusExpirado = "EXPIRADO"
)

// ProjectInvite is a single-use token granting an email access to a project.
type ProjectInvite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"projectId"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Email     string    `gorm:"size:255;index;not null" json:"email"`
	Name      string    `gorm:"size:200" json:"name"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Status    string    `gorm:"size:20;not null;index" json:"status"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`
	SentByID  uint      `gorm:"index;not null" json:"sentById"`
	SentBy    *User     `gorm:"foreignKey:SentByID" json:"sentBy,omitempty"`
	UserID    *uint     `gorm:"index" json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ProjectInvite) TableName() string { return "project_invites" }

// IsExpired reports whether the invite can no longer be accepted at now.
func (i *ProjectInvite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// EffectiveStatus folds expiry into the stored status.
func (i *ProjectInvite) EffectiveStatus(now time.Time) string {
	if i.Status != InviteStatusAceito && i.IsExpired(now) {
		return InviteStatusExpirado
	}
	return i.Status
}
