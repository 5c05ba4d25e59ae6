package models

import "time"

// Global user roles and statuses share the project vocabulary.
const (
	RoleGestor      = "GESTOR"
	RoleColaborador = "COLABORADOR"

	StatusAtivo    = "ATIVO"
	StatusInativo  = "INATIVO"
	StatusPendente = "PENDENTE"
)

// User represents an EasyStock account
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"` // stored lower-cased
	Password  string     `gorm:"size:255;not null" json:"-"`
	Name      string     `gorm:"size:200;not null" json:"name"`
	Role      string     `gorm:"size:20;default:COLABORADOR" json:"role"`
	Status    string     `gorm:"size:20;default:ATIVO" json:"status"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == StatusAtivo
}
