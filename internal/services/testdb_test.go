package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/easystock/backend/internal/config"
	"github.com/easystock/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, name string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Password: "not-a-real-hash",
		Name:     name,
		Role:     models.RoleColaborador,
		Status:   models.StatusAtivo,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createProject makes a project whose first GESTOR is owner.
func createProject(t *testing.T, db *gorm.DB, owner *models.User) *ProjectView {
	t.Helper()
	project, err := NewProjectService(db).Create(&CreateProjectRequest{Name: "Obra Centro"}, owner.ID)
	require.NoError(t, err)
	return project
}

func addMember(t *testing.T, db *gorm.DB, projectID uint, user *models.User, role, status string) *models.ProjectMember {
	t.Helper()
	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      role,
		Status:    status,
		JoinedAt:  time.Now(),
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

func createMaterial(t *testing.T, db *gorm.DB, projectID uint, quantity string) *MaterialView {
	t.Helper()
	q := decimal.RequireFromString(quantity)
	minStock := decimal.NewFromInt(5)
	material, err := NewMaterialService(db).Create(&CreateMaterialRequest{
		ProjectID:       projectID,
		Name:            "Cimento CP-II",
		Unit:            "un",
		CurrentQuantity: &q,
		MinStock:        &minStock,
	})
	require.NoError(t, err)
	return material
}

func managerMember(t *testing.T, db *gorm.DB, projectID, userID uint) *models.ProjectMember {
	t.Helper()
	var member models.ProjectMember
	require.NoError(t, db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error)
	return &member
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*EmailMessage
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg *EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
