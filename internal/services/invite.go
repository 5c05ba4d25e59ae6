package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/easystock/backend/internal/config"
	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/pkg/logger"
	"github.com/easystock/backend/pkg/metrics"
	"gorm.io/gorm"
)

const (
	inviteTokenBytes        = 32
	defaultInviteExpireDays = 7
)

type InviteService struct {
	db      *gorm.DB
	app     config.AppConfig
	mailer  Mailer
	queue   TaskQueue
	metrics *metrics.Inventory
	now     func() time.Time
}

func NewInviteService(db *gorm.DB, app config.AppConfig, mailer Mailer, m *metrics.Inventory) *InviteService {
	if app.InviteExpireDays <= 0 {
		app.InviteExpireDays = defaultInviteExpireDays
	}
	return &InviteService{db: db, app: app, mailer: mailer, metrics: m, now: time.Now}
}

// SetQueue wires the queue used to deliver invite emails. Without one,
// invites are created but never emailed.
func (s *InviteService) SetQueue(q TaskQueue) {
	s.queue = q
}

type CreateInviteRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"name" binding:"required,max=200"`
	Role     string `json:"role" binding:"required,oneof=GESTOR COLABORADOR"`
	SentByID uint   `json:"sentById" binding:"required"`
}

type AcceptInviteRequest struct {
	Token  string `json:"token" binding:"required"`
	UserID uint   `json:"userId"`
}

// InviteView is an invite with its expiry folded into the status.
type InviteView struct {
	ID          uint      `json:"id"`
	ProjectID   uint      `json:"projectId"`
	ProjectName string    `json:"projectName,omitempty"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expiresAt"`
	SentByID    uint      `json:"sentById"`
	SentByName  string    `json:"sentByName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InviteResult reports an invite together with the outcome of its email.
type InviteResult struct {
	*InviteView
	EmailSent   bool `json:"emailSent"`
	EmailQueued bool `json:"emailQueued"`
}

type AcceptInviteResult struct {
	Message string       `json:"message"`
	Project *ProjectView `json:"project"`
	Member  *MemberView  `json:"member"`
}

func newInviteView(inv *models.ProjectInvite, now time.Time) *InviteView {
	v := &InviteView{
		ID:        inv.ID,
		ProjectID: inv.ProjectID,
		Email:     inv.Email,
		Name:      inv.Name,
		Role:      inv.Role,
		Status:    inv.EffectiveStatus(now),
		ExpiresAt: inv.ExpiresAt,
		SentByID:  inv.SentByID,
		CreatedAt: inv.CreatedAt,
	}
	if inv.Project != nil {
		v.ProjectName = inv.Project.Name
	}
	if inv.SentBy != nil {
		v.SentByName = inv.SentBy.Name
	}
	return v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateInviteToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *InviteService) expiry() time.Time {
	return s.now().AddDate(0, 0, s.app.InviteExpireDays)
}

// Create stores a PENDENTE invite for an existing account and tries to
// deliver its email. A failed delivery keeps the invite.
func (s *InviteService) Create(ctx context.Context, projectID, sentByID uint, req *CreateInviteRequest) (*InviteResult, error) {
	email := normalizeEmail(req.Email)
	now := s.now()

	var invite models.ProjectInvite
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// one live-invite check per project at a time
		if err := lockProject(tx, projectID); err != nil {
			return err
		}

		var invitee models.User
		if err := tx.Where("email = ?", email).First(&invitee).Error; err != nil {
			if isNotFound(err) {
				return ErrInviteeNotFound
			}
			return err
		}

		var members int64
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, invitee.ID).
			Count(&members).Error; err != nil {
			return err
		}
		if members > 0 {
			return ErrAlreadyMember
		}

		var live int64
		if err := tx.Model(&models.ProjectInvite{}).
			Where("project_id = ? AND email = ? AND status <> ? AND expires_at > ?",
				projectID, email, models.InviteStatusAceito, now).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return ErrInviteExists
		}

		token, err := generateInviteToken()
		if err != nil {
			return err
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = invitee.Name
		}
		invite = models.ProjectInvite{
			ProjectID: projectID,
			Email:     email,
			Name:      name,
			Role:      req.Role,
			Token:     token,
			Status:    models.InviteStatusPendente,
			ExpiresAt: s.expiry(),
			SentByID:  sentByID,
			UserID:    &invitee.ID,
		}
		return tx.Create(&invite).Error
	})
	if err != nil {
		return nil, err
	}

	s.metrics.InviteCreated()
	logger.Info().Uint("invite_id", invite.ID).Uint("project_id", projectID).Str("email", email).Msg("[Invite] Created")

	sent, queued := s.dispatch(ctx, invite.ID)
	return s.result(invite.ID, sent, queued)
}

// Resend issues a fresh token and expiry for a non-accepted invite and
// retries delivery.
func (s *InviteService) Resend(ctx context.Context, projectID, inviteID uint) (*InviteResult, error) {
	var invite models.ProjectInvite
	if err := s.db.Where("id = ? AND project_id = ?", inviteID, projectID).First(&invite).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	if invite.Status == models.InviteStatusAceito {
		return nil, ErrInviteAlreadyAccepted
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, err
	}
	result := s.db.Model(&models.ProjectInvite{}).
		Where("id = ? AND status <> ?", invite.ID, models.InviteStatusAceito).
		Updates(map[string]interface{}{
			"token":      token,
			"expires_at": s.expiry(),
			"status":     models.InviteStatusPendente,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInviteAlreadyAccepted
	}

	sent, queued := s.dispatch(ctx, invite.ID)
	return s.result(invite.ID, sent, queued)
}

func (s *InviteService) dispatch(ctx context.Context, inviteID uint) (sent, queued bool) {
	if s.queue == nil {
		return false, false
	}
	err := s.queue.Enqueue(ctx, &InviteEmailTask{InviteID: inviteID})
	if err != nil {
		logger.Warn().Err(err).Uint("invite_id", inviteID).Msg("[Invite] Email not delivered")
		return false, false
	}
	if s.queue.IsAsync() {
		return false, true
	}
	return true, false
}

func (s *InviteService) result(inviteID uint, sent, queued bool) (*InviteResult, error) {
	var invite models.ProjectInvite
	if err := s.db.Preload("Project").Preload("SentBy").First(&invite, inviteID).Error; err != nil {
		return nil, err
	}
	return &InviteResult{
		InviteView:  newInviteView(&invite, s.now()),
		EmailSent:   sent,
		EmailQueued: queued,
	}, nil
}

// ProcessTask is the queue processor for invite email tasks.
func (s *InviteService) ProcessTask(ctx context.Context, task *InviteEmailTask) error {
	return s.DeliverInvite(ctx, task.InviteID)
}

// DeliverInvite emails the invite and marks it ENVIADO on success. Accepted
// or expired invites are skipped.
func (s *InviteService) DeliverInvite(ctx context.Context, inviteID uint) error {
	var invite models.ProjectInvite
	if err := s.db.Preload("Project").Preload("SentBy").First(&invite, inviteID).Error; err != nil {
		if isNotFound(err) {
			return ErrInviteNotFound
		}
		return err
	}

	now := s.now()
	if invite.Status == models.InviteStatusAceito || invite.IsExpired(now) {
		logger.Info().Uint("invite_id", invite.ID).Str("status", invite.EffectiveStatus(now)).Msg("[Invite] Skipping delivery")
		return nil
	}
	if s.mailer == nil {
		s.metrics.InviteEmail("disabled")
		return ErrMailerDisabled
	}

	msg, err := s.buildEmail(&invite)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, ErrMailerDisabled) {
			s.metrics.InviteEmail("disabled")
		} else {
			s.metrics.InviteEmail("failed")
		}
		return err
	}
	s.metrics.InviteEmail("sent")

	return s.db.Model(&models.ProjectInvite{}).
		Where("id = ? AND status = ?", invite.ID, models.InviteStatusPendente).
		Update("status", models.InviteStatusEnviado).Error
}

// AcceptURL is the link embedded in the invite email.
func (s *InviteService) AcceptURL(token string) string {
	base := strings.TrimRight(s.app.BaseURL, "/")
	return base + "/convites/aceitar?token=" + url.QueryEscape(token)
}

func (s *InviteService) buildEmail(invite *models.ProjectInvite) (*EmailMessage, error) {
	projectName := ""
	if invite.Project != nil {
		projectName = invite.Project.Name
	}
	senderName := s.app.Name
	if invite.SentBy != nil {
		senderName = invite.SentBy.Name
	}

	body, err := renderInviteEmail(&inviteEmailData{
		AppName:     s.app.Name,
		Name:        invite.Name,
		SenderName:  senderName,
		ProjectName: projectName,
		RoleLabel:   roleLabel(invite.Role),
		AcceptURL:   s.AcceptURL(invite.Token),
		ExpiresAt:   invite.ExpiresAt.Format("02/01/2006 15:04"),
	})
	if err != nil {
		return nil, err
	}
	return &EmailMessage{
		To:      invite.Email,
		Subject: InviteSubject(projectName),
		HTML:    body,
	}, nil
}

// Accept turns a live invite into an active membership. The invite flip is
// conditional, so each token is accepted at most once.
func (s *InviteService) Accept(token string, userID uint) (*AcceptInviteResult, error) {
	now := s.now()
	var (
		invite  models.ProjectInvite
		project models.Project
		member  models.ProjectMember
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&invite).Error; err != nil {
			if isNotFound(err) {
				return ErrInviteNotFound
			}
			return err
		}
		if invite.Status != models.InviteStatusAceito && invite.IsExpired(now) {
			return ErrInviteExpired
		}
		if invite.Status == models.InviteStatusAceito {
			return ErrInviteAlreadyAccepted
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		if normalizeEmail(user.Email) != invite.Email {
			return ErrInviteEmailMismatch
		}

		var existing int64
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", invite.ProjectID, user.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyMember
		}

		flip := tx.Model(&models.ProjectInvite{}).
			Where("id = ? AND status <> ?", invite.ID, models.InviteStatusAceito).
			Updates(map[string]interface{}{
				"status":  models.InviteStatusAceito,
				"user_id": user.ID,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return ErrInviteAlreadyAccepted
		}

		member = models.ProjectMember{
			ProjectID: invite.ProjectID,
			UserID:    user.ID,
			Role:      invite.Role,
			Status:    models.StatusAtivo,
			JoinedAt:  now,
			User:      &user,
		}
		if err := tx.Omit("User").Create(&member).Error; err != nil {
			return err
		}

		if err := tx.First(&project, invite.ProjectID).Error; err != nil {
			if isNotFound(err) {
				return ErrProjectNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.InviteAccepted()
	logger.Info().Uint("invite_id", invite.ID).Uint("user_id", userID).Msg("[Invite] Accepted")

	return &AcceptInviteResult{
		Message: "Convite aceito com sucesso",
		Project: newProjectView(&project, &member),
		Member:  newMemberView(&member),
	}, nil
}

// Pending returns the live invites addressed to the user's email.
func (s *InviteService) Pending(userID uint) ([]InviteView, error) {
	var user models.User
	if err := s.db.Select("id", "email").First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	var invites []models.ProjectInvite
	err := s.db.Preload("Project").Preload("SentBy").
		Where("email = ? AND status IN ? AND expires_at > ?", normalizeEmail(user.Email),
			[]string{models.InviteStatusPendente, models.InviteStatusEnviado}, now).
		Order("created_at DESC, id DESC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}

	views := make([]InviteView, 0, len(invites))
	for i := range invites {
		views = append(views, *newInviteView(&invites[i], now))
	}
	return views, nil
}

// List returns every invite of the project, newest first.
func (s *InviteService) List(projectID uint) ([]InviteView, error) {
	var invites []models.ProjectInvite
	err := s.db.Preload("SentBy").
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]InviteView, 0, len(invites))
	for i := range invites {
		views = append(views, *newInviteView(&invites[i], now))
	}
	return views, nil
}
