package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/easystock/backend/internal/config"
	"github.com/easystock/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type inviteFixture struct {
	db      *gorm.DB
	svc     *InviteService
	mailer  *fakeMailer
	owner   *models.User
	invitee *models.User
	project *ProjectView
}

func newInviteFixture(t *testing.T) *inviteFixture {
	t.Helper()
	db := newTestDB(t)
	owner := createUser(t, db, "gestor@obra.com", "Gestor")
	invitee := createUser(t, db, "joao@obra.com", "João")
	project := createProject(t, db, owner)

	mailer := &fakeMailer{}
	svc := NewInviteService(db, config.AppConfig{Name: "EasyStock", BaseURL: "https://app.easystock.test/", InviteExpireDays: 7}, mailer, nil)
	queue := NewSyncQueue()
	queue.SetProcessor(svc.ProcessTask)
	svc.SetQueue(queue)

	return &inviteFixture{db: db, svc: svc, mailer: mailer, owner: owner, invitee: invitee, project: project}
}

func (f *inviteFixture) invite(t *testing.T, email, role string) *InviteResult {
	t.Helper()
	result, err := f.svc.Create(context.Background(), f.project.ID, f.owner.ID, &CreateInviteRequest{
		Email:    email,
		Name:     "Convidado",
		Role:     role,
		SentByID: f.owner.ID,
	})
	require.NoError(t, err)
	return result
}

func (f *inviteFixture) token(t *testing.T, inviteID uint) string {
	t.Helper()
	var invite models.ProjectInvite
	require.NoError(t, f.db.First(&invite, inviteID).Error)
	return invite.Token
}

func TestCreateInvite_RequiresExistingAccount(t *testing.T) {
	f := newInviteFixture(t)

	_, err := f.svc.Create(context.Background(), f.project.ID, f.owner.ID, &CreateInviteRequest{
		Email: "ninguem@obra.com", Name: "Ninguém", Role: models.RoleColaborador, SentByID: f.owner.ID,
	})
	requireStatus(t, err, http.StatusNotFound)
	assert.Contains(t, err.Error(), "criar uma conta primeiro")

	var count int64
	f.db.Model(&models.ProjectInvite{}).Count(&count)
	assert.Zero(t, count)
	assert.Zero(t, f.mailer.count())
}

func TestCreateInvite_SendsEmailAndMarksSent(t *testing.T) {
	f := newInviteFixture(t)

	result := f.invite(t, "  JOAO@obra.com ", models.RoleColaborador)

	assert.True(t, result.EmailSent)
	assert.False(t, result.EmailQueued)
	assert.Equal(t, "joao@obra.com", result.Email)
	assert.Equal(t, models.InviteStatusEnviado, result.Status)
	assert.Equal(t, "Obra Centro", result.ProjectName)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), result.ExpiresAt, time.Minute)

	require.Equal(t, 1, f.mailer.count())
	msg := f.mailer.sent[0]
	assert.Equal(t, "joao@obra.com", msg.To)
	assert.Equal(t, "Convite para participar do projeto Obra Centro", msg.Subject)
	token := f.token(t, result.ID)
	assert.Len(t, token, 64)
	assert.Contains(t, msg.HTML, "https://app.easystock.test/convites/aceitar?token="+token)
	assert.Contains(t, msg.HTML, "Colaborador")
}

func TestCreateInvite_EmailFailureKeepsInvite(t *testing.T) {
	f := newInviteFixture(t)
	f.mailer.err = errors.New("connection refused")

	result := f.invite(t, "joao@obra.com", models.RoleGestor)

	assert.False(t, result.EmailSent)
	assert.Equal(t, models.InviteStatusPendente, result.Status)

	var count int64
	f.db.Model(&models.ProjectInvite{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateInvite_Conflicts(t *testing.T) {
	f := newInviteFixture(t)
	f.invite(t, "joao@obra.com", models.RoleColaborador)

	_, err := f.svc.Create(context.Background(), f.project.ID, f.owner.ID, &CreateInviteRequest{
		Email: "joao@obra.com", Name: "João", Role: models.RoleColaborador, SentByID: f.owner.ID,
	})
	requireStatus(t, err, http.StatusConflict)
	assert.ErrorIs(t, err, ErrInviteExists)

	_, err = f.svc.Create(context.Background(), f.project.ID, f.owner.ID, &CreateInviteRequest{
		Email: "gestor@obra.com", Name: "Gestor", Role: models.RoleGestor, SentByID: f.owner.ID,
	})
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestCreateInvite_ConcurrentDuplicatesLeaveOneLiveInvite(t *testing.T) {
	f := newInviteFixture(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), f.project.ID, f.owner.ID, &CreateInviteRequest{
				Email: "joao@obra.com", Name: "João", Role: models.RoleColaborador, SentByID: f.owner.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInviteExists)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, f.db.Model(&models.ProjectInvite{}).Where("email = ?", "joao@obra.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateInvite_UnknownProject(t *testing.T) {
	f := newInviteFixture(t)

	_, err := f.svc.Create(context.Background(), 999, f.owner.ID, &CreateInviteRequest{
		Email: "joao@obra.com", Name: "João", Role: models.RoleColaborador, SentByID: f.owner.ID,
	})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCreateInvite_ExpiredInviteDoesNotBlock(t *testing.T) {
	f := newInviteFixture(t)
	first := f.invite(t, "joao@obra.com", models.RoleColaborador)
	require.NoError(t, f.db.Model(&models.ProjectInvite{}).Where("id = ?", first.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	second := f.invite(t, "joao@obra.com", models.RoleColaborador)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAcceptInvite_CreatesMembership(t *testing.T) {
	f := newInviteFixture(t)
	created := f.invite(t, "joao@obra.com", models.RoleColaborador)

	result, err := f.svc.Accept(f.token(t, created.ID), f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, f.project.ID, result.Project.ID)
	assert.Equal(t, models.RoleColaborador, result.Project.Role)
	assert.Equal(t, models.StatusAtivo, result.Member.Status)
	assert.Equal(t, "joao@obra.com", result.Member.Email)

	var invite models.ProjectInvite
	require.NoError(t, f.db.First(&invite, created.ID).Error)
	assert.Equal(t, models.InviteStatusAceito, invite.Status)
	require.NotNil(t, invite.UserID)
	assert.Equal(t, f.invitee.ID, *invite.UserID)

	access := NewAccessService(f.db)
	member, err := access.RequireMember(f.project.ID, f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleColaborador, member.Role)
}

func TestAcceptInvite_TokenIsSingleUse(t *testing.T) {
	f := newInviteFixture(t)
	created := f.invite(t, "joao@obra.com", models.RoleColaborador)
	token := f.token(t, created.ID)

	_, err := f.svc.Accept(token, f.invitee.ID)
	require.NoError(t, err)

	_, err = f.svc.Accept(token, f.invitee.ID)
	requireStatus(t, err, http.StatusBadRequest)
	assert.ErrorIs(t, err, ErrInviteAlreadyAccepted)

	var members int64
	f.db.Model(&models.ProjectMember{}).Where("project_id = ? AND user_id = ?", f.project.ID, f.invitee.ID).Count(&members)
	assert.EqualValues(t, 1, members)
}

func TestAcceptInvite_Failures(t *testing.T) {
	f := newInviteFixture(t)
	stranger := createUser(t, f.db, "maria@obra.com", "Maria")
	created := f.invite(t, "joao@obra.com", models.RoleColaborador)
	token := f.token(t, created.ID)

	_, err := f.svc.Accept(strings.Repeat("0", 64), f.invitee.ID)
	assert.ErrorIs(t, err, ErrInviteNotFound)

	_, err = f.svc.Accept(token, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.Accept(token, stranger.ID)
	requireStatus(t, err, http.StatusForbidden)
	assert.ErrorIs(t, err, ErrInviteEmailMismatch)

	addMember(t, f.db, f.project.ID, f.invitee, models.RoleColaborador, models.StatusInativo)
	_, err = f.svc.Accept(token, f.invitee.ID)
	requireStatus(t, err, http.StatusConflict)

	var invite models.ProjectInvite
	require.NoError(t, f.db.First(&invite, created.ID).Error)
	assert.NotEqual(t, models.InviteStatusAceito, invite.Status, "failed accepts leave the invite untouched")
}

func TestAcceptInvite_Expired(t *testing.T) {
	f := newInviteFixture(t)
	created := f.invite(t, "joao@obra.com", models.RoleColaborador)

	f.svc.now = func() time.Time { return time.Now().AddDate(0, 0, 8) }
	_, err := f.svc.Accept(f.token(t, created.ID), f.invitee.ID)
	requireStatus(t, err, http.StatusBadRequest)
	assert.ErrorIs(t, err, ErrInviteExpired)

	list, err := f.svc.List(f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.InviteStatusExpirado, list[0].Status)
}

func TestPendingInvites(t *testing.T) {
	f := newInviteFixture(t)
	created := f.invite(t, "joao@obra.com", models.RoleGestor)

	pending, err := f.svc.Pending(f.invitee.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)
	assert.Equal(t, "Obra Centro", pending[0].ProjectName)
	assert.Equal(t, "Gestor", pending[0].SentByName)

	_, err = f.svc.Accept(f.token(t, created.ID), f.invitee.ID)
	require.NoError(t, err)

	pending, err = f.svc.Pending(f.invitee.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.Pending(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResendInvite_RotatesToken(t *testing.T) {
	f := newInviteFixture(t)
	f.mailer.err = errors.New("timeout")
	created := f.invite(t, "joao@obra.com", models.RoleColaborador)
	oldToken := f.token(t, created.ID)

	f.mailer.err = nil
	result, err := f.svc.Resend(context.Background(), f.project.ID, created.ID)
	require.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.Equal(t, models.InviteStatusEnviado, result.Status)

	newToken := f.token(t, created.ID)
	assert.NotEqual(t, oldToken, newToken)

	_, err = f.svc.Accept(oldToken, f.invitee.ID)
	assert.ErrorIs(t, err, ErrInviteNotFound)

	_, err = f.svc.Accept(newToken, f.invitee.ID)
	require.NoError(t, err)

	_, err = f.svc.Resend(context.Background(), f.project.ID, created.ID)
	assert.ErrorIs(t, err, ErrInviteAlreadyAccepted)

	_, err = f.svc.Resend(context.Background(), f.project.ID, 999)
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestDeliverInvite_SkipsAccepted(t *testing.T) {
	f := newInviteFixture(t)
	created := f.invite(t, "joao@obra.com", models.RoleColaborador)
	_, err := f.svc.Accept(f.token(t, created.ID), f.invitee.ID)
	require.NoError(t, err)

	before := f.mailer.count()
	require.NoError(t, f.svc.DeliverInvite(context.Background(), created.ID))
	assert.Equal(t, before, f.mailer.count())
}
