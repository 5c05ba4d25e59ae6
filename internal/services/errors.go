package services

import (
	"errors"

	"github.com/easystock/backend/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = response.NewNotFound("Usuário não encontrado")
	ErrProjectNotFound  = response.NewNotFound("Projeto não encontrado")
	ErrMemberNotFound   = response.NewNotFound("Membro não encontrado")
	ErrMaterialNotFound = response.NewNotFound("Material não encontrado")
	ErrInviteNotFound   = response.NewNotFound("Convite não encontrado")

	ErrNotProjectMember   = response.NewForbidden("Você não é um membro ativo deste projeto")
	ErrManagerRequired    = response.NewForbidden("Apenas gestores do projeto podem realizar esta ação")
	ErrActingUserMismatch = response.NewForbidden("O usuário informado não corresponde ao usuário autenticado")

	ErrLastManager = response.NewBadRequest("Não é possível remover ou desativar o último gestor ativo do projeto")

	ErrInviteeNotFound       = response.NewNotFound("Usuário com este email não encontrado. O usuário precisa criar uma conta primeiro")
	ErrInviteExists          = response.NewConflict("Já existe um convite pendente para este email")
	ErrAlreadyMember         = response.NewConflict("Usuário já é membro deste projeto")
	ErrInviteExpired         = response.NewBadRequest("Este convite expirou")
	ErrInviteAlreadyAccepted = response.NewBadRequest("Este convite já foi aceito")
	ErrInviteEmailMismatch   = response.NewForbidden("Este convite foi enviado para outro email")

	ErrInvalidCredentials = response.NewUnauthorized("Email ou senha inválidos")
	ErrInvalidRefresh     = response.NewUnauthorized("Sessão inválida ou expirada")
	ErrUserInactive       = response.NewForbidden("Usuário inativo")
	ErrEmailTaken         = response.NewConflict("Este email já está cadastrado")
	ErrWrongPassword      = response.NewUnauthorized("Senha atual incorreta")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
