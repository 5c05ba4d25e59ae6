package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/easystock/backend/internal/config"
	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/internal/utils"
	"github.com/easystock/backend/pkg/response"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{
		db:        db,
		jwtConfig: jwtCfg,
	}
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"omitempty,max=200"`
	Email string `json:"email" binding:"omitempty,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	Token           string       `json:"token"`
	ExpireAt        time.Time    `json:"expireAt"`
	RefreshToken    string       `json:"refreshToken"`
	RefreshExpireAt time.Time    `json:"refreshExpireAt"`
	User            *models.User `json:"user"`
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return &response.AppError{HTTPStatus: 400, Message: "Email inválido", Errors: []string{"email deve ser um email válido"}}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return &response.AppError{
			HTTPStatus: 400,
			Message:    "A senha deve ter pelo menos 6 caracteres",
			Errors:     []string{"password deve ter pelo menos 6 caracteres"},
		}
	}
	return nil
}

// Signup creates a COLABORADOR account. Emails are stored lower-cased.
func (s *AuthService) Signup(req *SignupRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    email,
		Password: hashed,
		Name:     strings.TrimSpace(req.Name),
		Role:     models.RoleColaborador,
		Status:   models.StatusAtivo,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login checks credentials and issues an access token plus a refresh token.
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}

	result, err := s.issue(s.db, &user, clientIP, userAgent, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Model(&user).Update("last_login", now)

	return result, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued in the same transaction.
func (s *AuthService) Refresh(refreshToken, clientIP, userAgent string) (*LoginResult, error) {
	var result *LoginResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token_hash = ?", hashRefreshToken(refreshToken)).First(&stored).Error; err != nil {
			if isNotFound(err) {
				return ErrInvalidRefresh
			}
			return err
		}
		if stored.RevokedAt != nil || time.Now().After(stored.ExpiresAt) {
			return ErrInvalidRefresh
		}

		var user models.User
		if err := tx.First(&user, stored.UserID).Error; err != nil {
			if isNotFound(err) {
				return ErrInvalidRefresh
			}
			return err
		}
		if !user.IsActive() {
			return ErrUserInactive
		}

		var err error
		result, err = s.issue(tx, &user, clientIP, userAgent, &stored)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AuthService) issue(db *gorm.DB, user *models.User, clientIP, userAgent string, replaces *models.RefreshToken) (*LoginResult, error) {
	accessHours := s.jwtConfig.ExpireHour
	refreshHours := s.jwtConfig.RefreshExpireHour
	if refreshHours <= 0 {
		refreshHours = 720
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   now.Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}

	if replaces != nil {
		if err := db.Model(replaces).Updates(map[string]interface{}{
			"revoked_at":           now,
			"replaced_by_token_id": record.ID,
		}).Error; err != nil {
			return nil, err
		}
	}

	return &LoginResult{
		Token:           token,
		ExpireAt:        now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: record.ExpiresAt,
		User:            user,
	}, nil
}

// RevokeRefreshToken is idempotent; unknown tokens are ignored.
func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	tokenHash = hashRefreshToken(token)
	return token, tokenHash, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the user's name and email.
func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Email != "" {
		email := normalizeEmail(req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			var count int64
			if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrEmailTaken
			}
			updates["email"] = email
		}
	}

	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetUserByID(userID)
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(req.CurrentPassword, user.Password) {
		return ErrWrongPassword
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password", hashedPassword).Error
}
