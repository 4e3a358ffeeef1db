// internal/services/auth_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// AuthService exchanges Telegram Mini App init data for a session
// token, provisioning the user row on first login. Admin accounts use
// a password instead.
type AuthService struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

type TelegramLoginRequest struct {
	InitData string          `json:"init_data" validate:"required"`
	UserType models.UserType `json:"user_type" validate:"required,oneof=advertiser publisher"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, config: cfg, now: time.Now}
}

// TelegramLogin validates the init data signature and issues tokens.
// A first-time user is created with the requested role; a returning
// user keeps their stored role regardless of the request.
func (s *AuthService) TelegramLogin(req *TelegramLoginRequest) (*AuthResponse, error) {
	maxAge := time.Duration(s.config.Telegram.InitDataMaxAge) * time.Second
	tgUser, err := utils.ValidateInitData(req.InitData, s.config.Telegram.BotToken, maxAge)
	if err != nil {
		return nil, wrapError(ErrCodeForbidden, i18n.KeyAuthInvalidInitData, err)
	}

	now := s.now()
	var user models.User
	err = s.db.Where("telegram_id = ?", tgUser.ID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		lang := tgUser.LanguageCode
		if lang == "" {
			lang = s.config.I18n.DefaultLocale
		}
		user = models.User{
			TelegramID:   tgUser.ID,
			Username:     tgUser.Username,
			FirstName:    tgUser.FirstName,
			LastName:     tgUser.LastName,
			UserType:     req.UserType,
			Status:       models.UserStatusActive,
			LanguageCode: lang,
			LastLoginAt:  &now,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, internalError(err)
		}
	case err != nil:
		return nil, internalError(err)
	default:
		if user.Status != models.UserStatusActive {
			return nil, newError(ErrCodeForbidden, i18n.KeyAccessDenied)
		}
		updates := map[string]interface{}{
			"username":      tgUser.Username,
			"first_name":    tgUser.FirstName,
			"last_name":     tgUser.LastName,
			"last_login_at": now,
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, internalError(err)
		}
	}

	return s.issueTokens(&user)
}

// AdminLogin authenticates an admin by username and password.
func (s *AuthService) AdminLogin(req *AdminLoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.Where("username = ? AND user_type = ?", req.Username, models.UserTypeAdmin).
		First(&user).Error
	if err != nil {
		return nil, wrapError(ErrCodeForbidden, i18n.KeyAuthInvalidCredentials, err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, wrapError(ErrCodeForbidden, i18n.KeyAuthInvalidCredentials, err)
	}
	if user.Status != models.UserStatusActive {
		return nil, newError(ErrCodeForbidden, i18n.KeyAccessDenied)
	}

	now := s.now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, internalError(err)
	}

	return s.issueTokens(&user)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (s *AuthService) RefreshToken(req *RefreshTokenRequest) (*AuthResponse, error) {
	subject, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, wrapError(ErrCodeForbidden, i18n.KeyAuthInvalidToken, err)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, wrapError(ErrCodeForbidden, i18n.KeyAuthInvalidToken, err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, wrapError(ErrCodeForbidden, i18n.KeyAuthInvalidToken, err)
	}
	if user.Status != models.UserStatusActive {
		return nil, newError(ErrCodeForbidden, i18n.KeyAccessDenied)
	}

	return s.issueTokens(&user)
}

// GetProfile returns the user row for an authenticated session.
func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Channels").First(&user, "id = ?", userID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyError, err)
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateJWT(user.ID, user.TelegramID, user.Username,
		string(user.UserType), s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, internalError(err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.config.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, internalError(err)
	}

	return &AuthResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
