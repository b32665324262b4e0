package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 认证服务
type AuthService struct {
	cfg          *config.Config
	profileRepo  repository.ProfileRepository
	loginLogRepo repository.ProfileLoginLogRepository
	cartRepo     repository.CartRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(
	cfg *config.Config,
	profileRepo repository.ProfileRepository,
	loginLogRepo repository.ProfileLoginLogRepository,
	cartRepo repository.CartRepository,
) *AuthService {
	return &AuthService{
		cfg:          cfg,
		profileRepo:  profileRepo,
		loginLogRepo: loginLogRepo,
		cartRepo:     cartRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *AuthService) ValidatePassword(username, password string) error {
	policy := config.PasswordPolicyConfig{}
	if s != nil && s.cfg != nil {
		policy = s.cfg.Security.PasswordPolicy
	}
	return validatePassword(policy, username, password)
}

// JWTClaims JWT 声明
type JWTClaims struct {
	ProfileID    uint   `json:"profile_id"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(profile *models.Profile) (string, time.Time, error) {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		ProfileID:    profile.ID,
		Role:         profile.Role,
		TokenVersion: profile.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ProfileID == 0 {
		return nil, errors.New("无效的 token")
	}
	return claims, nil
}

// ResolveAuthState 校验令牌版本并返回当前角色（缓存优先，未命中回表）
func (s *AuthService) ResolveAuthState(ctx context.Context, claims *JWTClaims) (*cache.ProfileAuthState, error) {
	if claims == nil {
		return nil, ErrTokenRevoked
	}
	state, hit, err := cache.GetProfileAuthState(ctx, claims.ProfileID)
	if err != nil {
		logger.Warnw("auth_state_cache_get_failed", "profile_id", claims.ProfileID, "error", err)
	}
	if !hit || state == nil {
		profile, err := s.profileRepo.GetByID(claims.ProfileID)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, ErrTokenRevoked
		}
		state = cache.BuildProfileAuthState(profile)
		if err := cache.SetProfileAuthState(ctx, state); err != nil {
			logger.Warnw("auth_state_cache_set_failed", "profile_id", profile.ID, "error", err)
		}
	}
	if state.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenRevoked
	}
	return state, nil
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// Register 注册顾客账号，同一事务内创建当前购物车
func (s *AuthService) Register(in RegisterInput) (*models.Profile, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, newValidationError("username", CodeRequired, "username is required")
	}
	if err := s.ValidatePassword(username, in.Password); err != nil {
		return nil, err
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	profile := &models.Profile{
		Username:     username,
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Role:         constants.RoleCustomer,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.profileRepo.WithTx(tx).Create(profile); err != nil {
			if repository.IsDuplicateKeyError(err) {
				return ErrUsernameExists
			}
			return err
		}
		_, err := ensureActiveCart(s.cartRepo.WithTx(tx), profile)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("profile_registered", "profile_id", profile.ID, "username", profile.Username)
	return profile, nil
}

// LoginInput 登录参数
type LoginInput struct {
	Username  string
	Password  string
	ClientIP  string
	RequestID string
}

// Login 账号登录
func (s *AuthService) Login(in LoginInput) (*models.Profile, string, time.Time, error) {
	username := strings.TrimSpace(in.Username)
	profile, err := s.profileRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if profile == nil {
		s.recordLogin(in, 0, constants.LoginLogStatusFailed, constants.LoginFailReasonNotFound)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(profile.PasswordHash, in.Password); err != nil {
		s.recordLogin(in, profile.ID, constants.LoginLogStatusFailed, constants.LoginFailReasonBadPassword)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(profile)
	if err != nil {
		s.recordLogin(in, profile.ID, constants.LoginLogStatusFailed, constants.LoginFailReasonTokenIssue)
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	profile.LastLoginAt = &now
	if err := s.profileRepo.Update(profile); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetProfileAuthState(context.Background(), cache.BuildProfileAuthState(profile))
	s.recordLogin(in, profile.ID, constants.LoginLogStatusSuccess, "")
	return profile, token, expiresAt, nil
}

func (s *AuthService) recordLogin(in LoginInput, profileID uint, status, reason string) {
	if s.loginLogRepo == nil {
		return
	}
	entry := &models.ProfileLoginLog{
		ProfileID:  profileID,
		Username:   strings.TrimSpace(in.Username),
		Status:     status,
		FailReason: reason,
		ClientIP:   in.ClientIP,
		RequestID:  in.RequestID,
	}
	if err := s.loginLogRepo.Create(entry); err != nil {
		logger.Warnw("login_log_write_failed", "username", entry.Username, "error", err)
	}
}

// ChangePassword 修改密码，同时使旧令牌失效
func (s *AuthService) ChangePassword(profileID uint, oldPassword, newPassword string) error {
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}
	if err := s.VerifyPassword(profile.PasswordHash, oldPassword); err != nil {
		return ErrInvalidPassword
	}
	if err := s.ValidatePassword(profile.Username, newPassword); err != nil {
		return err
	}
	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	profile.PasswordHash = hashedPassword
	profile.TokenVersion++
	if err := s.profileRepo.Update(profile); err != nil {
		return err
	}
	_ = cache.SetProfileAuthState(context.Background(), cache.BuildProfileAuthState(profile))
	return nil
}

// ListLoginLogs 登录日志，本人或管理员可查
func (s *AuthService) ListLoginLogs(actor Actor, profileID uint, page, pageSize int) ([]models.ProfileLoginLog, int64, error) {
	if profileID == 0 {
		profileID = actor.ProfileID
	}
	if profileID != actor.ProfileID && !actor.IsAdmin() {
		return nil, 0, ErrNotAdmin
	}
	return s.loginLogRepo.ListByProfile(profileID, page, pageSize)
}
