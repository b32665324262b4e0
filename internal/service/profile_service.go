package service

import (
	"context"
	"strings"

	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"gorm.io/gorm"
)

// ProfileService 账号资料与心愿单
type ProfileService struct {
	profileRepo repository.ProfileRepository
	variantRepo repository.ProductVariantRepository
	cartRepo    repository.CartRepository
	auth        *AuthService
}

// NewProfileService 创建账号服务
func NewProfileService(
	profileRepo repository.ProfileRepository,
	variantRepo repository.ProductVariantRepository,
	cartRepo repository.CartRepository,
	auth *AuthService,
) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		variantRepo: variantRepo,
		cartRepo:    cartRepo,
		auth:        auth,
	}
}

// Get 账号详情
func (s *ProfileService) Get(id uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// List 管理员查看账号列表
func (s *ProfileService) List(actor Actor, filter repository.ProfileListFilter) ([]models.Profile, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, ErrNotAdmin
	}
	filter.Role = strings.ToLower(strings.TrimSpace(filter.Role))
	return s.profileRepo.List(filter)
}

// UpdateContactInput 资料修改参数
type UpdateContactInput struct {
	PhoneNumber *string `json:"phone_number"`
	Note        *string `json:"note"`
}

// UpdateContact 修改本人资料
func (s *ProfileService) UpdateContact(actor Actor, in UpdateContactInput) (*models.Profile, error) {
	profile, err := s.Get(actor.ProfileID)
	if err != nil {
		return nil, err
	}
	if in.PhoneNumber != nil {
		profile.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Note != nil {
		profile.Note = strings.TrimSpace(*in.Note)
	}
	if err := s.profileRepo.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func isKnownRole(role string) bool {
	switch role {
	case constants.RoleAdmin, constants.RoleCustomer, constants.RoleProvider:
		return true
	}
	return false
}

// UpdateRole 管理员修改角色；改为顾客时补建购物车，并清除鉴权缓存
func (s *ProfileService) UpdateRole(actor Actor, id uint, role string) (*models.Profile, error) {
	profile, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !isKnownRole(role) {
		return nil, newValidationError("role", CodeRoleInvalid, "role must be admin, customer or provider")
	}
	if role == profile.Role {
		return profile, nil
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.profileRepo.WithTx(tx).UpdateRole(id, role); err != nil {
			return err
		}
		if role != constants.RoleCustomer {
			return nil
		}
		profile.Role = role
		_, err := ensureActiveCart(s.cartRepo.WithTx(tx), profile)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := cache.DelProfileAuthState(context.Background(), id); err != nil {
		logger.Warnw("auth_state_cache_delete_failed", "profile_id", id, "error", err)
	}
	logger.Infow("profile_role_changed", "profile_id", id, "role", role, "actor_id", actor.ProfileID)
	return s.Get(id)
}

// ListWishlist 心愿单列表
func (s *ProfileService) ListWishlist(actor Actor) ([]models.ProductVariant, error) {
	return s.profileRepo.ListWishlist(actor.ProfileID)
}

// AddWishlist 加入心愿单
func (s *ProfileService) AddWishlist(actor Actor, variantID uint) ([]models.ProductVariant, error) {
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	if err := s.profileRepo.AddWishlist(actor.ProfileID, variantID); err != nil {
		return nil, err
	}
	return s.ListWishlist(actor)
}

// RemoveWishlist 移出心愿单
func (s *ProfileService) RemoveWishlist(actor Actor, variantID uint) ([]models.ProductVariant, error) {
	if err := s.profileRepo.RemoveWishlist(actor.ProfileID, variantID); err != nil {
		return nil, err
	}
	return s.ListWishlist(actor)
}

// EnsureDefaultAdmin 启动时确保存在默认管理员
func (s *ProfileService) EnsureDefaultAdmin(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}
	existing, err := s.profileRepo.GetByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.Profile{Username: username, PasswordHash: hash, Role: constants.RoleAdmin}
	if err := s.profileRepo.Create(admin); err != nil {
		return translateWriteError(err)
	}
	logger.Infow("default_admin_created", "profile_id", admin.ID, "username", username)
	return nil
}
