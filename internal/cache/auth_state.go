package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/maryema-next/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// ProfileAuthState 账号鉴权快照
// 该结构仅用于服务端 Redis 缓存，避免每次请求回表查询角色与 Token 版本
type ProfileAuthState struct {
	ProfileID    uint   `json:"profile_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

func profileAuthStateKey(profileID uint) string {
	return fmt.Sprintf("auth:profile:%d", profileID)
}

// BuildProfileAuthState 从账号模型构建鉴权快照
func BuildProfileAuthState(profile *models.Profile) *ProfileAuthState {
	if profile == nil {
		return nil
	}
	return &ProfileAuthState{
		ProfileID:    profile.ID,
		Username:     profile.Username,
		Role:         profile.Role,
		TokenVersion: profile.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetProfileAuthState 获取账号鉴权快照
func GetProfileAuthState(ctx context.Context, profileID uint) (*ProfileAuthState, bool, error) {
	if profileID == 0 {
		return nil, false, nil
	}
	var state ProfileAuthState
	hit, err := GetJSON(ctx, profileAuthStateKey(profileID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetProfileAuthState 写入账号鉴权快照
func SetProfileAuthState(ctx context.Context, state *ProfileAuthState) error {
	if state == nil || state.ProfileID == 0 {
		return nil
	}
	return SetJSON(ctx, profileAuthStateKey(state.ProfileID), state, authStateCacheTTL)
}

// DelProfileAuthState 删除账号鉴权快照
func DelProfileAuthState(ctx context.Context, profileID uint) error {
	if profileID == 0 {
		return nil
	}
	return Del(ctx, profileAuthStateKey(profileID))
}
