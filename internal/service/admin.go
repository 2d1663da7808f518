package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/repository"
)

type StatsSource interface {
	Collect(ctx context.Context) (repository.Stats, error)
}

type UserAdmin interface {
	List(ctx context.Context, limit, offset int) ([]model.User, error)
	SetActive(ctx context.Context, id uint64, active bool) error
}

type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// UserSummary is a user as listed on the admin dashboard.
type UserSummary struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Lang     string `json:"lang"`
	IsActive bool   `json:"is_active"`
}

type AdminService struct {
	stats  StatsSource
	users  UserAdmin
	tokens TokenRevoker
	log    zerolog.Logger
}

func NewAdminService(stats StatsSource, users UserAdmin, tokens TokenRevoker, log zerolog.Logger) *AdminService {
	return &AdminService{stats: stats, users: users, tokens: tokens, log: log}
}

func (s *AdminService) Dashboard(ctx context.Context) (repository.Stats, error) {
	return s.stats.Collect(ctx)
}

func (s *AdminService) Users(ctx context.Context, limit, offset int) ([]UserSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role, Lang: u.Lang, IsActive: u.IsActive})
	}
	return out, nil
}

// SetActive enables or disables a user.  Disabling also revokes every
// refresh token so open sessions end when their access token expires.
func (s *AdminService) SetActive(ctx context.Context, adminID, userID uint64, active bool) error {
	if !active && adminID == userID {
		return apperr.Validation("admins cannot deactivate themselves")
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return notFound("user", userID, err)
	}
	if !active {
		if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("revoke tokens: %w", err)
		}
	}
	s.log.Info().Uint64("user_id", userID).Uint64("admin_id", adminID).Bool("active", active).Msg("user activation changed")
	return nil
}
