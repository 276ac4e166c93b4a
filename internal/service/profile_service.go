package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

var ErrUsernameTaken = errors.New("username already taken")

type UpdateProfileInput struct {
	UserID    string  `json:"-" validate:"required"`
	Username  string  `json:"username" validate:"required,max=64"`
	FullName  string  `json:"full_name" validate:"max=128"`
	Bio       string  `json:"bio" validate:"max=280"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// ProfileInvalidator 资料快照缓存
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, ids ...string) error
}

type ProfileService struct {
	repo  repository.ProfileRepository
	cache ProfileInvalidator
}

func NewProfileService(repo repository.ProfileRepository, cache ProfileInvalidator) *ProfileService {
	return &ProfileService{repo: repo, cache: cache}
}

func (s *ProfileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newError(CodeNotFound, "profile.get", err)
		}
		return nil, newError(CodeTransientFetch, "profile.get", err)
	}
	return p, nil
}

// Update 只能修改自己的资料
func (s *ProfileService) Update(ctx context.Context, in UpdateProfileInput) (*model.Profile, error) {
	const op = "profile.update"
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Bio = strings.TrimSpace(in.Bio)
	if err := check(op, in); err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, in.UserID, repository.ProfileUpdate{
		Username: in.Username, FullName: in.FullName, Bio: in.Bio, AvatarURL: in.AvatarURL,
	})
	switch {
	case err == nil:
	case repository.IsUniqueViolation(err):
		return nil, newError(CodeInvalidInput, op, ErrUsernameTaken)
	case repository.IsNotFound(err):
		return nil, newError(CodeNotFound, op, err)
	default:
		return nil, newError(CodeWriteFailed, op, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, in.UserID); err != nil {
			logger.Warn("invalidate profile snapshot failed", zap.String("user", in.UserID), zap.Error(err))
		}
	}
	return p, nil
}
