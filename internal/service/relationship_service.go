package service

import (
	"context"

	"github.com/d60-Lab/break-social/internal/cache"
	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
)

// RelationshipService 关系链查询。关注/取关本身走 Mutator。
type RelationshipService interface {
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Counts(ctx context.Context, userID string) (cache.Counts, error)
	SearchPeople(ctx context.Context, query string, limit int) ([]*model.Profile, error)
}

type relationshipService struct {
	followRepo  repository.FollowRepository
	profileRepo repository.ProfileRepository
	counts      *cache.FollowCounts
}

func NewRelationshipService(followRepo repository.FollowRepository, profileRepo repository.ProfileRepository, counts *cache.FollowCounts) RelationshipService {
	if counts == nil {
		counts = cache.NewFollowCounts(followRepo, nil, 0)
	}
	return &relationshipService{followRepo: followRepo, profileRepo: profileRepo, counts: counts}
}

func pageBounds(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize, (page - 1) * pageSize
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	_, pageSize, offset := pageBounds(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, newError(CodeTransientFetch, "relation.following", err)
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FollowingID
	}
	return res, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	_, pageSize, offset := pageBounds(page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, newError(CodeTransientFetch, "relation.followers", err)
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FollowerID
	}
	return res, nil
}

func (s *relationshipService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	ok, err := s.followRepo.Exists(ctx, followerID, followingID)
	if err != nil {
		return false, newError(CodeTransientFetch, "relation.exists", err)
	}
	return ok, nil
}

func (s *relationshipService) Counts(ctx context.Context, userID string) (cache.Counts, error) {
	c, err := s.counts.Get(ctx, userID)
	if err != nil {
		return cache.Counts{}, newError(CodeTransientFetch, "relation.counts", err)
	}
	return c, nil
}

func (s *relationshipService) SearchPeople(ctx context.Context, query string, limit int) ([]*model.Profile, error) {
	if query == "" {
		return []*model.Profile{}, nil
	}
	res, err := s.profileRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, newError(CodeTransientFetch, "relation.search", err)
	}
	return res, nil
}
