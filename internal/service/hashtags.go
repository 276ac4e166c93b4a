package service

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

const maxHashtagLen = 64

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags 提取内容里的 #话题：去掉 #，转小写，去重，保持首次出现的顺序。
func ExtractHashtags(content string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if len([]rune(tag)) > maxHashtagLen {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// HashtagService 热门话题
type HashtagService struct {
	repo   repository.HashtagRepository
	window time.Duration
	limit  int
	now    func() time.Time
}

// NewHashtagService window<=0 取 7 天，limit<=0 取 10。
func NewHashtagService(repo repository.HashtagRepository, window time.Duration, limit int) *HashtagService {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if limit <= 0 {
		limit = 10
	}
	return &HashtagService{repo: repo, window: window, limit: limit, now: time.Now}
}

// TrendingHashtags 时间窗内出现在最多帖子里的话题。参数为 0 时用默认值。
func (s *HashtagService) TrendingHashtags(ctx context.Context, window time.Duration, limit int) ([]model.HashtagCount, error) {
	if window <= 0 {
		window = s.window
	}
	if limit <= 0 {
		limit = s.limit
	}
	res, err := s.repo.Trending(ctx, s.now().UTC().Add(-window), limit)
	if err != nil {
		return nil, newError(CodeTransientFetch, "hashtags.trending", err)
	}
	return res, nil
}

func (s *HashtagService) View() *HashtagView {
	return &HashtagView{svc: s}
}

// HashtagView 热门话题列表，post_hashtags 变更时重新拉取。
type HashtagView struct {
	notifier
	svc *HashtagService

	mu   sync.RWMutex
	tags []model.HashtagCount
}

func (v *HashtagView) Refresh(ctx context.Context) error {
	tags, err := v.svc.TrendingHashtags(ctx, 0, 0)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.tags = tags
	v.mu.Unlock()
	v.signal()
	return nil
}

func (v *HashtagView) Snapshot() []model.HashtagCount {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]model.HashtagCount{}, v.tags...)
}

func (v *HashtagView) Watch(ctx context.Context, ctrl *Controller) (Unsubscribe, error) {
	return ctrl.Subscribe(ctx, []string{realtime.TablePostHashtags}, func() {
		if err := v.Refresh(ctx); err != nil {
			logger.Warn("hashtag refresh failed", zap.Error(err))
		}
	})
}
