package service

import (
	"math"
	"sort"
	"time"

	"github.com/d60-Lab/break-social/internal/model"
)

// RankConfig 热度公式参数
type RankConfig struct {
	Gravity      float64 // 时间重力
	WeightLike   float64
	WeightReply  float64
	WeightRepost float64
	ScaleFactor  float64
}

var DefaultRankConfig = RankConfig{
	Gravity:      1.5,
	WeightLike:   1.0,
	WeightReply:  2.0,
	WeightRepost: 3.0,
	ScaleFactor:  100.0,
}

// HotScore = log10(加权互动 + 1) * scale / (小时数 + 2)^gravity
func (c RankConfig) HotScore(createdAt time.Time, likes, replies, reposts int, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	weighted := float64(likes)*c.WeightLike + float64(replies)*c.WeightReply + float64(reposts)*c.WeightRepost
	numerator := math.Log10(weighted+1) * c.ScaleFactor
	return numerator / math.Pow(hours+2, c.Gravity)
}

// SelectTrending 取热度最高的 n 篇帖子（n<=0 返回全部，按热度排）。
func SelectTrending(posts []*model.Post, n int, cfg RankConfig, now time.Time) []*model.Post {
	type scored struct {
		p     *model.Post
		score float64
	}
	ss := make([]scored, 0, len(posts))
	for _, p := range posts {
		ss = append(ss, scored{p: p, score: cfg.HotScore(p.CreatedAt, len(p.Likes), len(p.Replies), len(p.Reposts), now)})
	}
	sort.SliceStable(ss, func(i, j int) bool {
		if ss[i].score != ss[j].score {
			return ss[i].score > ss[j].score
		}
		if !ss[i].p.CreatedAt.Equal(ss[j].p.CreatedAt) {
			return ss[i].p.CreatedAt.After(ss[j].p.CreatedAt)
		}
		return ss[i].p.ID < ss[j].p.ID
	})
	if n > 0 && len(ss) > n {
		ss = ss[:n]
	}
	out := make([]*model.Post, len(ss))
	for i, s := range ss {
		out[i] = s.p
	}
	return out
}
