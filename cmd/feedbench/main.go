// feedbench 灌入帖子/转发/点赞后测量 Aggregator.Fetch 各 scope 的延迟分位。
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/break-social/config"
	"github.com/d60-Lab/break-social/internal/app"
	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/service"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	a := must(app.New(ctx, cfg))
	defer a.Close(ctx)
	if err := a.Migrate(); err != nil {
		panic(err)
	}

	// params
	USERS := envInt("USERS", 200)
	POSTS := envInt("POSTS", 5000)
	REPOSTS := envInt("REPOSTS", 1000)
	LIKES := envInt("LIKES", 20000)
	ROUNDS := envInt("ROUNDS", 50)

	// 本地压测可以清表
	if cfg.Database.Driver == "postgres" {
		_ = a.DB.Exec("TRUNCATE TABLE likes, reposts, replies, posts RESTART IDENTITY CASCADE").Error
	}

	rng := rand.New(rand.NewSource(1))
	users := make([]string, USERS)
	for i := range users {
		users[i] = uuid.New().String()
	}
	base := time.Now().Add(-24 * time.Hour)

	posts := make([]model.Post, POSTS)
	for i := range posts {
		posts[i] = model.Post{
			ID:        uuid.New().String(),
			AuthorID:  users[rng.Intn(USERS)],
			Content:   fmt.Sprintf("post %d about go and markets", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	if err := a.DB.CreateInBatches(&posts, 500).Error; err != nil {
		panic(err)
	}

	// (post,user) 唯一，重复的直接跳过
	pairs := make(map[[2]string]struct{})
	reposts := make([]model.Repost, 0, REPOSTS)
	for len(reposts) < REPOSTS && len(pairs) < USERS*POSTS {
		k := [2]string{posts[rng.Intn(POSTS)].ID, users[rng.Intn(USERS)]}
		if _, ok := pairs[k]; ok {
			continue
		}
		pairs[k] = struct{}{}
		reposts = append(reposts, model.Repost{ID: uuid.New().String(), PostID: k[0], UserID: k[1], CreatedAt: base.Add(time.Duration(POSTS+len(reposts)) * time.Second)})
	}
	if err := a.DB.CreateInBatches(&reposts, 500).Error; err != nil {
		panic(err)
	}

	clear(pairs)
	likes := make([]model.Like, 0, LIKES)
	for len(likes) < LIKES && len(pairs) < USERS*POSTS {
		k := [2]string{posts[rng.Intn(POSTS)].ID, users[rng.Intn(USERS)]}
		if _, ok := pairs[k]; ok {
			continue
		}
		pairs[k] = struct{}{}
		likes = append(likes, model.Like{ID: uuid.New().String(), PostID: k[0], UserID: k[1], CreatedAt: base})
	}
	if err := a.DB.CreateInBatches(&likes, 1000).Error; err != nil {
		panic(err)
	}

	queries := []service.FeedQuery{
		{Scope: service.ScopeNone, ViewerID: users[0]},
		{Scope: service.ScopeAuthor, AuthorID: users[1], ViewerID: users[0]},
		{Scope: service.ScopeQuery, Query: "markets", ViewerID: users[0]},
		{Scope: service.ScopeTrending, ViewerID: users[0]},
	}

	fmt.Printf("USERS=%d POSTS=%d REPOSTS=%d LIKES=%d ROUNDS=%d\n", USERS, POSTS, len(reposts), len(likes), ROUNDS)
	for _, q := range queries {
		durs := make([]time.Duration, 0, ROUNDS)
		var n int
		for i := 0; i < ROUNDS; i++ {
			st := time.Now()
			items, err := a.Aggregator.Fetch(ctx, q)
			if err != nil {
				panic(err)
			}
			durs = append(durs, time.Since(st))
			n = len(items)
		}
		var sum time.Duration
		for _, d := range durs {
			sum += d
		}
		fmt.Printf("scope=%-8s items=%d avg=%v p95=%v p99=%v\n", q.Scope, n, sum/time.Duration(len(durs)), pct(durs, 0.95), pct(durs, 0.99))
	}
}
