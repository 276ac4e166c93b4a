package service

import (
	"sort"

	"github.com/d60-Lab/break-social/internal/model"
)

// BuildFeed 把帖子和转发合并成按时间倒序的条目列表。
//
// 每篇帖子一条基础条目；每条转发在其目标帖子存在于 posts 中时生成一条派生条目，
// 排序时间取转发时间。目标缺失的转发被丢弃。相同 id 的帖子/转发只计一次。
// 排序：OrderAt 降序，相同时按 Key 升序。
func BuildFeed(posts []*model.Post, reposts []*model.Repost, viewerID string) []*model.FeedItem {
	return buildFeed(posts, nil, reposts, viewerID)
}

// buildFeed 与 BuildFeed 相同；targets 只用于解析转发目标，本身不生成基础条目。
func buildFeed(posts, targets []*model.Post, reposts []*model.Repost, viewerID string) []*model.FeedItem {
	byID := make(map[string]*model.Post, len(posts)+len(targets))
	items := make([]*model.FeedItem, 0, len(posts)+len(reposts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = p
		items = append(items, postItem(p, viewerID))
	}
	for _, p := range targets {
		if p == nil {
			continue
		}
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = p
		}
	}

	seen := make(map[string]struct{}, len(reposts))
	for _, r := range reposts {
		if r == nil {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		p, ok := byID[r.PostID]
		if !ok {
			continue
		}
		it := postItem(p, viewerID)
		it.Key = RepostKey(r.ID, p.ID)
		it.IsRepost = true
		it.RepostID = r.ID
		it.OriginalPostID = p.ID
		it.RepostedBy = r.User
		it.RepostedByID = r.UserID
		it.DisplayAt = r.CreatedAt
		it.OrderAt = r.CreatedAt
		items = append(items, it)
	}

	SortFeed(items)
	return items
}

// RepostKey 转发条目的稳定 key
func RepostKey(repostID, postID string) string { return repostID + "-" + postID }

func postItem(p *model.Post, viewerID string) *model.FeedItem {
	it := &model.FeedItem{
		Key:  p.ID,
		Kind: model.FeedItemPost,
		Post: &model.PostCard{
			ID:        p.ID,
			AuthorID:  p.AuthorID,
			Author:    p.Author,
			Content:   p.Content,
			ImageURL:  p.ImageURL,
			CreatedAt: p.CreatedAt,
		},
		DisplayAt:   p.CreatedAt,
		OrderAt:     p.CreatedAt,
		LikesCount:  len(p.Likes),
		ReplyCount:  len(p.Replies),
		RepostCount: len(p.Reposts),
	}
	if viewerID == "" {
		return it
	}
	for _, l := range p.Likes {
		if l.UserID == viewerID {
			it.LikedByViewer = true
			break
		}
	}
	for _, r := range p.Reposts {
		if r.UserID == viewerID {
			it.RepostedByViewer = true
			it.ViewerRepostID = r.ID
			break
		}
	}
	return it
}

// BuildListingItems 只保留 active 商品，排序规则同 BuildFeed。
func BuildListingItems(listings []*model.Listing, viewerID string) []*model.FeedItem {
	items := make([]*model.FeedItem, 0, len(listings))
	seen := make(map[string]struct{}, len(listings))
	for _, l := range listings {
		if l == nil || l.Status != model.ListingActive {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		it := &model.FeedItem{
			Key:  l.ID,
			Kind: model.FeedItemListing,
			Listing: &model.ListingCard{
				ID:          l.ID,
				SellerID:    l.SellerID,
				Seller:      l.Seller,
				Title:       l.Title,
				Description: l.Description,
				Price:       l.Price,
				Condition:   l.Condition,
				Status:      l.Status,
				ImageURL:    l.ImageURL,
				CreatedAt:   l.CreatedAt,
				UpdatedAt:   l.UpdatedAt,
			},
			DisplayAt:  l.CreatedAt,
			OrderAt:    l.CreatedAt,
			LikesCount: len(l.ListingLikes),
		}
		if viewerID != "" {
			for _, ll := range l.ListingLikes {
				if ll.UserID == viewerID {
					it.LikedByViewer = true
					break
				}
			}
		}
		items = append(items, it)
	}
	SortFeed(items)
	return items
}

// MergeFeeds 合并两组已构建的条目并重新排序。
func MergeFeeds(a, b []*model.FeedItem) []*model.FeedItem {
	out := make([]*model.FeedItem, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	SortFeed(out)
	return out
}

func SortFeed(items []*model.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.OrderAt.Equal(b.OrderAt) {
			return a.OrderAt.After(b.OrderAt)
		}
		return a.Key < b.Key
	})
}
