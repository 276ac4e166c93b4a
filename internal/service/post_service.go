package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

type CreatePostInput struct {
	AuthorID string  `json:"-" validate:"required"`
	Content  string  `json:"content" validate:"required,max=280"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}

type CreateReplyInput struct {
	PostID   string `json:"-" validate:"required"`
	AuthorID string `json:"-" validate:"required"`
	Content  string `json:"content" validate:"required,max=280"`
}

type PostService struct {
	posts    repository.PostRepository
	replies  repository.ReplyRepository
	hashtags repository.HashtagRepository
}

// NewPostService hashtags 为 nil 时不记录话题
func NewPostService(posts repository.PostRepository, replies repository.ReplyRepository, hashtags repository.HashtagRepository) *PostService {
	return &PostService{posts: posts, replies: replies, hashtags: hashtags}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*model.Post, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := check("post.create", in); err != nil {
		return nil, err
	}
	p := &model.Post{AuthorID: in.AuthorID, Content: in.Content, ImageURL: in.ImageURL}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, newError(CodeWriteFailed, "post.create", err)
	}
	// 话题写入失败不影响发帖
	if tags := ExtractHashtags(p.Content); len(tags) > 0 && s.hashtags != nil {
		if err := s.hashtags.AddForPost(ctx, p.ID, tags, p.CreatedAt); err != nil {
			logger.Warn("save hashtags failed", zap.String("post", p.ID), zap.Strings("tags", tags), zap.Error(err))
		}
	}
	return p, nil
}

func (s *PostService) Reply(ctx context.Context, in CreateReplyInput) (*model.Reply, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := check("post.reply", in); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		if repository.IsNotFound(err) {
			return nil, newError(CodeNotFound, "post.reply", err)
		}
		return nil, newError(CodeTransientFetch, "post.reply", err)
	}
	r := &model.Reply{PostID: in.PostID, AuthorID: in.AuthorID, Content: in.Content}
	if err := s.replies.Create(ctx, r); err != nil {
		return nil, newError(CodeWriteFailed, "post.reply", err)
	}
	return r, nil
}

func (s *PostService) Replies(ctx context.Context, postID string) ([]*model.Reply, error) {
	res, err := s.replies.ListByPost(ctx, postID)
	if err != nil {
		return nil, newError(CodeTransientFetch, "post.replies", err)
	}
	return res, nil
}
