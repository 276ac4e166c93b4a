package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type ProfileRepository interface {
	Create(ctx context.Context, p *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Profile, error)
	// Search 按 username / full_name 子串匹配
	Search(ctx context.Context, query string, limit int) ([]*model.Profile, error)
	// Update 覆盖可编辑字段，username 冲突返回 unique ConflictError
	Update(ctx context.Context, id string, u ProfileUpdate) (*model.Profile, error)
}

// ProfileUpdate 用户可编辑的资料字段
type ProfileUpdate struct {
	Username  string
	FullName  string
	Bio       string
	AvatarURL *string
}

type profileRepository struct{ base }

func NewProfileRepository(db *gorm.DB, pub realtime.Publisher) ProfileRepository {
	return &profileRepository{newBase(db, pub)}
}

func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return classify(realtime.TableProfiles, err)
	}
	r.publish(ctx, realtime.TableProfiles, realtime.OpInsert, p.ID, p.ID)
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, classify(realtime.TableProfiles, err)
	}
	return &p, nil
}

func (r *profileRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	res := []*model.Profile{}
	if len(ids) == 0 {
		return res, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&res).Error
	return res, classify(realtime.TableProfiles, err)
}

func (r *profileRepository) Search(ctx context.Context, query string, limit int) ([]*model.Profile, error) {
	if limit <= 0 {
		limit = 20
	}
	pat := strings.ToLower(containsPattern(query))
	var res []*model.Profile
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(full_name) LIKE ? ESCAPE '\\'", pat, pat).
		Order("username ASC").
		Limit(limit).
		Find(&res).Error
	return res, classify(realtime.TableProfiles, err)
}

func (r *profileRepository) Update(ctx context.Context, id string, u ProfileUpdate) (*model.Profile, error) {
	res := r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"username":   u.Username,
		"full_name":  u.FullName,
		"bio":        u.Bio,
		"avatar_url": u.AvatarURL,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, classify(realtime.TableProfiles, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, classify(realtime.TableProfiles, gorm.ErrRecordNotFound)
	}
	r.publish(ctx, realtime.TableProfiles, realtime.OpUpdate, id, id)
	return r.GetByID(ctx, id)
}
