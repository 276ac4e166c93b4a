package service

import (
	"testing"

	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/internal/testutil"
)

type testEnv struct {
	db            *gorm.DB
	bus           *realtime.MemoryBus
	posts         repository.PostRepository
	reposts       repository.RepostRepository
	likes         repository.LikeRepository
	listingLikes  repository.ListingLikeRepository
	replies       repository.ReplyRepository
	listings      repository.ListingRepository
	offers        repository.OfferRepository
	follows       repository.FollowRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	hashtags      repository.HashtagRepository
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenDB(t)
	bus := realtime.NewMemoryBus(64)
	t.Cleanup(func() { _ = bus.Close() })
	return &testEnv{
		db:            db,
		bus:           bus,
		posts:         repository.NewPostRepository(db, bus),
		reposts:       repository.NewRepostRepository(db, bus),
		likes:         repository.NewLikeRepository(db, bus),
		listingLikes:  repository.NewListingLikeRepository(db, bus),
		replies:       repository.NewReplyRepository(db, bus),
		listings:      repository.NewListingRepository(db, bus),
		offers:        repository.NewOfferRepository(db, bus),
		follows:       repository.NewFollowRepository(db, bus),
		messages:      repository.NewMessageRepository(db, bus),
		notifications: repository.NewNotificationRepository(db, bus),
		profiles:      repository.NewProfileRepository(db, bus),
		hashtags:      repository.NewHashtagRepository(db, bus),
	}
}

func (e *testEnv) aggregator(opts AggregatorOptions) *Aggregator {
	return NewAggregator(e.posts, e.reposts, e.listings, opts)
}

func (e *testEnv) mutator(counts CountInvalidator) *Mutator {
	return NewMutator(MutatorDeps{
		Likes:         e.likes,
		ListingLikes:  e.listingLikes,
		Reposts:       e.reposts,
		Follows:       e.follows,
		Posts:         e.posts,
		Listings:      e.listings,
		Notifications: e.notifications,
		Counts:        counts,
	})
}

func (e *testEnv) notificationCount(t *testing.T, userID string) int64 {
	t.Helper()
	var n int64
	if err := e.db.Table("notifications").Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}
