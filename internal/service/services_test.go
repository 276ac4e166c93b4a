package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/break-social/internal/cache"
	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/testutil"
	"github.com/d60-Lab/break-social/pkg/logger"
)

func strPtr(s string) *string { return &s }

func TestPostServiceCreate(t *testing.T) {
	env := newEnv(t)
	svc := NewPostService(env.posts, env.replies, env.hashtags)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreatePostInput{AuthorID: "u1", Content: "  hello world  "})
	require.NoError(t, err)
	assert.Equal(t, "hello world", p.Content)
	assert.NotEmpty(t, p.ID)

	_, err = svc.Create(ctx, CreatePostInput{AuthorID: "u1", Content: strings.Repeat("x", 281)})
	assert.True(t, IsInvalidInput(err))
	_, err = svc.Create(ctx, CreatePostInput{AuthorID: "u1", Content: "   "})
	assert.True(t, IsInvalidInput(err))
	_, err = svc.Create(ctx, CreatePostInput{AuthorID: "u1", Content: "pic", ImageURL: strPtr("not a url")})
	assert.True(t, IsInvalidInput(err))
}

func TestPostServiceReply(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	svc := NewPostService(env.posts, env.replies, env.hashtags)
	ctx := context.Background()

	_, err := svc.Reply(ctx, CreateReplyInput{PostID: "p1", AuthorID: "u2", Content: "nice"})
	require.NoError(t, err)
	_, err = svc.Reply(ctx, CreateReplyInput{PostID: "nope", AuthorID: "u2", Content: "nice"})
	assert.True(t, IsNotFound(err))

	replies, err := svc.Replies(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "nice", replies[0].Content)
}

type announceRecorder struct{ listings []*model.Listing }

func (a *announceRecorder) Enqueue(l *model.Listing) { a.listings = append(a.listings, l) }

func validListing() ListingInput {
	return ListingInput{Title: "Road bike", Price: 120, Condition: model.ConditionExcellent}
}

func TestListingServiceCreate(t *testing.T) {
	env := newEnv(t)
	ann := &announceRecorder{}
	svc := NewListingService(env.listings, ann)
	ctx := context.Background()

	l, err := svc.Create(ctx, "s1", validListing())
	require.NoError(t, err)
	assert.Equal(t, model.ListingActive, l.Status)
	require.Len(t, ann.listings, 1)

	bad := validListing()
	bad.Price = 0
	_, err = svc.Create(ctx, "s1", bad)
	assert.True(t, IsInvalidInput(err))

	bad = validListing()
	bad.Condition = "broken"
	_, err = svc.Create(ctx, "s1", bad)
	assert.True(t, IsInvalidInput(err))
	assert.Len(t, ann.listings, 1)
}

func TestListingServiceSellerOnly(t *testing.T) {
	env := newEnv(t)
	testutil.Listing(t, env.db, "l1", "s1", "Bike", testutil.At(0))
	svc := NewListingService(env.listings, nil)
	ctx := context.Background()

	in := validListing()
	in.Title = "Faster bike"
	_, err := svc.Update(ctx, "intruder", "l1", in)
	assert.True(t, IsForbidden(err))
	assert.True(t, IsForbidden(svc.SetStatus(ctx, "intruder", "l1", model.ListingSold)))

	l, err := svc.Update(ctx, "s1", "l1", in)
	require.NoError(t, err)
	assert.Equal(t, "Faster bike", l.Title)

	require.NoError(t, svc.SetStatus(ctx, "s1", "l1", model.ListingSold))
	got, err := svc.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, model.ListingSold, got.Status)

	assert.True(t, IsInvalidInput(svc.SetStatus(ctx, "s1", "l1", "gone")))
	_, err = svc.Get(ctx, "l404")
	assert.True(t, IsNotFound(err))
}

func TestOfferFlow(t *testing.T) {
	env := newEnv(t)
	testutil.Listing(t, env.db, "l1", "s1", "Camera", testutil.At(0))
	svc := NewOfferService(env.listings, env.offers, env.messages, env.notifications)
	ctx := context.Background()

	o, err := svc.MakeOffer(ctx, OfferInput{ListingID: "l1", BuyerID: "b1", Amount: 80, Message: strPtr("cash today")})
	require.NoError(t, err)
	assert.Equal(t, model.OfferPending, o.Status)

	// 卖家收到 new_offer 通知和一条私信
	var n model.Notification
	require.NoError(t, env.db.Where("user_id = ?", "s1").First(&n).Error)
	assert.Equal(t, model.NotificationNewOffer, n.Type)
	payload, err := n.Payload()
	require.NoError(t, err)
	assert.Equal(t, o.ID, payload.(*model.NewOfferPayload).OfferID)

	msgs, err := env.messages.Conversation(ctx, "b1", "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "I made an offer of $80.00 for Camera: cash today", msgs[0].Content)
	require.NotNil(t, msgs[0].ListingID)
	assert.Equal(t, "l1", *msgs[0].ListingID)

	offers, err := svc.ListByListing(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.Len(t, offers, 1)
	_, err = svc.ListByListing(ctx, "b1", "l1")
	assert.True(t, IsForbidden(err))
}

func TestOfferRejections(t *testing.T) {
	env := newEnv(t)
	testutil.Listing(t, env.db, "l1", "s1", "Camera", testutil.At(0))
	sold := testutil.Listing(t, env.db, "l2", "s1", "Lens", testutil.At(0))
	require.NoError(t, env.db.Model(sold).Update("status", model.ListingSold).Error)
	svc := NewOfferService(env.listings, env.offers, env.messages, env.notifications)
	ctx := context.Background()

	_, err := svc.MakeOffer(ctx, OfferInput{ListingID: "l1", BuyerID: "s1", Amount: 10})
	assert.ErrorIs(t, err, ErrOfferSelf)
	_, err = svc.MakeOffer(ctx, OfferInput{ListingID: "l2", BuyerID: "b1", Amount: 10})
	assert.True(t, IsInvalidInput(err))
	_, err = svc.MakeOffer(ctx, OfferInput{ListingID: "l1", BuyerID: "b1", Amount: -1})
	assert.True(t, IsInvalidInput(err))
	_, err = svc.MakeOffer(ctx, OfferInput{ListingID: "l9", BuyerID: "b1", Amount: 10})
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int64(0), env.notificationCount(t, "s1"))
}

func sendAt(t *testing.T, env *testEnv, id, from, to, content string, at time.Time) {
	t.Helper()
	require.NoError(t, env.messages.Create(context.Background(), &model.Message{
		ID: id, SenderID: from, ReceiverID: to, Content: content, CreatedAt: at,
	}))
}

func TestMessageConversations(t *testing.T) {
	env := newEnv(t)
	testutil.Profile(t, env.db, "u2", "bob")
	testutil.Profile(t, env.db, "u3", "carol")
	sendAt(t, env, "m1", "u2", "u1", "hi", testutil.At(0))
	sendAt(t, env, "m2", "u2", "u1", "still there?", testutil.At(1))
	sendAt(t, env, "m3", "u1", "u3", "is the bike available", testutil.At(2))
	sendAt(t, env, "m4", "u3", "u1", "yes", testutil.At(3))

	svc := NewMessageService(env.messages, env.notifications, cache.NewProfiles(env.profiles, nil, 0))
	convs, err := svc.Conversations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, convs, 2)

	assert.Equal(t, "u3", convs[0].OtherUserID)
	assert.Equal(t, "m4", convs[0].LastMessage.ID)
	assert.Equal(t, 1, convs[0].Unread)
	require.NotNil(t, convs[0].Other)
	assert.Equal(t, "carol", convs[0].Other.Username)

	assert.Equal(t, "u2", convs[1].OtherUserID)
	assert.Equal(t, 2, convs[1].Unread)

	thread, err := svc.Conversation(context.Background(), "u1", "u3")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "m3", thread[0].ID)
}

func TestMessageSendAndMarkRead(t *testing.T) {
	env := newEnv(t)
	svc := NewMessageService(env.messages, env.notifications, nil)
	fixed := testutil.At(30)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	_, err := svc.Send(ctx, SendMessageInput{SenderID: "u1", ReceiverID: "u1", Content: "me"})
	assert.True(t, IsInvalidInput(err))

	m, err := svc.Send(ctx, SendMessageInput{SenderID: "u1", ReceiverID: "u2", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.notificationCount(t, "u2"))

	assert.True(t, IsForbidden(svc.MarkRead(ctx, "u1", m.ID)))
	require.NoError(t, svc.MarkRead(ctx, "u2", m.ID))

	got, err := env.messages.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(fixed))

	// 已读时间不被覆盖
	svc.now = func() time.Time { return fixed.Add(time.Hour) }
	require.NoError(t, svc.MarkRead(ctx, "u2", m.ID))
	got, err = env.messages.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.ReadAt.Equal(fixed))

	assert.True(t, IsNotFound(svc.MarkRead(ctx, "u2", "m404")))
}

func TestListingAnnouncerNotifiesFollowers(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	for _, f := range []string{"f1", "f2", "f3"} {
		_, err := env.follows.Create(ctx, f, "s1")
		require.NoError(t, err)
	}

	ann := NewListingAnnouncer(env.follows, env.notifications, 8, 2)
	stop := ann.Start(1)
	svc := NewListingService(env.listings, ann)
	l, err := svc.Create(ctx, "s1", validListing())
	require.NoError(t, err)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, stop(stopCtx))

	for _, f := range []string{"f1", "f2", "f3"} {
		var n model.Notification
		require.NoError(t, env.db.Where("user_id = ?", f).First(&n).Error)
		assert.Equal(t, model.NotificationListing, n.Type)
		payload, err := n.Payload()
		require.NoError(t, err)
		assert.Equal(t, l.ID, payload.(*model.ListingPayload).ListingID)
	}
	assert.Equal(t, int64(0), env.notificationCount(t, "s1"))

	select {
	case d := <-ann.Metrics():
		assert.GreaterOrEqual(t, d, time.Duration(0))
	default:
		t.Fatal("no latency sample recorded")
	}
}

func TestListingAnnouncerDropsWhenFull(t *testing.T) {
	env := newEnv(t)
	ann := NewListingAnnouncer(env.follows, env.notifications, 1, 10)
	ann.Enqueue(&model.Listing{ID: "l1", SellerID: "s1"})

	core, logs := observer.New(zap.WarnLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	ann.Enqueue(&model.Listing{ID: "l2", SellerID: "s1"})
	assert.Equal(t, 1, ann.QueueLen())
	dropped := logs.FilterMessage("announcer queue full, drop listing").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, "l2", dropped[0].ContextMap()["listing"])
}

func TestRelationshipService(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	testutil.Profile(t, env.db, "u1", "alice")
	testutil.Profile(t, env.db, "u2", "alicia")
	testutil.Profile(t, env.db, "u3", "bob")
	for _, pair := range [][2]string{{"u2", "u1"}, {"u3", "u1"}, {"u1", "u3"}} {
		_, err := env.follows.Create(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	svc := NewRelationshipService(env.follows, env.profiles, nil)
	followers, err := svc.ListFollowers(ctx, "u1", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u2", "u3"}, followers)

	following, err := svc.ListFollowing(ctx, "u1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, following)

	ok, err := svc.IsFollowing(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	counts, err := svc.Counts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cache.Counts{Followers: 2, Following: 1}, counts)

	people, err := svc.SearchPeople(ctx, "ALI", 10)
	require.NoError(t, err)
	assert.Len(t, people, 2)
	people, err = svc.SearchPeople(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, people)
}
