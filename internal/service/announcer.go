package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

type announceJob struct {
	listingID string
	sellerID  string
	title     string
	enqAt     time.Time
}

// ListingAnnouncer 新商品上架后异步通知卖家的粉丝（本地队列 + worker）。
// 队列满时丢弃并告警，不阻塞上架。
type ListingAnnouncer struct {
	follows       repository.FollowRepository
	notifications repository.NotificationRepository
	pageSize      int
	ch            chan announceJob
	metricsCh     chan time.Duration
}

func NewListingAnnouncer(follows repository.FollowRepository, notifications repository.NotificationRepository, queueSize, pageSize int) *ListingAnnouncer {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	return &ListingAnnouncer{
		follows:       follows,
		notifications: notifications,
		pageSize:      pageSize,
		ch:            make(chan announceJob, queueSize),
		metricsCh:     make(chan time.Duration, 4096),
	}
}

// Start 启动 worker，返回停止函数。停止时 worker 先处理完队列里剩余的任务，
// 或在 ctx 到期时放弃。
func (a *ListingAnnouncer) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-a.ch:
					a.process(job)
				case <-stopCh:
					for {
						select {
						case job := <-a.ch:
							a.process(job)
						default:
							return
						}
					}
				}
			}
		}()
	}
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stopCh) })
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *ListingAnnouncer) Enqueue(l *model.Listing) {
	select {
	case a.ch <- announceJob{listingID: l.ID, sellerID: l.SellerID, title: l.Title, enqAt: time.Now()}:
	default:
		logger.Warn("announcer queue full, drop listing", zap.String("listing", l.ID), zap.String("seller", l.SellerID))
	}
}

func (a *ListingAnnouncer) process(job announceJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent := 0
	for offset := 0; ; offset += a.pageSize {
		page, err := a.follows.ListFollowers(ctx, job.sellerID, offset, a.pageSize)
		if err != nil {
			logger.Warn("announcer list followers failed", zap.String("seller", job.sellerID), zap.Error(err))
			break
		}
		for _, f := range page {
			n, err := model.NewNotification("", f.FollowerID, "New listing: "+job.title,
				model.ListingPayload{ListingID: job.listingID, SellerID: job.sellerID})
			if err == nil {
				err = a.notifications.Create(ctx, n)
			}
			if err != nil {
				logger.Warn("announce listing failed",
					zap.String("listing", job.listingID), zap.String("follower", f.FollowerID),
					zap.Error(newError(CodeNotificationSideEffect, "listing.announce", err)))
				continue
			}
			sent++
		}
		if len(page) < a.pageSize {
			break
		}
	}
	logger.Debug("listing announced", zap.String("listing", job.listingID), zap.Int("followers", sent))

	select {
	case a.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

// Metrics 每处理完一个商品发送一次入队到完成的耗时。
func (a *ListingAnnouncer) Metrics() <-chan time.Duration { return a.metricsCh }

// QueueLen 返回当前队列长度（采样值）。
func (a *ListingAnnouncer) QueueLen() int { return len(a.ch) }
