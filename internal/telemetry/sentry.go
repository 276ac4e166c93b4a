package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/break-social/config"
)

// Enabled InitSentry 是否安装了 sentry client
func Enabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// InitSentry 配置了 DSN 才初始化；关闭时最多等待 2 秒发送缓冲事件。
func InitSentry(cfg config.SentryConfig) (Shutdown, error) {
	if cfg.DSN == "" {
		return noop, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return func(context.Context) error {
		sentry.Flush(2 * time.Second)
		return nil
	}, nil
}
