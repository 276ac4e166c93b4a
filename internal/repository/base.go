package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/pkg/logger"
)

// base 持有连接和变更发布器。写成功后发布 ChangeEvent，发布失败只记日志。
type base struct {
	db  *gorm.DB
	pub realtime.Publisher
}

func newBase(db *gorm.DB, pub realtime.Publisher) base {
	if pub == nil {
		pub = realtime.Nop
	}
	return base{db: db, pub: pub}
}

func (b base) publish(ctx context.Context, table string, op realtime.Op, rowID, userID string) {
	ev := realtime.ChangeEvent{Table: table, Op: op, RowID: rowID, UserID: userID, At: time.Now()}
	if err := b.pub.Publish(ctx, ev); err != nil {
		logger.Warn("publish change event failed",
			zap.String("table", table), zap.String("op", op.String()), zap.String("row", rowID), zap.Error(err))
	}
}

func escapeLike(q string) string {
	r := make([]rune, 0, len(q))
	for _, c := range q {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return string(r)
}

// containsPattern 返回大小写不敏感子串匹配用的 LIKE 模式。
func containsPattern(q string) string {
	return "%" + escapeLike(q) + "%"
}
