package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/break-social/config"
)

// InitDB 按配置打开 postgres 或 sqlite 连接。
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	return Open(cfg.Database)
}

func Open(c config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case "postgres":
		dialector = postgres.Open(c.DSN)
	case "sqlite":
		dialector = sqlite.Open(c.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.Driver == "sqlite" {
		// :memory: 每个连接是独立库
		sqlDB.SetMaxOpenConns(1)
	} else {
		if c.MaxOpen > 0 {
			sqlDB.SetMaxOpenConns(c.MaxOpen)
		}
		if c.MaxIdle > 0 {
			sqlDB.SetMaxIdleConns(c.MaxIdle)
		}
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}
