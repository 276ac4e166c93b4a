package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound 查询单行不存在
var ErrNotFound = fmt.Errorf("repository: %w", gorm.ErrRecordNotFound)

type ConflictKind string

const (
	ConflictUnique     ConflictKind = "unique"
	ConflictForeignKey ConflictKind = "foreign_key"
	ConflictCheck      ConflictKind = "check"
)

// ConflictError 约束冲突。互动表上的 unique 冲突是良性重复。
type ConflictError struct {
	Table string
	Kind  ConflictKind
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s constraint violation: %v", e.Table, e.Kind, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// IsUniqueViolation 判断是否为唯一键冲突（重复点赞/转发/关注）。
func IsUniqueViolation(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Kind == ConflictUnique
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// classify 把驱动错误归类为 ConflictError / ErrNotFound，其余原样返回。
func classify(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", table, ErrNotFound)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Table: table, Kind: ConflictUnique, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &ConflictError{Table: table, Kind: ConflictUnique, Err: err}
		case "23503":
			return &ConflictError{Table: table, Kind: ConflictForeignKey, Err: err}
		case "23514":
			return &ConflictError{Table: table, Kind: ConflictCheck, Err: err}
		}
		return err
	}

	// sqlite 只能按消息判断
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &ConflictError{Table: table, Kind: ConflictUnique, Err: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &ConflictError{Table: table, Kind: ConflictForeignKey, Err: err}
	case strings.Contains(msg, "CHECK constraint failed"):
		return &ConflictError{Table: table, Kind: ConflictCheck, Err: err}
	}
	return err
}
