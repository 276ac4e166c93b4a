package service

import (
	"errors"
	"fmt"
)

var (
	ErrFollowSelf = errors.New("cannot follow self")
	ErrOfferSelf  = errors.New("cannot make an offer on own listing")
)

// ErrorCode 错误分类
type ErrorCode string

const (
	// CodeTransientFetch 聚合读取失败，可重试，不返回部分结果
	CodeTransientFetch ErrorCode = "TRANSIENT_FETCH"
	// CodeWriteFailed 非良性写失败，乐观状态已回滚
	CodeWriteFailed ErrorCode = "WRITE_FAILED"
	// CodeNotificationSideEffect 主操作已成功，通知写入失败
	CodeNotificationSideEffect ErrorCode = "NOTIFICATION_SIDE_EFFECT"
	// CodeSubscriptionFailed 实时订阅建立失败，进入降级模式
	CodeSubscriptionFailed ErrorCode = "SUBSCRIPTION_FAILED"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
)

// Error 带分类码的服务层错误
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

func invalid(op, format string, args ...interface{}) *Error {
	return newError(CodeInvalidInput, op, fmt.Errorf(format, args...))
}

// CodeOf 返回 err 链上第一个 *Error 的分类码，没有则为空。
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsTransientFetch(err error) bool     { return CodeOf(err) == CodeTransientFetch }
func IsWriteFailed(err error) bool        { return CodeOf(err) == CodeWriteFailed }
func IsSubscriptionFailed(err error) bool { return CodeOf(err) == CodeSubscriptionFailed }
func IsInvalidInput(err error) bool       { return CodeOf(err) == CodeInvalidInput }
func IsForbidden(err error) bool          { return CodeOf(err) == CodeForbidden }
func IsNotFound(err error) bool           { return CodeOf(err) == CodeNotFound }

func IsNotificationSideEffect(err error) bool {
	return CodeOf(err) == CodeNotificationSideEffect
}
