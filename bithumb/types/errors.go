package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind 错误分类（封闭集合）
type ErrorKind string

const (
	KindConfiguration          ErrorKind = "configuration_error"
	KindOrderTooSmall          ErrorKind = "order_too_small"
	KindInvalidOrderParameters ErrorKind = "invalid_order_parameters"
	KindAuthenticationRejected ErrorKind = "authentication_rejected"
	KindRateLimited            ErrorKind = "rate_limited"
	KindExchangeUnavailable    ErrorKind = "exchange_unavailable"
	KindOrderNotFound          ErrorKind = "order_not_found"
	KindExchangeRejected       ErrorKind = "exchange_rejected"
)

// IsValidation 本地校验错误（未发出任何请求）
func (k ErrorKind) IsValidation() bool {
	return k == KindOrderTooSmall || k == KindInvalidOrderParameters
}

// Error 对外暴露的统一错误类型
type Error struct {
	Kind       ErrorKind
	StatusCode int    // HTTP 状态码（本地错误为 0）
	Reason     string // 交易所错误名，例如 insufficient_funds_bid
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap 支持 errors.Is/As 穿透到底层原因
func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类即匹配，哨兵错误只比较 Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	ErrConfiguration          = &Error{Kind: KindConfiguration}
	ErrOrderTooSmall          = &Error{Kind: KindOrderTooSmall}
	ErrInvalidOrderParameters = &Error{Kind: KindInvalidOrderParameters}
	ErrAuthenticationRejected = &Error{Kind: KindAuthenticationRejected}
	ErrRateLimited            = &Error{Kind: KindRateLimited}
	ErrExchangeUnavailable    = &Error{Kind: KindExchangeUnavailable}
	ErrOrderNotFound          = &Error{Kind: KindOrderNotFound}
	ErrExchangeRejected       = &Error{Kind: KindExchangeRejected}
)

// NewError 构建错误
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError 携带底层原因构建错误
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 取出错误分类，非本包错误返回空串
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrorBody 交易所错误响应
//
//	{"error": {"name": "insufficient_funds_bid", "message": "..."}}
//	{"status": "5600", "message": "..."}   旧版格式，HTTP 200 也可能出现
type ErrorBody struct {
	Error *struct {
		Name    Number `json:"name"` // 个别接口以数字返回
		Message string `json:"message"`
	} `json:"error"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
