package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind 区分请求失败的三种形态：网络层失败、服务端拒绝、客户端校验失败。
type ErrorKind string

const (
	// KindNetwork 表示请求未能获得任何 HTTP 响应（连接失败、超时等）。
	KindNetwork ErrorKind = "network"
	// KindHTTP 表示服务端返回了 4xx/5xx，Status 与 Detail 携带细节。
	KindHTTP ErrorKind = "http"
	// KindValidation 表示请求在发出前（或响应解析时）即被客户端判定非法。
	KindValidation ErrorKind = "validation"
)

// RequestError 是 api 包对外暴露的统一错误类型。
type RequestError struct {
	Kind   ErrorKind
	Status int    // 仅 KindHTTP 有效
	Detail string // 服务端 detail 字段或校验说明
	Field  string // 仅 KindValidation 有效，定位非法字段
	Err    error  // 底层错误，供 errors.Is/As 链式判断
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Detail != "" {
			return fmt.Sprintf("http %d: %s", e.Status, e.Detail)
		}
		return fmt.Sprintf("http %d", e.Status)
	case KindValidation:
		if e.Field != "" {
			return fmt.Sprintf("validation %s: %s", e.Field, e.Detail)
		}
		return fmt.Sprintf("validation: %s", e.Detail)
	default:
		if e.Err != nil {
			return fmt.Sprintf("network: %v", e.Err)
		}
		return "network error"
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewValidationError 构建一个尚未触网的客户端校验错误。
func NewValidationError(field, detail string) *RequestError {
	return &RequestError{Kind: KindValidation, Field: field, Detail: detail}
}

// StatusOf 返回错误携带的 HTTP 状态码；非 HTTP 错误返回 0。
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Kind == KindHTTP {
		return reqErr.Status
	}
	return 0
}

// IsNotFound 判断错误是否为 404，调用方据此把"资源已不存在"当作正常分支处理。
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized 判断错误是否为 401，会话层据此回退到匿名状态。
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNetwork 判断是否为未触达服务端的网络层错误。
func IsNetwork(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind == KindNetwork
}

// IsValidation 判断是否为客户端本地校验错误。
func IsValidation(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind == KindValidation
}
