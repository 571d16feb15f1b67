package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured 所选提供方缺少密钥或不支持该能力
var ErrNotConfigured = errors.New("ai provider not configured")

// ErrRateLimit 提供方返回 429
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string { return fmt.Sprintf("ai provider rate limited: %v", e.Err) }

func (e *ErrRateLimit) Unwrap() error { return e.Err }

type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string { return fmt.Sprintf("ai provider unavailable: %v", e.Err) }

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse 输出为空或不符合 Schema
type ErrInvalidResponse struct {
	Content string
	Err     error
}

func (e *ErrInvalidResponse) Error() string { return fmt.Sprintf("invalid ai response: %v", e.Err) }

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrUnavailable{Err: err}
}
