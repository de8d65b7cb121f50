package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured 表示启动时缺少 API_KEY。
var ErrNotConfigured = errors.New("API_KEY is not configured")

// ProviderError reports a non-200 answer from the completion endpoint. It
// carries the raw response body so callers can log what the provider said.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Body)
}

// TransportError reports a round trip that never produced a decodable
// provider answer: connection failures, interrupted reads, malformed JSON.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
