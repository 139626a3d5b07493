// Package utils provides utility functions for the application.
package utils

import "context"

// CtxKey is the type for request-scoped context keys
type CtxKey string

// Context keys set by handlers when building request-scoped contexts
const (
	RequestIDKey  CtxKey = "request_id"
	UserAgentKey  CtxKey = "user_agent"
	IPAddressKey  CtxKey = "ip_address"
	EndpointKey   CtxKey = "endpoint"
	TimeoutKey    CtxKey = "timeout"
	CancelFuncKey CtxKey = "cancel_func"
)

// RequestID extracts the request id from ctx, empty when absent
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}
