// Package contextkey holds the request-scoped values shared by the HTTP
// middleware and the logger.
package contextkey

import "context"

type key string

const (
	TraceID   key = "trace_id"
	RequestID key = "request_id"
	UserID    key = "user_id"
	UserRole  key = "user_role"
)

// Fields lists the keys the logger copies into every entry, in output order.
var Fields = []key{TraceID, RequestID, UserID, UserRole}

// Name is the log field name of the key.
func (k key) Name() string {
	return string(k)
}

// String returns the string stored under k, or "" when absent.
func String(ctx context.Context, k key) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(k).(string)
	return v
}
