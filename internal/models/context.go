package models

import (
	"context"
)

type requestContextKey struct{}

// RequestContext carries caller identity through context so log lines and
// mirrored transactions can be correlated with the request that caused them.
type RequestContext struct {
	RequestId string // upstream request id
	ActorId   string // user acting (admin, company manager, volunteer)
	Source    string // orchestrator name, e.g. "deal_redemption"
}

// WithRequestContext attaches request data to a context.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// GetRequestContext retrieves request data from context, or nil if absent.
func GetRequestContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}
