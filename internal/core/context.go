package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "activity_ip"
	ctxKeyUserAgent contextKey = "activity_ua"
	ctxKeyActor     contextKey = "activity_actor"
)

// ContextWithIPAddress records the client IP for the activity log.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent records the client User-Agent for the activity log.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ContextWithActor names the origin of a change when there is no HTTP
// request, e.g. "cli" or "console".
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// GetIPAddressFromContext extracts the client IP.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts the client User-Agent.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// GetActorFromContext extracts the actor, defaulting to "web".
func GetActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok && v != "" {
		return v
	}
	return "web"
}
