package httpx

import (
	"context"

	"github.com/idnremote/idnremote-go/internal/domain/navigation"
)

// Unexported context key types to avoid collisions across packages.
type (
	matchKey     struct{}
	requestIDKey struct{}
)

// SetMatchInContext returns a child context carrying the resolved route.
func SetMatchInContext(ctx context.Context, m navigation.Match) context.Context {
	return context.WithValue(ctx, matchKey{}, m)
}

// MatchFromContext returns the route the guard resolved for this request.
func MatchFromContext(ctx context.Context) (navigation.Match, bool) {
	m, ok := ctx.Value(matchKey{}).(navigation.Match)
	return m, ok
}

// RequestIDFromContext returns the id assigned by the RequestID middleware, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
