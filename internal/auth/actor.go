package auth

import "context"

type actorKey struct{}

// WithActorID attaches the authenticated user id to the context.
func WithActorID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorIDFromContext returns the authenticated user id, if any.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(actorKey{}).(string)
	return userID, ok && userID != ""
}
