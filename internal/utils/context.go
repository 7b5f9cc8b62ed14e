package utils

import (
	"context"
	"time"
)

type contextKey string

const (
	ContextActorKey       contextKey = "actor"
	ContextTokenDigestKey contextKey = "tokenDigest"
)

// Actor is the authenticated principal attached to a request context.
// A zero Actor means the request is anonymous.
type Actor struct {
	UserID        uint
	Role          string
	Authenticated bool
}

// TokenData is what the middleware needs to know about a bearer token.
// Digest is the stored form of the token, kept in the context so logout
// can revoke the exact credential that authenticated the request.
type TokenData struct {
	UserID    uint
	Role      string
	Digest    string
	ExpiresAt time.Time
}

// WithActor attaches the authenticated principal to a context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

// WithTokenDigest records which stored credential authenticated the request.
func WithTokenDigest(ctx context.Context, digest string) context.Context {
	return context.WithValue(ctx, ContextTokenDigestKey, digest)
}

func GetActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ContextActorKey).(Actor)
	return actor, ok
}

func GetTokenDigestFromContext(ctx context.Context) (string, bool) {
	digest, ok := ctx.Value(ContextTokenDigestKey).(string)
	return digest, ok
}
