package grpcserver

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	userIDKey ctxKey = "ohmylink.userID"
	noteKey   ctxKey = "ohmylink.callNote"
)

// callNote lets LoggingUnary, which runs outside AuthUnary, learn the caller.
type callNote struct{ user uuid.UUID }

// WithUserID stores the authenticated profile owner in ctx.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	if n, ok := ctx.Value(noteKey).(*callNote); ok {
		n.user = id
	}
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx fetches the owner stored by AuthUnary.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}

// caller is UserIDFromCtx for handlers: a missing or nil owner is Unauthenticated.
func caller(ctx context.Context) (uuid.UUID, error) {
	id, ok := UserIDFromCtx(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}
