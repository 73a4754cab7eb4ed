package auth

import (
	"context"

	"github.com/motohub/workshop-service/internal/apperror"
)

type UserContext struct {
	DealerID string
	UserID   string
	Role     string
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (*UserContext, bool) {
	u, ok := ctx.Value(ctxKey{}).(*UserContext)
	return u, ok && u != nil
}

// RequireDealer returns the caller and its dealer scope. A caller without a
// dealer is a validation error, not an auth failure.
func RequireDealer(ctx context.Context) (*UserContext, error) {
	u, ok := UserFrom(ctx)
	if !ok {
		return nil, apperror.Unauthenticated("missing session")
	}
	if u.DealerID == "" {
		return nil, apperror.Validation(apperror.CodeMissingDealer, "dealer context is required")
	}
	return u, nil
}
