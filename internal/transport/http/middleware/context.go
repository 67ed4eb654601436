package middleware

import (
	"context"

	"appraisal/internal/domain/auth"
	"appraisal/internal/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// WithUser puts an authenticated caller on ctx. Auth uses it; handler tests
// use it to skip token minting.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
