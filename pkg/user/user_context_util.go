package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserKey contextKey = "user"

var ErrNoUser = errors.New("user not found")

// CurrentId retrieves the current user's database ID from the context.
// Services use it to scope budget access. Returns ErrNoUser when the request
// carried no authenticated user.
func CurrentId(ctx context.Context) (int, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return u.Id, nil
}

// CurrentUser retrieves the full user stored in the context by the auth middleware.
func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("user not found in context")
		return User{}, ErrNoUser
	}
	return u, nil
}

// WithUser stores the resolved user in the context for downstream services.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}
