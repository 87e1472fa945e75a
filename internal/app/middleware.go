package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/obralog/obralog/internal/config"
	"github.com/obralog/obralog/pkg/user"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Resolve the calling user and propagate it into the request context.
	// A bearer token takes precedence; the X-User-Id header remains as a
	// fallback for local development when no JWT secret is configured.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			userUid := ""
			authorization := req.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(authorization, "Bearer "); ok {
				claims, err := deps.AuthTokenValidator.Verify(token)
				if err != nil {
					log.Debugf("rejected bearer token: %v", err)
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				userUid = claims.Subject
			} else if cfg.Auth.JwtSecret == "" {
				userUid = req.Header.Get("X-User-Id")
			}

			if userUid != "" {
				u, err := deps.UserService.GetUserByUid(ctx, userUid)
				if err != nil {
					if errors.Is(err, user.ErrUserNotFound) {
						log.Debugf("user not found: %s", userUid)
						http.Error(w, "user not found", http.StatusForbidden)
						return
					}
					log.Errorf("failed to get user: %v", err)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				ctx = user.WithUser(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
