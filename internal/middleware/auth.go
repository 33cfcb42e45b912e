package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/repository"
)

type contextKey string

const (
	ctxServiceKey contextKey = "service"
	ctxAdminKey   contextKey = "admin"
)

// ServiceKeyRepo is the interface used by service key auth middleware.
type ServiceKeyRepo interface {
	FindByKeyHash(ctx context.Context, keyHash string) (*repository.ServiceKey, error)
}

// TokenValidator resolves an admin JWT to an admin id.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

// ServiceKeyAuth authenticates the job-assignment workflow by hashing the
// Bearer token (SHA-256) and looking it up in service_api_keys. On success
// it sets the service key into request context.
func ServiceKeyAuth(repo ServiceKeyRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			key, err := repo.FindByKeyHash(r.Context(), hashKey(raw))
			if err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithServiceKey(r.Context(), key)))
		})
	}
}

// AdminAuth authenticates human operators via JWT and sets the admin id
// into request context. Handlers use it as the lifted_by audit actor.
func AdminAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			adminID, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdminID(r.Context(), adminID)))
		})
	}
}

// ServiceKeyFromCtx returns the authenticated service key or nil.
func ServiceKeyFromCtx(ctx context.Context) *repository.ServiceKey {
	key, _ := ctx.Value(ctxServiceKey).(*repository.ServiceKey)
	return key
}

// WithServiceKey returns a context carrying the given service key.
func WithServiceKey(ctx context.Context, key *repository.ServiceKey) context.Context {
	return context.WithValue(ctx, ctxServiceKey, key)
}

// AdminIDFromCtx returns the authenticated admin id, or uuid.Nil.
func AdminIDFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxAdminKey).(uuid.UUID)
	return id
}

// WithAdminID returns a context carrying the given admin id.
func WithAdminID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxAdminKey, id)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
