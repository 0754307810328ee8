package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// AuthMiddleware enforces the X-API-Key header. An empty configured key
// disables authentication; comparison is constant-time.
type AuthMiddleware struct {
	apiKey string
}

func NewAuthMiddleware(apiKey string) *AuthMiddleware {
	return &AuthMiddleware{apiKey: apiKey}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.apiKey == "" {
			next(w, r)
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			httpx.ErrorCtx(r.Context(), w, errorx.ErrUnauthorized("API key required"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) != 1 {
			httpx.ErrorCtx(r.Context(), w, errorx.ErrUnauthorized("Invalid API key"))
			return
		}

		next(w, r)
	}
}
