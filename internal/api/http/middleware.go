package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware authenticates requests according to config.EndpointSecurityConfig
type AuthMiddleware struct {
	tokenManager security.TokenManager
	denylist     security.Denylist
}

func NewAuthMiddleware(tm security.TokenManager, denylist security.Denylist) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm, denylist: denylist}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if t, err := route.GetPathTemplate(); err == nil {
				template = t
			}
		}
		level := config.GetSecurityLevel(r.Method, template)
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		wantType := security.TokenTypeAccess
		cookie := accessCookie
		if level == config.SecurityRefresh {
			wantType = security.TokenTypeRefresh
			cookie = refreshCookie
		}

		token := extractToken(r, cookie)
		if token == "" {
			respondError(w, r, apperr.Unauthorized("authentication required"))
			return
		}

		claims, err := m.tokenManager.ValidateTokenOfType(token, wantType)
		if err != nil {
			respondError(w, r, tokenError(err))
			return
		}

		if wantType == security.TokenTypeAccess {
			revoked, err := m.denylist.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				logger.WarnContext(r.Context(), "Denylist lookup failed", "error", err)
			}
			if revoked {
				respondError(w, r, apperr.Unauthorized("token has been revoked"))
				return
			}
		}

		if level == config.SecurityAdmin && claims.Role != string(domain.UserRoleAdmin) {
			respondError(w, r, apperr.Forbidden("admin access required"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the named cookie, falling back to the Authorization header
func extractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, security.ErrExpiredToken):
		return apperr.Unauthorized("token has expired")
	case errors.Is(err, security.ErrWrongTokenType):
		return apperr.Unauthorized("wrong token type for this endpoint")
	default:
		return apperr.Unauthorized("invalid token")
	}
}

func claimsFrom(ctx context.Context) *security.UserClaims {
	claims, _ := ctx.Value(claimsKey).(*security.UserClaims)
	return claims
}

// callerFrom returns the authenticated caller; routes behind the middleware always have one
func callerFrom(r *http.Request) service.Caller {
	claims := claimsFrom(r.Context())
	if claims == nil {
		return service.Caller{}
	}
	return service.Caller{UserID: claims.UserID, Role: domain.UserRole(claims.Role)}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware tags the request with an id and logs method, path, status and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logger.NewContext(r.Context(), logger.WithRequest(requestID))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		logger.HTTPRequest(ctx, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// RecoveryMiddleware turns handler panics into a 500 envelope
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "Panic in handler", "panic", rec, "stack", string(debug.Stack()))
				respondJSON(w, http.StatusInternalServerError, "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
