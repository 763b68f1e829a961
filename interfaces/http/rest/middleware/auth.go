package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"specmap/pkg/auth"
	"specmap/pkg/common"
)

// Authenticator validates bearer tokens and rate-limits callers before
// requests reach the session API.
type Authenticator struct {
	validator   *auth.JWTValidator
	ipLimiter   auth.RateLimiter
	userLimiter auth.RateLimiter
	trustProxy  bool
	logger      *zap.Logger
}

// NewAuthenticator creates the authentication middleware. trustProxy
// accepts identity headers set by an API Gateway JWT authorizer instead
// of validating tokens locally.
func NewAuthenticator(validator *auth.JWTValidator, ipLimiter, userLimiter auth.RateLimiter, trustProxy bool, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		validator:   validator,
		ipLimiter:   ipLimiter,
		userLimiter: userLimiter,
		trustProxy:  trustProxy,
		logger:      logger,
	}
}

// Middleware returns the chi-compatible handler wrapper.
func (a *Authenticator) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			if allowed, err := a.ipLimiter.Allow(r.Context(), clientIP); err != nil {
				a.logger.Warn("ip rate limiter degraded", zap.Error(err))
			} else if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			user, ok := a.identify(w, r)
			if !ok {
				return
			}

			if allowed, err := a.userLimiter.Allow(r.Context(), user.UserID); err != nil {
				a.logger.Warn("user rate limiter degraded", zap.Error(err))
			} else if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), user)
			ctx = common.WithUserID(ctx, user.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identify resolves the caller, writing the error response itself when
// the request cannot be authenticated.
func (a *Authenticator) identify(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	if a.trustProxy && r.Header.Get("X-API-Gateway-Authorized") == "true" {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			respondUnauthorized(w, "Missing user context from API Gateway")
			return nil, false
		}
		roles := []string{"authenticated"}
		if raw := r.Header.Get("X-User-Roles"); raw != "" {
			roles = strings.Split(raw, ",")
		}
		return &auth.UserContext{
			UserID: userID,
			Email:  r.Header.Get("X-User-Email"),
			Roles:  roles,
		}, true
	}

	token := extractToken(r)
	if token == "" {
		respondUnauthorized(w, "Missing authentication token")
		return nil, false
	}

	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		a.logger.Debug("token rejected",
			zap.Error(err),
			zap.String("path", r.URL.Path),
		)
		switch err {
		case auth.ErrExpiredToken:
			respondUnauthorized(w, "Token has expired")
		case auth.ErrInvalidSignature:
			respondUnauthorized(w, "Invalid token signature")
		default:
			respondUnauthorized(w, "Invalid token")
		}
		return nil, false
	}

	return &auth.UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, true
}

// extractToken extracts the JWT token from the Authorization header or cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return authHeader
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(w http.ResponseWriter, message string) {
	respondWithError(w, http.StatusUnauthorized, message)
}

// respondWithError sends an error response with a specific status code
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    code,
	})
}
