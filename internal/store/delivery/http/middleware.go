package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/auth"
	"github.com/tair/hiking-store/pkg/logger"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
)

// MiddlewareConfig holds middleware configuration
type MiddlewareConfig struct {
	EnableLogging bool
	EnableTracing bool
	Validator     *auth.TokenValidator
	Users         domain.UserRepository
	RateLimiter   *RateLimiter
}

// DefaultMiddlewareConfig returns default middleware configuration. A nil
// limiter disables rate limiting.
func DefaultMiddlewareConfig(validator *auth.TokenValidator, users domain.UserRepository, limiter *RateLimiter) MiddlewareConfig {
	return MiddlewareConfig{
		EnableLogging: true,
		EnableTracing: true,
		Validator:     validator,
		Users:         users,
		RateLimiter:   limiter,
	}
}

// RegisterMiddlewares registers the router-wide middlewares
func RegisterMiddlewares(router *mux.Router, config MiddlewareConfig) {
	if config.EnableTracing {
		router.Use(func(next http.Handler) http.Handler {
			return TracingMiddleware("http-request", next)
		})
	}

	if config.EnableLogging {
		router.Use(LoggingMiddleware)
	}

	if config.RateLimiter != nil {
		router.Use(config.RateLimiter.Middleware)
	}
}

// GetAuthMiddleware returns the auth middleware
func (config MiddlewareConfig) GetAuthMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return AuthMiddleware(config.Validator)
}

// GetOptionalAuthMiddleware returns the optional auth middleware
func (config MiddlewareConfig) GetOptionalAuthMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return OptionalAuthMiddleware(config.Validator)
}

// GetAdminMiddleware returns the admin middleware
func (config MiddlewareConfig) GetAdminMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return AdminMiddleware(config.Validator, config.Users)
}

// TracingMiddleware wraps HTTP handlers with OpenTelemetry tracing
func TracingMiddleware(operationName string, next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, operationName)
}

// LoggingMiddleware logs HTTP requests with structured logging
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		ctx := r.Context()
		traceID := "no-trace"
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		}

		logger.Debug(ctx).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Str("trace_id", traceID).
			Msg("HTTP request started")

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logEvent := logger.WithContext(ctx).Info()
		if ww.statusCode >= 500 {
			logEvent = logger.WithContext(ctx).Error()
		} else if ww.statusCode >= 400 {
			logEvent = logger.WithContext(ctx).Warn()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Dur("duration", duration).
			Int64("duration_ms", duration.Milliseconds()).
			Str("trace_id", traceID).
			Msg("HTTP request completed")
	})
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UsernameKey, claims.Username)
	return context.WithValue(ctx, RoleKey, claims.Role)
}

// UserIDFromContext returns the authenticated user id, or "" for anonymous
// requests
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// AuthMiddleware validates the JWT bearer token
func AuthMiddleware(validator *auth.TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				logger.Warn(r.Context()).Msg("Missing authorization header")
				respondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				logger.Warn(r.Context()).Msg("Invalid authorization header format")
				respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn(r.Context()).Err(err).Msg("Invalid token")
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			logger.Debug(r.Context()).
				Str("user_id", claims.UserID).
				Str("role", claims.Role).
				Msg("User authenticated")

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		}
	}
}

// OptionalAuthMiddleware identifies the user when a valid token is present.
// Missing or invalid tokens continue anonymously.
func OptionalAuthMiddleware(validator *auth.TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				claims, err := validator.ValidateToken(token)
				if err == nil {
					logger.Debug(r.Context()).
						Str("user_id", claims.UserID).
						Msg("Optional auth: User identified")
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}

			next.ServeHTTP(w, r)
		}
	}
}

// AdminMiddleware requires an admin. The role claim is trusted when it says
// admin; otherwise the user record decides.
func AdminMiddleware(validator *auth.TokenValidator, users domain.UserRepository) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return AuthMiddleware(validator)(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, _ := ctx.Value(RoleKey).(string)
			if role == auth.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(ctx, UserIDFromContext(ctx))
			if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
				logger.Error(ctx).Err(err).Msg("Failed to load user for admin check")
				respondError(w, http.StatusInternalServerError, "Failed to verify permissions")
				return
			}
			if err != nil || !user.IsAdmin() {
				logger.Warn(ctx).
					Str("user_id", UserIDFromContext(ctx)).
					Str("role", role).
					Msg("Admin access denied")
				respondError(w, http.StatusForbidden, domain.ErrForbidden.Error())
				return
			}

			logger.Debug(ctx).Msg("Admin access granted")
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, RoleKey, user.Role)))
		})
	}
}
