// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/godfactor/internal/auth"
	"codeberg.org/oliverandrich/godfactor/internal/config"
	"codeberg.org/oliverandrich/godfactor/internal/handlers"
	"codeberg.org/oliverandrich/godfactor/internal/i18n"
	authsvc "codeberg.org/oliverandrich/godfactor/internal/services/auth"
	"codeberg.org/oliverandrich/godfactor/internal/services/session"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// authErrorKey holds a store failure hit while resolving the session user.
const authErrorKey = "auth_error"

// rateLimitBurst is the number of auth requests an IP may make at once.
const rateLimitBurst = 5

func setupMiddleware(e *echo.Echo, cfg *config.Config, sessions *session.Manager, users *authsvc.Service) {
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	e.Use(i18nMiddleware())
	e.Use(loadUser(sessions, users))
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if user := auth.GetUser(c.Request().Context()); user != nil {
				attrs = append(attrs, slog.Int64("user_id", user.ID))
			}

			if v.Error != nil && v.Status >= 500 {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

// i18nMiddleware sets the locale based on Accept-Language header.
func i18nMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acceptLang := c.Request().Header.Get("Accept-Language")
			lang := i18n.MatchLanguage(acceptLang)
			ctx := i18n.WithLocale(c.Request().Context(), lang)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// loadUser resolves the session cookie to a user and stores it in the
// request context. Requests without a valid session continue anonymously;
// requireAuth decides whether that is acceptable.
func loadUser(sessions *session.Manager, users *authsvc.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := sessions.TokenFromRequest(c.Request())
			if !ok {
				return next(c)
			}

			userID, ok := sessions.Verify(token)
			if !ok {
				slog.Debug("session_invalid", "request_id", c.Response().Header().Get(echo.HeaderXRequestID))
				return next(c)
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				slog.Error("session_user_lookup_failed", "user_id", userID, "error", err)
				c.Set(authErrorKey, err)
				return next(c)
			}
			if user == nil {
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(auth.WithUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}

// requireAuth rejects requests without an authenticated user.
func requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err, ok := c.Get(authErrorKey).(error); ok {
				return err
			}
			if !auth.IsAuthenticated(c.Request().Context()) {
				return handlers.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// requireAdmin rejects authenticated users without the admin role. It must
// run after requireAuth.
func requireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.IsAdmin(c.Request().Context()) {
				return handlers.ErrForbidden
			}
			return next(c)
		}
	}
}

// rateLimit limits requests per client IP. A non-positive rate disables it.
func rateLimit(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetIPLookups([]string{"RemoteAddr"})
	lmt.SetBurst(rateLimitBurst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if httpErr := tollbooth.LimitByRequest(lmt, c.Response(), c.Request()); httpErr != nil {
				slog.Warn("rate_limited", "ip", c.RealIP(), "path", c.Path())
				return handlers.ErrRateLimited
			}
			return next(c)
		}
	}
}
