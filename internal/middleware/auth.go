package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// TokenValidator turns a bearer token into a user id.
type TokenValidator interface {
	Validate(token string) (int64, error)
}

// CallerResolver loads the identity behind a user id.
type CallerResolver interface {
	Caller(ctx context.Context, userID int64) (access.Caller, error)
}

// Identify resolves the bearer token, if any, into an access.Caller stored
// on the gin context. Requests without a usable token continue as anonymous;
// Require decides whether that is acceptable.
func Identify(tokens TokenValidator, users CallerResolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(callerKey, access.Anonymous)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Debug("malformed authorization header", slog.String("path", c.FullPath()))
			c.Next()
			return
		}

		userID, err := tokens.Validate(parts[1])
		if err != nil {
			log.Debug("rejected token", slog.Any("err", err))
			c.Next()
			return
		}

		caller, err := users.Caller(c.Request.Context(), userID)
		if err != nil {
			// Deleted user or a lookup failure: the token no longer maps to anyone.
			log.Warn("token user lookup failed", slog.Int64("user_id", userID), slog.Any("err", err))
			c.Next()
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller set by Identify, or Anonymous.
func CallerFrom(c *gin.Context) access.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(access.Caller); ok {
			return caller
		}
	}
	return access.Anonymous
}

// Require is the route guard. It must run after Identify.
//
// Unauthenticated callers get 401. Admin-only denials redirect to the home
// page with a notice; ownership denials are a hard 403.
func Require(caps ...access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := access.Check(CallerFrom(c), caps...)
		switch d.Denial {
		case access.DenyNone:
			c.Next()
		case access.DenyUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": d.Reason})
		case access.DenyRedirect:
			c.Redirect(http.StatusSeeOther, "/?notice="+url.QueryEscape(d.Reason))
			c.Abort()
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": d.Reason})
		}
	}
}
