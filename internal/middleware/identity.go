package middleware

import (
	"net/http"
	"strings"

	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const identityKey = "identity"

// IdentityResolver attaches the caller identity to the request: the JWT user when a
// valid bearer token is sent, otherwise the anonymous session cookie if there is one.
type IdentityResolver struct {
	jwtSecret    string
	cookieName   string
	cookieMaxAge int
	secure       bool
}

func NewIdentityResolver(jwtSecret, cookieName string, cookieMaxAge int, secure bool) *IdentityResolver {
	return &IdentityResolver{
		jwtSecret:    jwtSecret,
		cookieName:   cookieName,
		cookieMaxAge: cookieMaxAge,
		secure:       secure,
	}
}

func (r *IdentityResolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			claims, err := util.ValidateToken(token, r.jwtSecret)
			if err == nil {
				c.Set(identityKey, model.AuthenticatedIdentity(claims.UserID, claims.Username, claims.IsStaff))
				c.Next()
				return
			}
			logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("ignoring invalid bearer token")
		}

		if session, err := c.Cookie(r.cookieName); err == nil && session != "" {
			c.Set(identityKey, model.AnonymousIdentity(session))
		}

		c.Next()
	}
}

// Resolve returns the caller identity, minting and setting a session cookie first
// when the caller has neither a token nor a session.
func (r *IdentityResolver) Resolve(c *gin.Context) model.Identity {
	identity := CurrentIdentity(c)
	if identity.IsAuthenticated() || identity.SessionKey != "" {
		return identity
	}

	session := strings.ReplaceAll(uuid.New().String(), "-", "")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(r.cookieName, session, r.cookieMaxAge, "/", "", r.secure, true)

	identity = model.AnonymousIdentity(session)
	c.Set(identityKey, identity)
	return identity
}

// CurrentIdentity returns what the middleware resolved, without minting a session.
func CurrentIdentity(c *gin.Context) model.Identity {
	if value, ok := c.Get(identityKey); ok {
		if identity, ok := value.(model.Identity); ok {
			return identity
		}
	}
	return model.Identity{}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentIdentity(c).IsAuthenticated() {
			util.Unauthorized(c, "Authentication required")
			return
		}
		c.Next()
	}
}

// RequireStaff rejects requests from anyone but staff users.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if !identity.IsAuthenticated() {
			util.Unauthorized(c, "Authentication required")
			return
		}
		if !identity.IsStaff {
			util.Forbidden(c, "Staff access required")
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
