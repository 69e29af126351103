package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/embassy-gov/portal-api/internal/models"
	"github.com/embassy-gov/portal-api/internal/service"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
	"github.com/embassy-gov/portal-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated principal.
const ContextPrincipalKey = "currentPrincipal"

// Cookie names for the token pair. The session rides entirely on httpOnly
// cookies; no Authorization header is read.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Session attaches the authenticated principal when the access token cookie
// verifies. It never aborts: a missing or expired token simply leaves the
// request anonymous, and route guards decide the response. There is no
// refresh-on-expiry here; clients call the refresh endpoint themselves.
func Session(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(AccessTokenCookie)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		claims, err := tokens.VerifyAccess(raw)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextPrincipalKey, &models.Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		c.Next()
	}
}

// RequireRoles guards a route: 401 without a principal, 403 when the role is
// not in the allow-list. An empty list admits any authenticated principal.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextPrincipalKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		principal := value.(*models.Principal)

		if len(allowed) > 0 {
			if _, ok := allowed[principal.Role]; !ok {
				response.Error(c, appErrors.ErrForbidden)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
