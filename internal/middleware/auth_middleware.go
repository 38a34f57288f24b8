package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/models"
)

const ctxUser = "currentUser"

// Authenticator resolves a session token to an approved user, or nil
type Authenticator interface {
	Authenticate(ctx context.Context, token string) *models.User
}

// SessionAuth loads the user behind the session cookie, if any, into the context.
// A bearer Authorization header is accepted when no cookie is present.
// It never aborts; RequireAuth and RequireAdmin enforce access.
func SessionAuth(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			const bearerSchema = "Bearer "
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerSchema) {
				token = strings.TrimSpace(header[len(bearerSchema):])
			}
		}
		if token != "" && auth != nil {
			if user := auth.Authenticate(c.Request.Context(), token); user != nil {
				c.Set(ctxUser, user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the signed-in user, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequireAuth rejects anonymous requests with 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// PageAuth redirects anonymous page views to the login page
func PageAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		c.Next()
	}
}

// PageAdmin redirects non-admin page views to the home page
func PageAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		if !user.IsAdmin {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
