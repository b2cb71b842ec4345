package middleware

import (
	"github.com/MrEthical07/storefront"
	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	"github.com/MrEthical07/storefront/permission"
	"github.com/gin-gonic/gin"
)

const (
	keySession = "storefront.session"
	keyToken   = "storefront.token"
)

// ClientIP attaches the caller's IP to the request context for the login
// throttle and audit events.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(storefront.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// RequireToken only checks that a bearer token is present. Engine methods
// that take the token validate it themselves.
func RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		c.Set(keyToken, token)
		c.Next()
	}
}

// RequireSession validates the bearer token and stores the session.
func RequireSession(v SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		sess, err := v.ValidateSession(c.Request.Context(), token)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		c.Set(keyToken, token)
		c.Set(keySession, sess)
		c.Request = c.Request.WithContext(withSession(c.Request.Context(), sess))
		c.Next()
	}
}

// RequireRoles rejects sessions whose role is not in allowed. It must run
// after RequireSession.
func RequireRoles(allowed ...storefront.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "missing session")
			return
		}
		if !permission.Contains(allowed, sess.Role) {
			resp.Abort(c, resp.CodeForbidden, "")
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (*storefront.Session, bool) {
	v, ok := c.Get(keySession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*storefront.Session)
	return sess, ok && sess != nil
}

// TokenFrom returns the bearer token stored by RequireToken or RequireSession.
func TokenFrom(c *gin.Context) string {
	return c.GetString(keyToken)
}
