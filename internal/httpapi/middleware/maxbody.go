package middleware

import (
	"errors"
	"net/http"

	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	"github.com/gin-gonic/gin"
)

// MaxBodyBytes limits request bodies to n bytes.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from a body cut by MaxBodyBytes.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// AbortBodyError answers a failed body bind with 413 or 400.
func AbortBodyError(c *gin.Context, err error) {
	if IsBodyTooLarge(err) {
		resp.Abort(c, resp.CodeTooLarge, "")
		return
	}
	resp.Abort(c, resp.CodeBadRequest, "invalid request body")
}
