// Package handler adapts Engine operations to gin handlers. Handlers bind
// the request, call the Engine and render the response envelope; every
// authorization decision stays in the Engine.
package handler

import (
	"github.com/MrEthical07/storefront"
	mdw "github.com/MrEthical07/storefront/internal/httpapi/middleware"
	authmw "github.com/MrEthical07/storefront/middleware"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *storefront.Engine
}

func New(engine *storefront.Engine) *Handler {
	return &Handler{engine: engine}
}

// sessionOut is returned by every operation that signs the user in.
type sessionOut struct {
	Token   string              `json:"token"`
	Session *storefront.Session `json:"session"`
}

func signedIn(sess *storefront.Session) sessionOut {
	return sessionOut{Token: sess.Token, Session: sess}
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		mdw.AbortBodyError(c, err)
		return false
	}
	return true
}

func token(c *gin.Context) string {
	return authmw.TokenFrom(c)
}
