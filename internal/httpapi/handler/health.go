package handler

import (
	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	"github.com/gin-gonic/gin"
)

// Health reports whether the record store answers.
func (h *Handler) Health(c *gin.Context) {
	if err := h.engine.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		resp.Abort(c, resp.CodeUnavailable, "store unavailable")
		return
	}
	resp.Success(c, gin.H{"ok": 1})
}
