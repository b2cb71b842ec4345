package handler

import (
	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	"github.com/gin-gonic/gin"
)

type roleIn struct {
	Role string `json:"role"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.engine.ListUsers(c.Request.Context(), token(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, gin.H{"users": users, "count": len(users)})
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	var in roleIn
	if !bind(c, &in) {
		return
	}
	user, err := h.engine.UpdateUserRole(c.Request.Context(), token(c), c.Param("email"), in.Role)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, user)
}
