package handler

import (
	"github.com/MrEthical07/storefront"
	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	authmw "github.com/MrEthical07/storefront/middleware"
	"github.com/gin-gonic/gin"
)

type emailIn struct {
	Email string `json:"email"`
}

type verifyIn struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type loginIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetConfirmIn struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// Register creates an unverified account and mails its code.
func (h *Handler) Register(c *gin.Context) {
	var in storefront.RegisterInput
	if !bind(c, &in) {
		return
	}
	user, err := h.engine.Register(c.Request.Context(), in)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Created(c, user)
}

func (h *Handler) Verify(c *gin.Context) {
	var in verifyIn
	if !bind(c, &in) {
		return
	}
	sess, err := h.engine.VerifyRegistration(c.Request.Context(), in.Email, in.Code)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, signedIn(sess))
}

// ResendCode answers the same way for unknown and unverified emails.
func (h *Handler) ResendCode(c *gin.Context) {
	var in emailIn
	if !bind(c, &in) {
		return
	}
	if err := h.engine.ResendVerificationCode(c.Request.Context(), in.Email); err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, gin.H{"sent": true})
}

func (h *Handler) Login(c *gin.Context) {
	var in loginIn
	if !bind(c, &in) {
		return
	}
	sess, err := h.engine.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, signedIn(sess))
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.engine.Logout(c.Request.Context(), token(c)); err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, nil)
}

// Session returns the session resolved by RequireSession.
func (h *Handler) Session(c *gin.Context) {
	sess, ok := authmw.SessionFrom(c)
	if !ok {
		resp.Abort(c, resp.CodeUnauthorized, "missing session")
		return
	}
	resp.Success(c, sess)
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var in emailIn
	if !bind(c, &in) {
		return
	}
	if err := h.engine.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, gin.H{"sent": true})
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var in resetConfirmIn
	if !bind(c, &in) {
		return
	}
	sess, err := h.engine.ResetPassword(c.Request.Context(), in.Email, in.Code, in.Password)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.Success(c, signedIn(sess))
}
