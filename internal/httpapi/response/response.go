package response

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/storefront"
	"github.com/gin-gonic/gin"
)

// Resp is the envelope of every API response.
type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// New builds a Resp. Data is never null.
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error builds a failure envelope. An empty customMsg uses the default text.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// Status is the HTTP status sent with code.
func Status(code int) int {
	if code == CodeOK {
		return http.StatusOK
	}
	if http.StatusText(code) == "" {
		return http.StatusInternalServerError
	}
	return code
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, OK(data))
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, OK(data))
}

// Abort stops the chain with a failure envelope.
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(Status(code), Error(code, msg))
}

// Fail maps an Engine error onto the envelope and aborts. Dependency and
// unknown errors are recorded on the gin context and answered generically.
func Fail(c *gin.Context, err error) {
	code, msg := FromError(err)
	if code >= CodeServerError {
		_ = c.Error(err)
	}
	body := Error(code, msg)
	if n, ok := storefront.RemainingAttempts(err); ok {
		body.Data = gin.H{"remainingAttempts": n}
	}
	c.AbortWithStatusJSON(Status(code), body)
}

// FromError returns the envelope code and public message for err.
func FromError(err error) (int, string) {
	switch storefront.KindOf(err) {
	case storefront.KindValidation:
		if errors.Is(err, storefront.ErrEmailAlreadyRegistered) || errors.Is(err, storefront.ErrOrderExists) {
			return CodeConflict, err.Error()
		}
		return CodeBadRequest, err.Error()
	case storefront.KindAuth:
		switch {
		case errors.Is(err, storefront.ErrForbidden):
			return CodeForbidden, storefront.ErrForbidden.Error()
		case errors.Is(err, storefront.ErrRegistrationIncomplete), errors.Is(err, storefront.ErrNotVerified):
			return CodeForbidden, err.Error()
		case errors.Is(err, storefront.ErrLoginRateLimited):
			return CodeTooManyRequests, err.Error()
		}
		return CodeUnauthorized, err.Error()
	case storefront.KindVerification:
		return CodeBadRequest, err.Error()
	case storefront.KindNotFound:
		return CodeNotFound, CodeMsgMap[CodeNotFound]
	case storefront.KindDependency:
		return CodeUnavailable, CodeMsgMap[CodeUnavailable]
	default:
		return CodeServerError, CodeMsgMap[CodeServerError]
	}
}
