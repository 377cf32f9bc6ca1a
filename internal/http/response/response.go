package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// AbortError writes the envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, code string, err error) {
	RespondError(c, status, code, err)
	c.Abort()
}

// RespondAPIError classifies err by sentinel. Server errors get a generic
// message so storage details do not leak.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	ae := apierr.From(err, fallbackCode)
	if ae == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if ae.Status >= http.StatusInternalServerError && ae.Status != http.StatusNotImplemented {
		_ = c.Error(err)
		RespondError(c, ae.Status, ae.Code, errInternal)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

type internalError struct{}

func (internalError) Error() string { return "internal server error" }

var errInternal error = internalError{}
