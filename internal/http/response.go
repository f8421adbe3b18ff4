package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-api/internal/service"
)

const (
	msgMissingToken     = "missing token"
	msgInvalidToken     = "invalid or expired token"
	msgInvalidJSON      = "invalid JSON body"
	msgInvalidNoteID    = "invalid note id"
	msgNotFound         = "endpoint not found"
	msgMethodNotAllowed = "method not allowed"
	msgValidation       = "validation failed"
	msgInternal         = "internal server error"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type validationEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

func respondValidation(c *gin.Context, fields map[string]string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validationEnvelope{
		Success: false,
		Message: msgValidation,
		Errors:  fields,
	})
}

// fail maps service errors onto the response envelope. Anything unrecognised is logged and hidden behind a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondValidation(c, verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, msgInvalidToken)
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "you do not have permission to access this note")
	case errors.Is(err, service.ErrNoteNotFound), errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNothingToUpdate):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		entry := h.requestLogger(c).WithError(err)
		if errors.Is(err, context.DeadlineExceeded) {
			entry.Warn("request deadline exceeded")
		} else {
			entry.Error("request failed")
		}
		respondError(c, http.StatusInternalServerError, msgInternal)
	}
}
