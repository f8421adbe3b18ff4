package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-api/internal/service"
)

type authResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// bindJSON decodes the request body into dst. An empty body decodes as an empty object so that
// the field validation reports what is missing.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	respondError(c, http.StatusBadRequest, msgInvalidJSON)
	return false
}

func (h *Handler) register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.sessions.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.requestLogger(c).WithField("user_id", user.ID).Info("user registered")
	respond(c, http.StatusCreated, "user registered successfully", authResponse{
		User:  userToResponse(user),
		Token: token,
	})
}

func (h *Handler) login(c *gin.Context) {
	var in service.LoginInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.sessions.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, "login successful", authResponse{
		User:  userToResponse(user),
		Token: token,
	})
}

// logout only needs a token to be present. Unknown tokens are revoked as a no-op.
func (h *Handler) logout(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		respondError(c, http.StatusUnauthorized, msgMissingToken)
		return
	}

	if _, err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, "logout successful", nil)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, "user retrieved", userToResponse(user))
}
