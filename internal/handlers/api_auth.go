package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"passgate/internal/service"

	"github.com/gin-gonic/gin"
)

// Single, shared credentials payload for both sign-up and sign-in.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CredentialsRequest documents the sign-up/sign-in payload.
type CredentialsRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"longpassword"`
}

const (
	errInvalidCredentials = "invalid credentials"
	errSignUpFailed       = "registration failed"
	errSignInFailed       = "sign-in failed"
)

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("auth_bad_request_body", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": service.MsgMissingCredentials})
		return false
	}
	return true
}

// @Summary      Register an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      CredentialsRequest  true  "Credentials"
// @Success      201   {object}  map[string]interface{}  "id, username"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	u, err := h.services.Register(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		case errors.Is(err, service.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": msgUsernameTaken})
		default:
			h.log.Errorw("auth_sign_up_failed", "username", input.Username, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errSignUpFailed})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "username": u.Username})
}

// @Summary      Exchange credentials for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      CredentialsRequest  true  "Credentials"
// @Success      200   {object}  map[string]string  "token"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	if wait := h.lockedFor(ctx, ip); wait > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": msgTooManyAttempts})
		return
	}

	token, err := h.services.GenerateToken(ctx, input.Username, input.Password)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		case errors.Is(err, service.ErrInvalidCredentials):
			h.recordFailure(ctx, ip)
			h.log.Infow("auth_sign_in_rejected", "username", input.Username, "ip", ip)
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		default:
			h.log.Errorw("auth_sign_in_failed", "username", input.Username, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errSignInFailed})
		}
		return
	}

	h.resetFailures(ctx, ip)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user_id, username"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/me [get]
// @Security     BearerAuth
func (h *Handler) me(c *gin.Context) {
	id, ok := tokenIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "username": id.Username})
}
