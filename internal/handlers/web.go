package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"passgate/internal/service"

	"github.com/gin-gonic/gin"
)

// Inline messages rendered on the landing page.
const (
	msgUsernameTaken      = "Username taken, please try another"
	msgRegistrationFailed = "Registration failed, please try again"
	msgInvalidLogin       = "Invalid username or password"
	msgLoginFailed        = "Login failed, please try again"
	msgTooManyAttempts    = "Too many failed attempts, please try again later"

	pageIndex     = "index.html"
	pageDashboard = "dashboard.html"
)

func (h *Handler) renderIndex(c *gin.Context, code int, errMsg string) {
	c.HTML(code, pageIndex, gin.H{"error": errMsg})
}

func (h *Handler) home(c *gin.Context) {
	if _, ok := currentUser(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	h.renderIndex(c, http.StatusOK, "")
}

// registerFailure maps a Register error to a status and a displayable message.
func registerFailure(err error) (int, string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, service.ErrDuplicateUsername):
		return http.StatusConflict, msgUsernameTaken
	default:
		return http.StatusInternalServerError, msgRegistrationFailed
	}
}

// loginFailure maps a Verify error to a status and a displayable message.
func loginFailure(err error) (int, string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidLogin
	default:
		return http.StatusInternalServerError, msgLoginFailed
	}
}

func (h *Handler) register(c *gin.Context) {
	username := c.PostForm("username")
	u, err := h.services.Register(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		code, msg := registerFailure(err)
		if code == http.StatusInternalServerError {
			h.log.Errorw("auth_register_failed", "username", username, "err", err)
		} else {
			h.log.Infow("auth_register_rejected", "username", username, "reason", msg)
		}
		h.renderIndex(c, code, msg)
		return
	}

	if err := h.startSession(c, u.Username); err != nil {
		h.log.Errorw("auth_session_save_failed", "username", u.Username, "err", err)
		h.renderIndex(c, http.StatusInternalServerError, msgRegistrationFailed)
		return
	}
	h.log.Infow("auth_registered", "user_id", u.ID, "username", u.Username)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) login(c *gin.Context) {
	ctx := c.Request.Context()
	ip := c.ClientIP()
	username := c.PostForm("username")

	if wait := h.lockedFor(ctx, ip); wait > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		h.renderIndex(c, http.StatusTooManyRequests, msgTooManyAttempts)
		return
	}

	u, err := h.services.Verify(ctx, username, c.PostForm("password"))
	if err != nil {
		code, msg := loginFailure(err)
		switch code {
		case http.StatusUnauthorized:
			h.recordFailure(ctx, ip)
			h.log.Infow("auth_login_rejected", "username", username, "ip", ip)
		case http.StatusInternalServerError:
			h.log.Errorw("auth_login_failed", "username", username, "err", err)
		}
		h.renderIndex(c, code, msg)
		return
	}

	h.resetFailures(ctx, ip)
	if err := h.startSession(c, u.Username); err != nil {
		h.log.Errorw("auth_session_save_failed", "username", u.Username, "err", err)
		h.renderIndex(c, http.StatusInternalServerError, msgLoginFailed)
		return
	}
	h.log.Infow("auth_logged_in", "user_id", u.ID, "username", u.Username)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) dashboard(c *gin.Context) {
	user, _ := currentUser(c)
	c.HTML(http.StatusOK, pageDashboard, gin.H{"username": user})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.endSession(c); err != nil {
		h.log.Errorw("auth_session_clear_failed", "err", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// lockedFor fails open when the throttle backend errors.
func (h *Handler) lockedFor(ctx context.Context, key string) time.Duration {
	wait, err := h.limiter.Check(ctx, key)
	if err != nil {
		h.log.Warnw("throttle_check_failed", "err", err)
		return 0
	}
	return wait
}

func (h *Handler) recordFailure(ctx context.Context, key string) {
	if err := h.limiter.Fail(ctx, key); err != nil {
		h.log.Warnw("throttle_record_failed", "err", err)
	}
}

func (h *Handler) resetFailures(ctx context.Context, key string) {
	if err := h.limiter.Reset(ctx, key); err != nil {
		h.log.Warnw("throttle_reset_failed", "err", err)
	}
}
