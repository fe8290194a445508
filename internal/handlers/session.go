package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionKeyUser = "username"
	ctxIdentityKey = "auth.user"
)

// identity copies the session's username into the request context. Handlers
// read it through currentUser and never touch the session directly, except
// startSession and endSession.
func (h *Handler) identity(c *gin.Context) {
	s := sessions.Default(c)
	if user, ok := s.Get(sessionKeyUser).(string); ok && user != "" {
		c.Set(ctxIdentityKey, user)
	}
	c.Next()
}

// currentUser returns the authenticated username, if any.
func currentUser(c *gin.Context) (string, bool) {
	user := c.GetString(ctxIdentityKey)
	return user, user != ""
}

// requireIdentity sends anonymous callers to the landing page.
func (h *Handler) requireIdentity(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) startSession(c *gin.Context, username string) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(sessionKeyUser, username)
	if err := s.Save(); err != nil {
		return err
	}
	c.Set(ctxIdentityKey, username)
	return nil
}

func (h *Handler) endSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	c.Set(ctxIdentityKey, "")
	return s.Save()
}
