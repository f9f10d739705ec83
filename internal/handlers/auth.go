package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"orangecat/internal/middleware"
	"orangecat/internal/models"
	"orangecat/internal/services"
)

type AuthHandler struct {
	auth     services.IAuthService
	profiles services.IProfileService
	secure   bool
}

// NewAuthHandler builds the auth routes. secure marks the session cookie Secure.
func NewAuthHandler(auth services.IAuthService, profiles services.IProfileService, secure bool) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles, secure: secure}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, s models.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, s.AccessToken, s.ExpiresIn, "/", "", h.secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secure, true)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reg, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	if reg.Session != nil {
		h.setSessionCookie(c, *reg.Session)
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":           true,
		"user":              reg.User,
		"session":           reg.Session,
		"needsConfirmation": reg.NeedsConfirmation,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session, "user": session.User})
}

// Logout handles POST /api/auth/logout. The cookie is cleared even if GoTrue fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	if err := h.auth.SignOut(c.Request.Context(), middleware.AccessToken(c)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	session, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleError(c, err)
		return
	}
	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// ResetPassword always answers the same way so it cannot be used to enumerate accounts.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If an account exists for this email, a password reset link has been sent.",
	})
}

// Session handles GET /api/auth/session: the GoTrue user plus their profile, if any.
func (h *AuthHandler) Session(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.auth.CurrentUser(c.Request.Context(), token)
	if err != nil {
		handleError(c, err)
		return
	}

	var profile *models.Profile
	p, err := h.profiles.Get(c.Request.Context(), token, userID)
	switch {
	case err == nil:
		profile = &p
	case !errors.Is(err, models.ErrNotFound):
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}
