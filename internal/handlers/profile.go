package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"orangecat/internal/middleware"
	"orangecat/internal/models"
	"orangecat/internal/services"
)

type ProfileHandler struct {
	profiles services.IProfileService
}

func NewProfileHandler(profiles services.IProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me handles GET /api/me.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.profiles.Get(c.Request.Context(), token, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update handles POST /api/profile/update.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.profiles.Update(c.Request.Context(), token, userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": p,
		"message": "Profile updated successfully",
	})
}

// List handles GET /api/profiles?limit=&offset=&sort=.
func (h *ProfileHandler) List(c *gin.Context) {
	_, token, ok := currentUser(c)
	if !ok {
		return
	}
	opts := models.ListProfilesOptions{
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
		Sort:   c.DefaultQuery("sort", "recent"),
	}
	profiles, page, err := h.profiles.List(c.Request.Context(), token, opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": profiles, "pagination": page})
}

// Search handles GET /api/profiles/search?q=&limit=.
func (h *ProfileHandler) Search(c *gin.Context) {
	_, token, ok := currentUser(c)
	if !ok {
		return
	}
	q := c.Query("q")
	profiles, err := h.profiles.Search(c.Request.Context(), token, q, queryInt(c, "limit", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": profiles, "query": q, "count": len(profiles)})
}

// ByUsername handles GET /api/profiles/:username. Anonymous callers read with the anon key.
func (h *ProfileHandler) ByUsername(c *gin.Context) {
	p, err := h.profiles.GetByUsername(c.Request.Context(), middleware.AccessToken(c), c.Param("username"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// queryInt parses a query parameter, returning def when it is absent or not a number.
func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
