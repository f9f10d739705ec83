package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orangecat/internal/models"
	"orangecat/internal/services"
)

type OrganizationHandler struct {
	orgs services.IOrganizationService
}

func NewOrganizationHandler(orgs services.IOrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// List handles GET /api/organizations?q=&type=&category=&page=&limit=&sort=&order=.
func (h *OrganizationHandler) List(c *gin.Context) {
	_, token, ok := currentUser(c)
	if !ok {
		return
	}
	orgs, page, err := h.orgs.List(c.Request.Context(), token, models.ListOrganizationsOptions{
		Query:    c.Query("q"),
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 0),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orgs, "pagination": page})
}

// Create handles POST /api/organizations.
func (h *OrganizationHandler) Create(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	org, err := h.orgs.Create(c.Request.Context(), token, userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": org, "message": "Organization created successfully"})
}

// Memberships handles GET /api/memberships?organization_id=&profile_id=.
func (h *OrganizationHandler) Memberships(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	var f models.MembershipFilter
	for key, dst := range map[string]*uuid.UUID{"organization_id": &f.OrganizationID, "profile_id": &f.ProfileID} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			handleError(c, models.Invalid(key, "Invalid "+key))
			return
		}
		*dst = id
	}

	ms, err := h.orgs.ListMemberships(c.Request.Context(), token, userID, f)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ms})
}

// AddMember handles POST /api/memberships.
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.orgs.AddMember(c.Request.Context(), token, userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": m, "message": "Member added successfully"})
}
