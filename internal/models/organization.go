package models

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Organization types.
var OrganizationTypes = []string{"dao", "company", "nonprofit", "community", "cooperative", "foundation", "collective", "guild", "syndicate"}

// Governance models; hierarchical is the default.
var GovernanceModels = []string{"hierarchical", "flat", "democratic", "consensus", "liquid_democracy", "quadratic_voting", "stake_weighted", "reputation_based"}

// Membership roles, strongest first.
const (
	RoleOwner       = "owner"
	RoleAdmin       = "admin"
	RoleModerator   = "moderator"
	RoleMember      = "member"
	RoleContributor = "contributor"
	RoleObserver    = "observer"
	RoleAdvisor     = "advisor"
	RoleEmeritus    = "emeritus"
)

const (
	MembershipActive  = "active"
	MembershipPending = "pending"
)

// Organization is a group of profiles that can share a treasury address.
type Organization struct {
	ID               uuid.UUID      `json:"id"`
	ProfileID        uuid.UUID      `json:"profile_id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Description      *string        `json:"description"`
	WebsiteURL       *string        `json:"website_url"`
	AvatarURL        *string        `json:"avatar_url"`
	BannerURL        *string        `json:"banner_url"`
	Type             string         `json:"type"`
	Category         *string        `json:"category"`
	Tags             []string       `json:"tags"`
	GovernanceModel  string         `json:"governance_model"`
	TreasuryAddress  *string        `json:"treasury_address"`
	IsPublic         bool           `json:"is_public"`
	RequiresApproval bool           `json:"requires_approval"`
	TrustScore       float64        `json:"trust_score"`
	ContactInfo      map[string]any `json:"contact_info,omitempty"`
	FoundedAt        string         `json:"founded_at,omitempty"`
	CreatedAt        string         `json:"created_at,omitempty"`
	UpdatedAt        string         `json:"updated_at,omitempty"`
}

// Membership ties a profile to an organization with a role.
type Membership struct {
	ID                  uuid.UUID       `json:"id"`
	OrganizationID      uuid.UUID       `json:"organization_id"`
	ProfileID           uuid.UUID       `json:"profile_id"`
	Role                string          `json:"role"`
	Permissions         map[string]bool `json:"permissions"`
	Title               *string         `json:"title"`
	Status              string          `json:"status"`
	Bio                 *string         `json:"bio"`
	ContributionAddress *string         `json:"contribution_address"`
	RewardPercentage    float64         `json:"reward_percentage"`
	InvitedBy           *uuid.UUID      `json:"invited_by"`
	JoinedAt            string          `json:"joined_at,omitempty"`
	CreatedAt           string          `json:"created_at,omitempty"`
	UpdatedAt           string          `json:"updated_at,omitempty"`
}

// CanManageMembers reports whether the role may add members.
func (m Membership) CanManageMembers() bool {
	return m.Status == MembershipActive && (m.Role == RoleOwner || m.Role == RoleAdmin)
}

// OwnerPermissions are granted to the founder of an organization.
func OwnerPermissions() map[string]bool {
	return map[string]bool{
		"manage_members":   true,
		"invite_members":   true,
		"manage_settings":  true,
		"manage_treasury":  true,
		"create_proposals": true,
		"moderate_content": true,
		"view_analytics":   true,
	}
}

type CreateOrganizationRequest struct {
	Name             string         `json:"name" binding:"max=100"`
	Type             string         `json:"type"`
	Description      string         `json:"description" binding:"max=2000"`
	WebsiteURL       string         `json:"website_url" binding:"omitempty,url"`
	AvatarURL        string         `json:"avatar_url" binding:"omitempty,url"`
	BannerURL        string         `json:"banner_url" binding:"omitempty,url"`
	Category         string         `json:"category" binding:"max=50"`
	Tags             []string       `json:"tags" binding:"max=10,dive,max=30"`
	GovernanceModel  string         `json:"governance_model"`
	TreasuryAddress  string         `json:"treasury_address" binding:"omitempty,btcaddr"`
	IsPublic         *bool          `json:"is_public"`
	RequiresApproval *bool          `json:"requires_approval"`
	ContactInfo      map[string]any `json:"contact_info"`
}

type CreateMembershipRequest struct {
	OrganizationID      uuid.UUID `json:"organization_id"`
	ProfileID           uuid.UUID `json:"profile_id"`
	Role                string    `json:"role"`
	Title               string    `json:"title" binding:"max=100"`
	Bio                 string    `json:"bio" binding:"max=500"`
	ContributionAddress string    `json:"contribution_address" binding:"omitempty,btcaddr"`
	RewardPercentage    float64   `json:"reward_percentage" binding:"gte=0,lte=100"`
}

// ListOrganizationsOptions controls organization listing. Page is 1-based.
type ListOrganizationsOptions struct {
	Query    string
	Type     string
	Category string
	Page     int
	Limit    int
	Sort     string
	Order    string
}

// MembershipFilter narrows a membership listing. Zero ids are ignored.
type MembershipFilter struct {
	OrganizationID uuid.UUID
	ProfileID      uuid.UUID
}

// PagePagination is the page-numbered variant of Pagination.
type PagePagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify lowercases name, drops everything but letters, digits, spaces and
// hyphens, and joins words with single hyphens: "Bitcoin Zürich!" -> "bitcoin-zrich".
func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(slugDashes.ReplaceAllString(s, "-"), "-")
}
