package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"

	"orangecat/internal/models"
)

const (
	organizationsTable = "organizations"
	membershipsTable   = "memberships"

	organizationColumns = "id,profile_id,name,slug,description,website_url,avatar_url,banner_url,type,category,tags,governance_model,treasury_address,is_public,requires_approval,trust_score,contact_info,founded_at,created_at,updated_at"
	membershipColumns   = "id,organization_id,profile_id,role,permissions,title,status,bio,contribution_address,reward_percentage,invited_by,joined_at,created_at,updated_at"
)

type OrganizationStore struct {
	rest RestProvider
}

func NewOrganizationStore(rest RestProvider) *OrganizationStore {
	return &OrganizationStore{rest: rest}
}

func (s *OrganizationStore) SlugTaken(ctx context.Context, token, slug string) (bool, error) {
	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	_, err := s.rest.Rest(ctx, token).
		From(organizationsTable).
		Select("id", "", false).
		Eq("slug", slug).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return false, restErr("check organization slug", err)
	}
	return len(rows) > 0, nil
}

// List returns one page of organizations and the exact total. Page is 1-based
// and the options are expected to be normalized by the caller.
func (s *OrganizationStore) List(ctx context.Context, token string, opts models.ListOrganizationsOptions) ([]models.Organization, int64, error) {
	q := s.rest.Rest(ctx, token).
		From(organizationsTable).
		Select(organizationColumns, "exact", false)

	if term := SanitizeSearch(opts.Query); term != "" {
		pattern := "*" + term + "*"
		q = q.Or(strings.Join([]string{
			"name.ilike." + pattern,
			"description.ilike." + pattern,
		}, ","), "")
	}
	if opts.Type != "" {
		q = q.Eq("type", opts.Type)
	}
	if opts.Category != "" {
		q = q.Eq("category", opts.Category)
	}

	from := (opts.Page - 1) * opts.Limit
	rows := []models.Organization{}
	total, err := q.
		Order(opts.Sort, &postgrest.OrderOpts{Ascending: opts.Order == "asc"}).
		Range(from, from+opts.Limit-1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, 0, restErr("list organizations", err)
	}
	return rows, total, nil
}

// NewOrganization is the insert payload for an organization.
type NewOrganization struct {
	ProfileID        uuid.UUID      `json:"profile_id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Description      *string        `json:"description,omitempty"`
	WebsiteURL       *string        `json:"website_url,omitempty"`
	AvatarURL        *string        `json:"avatar_url,omitempty"`
	BannerURL        *string        `json:"banner_url,omitempty"`
	Type             string         `json:"type"`
	Category         *string        `json:"category,omitempty"`
	Tags             []string       `json:"tags"`
	GovernanceModel  string         `json:"governance_model"`
	TreasuryAddress  *string        `json:"treasury_address,omitempty"`
	IsPublic         bool           `json:"is_public"`
	RequiresApproval bool           `json:"requires_approval"`
	ContactInfo      map[string]any `json:"contact_info"`
	FoundedAt        string         `json:"founded_at"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

func (s *OrganizationStore) Create(ctx context.Context, token string, o NewOrganization) (models.Organization, error) {
	var rows []models.Organization
	_, err := s.rest.Rest(ctx, token).
		From(organizationsTable).
		Insert(o, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return models.Organization{}, restErr("create organization", err)
	}
	if len(rows) == 0 {
		return models.Organization{}, fmt.Errorf("create organization: %w", models.ErrUpstream)
	}
	return rows[0], nil
}

// GetMembership returns the membership of profileID in orgID whatever its status.
func (s *OrganizationStore) GetMembership(ctx context.Context, token string, orgID, profileID uuid.UUID) (models.Membership, error) {
	var rows []models.Membership
	_, err := s.rest.Rest(ctx, token).
		From(membershipsTable).
		Select(membershipColumns, "", false).
		Eq("organization_id", orgID.String()).
		Eq("profile_id", profileID.String()).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return models.Membership{}, restErr("get membership", err)
	}
	if len(rows) == 0 {
		return models.Membership{}, fmt.Errorf("get membership: %w", models.ErrNotFound)
	}
	return rows[0], nil
}

// ListMemberships returns active memberships, newest first.
func (s *OrganizationStore) ListMemberships(ctx context.Context, token string, f models.MembershipFilter) ([]models.Membership, error) {
	q := s.rest.Rest(ctx, token).
		From(membershipsTable).
		Select(membershipColumns, "", false).
		Eq("status", models.MembershipActive)
	if f.OrganizationID != uuid.Nil {
		q = q.Eq("organization_id", f.OrganizationID.String())
	}
	if f.ProfileID != uuid.Nil {
		q = q.Eq("profile_id", f.ProfileID.String())
	}

	rows := []models.Membership{}
	if _, err := q.Order("created_at", newestFirst).ExecuteTo(&rows); err != nil {
		return nil, restErr("list memberships", err)
	}
	return rows, nil
}

// NewMembership is the insert payload for a membership.
type NewMembership struct {
	OrganizationID      uuid.UUID       `json:"organization_id"`
	ProfileID           uuid.UUID       `json:"profile_id"`
	Role                string          `json:"role"`
	Permissions         map[string]bool `json:"permissions"`
	Title               *string         `json:"title,omitempty"`
	Status              string          `json:"status"`
	Bio                 *string         `json:"bio,omitempty"`
	ContributionAddress *string         `json:"contribution_address,omitempty"`
	RewardPercentage    float64         `json:"reward_percentage"`
	InvitedBy           *uuid.UUID      `json:"invited_by,omitempty"`
	JoinedAt            string          `json:"joined_at"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
}

func (s *OrganizationStore) CreateMembership(ctx context.Context, token string, m NewMembership) (models.Membership, error) {
	var rows []models.Membership
	_, err := s.rest.Rest(ctx, token).
		From(membershipsTable).
		Insert(m, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return models.Membership{}, restErr("create membership", err)
	}
	if len(rows) == 0 {
		return models.Membership{}, fmt.Errorf("create membership: %w", models.ErrUpstream)
	}
	return rows[0], nil
}
