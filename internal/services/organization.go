package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orangecat/internal/metrics"
	"orangecat/internal/models"
	"orangecat/internal/repository"
	"orangecat/internal/validation"
)

const (
	defaultOrgPageSize = 20
	maxOrgPageSize     = 100
)

var (
	orgSortColumns  = []string{"name", "created_at", "trust_score"}
	membershipRoles = []string{
		models.RoleOwner, models.RoleAdmin, models.RoleModerator, models.RoleMember,
		models.RoleContributor, models.RoleObserver, models.RoleAdvisor, models.RoleEmeritus,
	}
)

type OrganizationService struct {
	repo OrganizationRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewOrganizationService(repo OrganizationRepository, log zerolog.Logger) *OrganizationService {
	return &OrganizationService{
		repo: repo,
		log:  log.With().Str("component", "organizations").Logger(),
		now:  time.Now,
	}
}

// NormalizeListOptions clamps paging and falls back to the default sort for
// unknown values.
func NormalizeListOptions(opts models.ListOrganizationsOptions) models.ListOrganizationsOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultOrgPageSize
	}
	opts.Limit = min(opts.Limit, maxOrgPageSize)
	if !slices.Contains(orgSortColumns, opts.Sort) {
		opts.Sort = "created_at"
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}
	opts.Query = strings.TrimSpace(opts.Query)
	return opts
}

func (s *OrganizationService) List(ctx context.Context, token string, opts models.ListOrganizationsOptions) ([]models.Organization, models.PagePagination, error) {
	opts = NormalizeListOptions(opts)
	if opts.Type != "" && !slices.Contains(models.OrganizationTypes, opts.Type) {
		return nil, models.PagePagination{}, models.Invalid("type", "Invalid organization type")
	}

	orgs, total, err := s.repo.List(ctx, token, opts)
	if err != nil {
		return nil, models.PagePagination{}, err
	}
	return orgs, models.PagePagination{
		Page:       opts.Page,
		Limit:      opts.Limit,
		Total:      total,
		TotalPages: int64(math.Ceil(float64(total) / float64(opts.Limit))),
	}, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// Create inserts the organization and makes the caller its owner. A failed
// owner membership is logged and does not undo the organization.
func (s *OrganizationService) Create(ctx context.Context, token string, userID uuid.UUID, req models.CreateOrganizationRequest) (models.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Type == "" {
		return models.Organization{}, models.Invalid("request", "Name and type are required")
	}
	if !slices.Contains(models.OrganizationTypes, req.Type) {
		return models.Organization{}, models.Invalid("type", "Invalid organization type")
	}
	governance := req.GovernanceModel
	if governance == "" {
		governance = "hierarchical"
	}
	if !slices.Contains(models.GovernanceModels, governance) {
		return models.Organization{}, models.Invalid("governance_model", "Invalid governance model")
	}
	slug := models.Slugify(name)
	if slug == "" {
		return models.Organization{}, models.Invalid("name", "Name must contain letters or digits")
	}

	taken, err := s.repo.SlugTaken(ctx, token, slug)
	if err != nil {
		return models.Organization{}, err
	}
	if taken {
		return models.Organization{}, models.Invalid("name", "Organization name already taken. Please choose a different name.")
	}

	ts := s.now().UTC().Format(time.RFC3339)
	o := repository.NewOrganization{
		ProfileID:        userID,
		Name:             name,
		Slug:             slug,
		Description:      optional(req.Description),
		WebsiteURL:       optional(req.WebsiteURL),
		AvatarURL:        optional(req.AvatarURL),
		BannerURL:        optional(req.BannerURL),
		Type:             req.Type,
		Category:         optional(req.Category),
		Tags:             req.Tags,
		GovernanceModel:  governance,
		IsPublic:         req.IsPublic == nil || *req.IsPublic,
		RequiresApproval: req.RequiresApproval == nil || *req.RequiresApproval,
		ContactInfo:      req.ContactInfo,
		FoundedAt:        ts,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	if o.Tags == nil {
		o.Tags = []string{}
	}
	if o.ContactInfo == nil {
		o.ContactInfo = map[string]any{}
	}
	if a := strings.TrimSpace(req.TreasuryAddress); a != "" {
		clean, verr := validation.CleanBitcoinAddress(a)
		if verr != nil {
			return models.Organization{}, verr
		}
		o.TreasuryAddress = &clean
	}

	org, err := s.repo.Create(ctx, token, o)
	if err != nil {
		return models.Organization{}, err
	}

	founder := "Founder"
	if _, err := s.repo.CreateMembership(ctx, token, repository.NewMembership{
		OrganizationID: org.ID,
		ProfileID:      userID,
		Role:           models.RoleOwner,
		Permissions:    models.OwnerPermissions(),
		Title:          &founder,
		Status:         models.MembershipActive,
		JoinedAt:       ts,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}); err != nil {
		s.log.Error().Err(err).Str("organization_id", org.ID.String()).Msg("owner membership not created")
	}

	metrics.OrganizationsCreatedTotal.WithLabelValues(org.Type).Inc()
	s.log.Info().
		Str("organization_id", org.ID.String()).
		Str("slug", org.Slug).
		Str("user_id", userID.String()).
		Msg("organization created")
	return org, nil
}

// ListMemberships returns active memberships. A profile filter may only name
// the caller.
func (s *OrganizationService) ListMemberships(ctx context.Context, token string, userID uuid.UUID, f models.MembershipFilter) ([]models.Membership, error) {
	if f.ProfileID != uuid.Nil && f.ProfileID != userID {
		s.log.Warn().Str("user_id", userID.String()).Msg("membership listing for another profile")
		return nil, fmt.Errorf("list memberships: %w", models.ErrForbidden)
	}
	return s.repo.ListMemberships(ctx, token, f)
}

// AddMember lets an active owner or admin add a profile to the organization.
// Only owners may hand out the owner role.
func (s *OrganizationService) AddMember(ctx context.Context, token string, userID uuid.UUID, req models.CreateMembershipRequest) (models.Membership, error) {
	if req.OrganizationID == uuid.Nil || req.ProfileID == uuid.Nil {
		return models.Membership{}, models.Invalid("request", "Organization ID and Profile ID are required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if !slices.Contains(membershipRoles, role) {
		return models.Membership{}, models.Invalid("role", "Invalid role")
	}

	caller, err := s.repo.GetMembership(ctx, token, req.OrganizationID, userID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.Membership{}, fmt.Errorf("add member: not a member: %w", models.ErrForbidden)
	case err != nil:
		return models.Membership{}, err
	}
	if !caller.CanManageMembers() {
		return models.Membership{}, fmt.Errorf("add member: role %s: %w", caller.Role, models.ErrForbidden)
	}
	if role == models.RoleOwner && caller.Role != models.RoleOwner {
		return models.Membership{}, fmt.Errorf("add member: owner role needs an owner: %w", models.ErrForbidden)
	}

	_, err = s.repo.GetMembership(ctx, token, req.OrganizationID, req.ProfileID)
	switch {
	case err == nil:
		return models.Membership{}, models.Invalid("profile_id", "User is already a member of this organization")
	case !errors.Is(err, models.ErrNotFound):
		return models.Membership{}, err
	}

	m := repository.NewMembership{
		OrganizationID:   req.OrganizationID,
		ProfileID:        req.ProfileID,
		Role:             role,
		Permissions:      map[string]bool{},
		Title:            optional(req.Title),
		Status:           models.MembershipActive,
		Bio:              optional(req.Bio),
		RewardPercentage: req.RewardPercentage,
		InvitedBy:        &userID,
	}
	if role == models.RoleOwner {
		m.Permissions = models.OwnerPermissions()
	}
	if a := strings.TrimSpace(req.ContributionAddress); a != "" {
		clean, verr := validation.CleanBitcoinAddress(a)
		if verr != nil {
			return models.Membership{}, verr
		}
		m.ContributionAddress = &clean
	}
	ts := s.now().UTC().Format(time.RFC3339)
	m.JoinedAt, m.CreatedAt, m.UpdatedAt = ts, ts, ts

	member, err := s.repo.CreateMembership(ctx, token, m)
	if err != nil {
		return models.Membership{}, err
	}
	s.log.Info().
		Str("organization_id", req.OrganizationID.String()).
		Str("profile_id", req.ProfileID.String()).
		Str("role", role).
		Str("invited_by", userID.String()).
		Msg("member added")
	return member, nil
}
