// Package orgs manages organizations, user profiles and invitations, and
// resolves which remote scope a session's chats belong to.
package orgs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentaware/assistd/internal/domain"
	"github.com/dentaware/assistd/internal/observability"
)

type Service struct {
	store  domain.RemoteStore
	notify domain.Notifier
	now    func() time.Time
}

func NewService(store domain.RemoteStore, notify domain.Notifier) *Service {
	return &Service{
		store:  store,
		notify: notify,
		now:    time.Now,
	}
}

// CreateOrganization creates a trial organization and links the creator as
// its owner.
func (s *Service) CreateOrganization(ctx context.Context, name string, owner domain.UserID, email string, plan domain.PlanType) (*domain.Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	if plan == "" {
		plan = domain.PlanBasic
	}
	now := s.now()

	org := &domain.Organization{
		ID:          domain.OrgID(uuid.NewString()),
		Name:        name,
		OwnerID:     owner,
		Email:       email,
		Type:        domain.OrgSoloPractice,
		PlanType:    plan,
		Status:      domain.OrgTrial,
		MaxUsers:    plan.MaxUsers(),
		Settings:    domain.DefaultOrgSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
		TrialEndsAt: now.Add(domain.TrialPeriod),
	}
	if err := s.store.SaveOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	profile, err := s.EnsureProfile(ctx, owner, "", email)
	if err != nil {
		return nil, err
	}
	profile.OrganizationID = org.ID
	profile.Role = "owner"
	profile.UpdatedAt = now
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("link owner to organization: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("organization created",
		"org_id", org.ID, "owner", owner, "plan", plan)
	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, id domain.OrgID) (*domain.Organization, error) {
	return s.store.GetOrganization(ctx, id)
}

// UpdateOrganization persists the given organization, refreshing UpdatedAt.
func (s *Service) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	org.UpdatedAt = s.now()
	if err := s.store.SaveOrganization(ctx, org); err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// ListUsers returns every profile linked to the organization.
func (s *Service) ListUsers(ctx context.Context, orgID domain.OrgID) ([]*domain.UserProfile, error) {
	return s.store.ListProfilesByOrg(ctx, orgID)
}

// InviteUser records a pending invitation. Sending the actual email is a
// collaborator concern, not handled here.
func (s *Service) InviteUser(ctx context.Context, orgID domain.OrgID, email, role string) (*domain.Invitation, error) {
	if email == "" {
		return nil, fmt.Errorf("invitation email is required")
	}
	if role == "" {
		role = "user"
	}
	now := s.now()
	inv := &domain.Invitation{
		ID:             uuid.NewString(),
		Email:          email,
		OrganizationID: orgID,
		Role:           role,
		Status:         "pending",
		CreatedAt:      now,
		ExpiresAt:      now.Add(domain.InvitationTTL),
	}
	if err := s.store.SaveInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return inv, nil
}

// EnsureProfile returns the user's profile, creating a basic one on first
// login.
func (s *Service) EnsureProfile(ctx context.Context, id domain.UserID, name, email string) (*domain.UserProfile, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if err == nil {
		profile.LastLogin = s.now()
		if err := s.store.SaveProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("update last login: %w", err)
		}
		return profile, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	now := s.now()
	profile = &domain.UserProfile{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      "user",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// ResolveScope decides where a session's chats live. A profile pointing at
// an organization that no longer exists gets the stale reference cleared and
// falls back to the personal scope.
func (s *Service) ResolveScope(ctx context.Context, id domain.UserID) (domain.Scope, error) {
	profile, err := s.EnsureProfile(ctx, id, "", "")
	if err != nil {
		return domain.Scope{}, err
	}
	if profile.OrganizationID == "" {
		return domain.Scope{UserID: id}, nil
	}

	if _, err := s.store.GetOrganization(ctx, profile.OrganizationID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Scope{}, fmt.Errorf("verify organization: %w", err)
		}
		s.notify.Error("Organization not found. Please contact support.")
		profile.OrganizationID = ""
		profile.UpdatedAt = s.now()
		if err := s.store.SaveProfile(ctx, profile); err != nil {
			return domain.Scope{}, fmt.Errorf("clear stale organization: %w", err)
		}
		return domain.Scope{UserID: id}, nil
	}

	return domain.Scope{UserID: id, OrgID: profile.OrganizationID}, nil
}
