package orgs_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dentaware/assistd/internal/adapters/storage/memory"
	"github.com/dentaware/assistd/internal/app/orgs"
	"github.com/dentaware/assistd/internal/domain"
)

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Success(string) {}
func (n *recordingNotifier) Info(string)    {}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func TestCreateOrganizationLinksOwner(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewRemoteStore()
	svc := orgs.NewService(remote, &recordingNotifier{})

	org, err := svc.CreateOrganization(ctx, "Bright Smile Dental", "user-1", "owner@brightsmile.example", domain.PlanProfessional)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.Status != domain.OrgTrial {
		t.Fatalf("status = %s, want trial", org.Status)
	}
	if org.MaxUsers != domain.PlanProfessional.MaxUsers() {
		t.Fatalf("max users = %d, want %d", org.MaxUsers, domain.PlanProfessional.MaxUsers())
	}
	if !org.TrialEndsAt.After(org.CreatedAt) {
		t.Fatal("trial end must be after creation")
	}

	profile, err := remote.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.OrganizationID != org.ID || profile.Role != "owner" {
		t.Fatalf("owner profile not linked: %+v", profile)
	}

	users, err := svc.ListUsers(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != "user-1" {
		t.Fatalf("users = %+v", users)
	}
}

func TestCreateOrganizationRequiresName(t *testing.T) {
	svc := orgs.NewService(memory.NewRemoteStore(), &recordingNotifier{})
	if _, err := svc.CreateOrganization(context.Background(), "", "user-1", "", domain.PlanBasic); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestInviteUserDefaultsAndExpiry(t *testing.T) {
	ctx := context.Background()
	svc := orgs.NewService(memory.NewRemoteStore(), &recordingNotifier{})

	inv, err := svc.InviteUser(ctx, "org-1", "hygienist@example.com", "")
	if err != nil {
		t.Fatalf("InviteUser: %v", err)
	}
	if inv.Role != "user" || inv.Status != "pending" {
		t.Fatalf("invitation = %+v", inv)
	}
	if got := inv.ExpiresAt.Sub(inv.CreatedAt); got != domain.InvitationTTL {
		t.Fatalf("invitation TTL = %v, want %v", got, domain.InvitationTTL)
	}
}

func TestEnsureProfileCreatesOnFirstLogin(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewRemoteStore()
	svc := orgs.NewService(remote, &recordingNotifier{})

	p1, err := svc.EnsureProfile(ctx, "user-1", "Dana", "dana@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p1.Role != "user" || p1.Status != "active" {
		t.Fatalf("new profile = %+v", p1)
	}

	p2, err := svc.EnsureProfile(ctx, "user-1", "ignored", "ignored@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile (second): %v", err)
	}
	if p2.Email != "dana@example.com" {
		t.Fatal("repeat login must not overwrite the existing profile")
	}
}

func TestResolveScopeUsesOrganization(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewRemoteStore()
	svc := orgs.NewService(remote, &recordingNotifier{})

	org, err := svc.CreateOrganization(ctx, "Bright Smile Dental", "user-1", "", domain.PlanBasic)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	scope, err := svc.ResolveScope(ctx, "user-1")
	if err != nil {
		t.Fatalf("ResolveScope: %v", err)
	}
	if scope.OrgID != org.ID || scope.Personal() {
		t.Fatalf("scope = %+v, want org scope", scope)
	}
}

func TestResolveScopeFallsBackWhenOrgMissing(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewRemoteStore()
	notify := &recordingNotifier{}
	svc := orgs.NewService(remote, notify)

	profile, err := svc.EnsureProfile(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	profile.OrganizationID = "deleted-org"
	if err := remote.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	scope, err := svc.ResolveScope(ctx, "user-1")
	if err != nil {
		t.Fatalf("ResolveScope: %v", err)
	}
	if !scope.Personal() || scope.UserID != "user-1" {
		t.Fatalf("scope = %+v, want personal fallback", scope)
	}
	if notify.errorCount() == 0 {
		t.Fatal("expected the stale organization to be reported")
	}

	fixed, err := remote.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if fixed.OrganizationID != "" {
		t.Fatal("stale organization reference was not cleared")
	}
}
