package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"estate_admin/models"
	"estate_admin/storage"
)

func newAccountFixture(t *testing.T) (*AccountService, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	return NewAccountService(kv, NewPlaintextCredentials(kv), "admin@admin.com"), kv
}

func TestCreateUser_AssignsRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountFixture(t)

	admin, err := svc.CreateUser(ctx, "admin@admin.com", "x", "Name")
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}
	if admin.ID == "" || admin.CreatedAt.IsZero() {
		t.Fatalf("expected id and createdAt assigned, got %+v", admin)
	}

	user, err := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("expected user role, got %s", user.Role)
	}
	if user.ID == admin.ID {
		t.Fatalf("expected distinct ids")
	}
}

func TestCreateUser_AdminEmailIgnoresCase(t *testing.T) {
	svc, _ := newAccountFixture(t)

	u, err := svc.CreateUser(context.Background(), " Admin@Admin.com ", "x", "Root")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %s", u.Role)
	}
	if u.Email != "Admin@Admin.com" {
		t.Fatalf("expected trimmed email stored as given, got %q", u.Email)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountFixture(t)

	if _, err := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := svc.CreateUser(ctx, "ANA@example.com", "other", "Ana Two")
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 1 || users[0].Name != "Ana" {
		t.Fatalf("collection changed after duplicate: %+v", users)
	}
}

func TestCreateUser_PasswordKeptOutOfRecord(t *testing.T) {
	ctx := context.Background()
	svc, kv := newAccountFixture(t)

	u, err := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	raw, _, _ := kv.Get(ctx, UsersKey)
	if strings.Contains(raw, "secret1") {
		t.Fatalf("password leaked into account collection: %s", raw)
	}
	stored, ok, _ := kv.Get(ctx, "password_"+u.ID)
	if !ok || stored != "secret1" {
		t.Fatalf("expected plaintext credential under password_<id>, got %q", stored)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountFixture(t)

	created, err := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if svc.IsAuthenticated(ctx) {
		t.Fatalf("failed logins must not open a session")
	}

	u, err := svc.Login(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if u.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, u.ID)
	}

	current, err := svc.CurrentUser(ctx)
	if err != nil || current == nil {
		t.Fatalf("expected session, got %v %v", current, err)
	}
	if current.ID != created.ID {
		t.Fatalf("session holds %s, want %s", current.ID, created.ID)
	}
	if !svc.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated")
	}
	if svc.IsAdmin(ctx) {
		t.Fatalf("regular account must not be admin")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountFixture(t)

	if _, err := svc.CreateUser(ctx, "admin@admin.com", "x", "Root"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Login(ctx, "admin@admin.com", "x"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !svc.IsAdmin(ctx) {
		t.Fatalf("expected admin session")
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}

	current, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user failed: %v", err)
	}
	if current != nil {
		t.Fatalf("expected no session, got %+v", current)
	}
	if svc.IsAuthenticated(ctx) || svc.IsAdmin(ctx) {
		t.Fatalf("expected logged out")
	}
}

func TestCurrentUser_UnreadableSessionIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, kv := newAccountFixture(t)

	kv.Set(ctx, CurrentUserKey, "{not json")

	current, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if current != nil {
		t.Fatalf("expected nil user, got %+v", current)
	}
}

func TestListUsers_CorruptCollection(t *testing.T) {
	ctx := context.Background()
	svc, kv := newAccountFixture(t)

	kv.Set(ctx, UsersKey, "[{")

	if _, err := svc.ListUsers(ctx); !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana"); !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected create to refuse corrupt state, got %v", err)
	}
	raw, _, _ := kv.Get(ctx, UsersKey)
	if raw != "[{" {
		t.Fatalf("corrupt value must not be overwritten, got %s", raw)
	}
}

func TestReplaceUsers_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountFixture(t)

	first, _ := svc.ListUsers(ctx)
	second, _ := svc.ListUsers(ctx)

	first = append(first, models.User{ID: "a", Email: "a@example.com"})
	second = append(second, models.User{ID: "b", Email: "b@example.com"})

	if err := svc.ReplaceUsers(ctx, first); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := svc.ReplaceUsers(ctx, second); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	users, _ := svc.ListUsers(ctx)
	if len(users) != 1 || users[0].ID != "b" {
		t.Fatalf("expected only the last write to survive, got %+v", users)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountFixture(t)

	ana, _ := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana")
	if _, err := svc.CreateUser(ctx, "bea@example.com", "secret2", "Bea"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := svc.UpdateProfile(ctx, ana.ID, "Ana", "BEA@example.com"); !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, "missing", "X", "x@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, ana.ID, "Ana María", "ana.maria@example.com")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Ana María" || updated.Email != "ana.maria@example.com" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	current, _ := svc.CurrentUser(ctx)
	if current == nil || current.Email != "ana.maria@example.com" {
		t.Fatalf("session not refreshed: %+v", current)
	}

	if _, err := svc.Login(ctx, "ana.maria@example.com", "secret1"); err != nil {
		t.Fatalf("login with new email failed: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountFixture(t)

	ana, _ := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana")

	if err := svc.ChangePassword(ctx, ana.ID, "wrong", "newpass"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if err := svc.ChangePassword(ctx, "missing", "secret1", "newpass"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if err := svc.ChangePassword(ctx, ana.ID, "secret1", "newpass"); err != nil {
		t.Fatalf("change failed: %v", err)
	}

	if _, err := svc.Login(ctx, "ana@example.com", "secret1"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "newpass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
