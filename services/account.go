package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"estate_admin/logging"
	"estate_admin/models"
	"estate_admin/storage"
)

// AccountService manages user accounts, their credentials, and the single
// current session. It keeps no copy of the collection between calls.
type AccountService struct {
	kv         storage.KV
	creds      CredentialStore
	adminEmail string
	now        func() time.Time
}

// NewAccountService creates an AccountService. adminEmail is the one address
// that is promoted to admin on registration.
func NewAccountService(kv storage.KV, creds CredentialStore, adminEmail string) *AccountService {
	return &AccountService{
		kv:         kv,
		creds:      creds,
		adminEmail: strings.TrimSpace(adminEmail),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	return loadCollection[models.User](ctx, s.kv, UsersKey)
}

// ReplaceUsers overwrites the whole collection. Last write wins.
func (s *AccountService) ReplaceUsers(ctx context.Context, users []models.User) error {
	return saveCollection(ctx, s.kv, UsersKey, users)
}

func (s *AccountService) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.TrimSpace(email)

	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if findByEmail(users, email) >= 0 {
		return nil, fmt.Errorf("create %s: %w", email, ErrDuplicateAccount)
	}

	role := models.RoleUser
	if sameEmail(email, s.adminEmail) {
		role = models.RoleAdmin
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: s.now(),
	}

	if err := s.creds.Set(ctx, user.ID, password); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	users = append(users, user)
	if err := s.ReplaceUsers(ctx, users); err != nil {
		if delErr := s.creds.Delete(ctx, user.ID); delErr != nil {
			logging.Warnf("orphaned credential for %s: %v", user.ID, delErr)
		}
		return nil, err
	}

	logging.Debugf("created account %s (%s)", user.ID, user.Role)
	return &user, nil
}

// Login verifies the credential and makes the account the current session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	idx := findByEmail(users, strings.TrimSpace(email))
	if idx < 0 {
		return nil, ErrAccountNotFound
	}
	user := users[idx]

	ok, err := s.creds.Verify(ctx, user.ID, password)
	if err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredential
	}

	if err := s.SetCurrentUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the session. Safe to call when nobody is logged in.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, CurrentUserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser returns the session account, or nil when there is none. An
// unreadable session value is treated as no session.
func (s *AccountService) CurrentUser(ctx context.Context) (*models.User, error) {
	raw, ok, err := s.kv.Get(ctx, CurrentUserKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logging.Warnf("ignoring unreadable session: %v", err)
		return nil, nil
	}
	return &user, nil
}

func (s *AccountService) SetCurrentUser(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, CurrentUserKey, string(data)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *AccountService) IsAuthenticated(ctx context.Context) bool {
	user, err := s.CurrentUser(ctx)
	return err == nil && user != nil
}

func (s *AccountService) IsAdmin(ctx context.Context) bool {
	user, err := s.CurrentUser(ctx)
	return err == nil && user.IsAdmin()
}

// UpdateProfile changes the name and email of an account. The session copy
// is refreshed when it belongs to the same account.
func (s *AccountService) UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error) {
	email = strings.TrimSpace(email)

	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	idx := findByID(users, id)
	if idx < 0 {
		return nil, ErrAccountNotFound
	}
	if other := findByEmail(users, email); other >= 0 && other != idx {
		return nil, fmt.Errorf("update %s: %w", email, ErrDuplicateAccount)
	}

	users[idx].Name = name
	users[idx].Email = email
	if err := s.ReplaceUsers(ctx, users); err != nil {
		return nil, err
	}

	updated := users[idx]
	if current, err := s.CurrentUser(ctx); err == nil && current != nil && current.ID == id {
		if err := s.SetCurrentUser(ctx, updated); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}

// ChangePassword replaces the credential after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	if findByID(users, id) < 0 {
		return ErrAccountNotFound
	}

	ok, err := s.creds.Verify(ctx, id, current)
	if err != nil {
		return fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return ErrInvalidCredential
	}

	if err := s.creds.Set(ctx, id, next); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func findByEmail(users []models.User, email string) int {
	for i := range users {
		if sameEmail(users[i].Email, email) {
			return i
		}
	}
	return -1
}

func findByID(users []models.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
