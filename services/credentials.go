package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"estate_admin/logging"
	"estate_admin/storage"
)

// CredentialStore keeps one secret per account id, outside the account
// record.
type CredentialStore interface {
	Set(ctx context.Context, userID, password string) error
	Verify(ctx context.Context, userID, password string) (bool, error)
	Delete(ctx context.Context, userID string) error
}

// NewCredentialStore returns the store for CREDENTIAL_SCHEME.
func NewCredentialStore(scheme string, kv storage.KV) (CredentialStore, error) {
	switch scheme {
	case "", "plaintext":
		return &PlaintextCredentials{kv: kv}, nil
	case "bcrypt":
		return &BcryptCredentials{kv: kv, cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown credential scheme %q", scheme)
	}
}

// PlaintextCredentials stores the password as-is under password_<id>.
type PlaintextCredentials struct {
	kv storage.KV
}

func NewPlaintextCredentials(kv storage.KV) *PlaintextCredentials {
	return &PlaintextCredentials{kv: kv}
}

func (c *PlaintextCredentials) Set(ctx context.Context, userID, password string) error {
	return c.kv.Set(ctx, credentialKey(userID), password)
}

func (c *PlaintextCredentials) Verify(ctx context.Context, userID, password string) (bool, error) {
	stored, ok, err := c.kv.Get(ctx, credentialKey(userID))
	if err != nil {
		return false, err
	}
	return ok && stored == password, nil
}

func (c *PlaintextCredentials) Delete(ctx context.Context, userID string) error {
	return c.kv.Delete(ctx, credentialKey(userID))
}

// BcryptCredentials stores a bcrypt hash under the same key.
type BcryptCredentials struct {
	kv   storage.KV
	cost int
}

func NewBcryptCredentials(kv storage.KV, cost int) *BcryptCredentials {
	return &BcryptCredentials{kv: kv, cost: cost}
}

func (c *BcryptCredentials) Set(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return c.kv.Set(ctx, credentialKey(userID), string(hash))
}

func (c *BcryptCredentials) Verify(ctx context.Context, userID, password string) (bool, error) {
	stored, ok, err := c.kv.Get(ctx, credentialKey(userID))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		// Usually a plaintext value left over from before the scheme switch.
		logging.Warnf("credential for %s is not a bcrypt hash: %v", userID, err)
	}
	return false, nil
}

func (c *BcryptCredentials) Delete(ctx context.Context, userID string) error {
	return c.kv.Delete(ctx, credentialKey(userID))
}
