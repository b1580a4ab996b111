package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"estate_admin/storage"
)

func TestNewCredentialStore(t *testing.T) {
	kv := storage.NewMemoryKV()

	if c, err := NewCredentialStore("plaintext", kv); err != nil {
		t.Fatalf("plaintext: %v", err)
	} else if _, ok := c.(*PlaintextCredentials); !ok {
		t.Fatalf("expected *PlaintextCredentials, got %T", c)
	}
	if c, err := NewCredentialStore("bcrypt", kv); err != nil {
		t.Fatalf("bcrypt: %v", err)
	} else if _, ok := c.(*BcryptCredentials); !ok {
		t.Fatalf("expected *BcryptCredentials, got %T", c)
	}
	if _, err := NewCredentialStore("rot13", kv); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}

func TestCredentialStores(t *testing.T) {
	stores := map[string]func(storage.KV) CredentialStore{
		"plaintext": func(kv storage.KV) CredentialStore { return NewPlaintextCredentials(kv) },
		"bcrypt":    func(kv storage.KV) CredentialStore { return NewBcryptCredentials(kv, bcrypt.MinCost) },
	}

	for name, build := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := storage.NewMemoryKV()
			creds := build(kv)

			if ok, err := creds.Verify(ctx, "u1", "anything"); err != nil || ok {
				t.Fatalf("missing credential must not verify, got ok=%v err=%v", ok, err)
			}

			if err := creds.Set(ctx, "u1", "secret1"); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			if ok, _ := creds.Verify(ctx, "u1", "secret1"); !ok {
				t.Fatalf("expected correct password to verify")
			}
			if ok, _ := creds.Verify(ctx, "u1", "Secret1"); ok {
				t.Fatalf("expected wrong password to fail")
			}

			if err := creds.Delete(ctx, "u1"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if ok, _ := creds.Verify(ctx, "u1", "secret1"); ok {
				t.Fatalf("deleted credential still verifies")
			}
		})
	}
}

func TestBcryptCredentials_StoresHash(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	creds := NewBcryptCredentials(kv, bcrypt.MinCost)

	if err := creds.Set(ctx, "u1", "secret1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	stored, _, _ := kv.Get(ctx, "password_u1")
	if stored == "secret1" {
		t.Fatalf("bcrypt store kept plaintext")
	}
}

func TestBcryptCredentials_RejectsLegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	kv.Set(ctx, "password_u1", "secret1")

	ok, err := NewBcryptCredentials(kv, bcrypt.MinCost).Verify(ctx, "u1", "secret1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatalf("plaintext value must not verify under bcrypt")
	}
}

func TestAccountService_WithBcrypt(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	svc := NewAccountService(kv, NewBcryptCredentials(kv, bcrypt.MinCost), "admin@admin.com")

	if _, err := svc.CreateUser(ctx, "ana@example.com", "secret1", "Ana"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "nope"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}
