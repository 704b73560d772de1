package gateway

import (
	"context"
	"testing"

	"github.com/udisondev/la2go/internal/store"
)

func TestGuestProviderCreatesAccountOnFirstLogin(t *testing.T) {
	mem := store.NewMem()
	auth := NewGuestProvider(mem.Accounts(), mem.Characters())

	result, err := auth.Authenticate(context.Background(), "guest", map[string]any{"login": "wanderer"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.AccountID != "wanderer" {
		t.Errorf("AccountID = %q, want wanderer", result.AccountID)
	}
	if !result.CanCreateCharacter {
		t.Errorf("expected a fresh guest account to be able to create a character")
	}

	again, err := auth.Authenticate(context.Background(), "guest", map[string]any{"login": "wanderer"})
	if err != nil {
		t.Fatalf("Authenticate (second time): %v", err)
	}
	if again.AccountID != result.AccountID {
		t.Errorf("expected repeat guest login to resolve to the same account")
	}
}

func TestGuestProviderRejectsMissingLogin(t *testing.T) {
	mem := store.NewMem()
	auth := NewGuestProvider(mem.Accounts(), mem.Characters())

	_, err := auth.Authenticate(context.Background(), "guest", map[string]any{})
	if err == nil {
		t.Fatal("expected an error for a guest login with no name")
	}
	authErr, ok := err.(*AuthError)
	if !ok {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
	if !authErr.CanRetry {
		t.Errorf("expected a missing-login error to be retryable")
	}
}

func TestGuestProviderRejectsCredentialAndTokenMethods(t *testing.T) {
	mem := store.NewMem()
	auth := NewGuestProvider(mem.Accounts(), mem.Characters())

	for _, method := range []string{"credentials", "token"} {
		_, err := auth.Authenticate(context.Background(), method, map[string]any{})
		authErr, ok := err.(*AuthError)
		if !ok {
			t.Fatalf("%s: error type = %T, want *AuthError", method, err)
		}
		if authErr.CanRetry {
			t.Errorf("%s: expected a non-retryable error, these methods are never available here", method)
		}
	}
}
