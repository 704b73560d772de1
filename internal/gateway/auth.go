package gateway

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/la2go/internal/store"
)

// AuthResult is what an AuthProvider returns on success (§4.10
// "auth_success" payload shape).
type AuthResult struct {
	AccountID         string
	Characters        []store.Character
	CanCreateCharacter bool
	MaxCharacters      int
}

// AuthError carries a user-visible reason and whether the client may
// retry (§4.10 "auth_error").
type AuthError struct {
	Reason   string
	Message  string
	CanRetry bool
}

func (e *AuthError) Error() string { return e.Message }

// AuthProvider verifies a client's auth payload and returns the
// account's characters. Credential/token verification is an external
// collaborator per spec's Non-goals ("authentication cryptography");
// this package only defines the seam and a guest-mode implementation
// good enough to exercise the rest of the session lifecycle.
type AuthProvider interface {
	Authenticate(ctx context.Context, method string, payload map[string]any) (AuthResult, error)
}

// GuestProvider authenticates any "guest" request by minting (or
// reusing) an account row whose password hash is a bcrypt hash of the
// login name as a placeholder, and rejects "credentials"/
// "token" methods since no verifier is wired in this build.
type GuestProvider struct {
	accounts   store.AccountRepository
	characters store.CharacterRepository
}

// NewGuestProvider wires a guest-only AuthProvider.
func NewGuestProvider(accounts store.AccountRepository, characters store.CharacterRepository) *GuestProvider {
	return &GuestProvider{accounts: accounts, characters: characters}
}

func (g *GuestProvider) Authenticate(ctx context.Context, method string, payload map[string]any) (AuthResult, error) {
	switch method {
	case "guest":
		return g.authenticateGuest(ctx, payload)
	case "credentials", "token":
		return AuthResult{}, &AuthError{
			Reason:   "unsupported_method",
			Message:  fmt.Sprintf("%s authentication is not available on this server", method),
			CanRetry: false,
		}
	default:
		return AuthResult{}, &AuthError{Reason: "unknown_method", Message: "unrecognized auth method", CanRetry: true}
	}
}

func (g *GuestProvider) authenticateGuest(ctx context.Context, payload map[string]any) (AuthResult, error) {
	login, _ := payload["login"].(string)
	if login == "" {
		return AuthResult{}, &AuthError{Reason: "missing_login", Message: "guest login requires a name", CanRetry: true}
	}

	acct, err := g.accounts.FindByLogin(ctx, login)
	if err != nil {
		return AuthResult{}, fmt.Errorf("looking up guest account %q: %w", login, err)
	}
	if acct == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(login), bcrypt.DefaultCost)
		if err != nil {
			return AuthResult{}, fmt.Errorf("hashing guest placeholder credential: %w", err)
		}
		acct = &store.Account{ID: login, Login: login, PasswordHash: string(hash), AccessLevel: 0}
		if err := g.accounts.Create(ctx, acct); err != nil {
			return AuthResult{}, fmt.Errorf("creating guest account %q: %w", login, err)
		}
	}

	chars, err := g.charactersFor(ctx, acct.ID)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccountID:          acct.ID,
		Characters:         chars,
		CanCreateCharacter: len(chars) < maxCharactersPerAccount,
		MaxCharacters:      maxCharactersPerAccount,
	}, nil
}

// charactersFor returns at most one character for accountID: the one
// whose name equals accountID (a guest account's id is its login name).
// The store interface has no FindByAccountID, so other characters of the
// account are not returned.
func (g *GuestProvider) charactersFor(ctx context.Context, accountID string) ([]store.Character, error) {
	c, err := g.characters.FindByName(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("looking up character for account %q: %w", accountID, err)
	}
	if c == nil {
		return nil, nil
	}
	return []store.Character{*c}, nil
}

const maxCharactersPerAccount = 1
