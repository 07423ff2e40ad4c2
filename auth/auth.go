//go:generate go run go.uber.org/mock/mockgen -source=auth.go -destination=../mocks/mock_authenticator.go -package=mocks

// Package auth defines the authentication outcome contract used by adapters.
//
// The actual flow (OAuth popups, redirects) belongs to the backing provider;
// the library only cares about the result: a stable uid plus a display name.
package auth

import (
	"context"
	"fmt"

	"dialogue/errors"
)

// Providers is the fixed set of recognized provider names.
var Providers = []string{"google", "twitter", "github", "facebook"}

// Identity is the outcome of a successful authentication.
type Identity struct {
	UID         string
	DisplayName string
}

// Authenticator begins an out-of-band authentication flow for a named
// provider and resolves to the authenticated identity.
//
// Implementations may reject a recognized provider they cannot serve with
// errors.ErrUnsupportedProvider. Begin must be callable again after a
// logout.
type Authenticator interface {
	Begin(ctx context.Context, provider string) (Identity, error)
}

// ValidateProvider rejects names outside the fixed provider set.
func ValidateProvider(name string) error {
	for _, p := range Providers {
		if p == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", errors.ErrUnknownProvider, name)
}

// Static is an Authenticator resolving every recognized provider to one
// pre-configured identity. Used by local binaries and tests, where the
// out-of-band flow is somebody else's problem.
type Static struct {
	identity Identity
}

func NewStatic(identity Identity) Static {
	return Static{identity: identity}
}

func (s Static) Begin(_ context.Context, provider string) (Identity, error) {
	if err := ValidateProvider(provider); err != nil {
		return Identity{}, err
	}
	return s.identity, nil
}
