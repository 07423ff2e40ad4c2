package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dialogue/errors"
)

func TestValidateProvider(t *testing.T) {
	req := require.New(t)

	for _, name := range Providers {
		req.NoError(ValidateProvider(name))
	}

	err := ValidateProvider("myspace")
	req.Error(err)
	req.ErrorIs(err, errors.ErrUnknownProvider)
}

func TestStatic_Begin(t *testing.T) {
	req := require.New(t)
	authn := NewStatic(Identity{UID: "uid-1", DisplayName: "alice"})

	identity, err := authn.Begin(context.Background(), "google")
	req.NoError(err)
	req.Equal("uid-1", identity.UID)
	req.Equal("alice", identity.DisplayName)

	_, err = authn.Begin(context.Background(), "icq")
	req.ErrorIs(err, errors.ErrUnknownProvider)
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("uid-1", "github", time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("uid-1", claims.UID)
	req.Equal("github", claims.Provider)
}

func TestValidateToken_Rejects_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("uid-1", "github", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}
