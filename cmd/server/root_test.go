package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "blueprints/internal/jwt_token"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "token"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestTokenCommandIssuesValidToken(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("JWT_SIGNING_KEY", "test-signing-key")
	t.Setenv("JWT_ISSUER", "blueprints")
	t.Setenv("JWT_AUDIENCE", "blueprints-api")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{
		"token",
		"--env-file", "does-not-exist.env",
		"--user", "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
		"--name", "Alice",
		"--character", "90000001",
		"--corporation", "98000001",
	})
	require.NoError(t, root.Execute())

	svc := jwttoken.NewJWTService("test-signing-key", "blueprints", "blueprints-api")
	claims, err := svc.ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", claims.UserID)
	assert.Equal(t, []int64{90000001}, claims.CharacterIDs)
	assert.Equal(t, []int64{98000001}, claims.CorporationIDs)
}

func TestTokenCommandRequiresUser(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--env-file", "does-not-exist.env"})
	assert.Error(t, root.Execute())
}
