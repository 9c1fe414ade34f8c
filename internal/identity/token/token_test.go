package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecore/internal/identity/token"
	id "estatecore/pkg/domain"
	dErrors "estatecore/pkg/domain-errors"
)

func TestSignAndVerify(t *testing.T) {
	verifier := token.NewVerifier("test-signing-key")
	principalID := id.NewPrincipalID().String()
	tenantID := id.NewTenantID().String()

	signed, err := verifier.Sign(principalID, tenantID, "agent", time.Hour)
	require.NoError(t, err)

	claims, err := verifier.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, principalID, claims.PrincipalID)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.Equal(t, "agent", claims.Role)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	signed, err := token.NewVerifier("key-one").Sign(id.NewPrincipalID().String(), "", "platform-admin", time.Hour)
	require.NoError(t, err)

	_, err = token.NewVerifier("key-two").Verify(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}

func TestVerifyRejectsExpired(t *testing.T) {
	verifier := token.NewVerifier("test-signing-key")
	signed, err := verifier.Sign(id.NewPrincipalID().String(), "", "agent", -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := token.NewVerifier("test-signing-key").Verify("not.a.token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}
