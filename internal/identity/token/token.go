// Package token adapts the external Token Service: it verifies a credential
// and yields the (principal, tenant, role) triple embedded in it.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "estatecore/pkg/domain-errors"
)

// Claims represents the claims this core expects from a verified credential.
type Claims struct {
	PrincipalID string `json:"principal_id"`
	TenantID    string `json:"tenant_id,omitempty"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256-signed credentials issued by the Token Service.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// Verify parses and validates a credential string.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "unexpected signing method")
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthenticated, "invalid or expired credential")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid credential")
	}
	return claims, nil
}

// Sign issues a credential. The real Token Service lives outside this core;
// this is used by the dev token generator and tests.
func (v *Verifier) Sign(principalID, tenantID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		PrincipalID: principalID,
		TenantID:    tenantID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential")
	}
	return signed, nil
}
