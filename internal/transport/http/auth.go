package httptransport

import (
	"context"
	"net/http"
	"strings"

	"estatecore/internal/identity"
	"estatecore/internal/identity/token"
	"estatecore/internal/transport/http/shared"
	dErrors "estatecore/pkg/domain-errors"
)

// TargetTenantHeader lets a platform admin act within a specific tenant for
// one request. Any other role supplying a foreign tenant here is refused
// during resolution.
const TargetTenantHeader = "X-Target-Tenant"

type actorKey struct{}

// GetActor returns the resolved request identity, if authentication ran.
func GetActor(ctx context.Context) (identity.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(identity.Actor)
	return actor, ok
}

// Authenticate verifies the bearer credential, resolves the acting tenant and
// principal, and stores the Actor on the request context. Requests without a
// valid credential never reach a handler.
func Authenticate(verifier *token.Verifier, resolver *identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "missing bearer credential"))
				return
			}
			claims, err := verifier.Verify(raw)
			if err != nil {
				shared.WriteError(w, err)
				return
			}
			actor, err := resolver.Resolve(r.Context(), claims, r.Header.Get(TargetTenantHeader))
			if err != nil {
				shared.WriteError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
