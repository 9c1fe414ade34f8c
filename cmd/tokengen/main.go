// Package main generates test credentials for local development. These use
// the dev signing key and will NOT work against a production deployment.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"estatecore/internal/identity/token"
)

// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set.
const devSigningKey = "dev-secret-key-change-in-production"

func main() {
	principalID := flag.String("principal-id", "", "Principal ID (UUID). Generated if empty.")
	tenantID := flag.String("tenant-id", "", "Tenant ID (UUID). Required for tenant roles.")
	role := flag.String("role", "agent", "Role: platform-admin, tenant-admin, manager, agent, client")
	key := flag.String("key", devSigningKey, "Signing key (defaults to the dev key)")
	ttl := flag.Duration("ttl", time.Hour, "Credential time-to-live")
	flag.Parse()

	if *principalID == "" {
		*principalID = uuid.NewString()
	}
	if *role != "platform-admin" && *tenantID == "" {
		fmt.Fprintln(os.Stderr, "tenant-id is required for tenant roles")
		os.Exit(1)
	}

	signed, err := token.NewVerifier(*key).Sign(*principalID, *tenantID, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to sign credential:", err)
		os.Exit(1)
	}

	fmt.Println(signed)
	fmt.Fprintf(os.Stderr, "\nprincipal: %s\nrole:      %s\ntenant:    %s\nexpires:   %s\n",
		*principalID, *role, *tenantID, time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Fprintf(os.Stderr, "\nusage: curl -H \"Authorization: Bearer $TOKEN\" http://localhost:8080/api/v1/properties\n")
}
