// Package migrations embeds the schema for the tenancy, listing,
// subscription, notification and audit tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
