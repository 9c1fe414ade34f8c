// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "estatecore/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing PrincipalID where TenantID is expected.
type (
	TenantID       uuid.UUID
	PrincipalID    uuid.UUID
	PropertyID     uuid.UUID
	NotificationID uuid.UUID
	SubscriptionID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, token claims).

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParsePrincipalID(s string) (PrincipalID, error) {
	id, err := parseUUID(s, "principal ID")
	return PrincipalID(id), err
}

func ParsePropertyID(s string) (PropertyID, error) {
	id, err := parseUUID(s, "property ID")
	return PropertyID(id), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	id, err := parseUUID(s, "notification ID")
	return NotificationID(id), err
}

func ParseSubscriptionID(s string) (SubscriptionID, error) {
	id, err := parseUUID(s, "subscription ID")
	return SubscriptionID(id), err
}

// New functions - use when minting fresh identities.

func NewTenantID() TenantID             { return TenantID(uuid.New()) }
func NewPrincipalID() PrincipalID       { return PrincipalID(uuid.New()) }
func NewPropertyID() PropertyID         { return PropertyID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
func NewSubscriptionID() SubscriptionID { return SubscriptionID(uuid.New()) }

// String methods - for logging and debugging.

func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id PrincipalID) String() string    { return uuid.UUID(id).String() }
func (id PropertyID) String() string     { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id SubscriptionID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id TenantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id PrincipalID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PropertyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubscriptionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling - IDs render as canonical UUID strings in JSON, not as raw
// byte arrays.

func (id TenantID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id PrincipalID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id PropertyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SubscriptionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	parsed, err := ParseTenantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PrincipalID) UnmarshalText(b []byte) error {
	parsed, err := ParsePrincipalID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PropertyID) UnmarshalText(b []byte) error {
	parsed, err := ParsePropertyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := ParseNotificationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubscriptionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubscriptionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here; use IsNil() at the service layer for business
// validation so store lookups can return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
