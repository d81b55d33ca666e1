package domain

import "time"

// Roles assignable to accounts.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Tiers gate access to paid features.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// User represents an internal tooling account.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         string
	Tier         string
	CreatedAt    time.Time
}
