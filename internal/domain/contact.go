package domain

import "time"

// Contact submission statuses.
const (
	ContactStatusNew      = "new"
	ContactStatusReviewed = "reviewed"
	ContactStatusReplied  = "replied"
	ContactStatusArchived = "archived"
)

// ContactSubmission represents a potential client's inquiry.
type ContactSubmission struct {
	ID        string
	Name      string
	Email     string
	Company   string
	Budget    string
	Message   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidContactStatus reports whether s is a known submission status.
func ValidContactStatus(s string) bool {
	switch s {
	case ContactStatusNew, ContactStatusReviewed, ContactStatusReplied, ContactStatusArchived:
		return true
	}
	return false
}
