package domain

import "time"

// ComponentScore stores the quality verdict for a design-system component.
// Rows are upserted keyed by component name.
type ComponentScore struct {
	ID            string
	Component     string
	Score         float64
	Accessibility float64
	Performance   float64
	Summary       string
	Model         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
