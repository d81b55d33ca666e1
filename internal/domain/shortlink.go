package domain

import "time"

// ShortLink maps a short code to a destination URL.
type ShortLink struct {
	ID             string
	Code           string
	DestinationURL string
	Domain         string
	Campaign       string
	CreatedBy      string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LinkClick records a single visit through a short link.
type LinkClick struct {
	ID         int64
	LinkID     string
	Referrer   string
	UserAgent  string
	IP         string
	OccurredAt time.Time
}

// LinkWithStats couples a link with its aggregate click count.
type LinkWithStats struct {
	ShortLink
	ClickCount int64
}
