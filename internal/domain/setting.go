package domain

import "time"

// SiteSetting is a key/value row mirrored from the settings file.
// Database overrides take precedence over file values.
type SiteSetting struct {
	Key       string
	Value     string
	Source    string
	UpdatedAt time.Time
}

// Setting sources.
const (
	SettingSourceFile     = "file"
	SettingSourceOverride = "override"
)
