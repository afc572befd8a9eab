package entity

import "time"

// AuditEntry records an account-related action for later inspection.
type AuditEntry struct {
	EntrepreneurID int64
	Email          string
	Action         string
	IP             string
	UserAgent      string
	Metadata       map[string]any
	CreatedAt      time.Time
}
