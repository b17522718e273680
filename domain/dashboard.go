package domain

import "time"

// Dashboard groups tasks into status columns.
type Dashboard struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DashboardUpdate holds the optional fields of a dashboard update.
type DashboardUpdate struct {
	Title *string
}
