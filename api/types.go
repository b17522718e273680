package api

import (
	"context"

	"dashboard-api/domain"
)

// Storage abstracts persistence for handlers. Position writes go through
// domain.TaskService, which only needs the embedded TaskStorage subset.
type Storage interface {
	domain.TaskStorage

	Ping(ctx context.Context) error

	ListDashboards(ctx context.Context) ([]domain.Dashboard, error)
	GetDashboard(ctx context.Context, id int64) (domain.Dashboard, error)
	CreateDashboard(ctx context.Context, title string) (domain.Dashboard, error)
	UpdateDashboard(ctx context.Context, id int64, upd domain.DashboardUpdate) (domain.Dashboard, error)
	DeleteDashboard(ctx context.Context, id int64) (domain.Dashboard, error)

	ListTasks(ctx context.Context, dashboardID int64) ([]domain.Task, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	UpdateTask(ctx context.Context, id int64, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, id int64) (domain.Task, error)
}

// IDCodec converts between database keys and the opaque tokens clients see.
type IDCodec interface {
	EncodeID(id int64) (string, error)
	DecodeID(token string) (int64, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate create requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, scope, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, scope, key string) error
}
