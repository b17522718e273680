package domain

import "time"

// Status is the column a task belongs to on its dashboard.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is an optional task importance level.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single card on a dashboard.
type Task struct {
	ID          int64
	Title       string
	Description *string
	Status      Status
	Priority    *Priority
	DueDate     *time.Time
	DashboardID int64
	Position    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask carries the fields accepted when a task is created. Position is
// assigned by TaskService.Create.
type NewTask struct {
	Title       string
	Description *string
	Status      Status
	Priority    *Priority
	DueDate     *time.Time
	DashboardID int64
	Position    int64
}

// Nullable tracks whether an optional field was supplied at all, so an
// explicit null can clear a stored value while an omitted field is left alone.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Null returns a Nullable that clears the field.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

// Value returns a Nullable that sets the field to v.
func Value[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

// TaskUpdate lists the fields a plain update may change. Position is not one
// of them; only Reorder moves a task.
type TaskUpdate struct {
	Title       *string
	Description Nullable[string]
	Priority    Nullable[Priority]
	DueDate     Nullable[time.Time]
	DashboardID *int64
	Status      *Status
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && !u.Description.Set && !u.Priority.Set && !u.DueDate.Set &&
		u.DashboardID == nil && u.Status == nil
}
