package domain

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// TaskStorage defines the persistence calls needed to place tasks in a column.
type TaskStorage interface {
	// LastPosition returns the highest position in the (dashboardID, status)
	// column, or nil when the column is empty.
	LastPosition(ctx context.Context, dashboardID int64, status Status) (*int64, error)
	// TaskPosition returns the position of a single task or ErrNotFound.
	TaskPosition(ctx context.Context, id int64) (int64, error)
	InsertTask(ctx context.Context, t NewTask) (Task, error)
	// MoveTask writes position, and status when non-nil, in one statement.
	MoveTask(ctx context.Context, id, position int64, status *Status) (Task, error)
}

// ReorderRequest describes a drag-and-drop move. PrevID and NextID name the
// tasks that should end up immediately before and after the moved task.
type ReorderRequest struct {
	TaskID       int64
	PrevID       *int64
	NextID       *int64
	TargetStatus *Status
}

// TaskService assigns positions when tasks are created or moved.
type TaskService struct{ st TaskStorage }

func NewTaskService(st TaskStorage) TaskService { return TaskService{st: st} }

// Create appends the task to the end of its column.
func (s TaskService) Create(ctx context.Context, t NewTask) (Task, error) {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	last, err := s.st.LastPosition(ctx, t.DashboardID, t.Status)
	if err != nil {
		return Task{}, fmt.Errorf("last position: %w", err)
	}
	t.Position = AppendPosition(last)
	return s.st.InsertTask(ctx, t)
}

// Reorder moves a task between two neighbours, optionally into another
// column. Neighbours that no longer exist are treated as absent.
func (s TaskService) Reorder(ctx context.Context, req ReorderRequest) (Task, error) {
	prev, err := s.neighbourPosition(ctx, req.PrevID)
	if err != nil {
		return Task{}, fmt.Errorf("prev position: %w", err)
	}
	next, err := s.neighbourPosition(ctx, req.NextID)
	if err != nil {
		return Task{}, fmt.Errorf("next position: %w", err)
	}

	pos := ReorderPosition(prev, next)
	if GapExhausted(prev, next) {
		log.WithFields(log.Fields{
			"task": req.TaskID,
			"prev": *prev,
			"next": *next,
			"pos":  pos,
		}).Warn("no free position between neighbours; column needs renumbering")
	}
	return s.st.MoveTask(ctx, req.TaskID, pos, req.TargetStatus)
}

func (s TaskService) neighbourPosition(ctx context.Context, id *int64) (*int64, error) {
	if id == nil {
		return nil, nil
	}
	pos, err := s.st.TaskPosition(ctx, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}
