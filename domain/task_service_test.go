package domain

import (
	"context"
	"errors"
	"testing"
)

func TestTaskServiceCreateFirstInColumn(t *testing.T) {
	st := newFakeStore()
	svc := NewTaskService(st)

	task, err := svc.Create(context.Background(), NewTask{Title: "first", DashboardID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Position != 1024 {
		t.Fatalf("expected position 1024, got %d", task.Position)
	}
	if task.Status != StatusTodo {
		t.Fatalf("expected default status TODO, got %q", task.Status)
	}
}

func TestTaskServiceCreateAppendsAfterLast(t *testing.T) {
	st := newFakeStore(
		Task{ID: 1, DashboardID: 1, Status: StatusTodo, Position: 1024},
		Task{ID: 2, DashboardID: 1, Status: StatusTodo, Position: 2048},
		Task{ID: 3, DashboardID: 1, Status: StatusDone, Position: 9999},
		Task{ID: 4, DashboardID: 2, Status: StatusTodo, Position: 8888},
	)
	svc := NewTaskService(st)

	task, err := svc.Create(context.Background(), NewTask{Title: "next", DashboardID: 1, Status: StatusTodo})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Position != 3072 {
		t.Fatalf("expected position 3072, got %d", task.Position)
	}
	if st.inserted.Position != 3072 {
		t.Fatalf("expected inserted position 3072, got %d", st.inserted.Position)
	}
}

func TestTaskServiceCreateLastPositionError(t *testing.T) {
	st := newFakeStore()
	st.lastPositionErr = errBoom
	svc := NewTaskService(st)

	if _, err := svc.Create(context.Background(), NewTask{Title: "x", DashboardID: 1}); !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if st.inserted.Title != "" {
		t.Fatalf("expected no insert after lookup failure")
	}
}

func TestTaskServiceReorderBetween(t *testing.T) {
	st := newFakeStore(
		Task{ID: 1, DashboardID: 1, Status: StatusTodo, Position: 1024},
		Task{ID: 2, DashboardID: 1, Status: StatusInProgress, Position: 1000},
		Task{ID: 3, DashboardID: 1, Status: StatusInProgress, Position: 2000},
	)
	svc := NewTaskService(st)
	target := StatusInProgress

	task, err := svc.Reorder(context.Background(), ReorderRequest{TaskID: 1, PrevID: ptr(2), NextID: ptr(3), TargetStatus: &target})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if task.Position != 1500 || task.Status != StatusInProgress {
		t.Fatalf("unexpected task after reorder: %+v", task)
	}
	if st.moved.status == nil || *st.moved.status != StatusInProgress {
		t.Fatalf("expected status to be written with the position")
	}
}

func TestTaskServiceReorderEdges(t *testing.T) {
	tests := []struct {
		name       string
		prev, next *int64
		want       int64
	}{
		{name: "after prev", prev: ptr(2), want: 2024},
		{name: "before next", next: ptr(3), want: 1000},
		{name: "empty column", want: 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore(
				Task{ID: 1, DashboardID: 1, Status: StatusTodo, Position: 1024},
				Task{ID: 2, DashboardID: 1, Status: StatusTodo, Position: 1000},
				Task{ID: 3, DashboardID: 1, Status: StatusTodo, Position: 2000},
			)
			svc := NewTaskService(st)

			task, err := svc.Reorder(context.Background(), ReorderRequest{TaskID: 1, PrevID: tt.prev, NextID: tt.next})
			if err != nil {
				t.Fatalf("reorder: %v", err)
			}
			if task.Position != tt.want {
				t.Fatalf("expected position %d, got %d", tt.want, task.Position)
			}
			if st.moved.status != nil {
				t.Fatalf("expected status untouched without target status")
			}
			if task.Status != StatusTodo {
				t.Fatalf("expected status TODO, got %q", task.Status)
			}
		})
	}
}

func TestTaskServiceReorderMissingNeighbourIsAbsent(t *testing.T) {
	st := newFakeStore(
		Task{ID: 1, DashboardID: 1, Status: StatusTodo, Position: 1024},
		Task{ID: 3, DashboardID: 1, Status: StatusTodo, Position: 2000},
	)
	svc := NewTaskService(st)

	task, err := svc.Reorder(context.Background(), ReorderRequest{TaskID: 1, PrevID: ptr(42), NextID: ptr(3)})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if task.Position != 1000 {
		t.Fatalf("expected missing prev to be treated as absent, got position %d", task.Position)
	}
	if len(st.positionCalls) != 2 {
		t.Fatalf("expected both neighbours to be looked up, got %v", st.positionCalls)
	}
}

func TestTaskServiceReorderNeighbourLookupError(t *testing.T) {
	st := newFakeStore(Task{ID: 1, DashboardID: 1, Status: StatusTodo, Position: 1024})
	st.positionErr = errBoom
	svc := NewTaskService(st)

	if _, err := svc.Reorder(context.Background(), ReorderRequest{TaskID: 1, PrevID: ptr(2)}); !errors.Is(err, errBoom) {
		t.Fatalf("expected lookup error to propagate, got %v", err)
	}
	if st.moved.id != 0 {
		t.Fatalf("expected no move after lookup failure")
	}
}

func TestTaskServiceReorderMissingTask(t *testing.T) {
	st := newFakeStore()
	svc := NewTaskService(st)

	if _, err := svc.Reorder(context.Background(), ReorderRequest{TaskID: 7}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskServiceReorderExhaustedGapStillMoves(t *testing.T) {
	st := newFakeStore(
		Task{ID: 1, DashboardID: 1, Status: StatusTodo, Position: 4096},
		Task{ID: 2, DashboardID: 1, Status: StatusTodo, Position: 1000},
		Task{ID: 3, DashboardID: 1, Status: StatusTodo, Position: 1001},
	)
	svc := NewTaskService(st)

	task, err := svc.Reorder(context.Background(), ReorderRequest{TaskID: 1, PrevID: ptr(2), NextID: ptr(3)})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if task.Position != 1000 {
		t.Fatalf("expected colliding position 1000, got %d", task.Position)
	}
}
