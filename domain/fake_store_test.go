package domain

import (
	"context"
	"errors"
)

type fakeStore struct {
	tasks  map[int64]Task
	nextID int64

	lastPositionErr error
	positionErr     error
	positionCalls   []int64
	inserted        NewTask
	moved           struct {
		id       int64
		position int64
		status   *Status
	}
}

func newFakeStore(tasks ...Task) *fakeStore {
	f := &fakeStore{tasks: map[int64]Task{}}
	for _, t := range tasks {
		f.tasks[t.ID] = t
		if t.ID > f.nextID {
			f.nextID = t.ID
		}
	}
	return f
}

func (f *fakeStore) LastPosition(ctx context.Context, dashboardID int64, status Status) (*int64, error) {
	if f.lastPositionErr != nil {
		return nil, f.lastPositionErr
	}
	var last *int64
	for _, t := range f.tasks {
		if t.DashboardID != dashboardID || t.Status != status {
			continue
		}
		if last == nil || t.Position > *last {
			p := t.Position
			last = &p
		}
	}
	return last, nil
}

func (f *fakeStore) TaskPosition(ctx context.Context, id int64) (int64, error) {
	f.positionCalls = append(f.positionCalls, id)
	if f.positionErr != nil {
		return 0, f.positionErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return 0, ErrNotFound
	}
	return t.Position, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, nt NewTask) (Task, error) {
	f.inserted = nt
	f.nextID++
	t := Task{
		ID:          f.nextID,
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		DueDate:     nt.DueDate,
		DashboardID: nt.DashboardID,
		Position:    nt.Position,
	}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeStore) MoveTask(ctx context.Context, id, position int64, status *Status) (Task, error) {
	f.moved.id, f.moved.position, f.moved.status = id, position, status
	t, ok := f.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	t.Position = position
	if status != nil {
		t.Status = *status
	}
	f.tasks[id] = t
	return t, nil
}

var errBoom = errors.New("boom")
