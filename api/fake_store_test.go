package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"dashboard-api/domain"
)

// memStore is an in-memory Storage with the same ordering and not-found
// behaviour as the SQL store.
type memStore struct {
	mu         sync.Mutex
	dashboards map[int64]domain.Dashboard
	tasks      map[int64]domain.Task
	nextID     int64
	pingErr    error
	failWith   error
}

func newMemStore() *memStore {
	return &memStore{
		dashboards: make(map[int64]domain.Dashboard),
		tasks:      make(map[int64]domain.Task),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) ListDashboards(context.Context) ([]domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]domain.Dashboard, 0, len(m.dashboards))
	for _, d := range m.dashboards {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetDashboard(_ context.Context, id int64) (domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return domain.Dashboard{}, m.failWith
	}
	d, ok := m.dashboards[id]
	if !ok {
		return domain.Dashboard{}, domain.ErrNotFound
	}
	return d, nil
}

func (m *memStore) CreateDashboard(_ context.Context, title string) (domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return domain.Dashboard{}, m.failWith
	}
	now := time.Now().UTC()
	d := domain.Dashboard{ID: m.id(), Title: title, CreatedAt: now, UpdatedAt: now}
	m.dashboards[d.ID] = d
	return d, nil
}

func (m *memStore) UpdateDashboard(_ context.Context, id int64, upd domain.DashboardUpdate) (domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dashboards[id]
	if !ok {
		return domain.Dashboard{}, domain.ErrNotFound
	}
	if upd.Title != nil {
		d.Title = *upd.Title
		d.UpdatedAt = time.Now().UTC()
	}
	m.dashboards[id] = d
	return d, nil
}

func (m *memStore) DeleteDashboard(_ context.Context, id int64) (domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dashboards[id]
	if !ok {
		return domain.Dashboard{}, domain.ErrNotFound
	}
	for tid, t := range m.tasks {
		if t.DashboardID == id {
			delete(m.tasks, tid)
		}
	}
	delete(m.dashboards, id)
	return d, nil
}

func statusRank(s domain.Status) int {
	switch s {
	case domain.StatusTodo:
		return 0
	case domain.StatusInProgress:
		return 1
	}
	return 2
}

func (m *memStore) ListTasks(_ context.Context, dashboardID int64) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.Task{}
	for _, t := range m.tasks {
		if t.DashboardID == dashboardID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
			return ra < rb
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *memStore) GetTask(_ context.Context, id int64) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	return t, nil
}

func (m *memStore) LastPosition(_ context.Context, dashboardID int64, status domain.Status) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *int64
	for _, t := range m.tasks {
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

func (m *memStore) TaskPosition(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return t.Position, nil
}

func (m *memStore) InsertTask(_ context.Context, nt domain.NewTask) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t := domain.Task{
		ID:          m.id(),
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		DueDate:     nt.DueDate,
		DashboardID: nt.DashboardID,
		Position:    nt.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memStore) UpdateTask(_ context.Context, id int64, upd domain.TaskUpdate) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description.Set {
		t.Description = upd.Description.Value
	}
	if upd.Priority.Set {
		t.Priority = upd.Priority.Value
	}
	if upd.DueDate.Set {
		t.DueDate = upd.DueDate.Value
	}
	if upd.DashboardID != nil {
		t.DashboardID = *upd.DashboardID
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	t.UpdatedAt = time.Now().UTC()
	m.tasks[id] = t
	return t, nil
}

func (m *memStore) MoveTask(_ context.Context, id, position int64, status *domain.Status) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	t.Position = position
	if status != nil {
		t.Status = *status
	}
	m.tasks[id] = t
	return t, nil
}

func (m *memStore) DeleteTask(_ context.Context, id int64) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	delete(m.tasks, id)
	return t, nil
}
