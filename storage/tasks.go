package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dashboard-api/domain"
)

const taskColumns = `id, title, description, status, priority, due_date, dashboard_id, position, created_at, updated_at`

const columnOrder = `CASE status WHEN 'TODO' THEN 0 WHEN 'IN_PROGRESS' THEN 1 ELSE 2 END, position, id`

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t           domain.Task
		status      string
		description sql.NullString
		priority    sql.NullString
		due         timestamp
		created     timestamp
		updated     timestamp
	)
	if err := row.Scan(&t.ID, &t.Title, &description, &status, &priority, &due,
		&t.DashboardID, &t.Position, &created, &updated); err != nil {
		return domain.Task{}, err
	}
	t.CreatedAt, t.UpdatedAt = created.Time, updated.Time
	t.DueDate = due.ptr()
	t.Status = domain.Status(status)
	if description.Valid {
		t.Description = &description.String
	}
	if priority.Valid {
		p := domain.Priority(priority.String)
		t.Priority = &p
	}
	return t, nil
}

// ListTasks returns the tasks of a dashboard in display order: by column,
// then position, ties broken by id.
func (s *Storage) ListTasks(ctx context.Context, dashboardID int64) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE dashboard_id = $1 ORDER BY `+columnOrder, dashboardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask returns a single task or domain.ErrNotFound.
func (s *Storage) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	return t, notFound(err)
}

// LastPosition returns the highest position in a column, or nil when the
// column has no tasks.
func (s *Storage) LastPosition(ctx context.Context, dashboardID int64, status domain.Status) (*int64, error) {
	var pos int64
	err := s.db.QueryRowContext(ctx,
		`SELECT position FROM tasks WHERE dashboard_id = $1 AND status = $2 ORDER BY position DESC LIMIT 1`,
		dashboardID, string(status)).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// TaskPosition returns the position of a task or domain.ErrNotFound.
func (s *Storage) TaskPosition(ctx context.Context, id int64) (int64, error) {
	var pos int64
	err := s.db.QueryRowContext(ctx, `SELECT position FROM tasks WHERE id = $1`, id).Scan(&pos)
	return pos, notFound(err)
}

// InsertTask stores a new task with the position already assigned.
func (s *Storage) InsertTask(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	now := s.now()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, status, priority, due_date, dashboard_id, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+taskColumns,
		nt.Title, nullString(nt.Description), string(nt.Status), nullPriority(nt.Priority),
		nullTime(nt.DueDate), nt.DashboardID, nt.Position, now, now)
	return scanTask(row)
}

// UpdateTask applies the fields present in upd. Position is never written
// here; an empty update returns the current row.
func (s *Storage) UpdateTask(ctx context.Context, id int64, upd domain.TaskUpdate) (domain.Task, error) {
	if upd.Empty() {
		return s.GetTask(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description.Set {
		set("description", nullString(upd.Description.Value))
	}
	if upd.Priority.Set {
		set("priority", nullPriority(upd.Priority.Value))
	}
	if upd.DueDate.Set {
		set("due_date", nullTime(upd.DueDate.Value))
	}
	if upd.DashboardID != nil {
		set("dashboard_id", *upd.DashboardID)
	}
	if upd.Status != nil {
		set("status", string(*upd.Status))
	}
	set("updated_at", s.now())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), taskColumns)
	t, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	return t, notFound(err)
}

// MoveTask writes a new position, and optionally a new status, in a single
// statement.
func (s *Storage) MoveTask(ctx context.Context, id, position int64, status *domain.Status) (domain.Task, error) {
	var row *sql.Row
	if status != nil {
		row = s.db.QueryRowContext(ctx,
			`UPDATE tasks SET position = $1, status = $2, updated_at = $3 WHERE id = $4 RETURNING `+taskColumns,
			position, string(*status), s.now(), id)
	} else {
		row = s.db.QueryRowContext(ctx,
			`UPDATE tasks SET position = $1, updated_at = $2 WHERE id = $3 RETURNING `+taskColumns,
			position, s.now(), id)
	}
	t, err := scanTask(row)
	return t, notFound(err)
}

// DeleteTask removes a task and returns it.
func (s *Storage) DeleteTask(ctx context.Context, id int64) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING `+taskColumns, id)
	t, err := scanTask(row)
	return t, notFound(err)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullPriority(p *domain.Priority) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
