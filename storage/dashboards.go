package storage

import (
	"context"
	"fmt"

	"dashboard-api/domain"
)

const dashboardColumns = `id, title, created_at, updated_at`

func scanDashboard(row rowScanner) (domain.Dashboard, error) {
	var (
		d                domain.Dashboard
		created, updated timestamp
	)
	if err := row.Scan(&d.ID, &d.Title, &created, &updated); err != nil {
		return domain.Dashboard{}, err
	}
	d.CreatedAt, d.UpdatedAt = created.Time, updated.Time
	return d, nil
}

// ListDashboards returns every dashboard ordered by id.
func (s *Storage) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+dashboardColumns+` FROM dashboards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dashboards := []domain.Dashboard{}
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, err
		}
		dashboards = append(dashboards, d)
	}
	return dashboards, rows.Err()
}

// GetDashboard returns a single dashboard or domain.ErrNotFound.
func (s *Storage) GetDashboard(ctx context.Context, id int64) (domain.Dashboard, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dashboardColumns+` FROM dashboards WHERE id = $1`, id)
	d, err := scanDashboard(row)
	return d, notFound(err)
}

// CreateDashboard inserts a dashboard and returns the stored row.
func (s *Storage) CreateDashboard(ctx context.Context, title string) (domain.Dashboard, error) {
	now := s.now()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO dashboards (title, created_at, updated_at) VALUES ($1, $2, $3) RETURNING `+dashboardColumns,
		title, now, now)
	return scanDashboard(row)
}

// UpdateDashboard applies upd and returns the stored row. An empty update
// returns the current row unchanged.
func (s *Storage) UpdateDashboard(ctx context.Context, id int64, upd domain.DashboardUpdate) (domain.Dashboard, error) {
	if upd.Title == nil {
		return s.GetDashboard(ctx, id)
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE dashboards SET title = $1, updated_at = $2 WHERE id = $3 RETURNING `+dashboardColumns,
		*upd.Title, s.now(), id)
	d, err := scanDashboard(row)
	return d, notFound(err)
}

// DeleteDashboard removes a dashboard together with its tasks and returns the
// deleted dashboard.
func (s *Storage) DeleteDashboard(ctx context.Context, id int64) (domain.Dashboard, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Dashboard{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE dashboard_id = $1`, id); err != nil {
		return domain.Dashboard{}, fmt.Errorf("delete tasks: %w", err)
	}
	row := tx.QueryRowContext(ctx, `DELETE FROM dashboards WHERE id = $1 RETURNING `+dashboardColumns, id)
	d, err := scanDashboard(row)
	if err != nil {
		return domain.Dashboard{}, notFound(err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Dashboard{}, err
	}
	return d, nil
}
