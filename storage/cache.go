package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"dashboard-api/domain"
)

type backend interface {
	Ping(ctx context.Context) error
	ListDashboards(ctx context.Context) ([]domain.Dashboard, error)
	GetDashboard(ctx context.Context, id int64) (domain.Dashboard, error)
	CreateDashboard(ctx context.Context, title string) (domain.Dashboard, error)
	UpdateDashboard(ctx context.Context, id int64, upd domain.DashboardUpdate) (domain.Dashboard, error)
	DeleteDashboard(ctx context.Context, id int64) (domain.Dashboard, error)
	ListTasks(ctx context.Context, dashboardID int64) ([]domain.Task, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	LastPosition(ctx context.Context, dashboardID int64, status domain.Status) (*int64, error)
	TaskPosition(ctx context.Context, id int64) (int64, error)
	InsertTask(ctx context.Context, t domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, id int64, upd domain.TaskUpdate) (domain.Task, error)
	MoveTask(ctx context.Context, id, position int64, status *domain.Status) (domain.Task, error)
	DeleteTask(ctx context.Context, id int64) (domain.Task, error)
}

// Cache wraps a Storage with Redis-backed caching for dashboard and task list
// reads. Writes go straight to the backing store and evict the affected keys.
// Position lookups used for ordering are never served from cache.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client disables caching.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.base.Ping(ctx)
}

func (c *Cache) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	var dashboards []domain.Dashboard
	if c.load(ctx, dashboardsCacheKey(), &dashboards) {
		return dashboards, nil
	}
	dashboards, err := c.base.ListDashboards(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, dashboardsCacheKey(), dashboards)
	return dashboards, nil
}

func (c *Cache) GetDashboard(ctx context.Context, id int64) (domain.Dashboard, error) {
	var d domain.Dashboard
	if c.load(ctx, dashboardCacheKey(id), &d) {
		return d, nil
	}
	d, err := c.base.GetDashboard(ctx, id)
	if err != nil {
		return domain.Dashboard{}, err
	}
	c.store(ctx, dashboardCacheKey(id), d)
	return d, nil
}

func (c *Cache) CreateDashboard(ctx context.Context, title string) (domain.Dashboard, error) {
	d, err := c.base.CreateDashboard(ctx, title)
	if err != nil {
		return domain.Dashboard{}, err
	}
	c.evict(ctx, dashboardsCacheKey())
	return d, nil
}

func (c *Cache) UpdateDashboard(ctx context.Context, id int64, upd domain.DashboardUpdate) (domain.Dashboard, error) {
	d, err := c.base.UpdateDashboard(ctx, id, upd)
	if err != nil {
		return domain.Dashboard{}, err
	}
	c.evict(ctx, dashboardsCacheKey(), dashboardCacheKey(id))
	return d, nil
}

func (c *Cache) DeleteDashboard(ctx context.Context, id int64) (domain.Dashboard, error) {
	d, err := c.base.DeleteDashboard(ctx, id)
	if err != nil {
		return domain.Dashboard{}, err
	}
	c.evict(ctx, dashboardsCacheKey(), dashboardCacheKey(id), tasksCacheKey(id))
	return d, nil
}

func (c *Cache) ListTasks(ctx context.Context, dashboardID int64) ([]domain.Task, error) {
	var tasks []domain.Task
	if c.load(ctx, tasksCacheKey(dashboardID), &tasks) {
		return tasks, nil
	}
	tasks, err := c.base.ListTasks(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tasksCacheKey(dashboardID), tasks)
	return tasks, nil
}

func (c *Cache) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	return c.base.GetTask(ctx, id)
}

func (c *Cache) LastPosition(ctx context.Context, dashboardID int64, status domain.Status) (*int64, error) {
	return c.base.LastPosition(ctx, dashboardID, status)
}

func (c *Cache) TaskPosition(ctx context.Context, id int64) (int64, error) {
	return c.base.TaskPosition(ctx, id)
}

func (c *Cache) InsertTask(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	t, err := c.base.InsertTask(ctx, nt)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(t.DashboardID))
	return t, nil
}

func (c *Cache) UpdateTask(ctx context.Context, id int64, upd domain.TaskUpdate) (domain.Task, error) {
	var previousDashboard int64
	if upd.DashboardID != nil && c.redis != nil {
		// Moving to another dashboard changes two task lists.
		if old, err := c.base.GetTask(ctx, id); err == nil {
			previousDashboard = old.DashboardID
		}
	}
	t, err := c.base.UpdateTask(ctx, id, upd)
	if err != nil {
		return domain.Task{}, err
	}
	keys := []string{tasksCacheKey(t.DashboardID)}
	if previousDashboard != 0 && previousDashboard != t.DashboardID {
		keys = append(keys, tasksCacheKey(previousDashboard))
	}
	c.evict(ctx, keys...)
	return t, nil
}

func (c *Cache) MoveTask(ctx context.Context, id, position int64, status *domain.Status) (domain.Task, error) {
	t, err := c.base.MoveTask(ctx, id, position, status)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(t.DashboardID))
	return t, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id int64) (domain.Task, error) {
	t, err := c.base.DeleteTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(t.DashboardID))
	return t, nil
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := sonic.Unmarshal(data, dst); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func dashboardsCacheKey() string {
	return "dashboards"
}

func dashboardCacheKey(id int64) string {
	return "dashboard:" + strconv.FormatInt(id, 10)
}

func tasksCacheKey(dashboardID int64) string {
	return "tasks:" + strconv.FormatInt(dashboardID, 10)
}
