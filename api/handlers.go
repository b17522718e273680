package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"dashboard-api/domain"
)

// Options carries the collaborators Register wires into the routes.
type Options struct {
	Store Storage
	IDs   IDCodec
	// Auth guards every /api/v1 route. Nil leaves the API open.
	Auth Authenticator
	// Deduper enables Idempotency-Key handling on create routes.
	Deduper Deduper
	Logger  *log.Logger
}

type handler struct {
	store    Storage
	tasks    domain.TaskService
	ids      IDCodec
	validate *Validator
}

// Register wires up all API routes on the provided Echo instance and installs
// the JSON serializer, validator and error handler they rely on.
func Register(e *echo.Echo, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &handler{
		store:    opts.Store,
		tasks:    domain.NewTaskService(opts.Store),
		ids:      opts.IDs,
		validate: NewValidator(opts.IDs),
	}

	e.JSONSerializer = JSONSerializer{}
	e.Validator = h.validate
	e.HTTPErrorHandler = errorHandler(logger)

	e.GET("/healthz", healthz(opts.Store))

	v1 := e.Group("/api/v1", observeRequests(logger), GzipRequestMiddleware(), RequireAuth(opts.Auth))
	idem := Idempotent(opts.Deduper, logger)

	v1.GET("/dashboard", h.listDashboards)
	v1.POST("/dashboard", h.createDashboard, idem)
	v1.GET("/dashboard/:id", h.getDashboard)
	v1.GET("/dashboard/:id/tasks", h.listDashboardTasks)
	v1.PATCH("/dashboard/:id", h.updateDashboard)
	v1.DELETE("/dashboard/:id", h.deleteDashboard)

	v1.POST("/tasks", h.createTask, idem)
	v1.PATCH("/tasks/reorder", h.reorderTask)
	v1.GET("/tasks/:id", h.getTask)
	v1.PATCH("/tasks/:id", h.updateTask)
	v1.DELETE("/tasks/:id", h.deleteTask)
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Storage unavailable"})
		}
		return c.NoContent(http.StatusOK)
	}
}

// respond encodes v as the 200 response and records the encode time.
func respond(c echo.Context, v any) error {
	m := metricsFrom(c)
	start := time.Now()
	err := c.JSON(http.StatusOK, v)
	m.ObserveEncode(time.Since(start))
	if err != nil {
		m.SetErrorStage("encode_response")
	}
	return err
}

func (h *handler) pathID(c echo.Context) (int64, error) {
	token := c.Param("id")
	if err := h.validate.Param("id", token, "required,alphanum,hashid"); err != nil {
		return 0, err
	}
	return h.ids.DecodeID(token)
}

func (h *handler) bind(c echo.Context, req any) (map[string]any, error) {
	fields, err := decodeBody(c, req)
	if err != nil {
		return nil, err
	}
	if err := h.validate.Validate(req); err != nil {
		return nil, err
	}
	return fields, nil
}

func (h *handler) listDashboards(c echo.Context) error {
	done := timeStore(c)
	dashboards, err := h.store.ListDashboards(c.Request().Context())
	done()
	if err != nil {
		return storeError("Dashboard", "list dashboards", err)
	}
	resp, err := encodeDashboards(h.ids, dashboards)
	if err != nil {
		return err
	}
	metricsFrom(c).SetItemsReturned(len(resp))
	return respond(c, resp)
}

func (h *handler) createDashboard(c echo.Context) error {
	var req createDashboardRequest
	if _, err := h.bind(c, &req); err != nil {
		return err
	}
	done := timeStore(c)
	d, err := h.store.CreateDashboard(c.Request().Context(), *req.Title)
	done()
	if err != nil {
		return storeError("Dashboard", "create dashboard", err)
	}
	resp, err := encodeDashboard(h.ids, d)
	if err != nil {
		return err
	}
	return respond(c, resp)
}

// getDashboard returns the dashboard with its tasks in display order.
func (h *handler) getDashboard(c echo.Context) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	done := timeStore(c)
	d, err := h.store.GetDashboard(ctx, id)
	done()
	if err != nil {
		return storeError("Dashboard", "get dashboard", err)
	}
	done = timeStore(c)
	tasks, err := h.store.ListTasks(ctx, id)
	done()
	if err != nil {
		return storeError("Dashboard", "list tasks", err)
	}

	dr, err := encodeDashboard(h.ids, d)
	if err != nil {
		return err
	}
	tr, err := encodeTasks(h.ids, tasks)
	if err != nil {
		return err
	}
	metricsFrom(c).SetItemsReturned(len(tr))
	return respond(c, dashboardWithTasksResponse{dashboardResponse: dr, Tasks: tr})
}

func (h *handler) listDashboardTasks(c echo.Context) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	done := timeStore(c)
	tasks, err := h.store.ListTasks(c.Request().Context(), id)
	done()
	if err != nil {
		return storeError("Dashboard", "list tasks", err)
	}
	resp, err := encodeTasks(h.ids, tasks)
	if err != nil {
		return err
	}
	metricsFrom(c).SetItemsReturned(len(resp))
	return respond(c, resp)
}

func (h *handler) updateDashboard(c echo.Context) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	var req updateDashboardRequest
	if _, err := h.bind(c, &req); err != nil {
		return err
	}
	done := timeStore(c)
	d, err := h.store.UpdateDashboard(c.Request().Context(), id, domain.DashboardUpdate{Title: req.Title})
	done()
	if err != nil {
		return storeError("Dashboard", "update dashboard", err)
	}
	resp, err := encodeDashboard(h.ids, d)
	if err != nil {
		return err
	}
	return respond(c, resp)
}

// deleteDashboard removes the dashboard and all of its tasks.
func (h *handler) deleteDashboard(c echo.Context) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	done := timeStore(c)
	d, err := h.store.DeleteDashboard(c.Request().Context(), id)
	done()
	if err != nil {
		return storeError("Dashboard", "delete dashboard", err)
	}
	resp, err := encodeDashboard(h.ids, d)
	if err != nil {
		return err
	}
	return respond(c, resp)
}

func (h *handler) createTask(c echo.Context) error {
	var req createTaskRequest
	if _, err := h.bind(c, &req); err != nil {
		return err
	}
	nt, err := req.toNewTask(h.ids)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	done := timeStore(c)
	_, err = h.store.GetDashboard(ctx, nt.DashboardID)
	done()
	if err != nil {
		return storeError("Dashboard", "get dashboard", err)
	}
	done = timeStore(c)
	t, err := h.tasks.Create(ctx, nt)
	done()
	if err != nil {
		return storeError("Task", "create task", err)
	}
	resp, err := encodeTask(h.ids, t)
	if err != nil {
		return err
	}
	return respond(c, resp)
}

func (h *handler) getTask(c echo.Context) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	done := timeStore(c)
	t, err := h.store.GetTask(c.Request().Context(), id)
	done()
	if err != nil {
		return storeError("Task", "get task", err)
	}
	resp, err := encodeTask(h.ids, t)
	if err != nil {
		return err
	}
	return respond(c, resp)
}

// updateTask applies a partial update. Position is not accepted here; use
// the reorder route to move a task.
func (h *handler) updateTask(c echo.Context) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	fields, err := h.bind(c, &req)
	if err != nil {
		return err
	}
	upd, err := req.toUpdate(h.ids, fields)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if upd.DashboardID != nil {
		done := timeStore(c)
		_, err := h.store.GetDashboard(ctx, *upd.DashboardID)
		done()
		if err != nil {
			return storeError("Dashboard", "get dashboard", err)
		}
	}
	done := timeStore(c)
	t, err := h.store.UpdateTask(ctx, id, upd)
	done()
	if err != nil {
		return storeError("Task", "update task", err)
	}
	resp, err := encodeTask(h.ids, t)
	if err != nil {
		return err
	}
	return respond(c, resp)
}

func (h *handler) reorderTask(c echo.Context) error {
	var req reorderTaskRequest
	if _, err := h.bind(c, &req); err != nil {
		return err
	}
	rr, err := req.toReorder(h.ids)
	if err != nil {
		return err
	}
	done := timeStore(c)
	t, err := h.tasks.Reorder(c.Request().Context(), rr)
	done()
	if err != nil {
		return storeError("Task", "reorder task", err)
	}
	resp, err := encodeTask(h.ids, t)
	if err != nil {
		return err
	}
	return respond(c, resp)
}

func (h *handler) deleteTask(c echo.Context) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	done := timeStore(c)
	t, err := h.store.DeleteTask(c.Request().Context(), id)
	done()
	if err != nil {
		return storeError("Task", "delete task", err)
	}
	resp, err := encodeTask(h.ids, t)
	if err != nil {
		return err
	}
	return respond(c, resp)
}
