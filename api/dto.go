package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"dashboard-api/domain"
)

const maxBodySize = 64 * 1024 // 64 KiB

var (
	errInvalidBody  = echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	errBodyTooLarge = echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large")
)

type createDashboardRequest struct {
	Title *string `json:"title" validate:"required,min=1,max=255"`
}

type updateDashboardRequest struct {
	Title *string `json:"title" validate:"omitnil,min=1,max=255"`
}

type createTaskRequest struct {
	Title       *string `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Status      *string `json:"status" validate:"omitnil,oneof=TODO IN_PROGRESS DONE"`
	Priority    *string `json:"priority" validate:"omitnil,oneof=LOW MEDIUM HIGH"`
	DueDate     *string `json:"dueDate" validate:"omitnil,isodatetime"`
	DashboardID *string `json:"dashboardId" validate:"required,alphanum,hashid"`
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Status      *string `json:"status" validate:"omitnil,oneof=TODO IN_PROGRESS DONE"`
	Priority    *string `json:"priority" validate:"omitnil,oneof=LOW MEDIUM HIGH"`
	DueDate     *string `json:"dueDate" validate:"omitnil,isodatetime"`
	DashboardID *string `json:"dashboardId" validate:"omitnil,alphanum,hashid"`
}

type reorderTaskRequest struct {
	TaskID       *string `json:"taskId" validate:"required,alphanum,hashid"`
	PrevID       *string `json:"prevId" validate:"omitnil,alphanum,hashid"`
	NextID       *string `json:"nextId" validate:"omitnil,alphanum,hashid"`
	TargetStatus *string `json:"targetStatus" validate:"omitnil,oneof=TODO IN_PROGRESS DONE"`
}

type dashboardResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type dashboardWithTasksResponse struct {
	dashboardResponse
	Tasks []taskResponse `json:"tasks"`
}

type taskResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      domain.Status    `json:"status"`
	Priority    *domain.Priority `json:"priority"`
	DueDate     *time.Time       `json:"dueDate"`
	DashboardID string           `json:"dashboardId"`
	Position    int64            `json:"position"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type errorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// decodeBody reads a JSON object into dst and returns the raw key set so
// callers can tell an explicit null from an omitted field. An empty body is
// treated as {}.
func decodeBody(c echo.Context, dst any) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize+1))
	if err != nil {
		return nil, errInvalidBody
	}
	if len(data) > maxBodySize {
		return nil, errBodyTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	dec := sonic.ConfigStd.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, errInvalidBody
	}
	var fields map[string]any
	if err := sonic.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, errInvalidBody
	}
	return fields, nil
}

func encodeDashboard(ids IDCodec, d domain.Dashboard) (dashboardResponse, error) {
	id, err := ids.EncodeID(d.ID)
	if err != nil {
		return dashboardResponse{}, fmt.Errorf("encode dashboard id: %w", err)
	}
	return dashboardResponse{ID: id, Title: d.Title, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}, nil
}

func encodeDashboards(ids IDCodec, in []domain.Dashboard) ([]dashboardResponse, error) {
	out := make([]dashboardResponse, 0, len(in))
	for _, d := range in {
		r, err := encodeDashboard(ids, d)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func encodeTask(ids IDCodec, t domain.Task) (taskResponse, error) {
	id, err := ids.EncodeID(t.ID)
	if err != nil {
		return taskResponse{}, fmt.Errorf("encode task id: %w", err)
	}
	dashboardID, err := ids.EncodeID(t.DashboardID)
	if err != nil {
		return taskResponse{}, fmt.Errorf("encode dashboard id: %w", err)
	}
	return taskResponse{
		ID:          id,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		DashboardID: dashboardID,
		Position:    t.Position,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

func encodeTasks(ids IDCodec, in []domain.Task) ([]taskResponse, error) {
	out := make([]taskResponse, 0, len(in))
	for _, t := range in {
		r, err := encodeTask(ids, t)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// decodeToken is only called on values that already passed the hashid tag.
func decodeToken(ids IDCodec, token *string) (*int64, error) {
	if token == nil {
		return nil, nil
	}
	id, err := ids.DecodeID(*token)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r createTaskRequest) toNewTask(ids IDCodec) (domain.NewTask, error) {
	dashboardID, err := decodeToken(ids, r.DashboardID)
	if err != nil {
		return domain.NewTask{}, err
	}
	nt := domain.NewTask{
		Title:       *r.Title,
		Description: r.Description,
		DashboardID: *dashboardID,
	}
	if r.Status != nil {
		nt.Status = domain.Status(*r.Status)
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		nt.Priority = &p
	}
	if r.DueDate != nil {
		nt.DueDate = parseISODateTime(*r.DueDate)
	}
	return nt, nil
}

// toUpdate maps the request onto a TaskUpdate. fields is the raw key set:
// a key present with null clears a nullable column, an absent key leaves it.
func (r updateTaskRequest) toUpdate(ids IDCodec, fields map[string]any) (domain.TaskUpdate, error) {
	upd := domain.TaskUpdate{Title: r.Title}

	if _, ok := fields["description"]; ok {
		if r.Description == nil {
			upd.Description = domain.Null[string]()
		} else {
			upd.Description = domain.Value(*r.Description)
		}
	}
	if _, ok := fields["priority"]; ok {
		if r.Priority == nil {
			upd.Priority = domain.Null[domain.Priority]()
		} else {
			upd.Priority = domain.Value(domain.Priority(*r.Priority))
		}
	}
	if _, ok := fields["dueDate"]; ok {
		if r.DueDate == nil {
			upd.DueDate = domain.Null[time.Time]()
		} else {
			upd.DueDate = domain.Nullable[time.Time]{Set: true, Value: parseISODateTime(*r.DueDate)}
		}
	}
	if r.Status != nil {
		s := domain.Status(*r.Status)
		upd.Status = &s
	}
	dashboardID, err := decodeToken(ids, r.DashboardID)
	if err != nil {
		return domain.TaskUpdate{}, err
	}
	upd.DashboardID = dashboardID
	return upd, nil
}

func (r reorderTaskRequest) toReorder(ids IDCodec) (domain.ReorderRequest, error) {
	var req domain.ReorderRequest
	taskID, err := decodeToken(ids, r.TaskID)
	if err != nil {
		return req, err
	}
	req.TaskID = *taskID
	if req.PrevID, err = decodeToken(ids, r.PrevID); err != nil {
		return req, err
	}
	if req.NextID, err = decodeToken(ids, r.NextID); err != nil {
		return req, err
	}
	if r.TargetStatus != nil {
		s := domain.Status(*r.TargetStatus)
		req.TargetStatus = &s
	}
	return req, nil
}
