package task

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/hostelops/turnkey/internal/eventbus"
	"github.com/hostelops/turnkey/internal/history"
	"github.com/hostelops/turnkey/pkg/cerr"
)

// StatusApplier runs a status transition on a task. Implemented by the
// status machine; declared here to keep the dependency direction from the
// machine to this package.
type StatusApplier interface {
	ApplyStatus(ctx context.Context, taskID, statusName string, committer history.Committer) (*Task, error)
}

type Server struct {
	repo     Repository
	statuses StatusApplier
	tracker  *history.Tracker
	bus      *eventbus.Bus
}

func NewServer(repo Repository, statuses StatusApplier, tracker *history.Tracker, bus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		statuses: statuses,
		tracker:  tracker,
		bus:      bus,
	}
}

// Routes mounts the task endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/tasks", s.handleList)
	r.Post("/tasks", s.handleCreate)
	r.Get("/tasks/{taskID}", s.handleGet)
	r.Put("/tasks/{taskID}", s.handleUpdate)
	r.Delete("/tasks/{taskID}", s.handleDelete)
	r.Post("/tasks/{taskID}/status", s.handleApplyStatus)
}

type taskPayload struct {
	ID          string     `json:"id"`
	AreaID      string     `json:"area_id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Status      string     `json:"status"`
	DueAt       time.Time  `json:"due_at"`
	TagIDs      []string   `json:"tag_ids,omitempty"`
	OperatorIDs []string   `json:"operator_ids,omitempty"`
	BookingID   string     `json:"booking_id,omitempty"`
	RoomID      string     `json:"room_id,omitempty"`
	Archived    bool       `json:"archived"`
	WorkedSec   int64      `json:"worked_seconds"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"work_started_at,omitempty"`
}

func toPayload(t *Task) taskPayload {
	return taskPayload{
		ID:          t.ID,
		AreaID:      t.AreaID,
		Title:       t.Title,
		Notes:       t.Notes,
		Status:      t.Status,
		DueAt:       t.DueAt,
		TagIDs:      t.TagIDs,
		OperatorIDs: t.OperatorIDs,
		BookingID:   t.BookingID,
		RoomID:      t.RoomID,
		Archived:    t.Archived,
		WorkedSec:   t.WorkedSeconds,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		StartedAt:   t.WorkStartedAt,
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := Filter{
		AreaID:    q.Get("area_id"),
		BookingID: q.Get("booking_id"),
		Status:    q.Get("status"),
	}
	if v := q.Get("archived"); v != "" {
		archived := v == "true"
		filter.Archived = &archived
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	payloads := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		payloads = append(payloads, toPayload(t))
	}
	cerr.SetJSONResponse(ctx, map[string]any{"tasks": payloads})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toPayload(t)})
}

type createRequest struct {
	AreaID      string    `json:"area_id"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes"`
	DueAt       time.Time `json:"due_at"`
	TagIDs      []string  `json:"tag_ids"`
	OperatorIDs []string  `json:"operator_ids"`
	BookingID   string    `json:"booking_id"`
	RoomID      string    `json:"room_id"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Title == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "title is required", nil)
		return
	}
	if req.AreaID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "area_id is required", nil)
		return
	}

	now := time.Now()
	t := &Task{
		ID:          ulid.Make().String(),
		AreaID:      req.AreaID,
		Title:       req.Title,
		Notes:       req.Notes,
		Status:      "pending",
		DueAt:       req.DueAt,
		TagIDs:      req.TagIDs,
		OperatorIDs: req.OperatorIDs,
		BookingID:   req.BookingID,
		RoomID:      req.RoomID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if s.tracker != nil {
		s.tracker.Track(ctx, history.CommitterFromContext(ctx), t.ID, history.Snapshot{}, Snapshot(t))
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskCreated, t.ID, "", map[string]string{"area_id": t.AreaID})
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toPayload(t)})
}

type updateRequest struct {
	Title       *string    `json:"title"`
	Notes       *string    `json:"notes"`
	DueAt       *time.Time `json:"due_at"`
	TagIDs      *[]string  `json:"tag_ids"`
	OperatorIDs *[]string  `json:"operator_ids"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	prev := Snapshot(t)
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}
	if req.DueAt != nil {
		t.DueAt = *req.DueAt
	}
	if req.TagIDs != nil {
		t.TagIDs = *req.TagIDs
	}
	if req.OperatorIDs != nil {
		t.OperatorIDs = *req.OperatorIDs
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if s.tracker != nil {
		s.tracker.Track(ctx, history.CommitterFromContext(ctx), t.ID, prev, Snapshot(t))
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toPayload(t)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "taskID")
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskDeleted, id, "", nil)
	}
	cerr.SetJSONResponse(ctx, map[string]any{"deleted": id})
}

type applyStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleApplyStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req applyStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	t, err := s.statuses.ApplyStatus(ctx, chi.URLParam(r, "taskID"), req.Status, history.CommitterFromContext(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskStatusChanged, t.ID, t.Status, map[string]string{"area_id": t.AreaID})
		if t.Status == "cancelled" {
			s.bus.PublishNew(eventbus.EventTaskCancelled, t.ID, t.Title, map[string]string{"area_id": t.AreaID})
		}
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toPayload(t)})
}
