package history

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hostelops/turnkey/pkg/cerr"
)

// TrackerFactory builds a tracker writing to the given repository. The
// preview endpoint uses it to run the real detector chain against an
// in-memory sink.
type TrackerFactory func(repo Repository) *Tracker

type Server struct {
	repo       Repository
	newTracker TrackerFactory
	newPreview func() PreviewRepository
}

// PreviewRepository is a Repository whose events can be read back directly.
type PreviewRepository interface {
	Repository
	All() []*Event
}

func NewServer(repo Repository, newTracker TrackerFactory, newPreview func() PreviewRepository) *Server {
	return &Server{
		repo:       repo,
		newTracker: newTracker,
		newPreview: newPreview,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/history/{contextAlias}/{contextID}", s.handleList)
	r.Post("/history/preview", s.handlePreview)
}

type eventPayload struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Committer    Committer       `json:"committer"`
	ContextAlias string          `json:"context_alias"`
	ContextID    string          `json:"context_id"`
	Changes      []changePayload `json:"changes"`
}

type changePayload struct {
	Event       string `json:"event"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

func toEventPayload(ev *Event) eventPayload {
	changes := make([]changePayload, 0, len(ev.Changes))
	for _, c := range ev.Changes {
		changes = append(changes, changePayload{
			Event:       c.Event,
			Description: c.Description,
			Icon:        c.Icon,
		})
	}
	return eventPayload{
		ID:           ev.ID,
		CreatedAt:    ev.CreatedAt,
		Committer:    ev.Committer,
		ContextAlias: ev.ContextAlias,
		ContextID:    ev.ContextID,
		Changes:      changes,
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := s.repo.List(ctx, chi.URLParam(r, "contextAlias"), chi.URLParam(r, "contextID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	payloads := make([]eventPayload, 0, len(events))
	for _, ev := range events {
		payloads = append(payloads, toEventPayload(ev))
	}
	cerr.SetJSONResponse(ctx, map[string]any{"events": payloads})
}

type previewRequest struct {
	ContextID string   `json:"context_id"`
	Prev      Snapshot `json:"prev"`
	Curr      Snapshot `json:"curr"`
}

// handlePreview runs the detector chain against the submitted snapshot pair
// without touching durable storage and returns the event that would have been
// recorded, if any.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	sink := s.newPreview()
	tracker := s.newTracker(sink)
	recorded := tracker.Track(ctx, CommitterFromContext(ctx), req.ContextID, req.Prev, req.Curr)
	if !recorded {
		cerr.SetJSONResponse(ctx, map[string]any{"recorded": false})
		return
	}

	events := sink.All()
	if len(events) == 0 {
		// Track reported a recording but the save was swallowed.
		cerr.SetJSONResponse(ctx, map[string]any{"recorded": false})
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"recorded": true,
		"event":    toEventPayload(events[0]),
	})
}
