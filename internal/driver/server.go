package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hostelops/turnkey/internal/booking"
	"github.com/hostelops/turnkey/internal/eventbus"
	"github.com/hostelops/turnkey/pkg/cerr"
)

// Server exposes the booking read model and its task lifecycle hooks. A
// lifecycle call fans out over every registered driver; drivers decide for
// themselves whether the booking concerns them.
type Server struct {
	bookings booking.Repository
	drivers  []*Driver
	bus      *eventbus.Bus
}

func NewServer(bookings booking.Repository, drivers []*Driver, bus *eventbus.Bus) *Server {
	return &Server{
		bookings: bookings,
		drivers:  drivers,
		bus:      bus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/drivers", s.handleSchemas)
	r.Get("/bookings", s.handleListBookings)
	r.Get("/bookings/{bookingID}", s.handleGetBooking)
	r.Put("/bookings/{bookingID}", s.handleUpsertBooking)
	r.Post("/bookings/{bookingID}/confirm", s.lifecycle((*Driver).ScheduleConfirmation, eventbus.EventBookingConfirmed))
	r.Post("/bookings/{bookingID}/alter", s.lifecycle((*Driver).ScheduleAlteration, eventbus.EventBookingConfirmed))
	r.Post("/bookings/{bookingID}/cancel", s.lifecycle((*Driver).ScheduleCancellation, eventbus.EventBookingCancelled))
}

type driverSchema struct {
	Area   string  `json:"area"`
	Params []Param `json:"params"`
}

func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schemas := make([]driverSchema, 0, len(s.drivers))
	for _, d := range s.drivers {
		schemas = append(schemas, driverSchema{Area: d.Area(), Params: d.Schema()})
	}
	cerr.SetJSONResponse(ctx, map[string]any{"drivers": schemas})
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"bookings": bookings})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := s.bookings.Get(ctx, chi.URLParam(r, "bookingID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"booking": b})
}

type upsertBookingRequest struct {
	RoomID      string    `json:"room_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Nights      int       `json:"nights"`
	Confirmed   bool      `json:"confirmed"`
	Cancelled   bool      `json:"cancelled"`
	Closure     bool      `json:"closure"`
	Overbooking bool      `json:"overbooking"`
	Altered     bool      `json:"altered"`
}

func (s *Server) handleUpsertBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if !req.Closure && !req.CheckOut.After(req.CheckIn) {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "check_out must be after check_in", nil)
		return
	}

	id := chi.URLParam(r, "bookingID")
	now := time.Now()

	b := &booking.Booking{
		ID:          id,
		RoomID:      req.RoomID,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Nights:      req.Nights,
		Confirmed:   req.Confirmed,
		Cancelled:   req.Cancelled,
		Closure:     req.Closure,
		Overbooking: req.Overbooking,
		Altered:     req.Altered,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prev, err := s.bookings.Get(ctx, id); err == nil {
		b.CreatedAt = prev.CreatedAt
		// Keep the pre-alteration snapshot until the alteration hook runs.
		if req.Altered && prev.Previous == nil {
			snapshot := *prev
			snapshot.Previous = nil
			b.Previous = &snapshot
		} else {
			b.Previous = prev.Previous
		}
	}

	if err := s.bookings.Upsert(ctx, b); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"booking": b})
}

type lifecycleFunc func(d *Driver, ctx context.Context, b *booking.Booking, col *Collector) error

func (s *Server) lifecycle(fn lifecycleFunc, eventType eventbus.EventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		b, err := s.bookings.Get(ctx, chi.URLParam(r, "bookingID"))
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}

		col := NewCollector()
		for _, d := range s.drivers {
			if err := fn(d, ctx, b, col); err != nil {
				cerr.SetJSONError(ctx, err)
				return
			}
		}

		// The alteration hook consumes the dirty markers.
		if b.Altered || b.Previous != nil {
			b.Altered = false
			b.Previous = nil
			b.UpdatedAt = time.Now()
			if err := s.bookings.Upsert(ctx, b); err != nil {
				cerr.SetJSONError(ctx, err)
				return
			}
		}

		if s.bus != nil {
			s.bus.PublishNew(eventType, b.ID, fmt.Sprintf("%d created, %d cancelled", len(col.Created), len(col.Cancelled)), map[string]string{
				"room_id": b.RoomID,
			})
		}

		cerr.SetJSONResponse(ctx, map[string]any{
			"created":   col.Created,
			"cancelled": col.Cancelled,
		})
	}
}
