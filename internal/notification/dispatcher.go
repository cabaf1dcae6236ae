package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hostelops/turnkey/internal/eventbus"
	"github.com/hostelops/turnkey/internal/task"
)

// Dispatcher forwards selected bus events to push subscribers.
type Dispatcher struct {
	eventBus *eventbus.Bus
	taskRepo task.Repository
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, taskRepo task.Repository, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		taskRepo: taskRepo,
		sender:   sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			switch event.Type {
			case eventbus.EventTaskCreated:
				d.handleTaskCreated(ctx, event)
			case eventbus.EventTaskStatusChanged:
				d.handleStatusChanged(ctx, event)
			case eventbus.EventTaskCancelled:
				d.handleTaskCancelled(ctx, event)
			case eventbus.EventBookingConfirmed:
				d.handleBooking(ctx, event, "Booking confirmed")
			case eventbus.EventBookingCancelled:
				d.handleBooking(ctx, event, "Booking cancelled")
			}
		}
	}
}

func (d *Dispatcher) handleTaskCreated(ctx context.Context, event *eventbus.Event) {
	// Only manually created tasks are worth a push; the sweep can create
	// dozens at once and would drown subscribers.
	if event.Metadata["origin"] == "schedule" {
		return
	}

	t, err := d.taskRepo.Get(ctx, event.ResourceID)
	if err != nil {
		slog.Error("notification dispatcher: failed to get task", "id", event.ResourceID, "error", err)
		return
	}

	d.sender.SendToAll(ctx, &Payload{
		Title: "New task",
		Body:  t.Title,
		URL:   fmt.Sprintf("/tasks/%s", t.ID),
		Tag:   t.ID,
	})
}

func (d *Dispatcher) handleStatusChanged(ctx context.Context, event *eventbus.Event) {
	// A cancellation raises its own event; one push is enough.
	if event.Payload == "cancelled" {
		return
	}

	t, err := d.taskRepo.Get(ctx, event.ResourceID)
	if err != nil {
		slog.Error("notification dispatcher: failed to get task", "id", event.ResourceID, "error", err)
		return
	}

	d.sender.SendToAll(ctx, &Payload{
		Title: "Task status changed",
		Body:  fmt.Sprintf("%s is now %s", t.Title, event.Payload),
		URL:   fmt.Sprintf("/tasks/%s", t.ID),
		Tag:   t.ID,
	})
}

func (d *Dispatcher) handleTaskCancelled(ctx context.Context, event *eventbus.Event) {
	d.sender.SendToAll(ctx, &Payload{
		Title: "Task cancelled",
		Body:  event.Payload,
		URL:   fmt.Sprintf("/tasks/%s", event.ResourceID),
		Tag:   event.ResourceID,
	})
}

func (d *Dispatcher) handleBooking(ctx context.Context, event *eventbus.Event, title string) {
	d.sender.SendToAll(ctx, &Payload{
		Title: title,
		Body:  fmt.Sprintf("%s: %s", event.ResourceID, event.Payload),
		URL:   fmt.Sprintf("/bookings/%s", event.ResourceID),
		Tag:   event.ResourceID,
	})
}
