package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hostelops/turnkey/internal/history"
)

// Snapshot field names shared by the task detectors.
const (
	FieldTitle       = "title"
	FieldNotes       = "notes"
	FieldStatus      = "status"
	FieldDueAt       = "due_at"
	FieldBookingID   = "booking_id"
	FieldRoomID      = "room_id"
	FieldTagIDs      = "tag_ids"
	FieldOperatorIDs = "operator_ids"
)

// HistoryContextAlias is the polymorphic context alias task change events
// are stored under.
const HistoryContextAlias = "task"

// Snapshot flattens a task into the before/after view the history detectors
// compare. A nil task yields an empty snapshot, which is how the insert
// detector recognizes a brand-new record.
func Snapshot(t *Task) history.Snapshot {
	if t == nil {
		return history.Snapshot{}
	}
	return history.Snapshot{
		FieldTitle:       t.Title,
		FieldNotes:       t.Notes,
		FieldStatus:      t.Status,
		FieldDueAt:       t.DueAt.Format(time.RFC3339),
		FieldBookingID:   t.BookingID,
		FieldRoomID:      t.RoomID,
		FieldTagIDs:      encodeIDs(t.TagIDs),
		FieldOperatorIDs: encodeIDs(t.OperatorIDs),
	}
}

func encodeIDs(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// NewHistoryTracker builds the task change tracker with the full detector
// set, in the order changes are reported. statusLabel renders status names
// for descriptions; it is injected to keep the dependency direction from the
// status machine to this package.
func NewHistoryTracker(repo history.Repository, operators history.OperatorResolver, statusLabel func(string) string, opts ...history.TrackerOption) *history.Tracker {
	detectors := []history.Detector{
		history.InsertDetector{Alias: "Task"},
		history.FieldDetector{Field: FieldTitle, Event: "title", Label: "Title", Icon: "pencil"},
		history.NewStatusDetector(statusLabel),
		history.DateDetector{Field: FieldDueAt, Event: "due_date", Label: "Due date", Icon: "calendar"},
		history.RefDetector{Field: FieldBookingID, Event: "booking", Label: "Booking", Icon: "bed"},
		history.RefDetector{Field: FieldRoomID, Event: "room", Label: "Room", Icon: "door"},
		history.SetDetector{Field: FieldTagIDs, Event: "tags", Label: "Tags", Icon: "tag"},
		history.SetDetector{
			Field: FieldOperatorIDs,
			Event: "operators",
			Label: "Operators",
			Icon:  "user",
			ItemName: func(ctx context.Context, id string) string {
				if operators == nil {
					return id
				}
				if name := operators.OperatorName(ctx, id); name != "" {
					return name
				}
				return id
			},
		},
		history.DiffDetector{Field: FieldNotes, Event: "notes", Label: "Notes", Icon: "note"},
	}
	opts = append([]history.TrackerOption{history.WithGuestSubstitution()}, opts...)
	return history.NewTracker(repo, HistoryContextAlias, detectors, opts...)
}
