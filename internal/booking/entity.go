package booking

import (
	"time"

	"github.com/hostelops/turnkey/internal/schedule"
)

// Booking is the read model the scheduling core works from. It is owned by
// the upstream reservation system; this service never mutates stay data,
// only reads it to derive tasks.
type Booking struct {
	ID       string    `yaml:"id" json:"id"`
	RoomID   string    `yaml:"room_id" json:"room_id"`
	CheckIn  time.Time `yaml:"check_in" json:"check_in"`
	CheckOut time.Time `yaml:"check_out" json:"check_out"`
	Nights   int       `yaml:"nights" json:"nights"`

	Confirmed   bool `yaml:"confirmed" json:"confirmed"`
	Cancelled   bool `yaml:"cancelled" json:"cancelled"`
	Closure     bool `yaml:"closure" json:"closure"`
	Overbooking bool `yaml:"overbooking" json:"overbooking"`

	// Altered is set by the upstream dirty check when a confirmed booking
	// changed stay dates or room. Previous carries the pre-alteration
	// snapshot while the alteration is in flight.
	Altered  bool     `yaml:"altered" json:"altered"`
	Previous *Booking `yaml:"previous,omitempty" json:"previous,omitempty"`

	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// TotalNights returns the declared night count, deriving it from the stay
// dates when the upstream system did not provide one.
func (b *Booking) TotalNights() int {
	if b.Nights > 0 {
		return b.Nights
	}
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Stay converts the booking into the scheduler's stay view.
func (b *Booking) Stay() schedule.Stay {
	return schedule.Stay{
		CheckIn:  b.CheckIn,
		CheckOut: b.CheckOut,
		Nights:   b.TotalNights(),
	}
}

// Schedulable reports whether confirmation hooks should create tasks for
// this booking: a real confirmed reservation, not a closure block, not an
// overbooking, not cancelled.
func (b *Booking) Schedulable() bool {
	return b.Confirmed && !b.Cancelled && !b.Closure && !b.Overbooking
}
