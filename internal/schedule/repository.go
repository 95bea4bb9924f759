package schedule

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("appointment not found")
	ErrValidation   = errors.New("invalid appointment data")
	ErrPastDate     = errors.New("slot date already elapsed")
	ErrSlotOccupied = errors.New("slot already has an active appointment")
	ErrSlotBusy     = errors.New("slot is currently being booked, please retry")
)

// Repository is the persistence boundary for appointments. Every method
// takes the practitioner ID as a mandatory filter; no record is visible
// or mutable across practitioners.
type Repository interface {
	// ListActive returns all non-completed appointments, ordered by time.
	ListActive(ctx context.Context, practitionerID int64) ([]Appointment, error)
	// ListActiveBetween returns active appointments with from <= scheduled_at < to.
	ListActiveBetween(ctx context.Context, practitionerID int64, from, to time.Time) ([]Appointment, error)
	// ListActiveBefore returns active appointments scheduled strictly before t,
	// newest first.
	ListActiveBefore(ctx context.Context, practitionerID int64, t time.Time) ([]Appointment, error)
	CountActive(ctx context.Context, practitionerID int64) (int64, error)

	GetByID(ctx context.Context, practitionerID, id int64) (*Appointment, error)
	// FindActiveAt is the slot-collision probe. Returns ErrNotFound when the
	// slot is free.
	FindActiveAt(ctx context.Context, practitionerID int64, at time.Time) (*Appointment, error)

	Create(ctx context.Context, practitionerID int64, appt Appointment) (*Appointment, error)
	Update(ctx context.Context, practitionerID, id int64, patch Patch) (*Appointment, error)
	// MarkCompleted sets completed = true. Completing an already-completed
	// appointment succeeds and returns the unchanged record.
	MarkCompleted(ctx context.Context, practitionerID, id int64) (*Appointment, error)
	Delete(ctx context.Context, practitionerID, id int64) error
}
