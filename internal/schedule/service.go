package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	redisclient "github.com/JoaquinFreire/odontologiafinal/internal/redis"
)

// Service is the appointment lifecycle controller. Every operation is a
// single atomic store call; failures propagate typed, never retried.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	clock  *Clock
	cal    *Calendar
	log    *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, clock *Clock, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		clock:  clock,
		cal:    NewCalendar(clock),
		log:    log,
	}
}

func (s *Service) Clock() *Clock       { return s.clock }
func (s *Service) Calendar() *Calendar { return s.cal }

// validateDraft normalizes the user-entered fields in place and resolves
// the effective treatment type ("Otro" stores its free-text description).
func validateDraft(d *Draft) error {
	d.PatientName = NormalizePatientName(d.PatientName)
	if d.PatientName == "" {
		return fmt.Errorf("%w: patient name is required", ErrValidation)
	}
	if !ValidDNI(d.PatientDNI) {
		return fmt.Errorf("%w: dni must contain digits only", ErrValidation)
	}
	if d.TreatmentType == "" {
		return fmt.Errorf("%w: treatment type is required", ErrValidation)
	}
	if !KnownTreatmentType(d.TreatmentType) {
		return fmt.Errorf("%w: unknown treatment type %q", ErrValidation, d.TreatmentType)
	}
	if d.TreatmentType == TreatmentOther && d.OtherDescription == "" {
		return fmt.Errorf("%w: description is required for treatment type %q", ErrValidation, TreatmentOther)
	}
	return nil
}

func (d Draft) effectiveType() string {
	if d.TreatmentType == TreatmentOther {
		return d.OtherDescription
	}
	return d.TreatmentType
}

// slotInstant validates a slot against the grid and resolves it to the
// stored UTC instant.
func (s *Service) slotInstant(slot Slot) (time.Time, error) {
	if !ValidSlotTime(slot.Time) {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid slot time", ErrValidation, slot.Time)
	}
	at, err := s.clock.SlotInstant(slot.Date, slot.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return at, nil
}

// Schedule books a new appointment into slot. The destination date must
// not be strictly before today, and the slot must be free of active
// appointments for this practitioner.
func (s *Service) Schedule(ctx context.Context, practitionerID int64, slot Slot, draft Draft) (*Appointment, error) {
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	at, err := s.slotInstant(slot)
	if err != nil {
		return nil, err
	}
	if at.Before(s.clock.StartOfToday()) {
		return nil, ErrPastDate
	}

	var created *Appointment

	err = s.withSlot(ctx, practitionerID, slot, func(lockCtx context.Context) error {
		// Inside the critical section re-check that the slot is free.
		if _, err := s.repo.FindActiveAt(lockCtx, practitionerID, at); err == nil {
			return ErrSlotOccupied
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check slot occupancy: %w", err)
		}

		appt, err := s.repo.Create(lockCtx, practitionerID, Appointment{
			PatientName:   draft.PatientName,
			PatientDNI:    draft.PatientDNI,
			TreatmentType: draft.effectiveType(),
			ScheduledAt:   at,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment scheduled",
		zap.Int64("practitioner_id", practitionerID),
		zap.Int64("appointment_id", created.ID),
		zap.String("slot", slot.Key()),
	)
	return created, nil
}

// Reschedule moves an existing appointment to newSlot. Only the
// destination is checked against the past-date rule; the appointment's
// original, possibly elapsed, time is irrelevant.
func (s *Service) Reschedule(ctx context.Context, practitionerID, id int64, newSlot Slot) (*Appointment, error) {
	at, err := s.slotInstant(newSlot)
	if err != nil {
		return nil, err
	}
	if at.Before(s.clock.StartOfToday()) {
		return nil, ErrPastDate
	}

	var moved *Appointment

	err = s.withSlot(ctx, practitionerID, newSlot, func(lockCtx context.Context) error {
		if existing, err := s.repo.FindActiveAt(lockCtx, practitionerID, at); err == nil {
			if existing.ID != id {
				return ErrSlotOccupied
			}
			// Rescheduling onto its own slot is a no-op move.
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check slot occupancy: %w", err)
		}

		appt, err := s.repo.Update(lockCtx, practitionerID, id, Patch{ScheduledAt: &at})
		if err != nil {
			return err
		}
		moved = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment rescheduled",
		zap.Int64("practitioner_id", practitionerID),
		zap.Int64("appointment_id", id),
		zap.String("slot", newSlot.Key()),
	)
	return moved, nil
}

// Edit updates the editable fields of an appointment. A nil slot leaves
// the time untouched; a non-nil slot goes through the reschedule rules.
func (s *Service) Edit(ctx context.Context, practitionerID, id int64, patch Patch, newSlot *Slot) (*Appointment, error) {
	if patch.PatientName != nil {
		name := NormalizePatientName(*patch.PatientName)
		if name == "" {
			return nil, fmt.Errorf("%w: patient name cannot be empty", ErrValidation)
		}
		patch.PatientName = &name
	}
	if patch.PatientDNI != nil && !ValidDNI(*patch.PatientDNI) {
		return nil, fmt.Errorf("%w: dni must contain digits only", ErrValidation)
	}
	if patch.TreatmentType != nil && *patch.TreatmentType == "" {
		return nil, fmt.Errorf("%w: treatment type cannot be empty", ErrValidation)
	}

	if newSlot == nil {
		return s.repo.Update(ctx, practitionerID, id, patch)
	}

	at, err := s.slotInstant(*newSlot)
	if err != nil {
		return nil, err
	}
	if at.Before(s.clock.StartOfToday()) {
		return nil, ErrPastDate
	}
	patch.ScheduledAt = &at

	var updated *Appointment
	err = s.withSlot(ctx, practitionerID, *newSlot, func(lockCtx context.Context) error {
		if existing, err := s.repo.FindActiveAt(lockCtx, practitionerID, at); err == nil {
			if existing.ID != id {
				return ErrSlotOccupied
			}
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check slot occupancy: %w", err)
		}

		appt, err := s.repo.Update(lockCtx, practitionerID, id, patch)
		if err != nil {
			return err
		}
		updated = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete marks an appointment attended, removing it from the active
// schedule. Completing an already-completed appointment is a no-op
// success.
func (s *Service) Complete(ctx context.Context, practitionerID, id int64) (*Appointment, error) {
	appt, err := s.repo.MarkCompleted(ctx, practitionerID, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("appointment completed",
		zap.Int64("practitioner_id", practitionerID),
		zap.Int64("appointment_id", id),
	)
	return appt, nil
}

// Remove deletes an appointment. Confirmation is the caller's concern;
// once invoked the delete is unconditional.
func (s *Service) Remove(ctx context.Context, practitionerID, id int64) error {
	if err := s.repo.Delete(ctx, practitionerID, id); err != nil {
		return err
	}
	s.log.Info("appointment removed",
		zap.Int64("practitioner_id", practitionerID),
		zap.Int64("appointment_id", id),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, practitionerID, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, practitionerID, id)
}

func (s *Service) ListActive(ctx context.Context, practitionerID int64) ([]Appointment, error) {
	return s.repo.ListActive(ctx, practitionerID)
}

func (s *Service) ListToday(ctx context.Context, practitionerID int64) ([]Appointment, error) {
	return s.repo.ListActiveBetween(ctx, practitionerID, s.clock.StartOfToday(), s.clock.EndOfToday())
}

func (s *Service) ListOverdue(ctx context.Context, practitionerID int64) ([]Appointment, error) {
	return s.repo.ListActiveBefore(ctx, practitionerID, s.clock.StartOfToday())
}

func (s *Service) CountActive(ctx context.Context, practitionerID int64) (int64, error) {
	return s.repo.CountActive(ctx, practitionerID)
}

// Week loads the practitioner's active appointments and projects them
// onto the week containing anchor.
func (s *Service) Week(ctx context.Context, practitionerID int64, anchor time.Time) (*WeekGrid, error) {
	appts, err := s.repo.ListActive(ctx, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("load active appointments: %w", err)
	}
	return s.cal.BuildWeek(anchor, appts), nil
}

// withSlot serializes the critical section for one (practitioner, slot)
// cell and converts lock contention into ErrSlotBusy.
func (s *Service) withSlot(ctx context.Context, practitionerID int64, slot Slot, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("%d:%s", practitionerID, slot.Key())
	err := s.locker.WithSlotLock(ctx, key, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotBusy
	}
	return err
}
