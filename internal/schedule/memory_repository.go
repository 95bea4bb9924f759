package schedule

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository used by the package tests
// and the API tests. It mirrors the Postgres semantics, including the
// active-slot uniqueness the partial index enforces.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		byID:   make(map[int64]Appointment),
	}
}

func (r *MemoryRepository) snapshot(practitionerID int64, keep func(Appointment) bool) []Appointment {
	var result []Appointment
	for _, a := range r.byID {
		if a.PractitionerID == practitionerID && keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})
	return result
}

func (r *MemoryRepository) ListActive(ctx context.Context, practitionerID int64) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(practitionerID, func(a Appointment) bool {
		return !a.Completed
	}), nil
}

func (r *MemoryRepository) ListActiveBetween(ctx context.Context, practitionerID int64, from, to time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(practitionerID, func(a Appointment) bool {
		return !a.Completed && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to)
	}), nil
}

func (r *MemoryRepository) ListActiveBefore(ctx context.Context, practitionerID int64, t time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := r.snapshot(practitionerID, func(a Appointment) bool {
		return !a.Completed && a.ScheduledAt.Before(t)
	})
	// Newest first, matching the Postgres ordering for overdue listings.
	sort.Slice(result, func(i, j int) bool {
		return result[j].ScheduledAt.Before(result[i].ScheduledAt)
	})
	return result, nil
}

func (r *MemoryRepository) CountActive(ctx context.Context, practitionerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.snapshot(practitionerID, func(a Appointment) bool {
		return !a.Completed
	}))), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, practitionerID, id int64) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.PractitionerID != practitionerID {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) FindActiveAt(ctx context.Context, practitionerID int64, at time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findActiveAtLocked(practitionerID, at)
}

func (r *MemoryRepository) findActiveAtLocked(practitionerID int64, at time.Time) (*Appointment, error) {
	for _, a := range r.byID {
		if a.PractitionerID == practitionerID && !a.Completed && a.ScheduledAt.Equal(at) {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Create(ctx context.Context, practitionerID int64, appt Appointment) (*Appointment, error) {
	if appt.ScheduledAt.IsZero() || appt.TreatmentType == "" {
		return nil, ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.findActiveAtLocked(practitionerID, appt.ScheduledAt); err == nil {
		return nil, ErrSlotOccupied
	}

	now := time.Now().UTC()
	appt.ID = r.nextID
	appt.PractitionerID = practitionerID
	appt.Completed = false
	appt.CreatedAt = now
	appt.UpdatedAt = now
	r.nextID++
	r.byID[appt.ID] = appt
	return &appt, nil
}

func (r *MemoryRepository) Update(ctx context.Context, practitionerID, id int64, patch Patch) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.PractitionerID != practitionerID {
		return nil, ErrNotFound
	}

	if patch.ScheduledAt != nil && !a.Completed {
		if other, err := r.findActiveAtLocked(practitionerID, *patch.ScheduledAt); err == nil && other.ID != id {
			return nil, ErrSlotOccupied
		}
	}

	if patch.PatientName != nil {
		a.PatientName = *patch.PatientName
	}
	if patch.PatientDNI != nil {
		a.PatientDNI = *patch.PatientDNI
	}
	if patch.TreatmentType != nil {
		a.TreatmentType = *patch.TreatmentType
	}
	if patch.ScheduledAt != nil {
		a.ScheduledAt = *patch.ScheduledAt
	}
	a.UpdatedAt = time.Now().UTC()
	r.byID[id] = a
	return &a, nil
}

func (r *MemoryRepository) MarkCompleted(ctx context.Context, practitionerID, id int64) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.PractitionerID != practitionerID {
		return nil, ErrNotFound
	}
	a.Completed = true
	a.UpdatedAt = time.Now().UTC()
	r.byID[id] = a
	return &a, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, practitionerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.PractitionerID != practitionerID {
		return ErrNotFound
	}
	delete(r.byID, a.ID)
	return nil
}
