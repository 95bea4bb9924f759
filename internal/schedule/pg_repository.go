package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const apptColumns = `id, practitioner_id, patient_name, patient_dni, treatment_type, scheduled_at, completed, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var dni *string

	err := row.Scan(
		&a.ID,
		&a.PractitionerID,
		&a.PatientName,
		&dni,
		&a.TreatmentType,
		&a.ScheduledAt,
		&a.Completed,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if dni != nil {
		a.PatientDNI = *dni
	}
	a.ScheduledAt = a.ScheduledAt.UTC()
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// isUniqueViolation matches the partial unique index on
// (practitioner_id, scheduled_at) WHERE NOT completed.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullableDNI(dni string) *string {
	if dni == "" {
		return nil
	}
	return &dni
}

func (r *PgRepository) ListActive(ctx context.Context, practitionerID int64) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE practitioner_id = $1 AND NOT completed
		ORDER BY scheduled_at ASC
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListActiveBetween(ctx context.Context, practitionerID int64, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE practitioner_id = $1 AND NOT completed
		  AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at ASC
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListActiveBefore(ctx context.Context, practitionerID int64, t time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE practitioner_id = $1 AND NOT completed
		  AND scheduled_at < $2
		ORDER BY scheduled_at DESC
	`, practitionerID, t)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CountActive(ctx context.Context, practitionerID int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE practitioner_id = $1 AND NOT completed
	`, practitionerID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PgRepository) GetByID(ctx context.Context, practitionerID, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1 AND practitioner_id = $2
	`, id, practitionerID)
	return scanAppointment(row)
}

func (r *PgRepository) FindActiveAt(ctx context.Context, practitionerID int64, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE practitioner_id = $1 AND scheduled_at = $2 AND NOT completed
		LIMIT 1
	`, practitionerID, at)
	return scanAppointment(row)
}

func (r *PgRepository) Create(ctx context.Context, practitionerID int64, appt Appointment) (*Appointment, error) {
	if appt.ScheduledAt.IsZero() || appt.TreatmentType == "" {
		return nil, fmt.Errorf("%w: scheduled_at and treatment_type are required", ErrValidation)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (practitioner_id, patient_name, patient_dni, treatment_type, scheduled_at, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, now(), now())
		RETURNING `+apptColumns+`
	`, practitionerID, appt.PatientName, nullableDNI(appt.PatientDNI), appt.TreatmentType, appt.ScheduledAt)

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotOccupied
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, practitionerID, id int64, patch Patch) (*Appointment, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id, practitionerID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.PatientName != nil {
		addSet("patient_name", *patch.PatientName)
	}
	if patch.PatientDNI != nil {
		addSet("patient_dni", nullableDNI(*patch.PatientDNI))
	}
	if patch.TreatmentType != nil {
		addSet("treatment_type", *patch.TreatmentType)
	}
	if patch.ScheduledAt != nil {
		addSet("scheduled_at", *patch.ScheduledAt)
	}

	if len(sets) == 1 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND practitioner_id = $2
		RETURNING `+apptColumns,
		args...)

	updated, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotOccupied
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) MarkCompleted(ctx context.Context, practitionerID, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET completed = TRUE,
		    updated_at = now()
		WHERE id = $1 AND practitioner_id = $2
		RETURNING `+apptColumns,
		id, practitionerID)
	return scanAppointment(row)
}

func (r *PgRepository) Delete(ctx context.Context, practitionerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1 AND practitioner_id = $2
	`, id, practitionerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
