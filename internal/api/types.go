package api

import (
	"time"

	"github.com/JoaquinFreire/odontologiafinal/internal/schedule"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type CreateAppointmentRequest struct {
	PatientName      string `json:"patient_name"`
	PatientDNI       string `json:"patient_dni,omitempty"`
	TreatmentType    string `json:"treatment_type"`
	OtherDescription string `json:"other_description,omitempty"`
	Date             string `json:"date"` // "YYYY-MM-DD" in clinic time
	Time             string `json:"time"` // "HH:MM", one of the grid slots
}

type UpdateAppointmentRequest struct {
	PatientName   *string `json:"patient_name,omitempty"`
	PatientDNI    *string `json:"patient_dni,omitempty"`
	TreatmentType *string `json:"treatment_type,omitempty"`
	Date          *string `json:"date,omitempty"`
	Time          *string `json:"time,omitempty"`
}

type AppointmentResponse struct {
	ID            int64     `json:"id"`
	PatientName   string    `json:"patient_name"`
	PatientDNI    string    `json:"patient_dni,omitempty"`
	TreatmentType string    `json:"treatment_type"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Completed     bool      `json:"completed"`
	Status        string    `json:"status"`
}

type WeekResponse struct {
	Days  []string                         `json:"days"`
	Slots []string                         `json:"slots"`
	Cells map[string][]AppointmentResponse `json:"cells"`
}

type CountResponse struct {
	Total int64 `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a schedule.Appointment, cal *schedule.Calendar, clock *schedule.Clock, now time.Time) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		PatientName:   a.PatientName,
		PatientDNI:    a.PatientDNI,
		TreatmentType: a.TreatmentType,
		ScheduledAt:   a.ScheduledAt,
		Date:          clock.LocalDateKey(a.ScheduledAt),
		Time:          clock.LocalTimeKey(a.ScheduledAt),
		Completed:     a.Completed,
		Status:        string(cal.Classify(a, now)),
	}
}
