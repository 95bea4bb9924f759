package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoaquinFreire/odontologiafinal/internal/auth"
	"github.com/JoaquinFreire/odontologiafinal/internal/schedule"
)

func loginHandler(users auth.UserStore, issuer *auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
			return
		}

		user, err := users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if err := user.CheckPassword(req.Password); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}

		token, err := issuer.Issue(user.ID, user.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token: token,
			User: UserResponse{
				ID:       user.ID,
				Email:    user.Email,
				FullName: user.FullName,
			},
		})
	}
}

func practitionerFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.PractitionerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing practitioner identity")
	}
	return id, ok
}

func appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func listHandler(svc *schedule.Service, list func(*schedule.Service, *http.Request, int64) ([]schedule.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}

		appts, err := list(svc, r, practitionerID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		now := svc.Clock().Now()
		resp := make([]AppointmentResponse, 0, len(appts))
		for _, a := range appts {
			resp = append(resp, toAppointmentResponse(a, svc.Calendar(), svc.Clock(), now))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listActiveHandler(svc *schedule.Service) http.HandlerFunc {
	return listHandler(svc, func(s *schedule.Service, r *http.Request, pid int64) ([]schedule.Appointment, error) {
		return s.ListActive(r.Context(), pid)
	})
}

func listTodayHandler(svc *schedule.Service) http.HandlerFunc {
	return listHandler(svc, func(s *schedule.Service, r *http.Request, pid int64) ([]schedule.Appointment, error) {
		return s.ListToday(r.Context(), pid)
	})
}

func listOverdueHandler(svc *schedule.Service) http.HandlerFunc {
	return listHandler(svc, func(s *schedule.Service, r *http.Request, pid int64) ([]schedule.Appointment, error) {
		return s.ListOverdue(r.Context(), pid)
	})
}

func countActiveHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}

		total, err := svc.CountActive(r.Context(), practitionerID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CountResponse{Total: total})
	}
}

func weekHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}

		anchor := svc.Calendar().Navigate(time.Time{}, schedule.DirectionToday)
		if raw := r.URL.Query().Get("anchor"); raw != "" {
			parsed, err := svc.Clock().LocalDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_anchor", "anchor must be YYYY-MM-DD")
				return
			}
			anchor = parsed
		}

		grid, err := svc.Week(r.Context(), practitionerID, anchor)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		now := svc.Clock().Now()
		resp := WeekResponse{
			Days:  make([]string, 0, len(grid.Days)),
			Slots: grid.Slots,
			Cells: make(map[string][]AppointmentResponse, len(grid.Cells)),
		}
		for _, day := range grid.Days {
			resp.Days = append(resp.Days, day.Format("2006-01-02"))
		}
		for key, appts := range grid.Cells {
			cell := make([]AppointmentResponse, 0, len(appts))
			for _, a := range appts {
				cell = append(cell, toAppointmentResponse(a, svc.Calendar(), svc.Clock(), now))
			}
			resp.Cells[key] = cell
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), practitionerID, id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, svc.Calendar(), svc.Clock(), svc.Clock().Now()))
	}
}

func createAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Schedule(r.Context(), practitionerID,
			schedule.Slot{Date: req.Date, Time: req.Time},
			schedule.Draft{
				PatientName:      req.PatientName,
				PatientDNI:       req.PatientDNI,
				TreatmentType:    req.TreatmentType,
				OtherDescription: req.OtherDescription,
			})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt, svc.Calendar(), svc.Clock(), svc.Clock().Now()))
	}
}

func updateAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		// Date and time travel together: moving an appointment always
		// names a full destination slot.
		var newSlot *schedule.Slot
		if req.Date != nil || req.Time != nil {
			if req.Date == nil || req.Time == nil {
				writeError(w, http.StatusBadRequest, "invalid_slot", "date and time must be provided together")
				return
			}
			newSlot = &schedule.Slot{Date: *req.Date, Time: *req.Time}
		}

		appt, err := svc.Edit(r.Context(), practitionerID, id, schedule.Patch{
			PatientName:   req.PatientName,
			PatientDNI:    req.PatientDNI,
			TreatmentType: req.TreatmentType,
		}, newSlot)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, svc.Calendar(), svc.Clock(), svc.Clock().Now()))
	}
}

func completeAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Complete(r.Context(), practitionerID, id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, svc.Calendar(), svc.Clock(), svc.Clock().Now()))
	}
}

func deleteAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := practitionerFrom(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		if err := svc.Remove(r.Context(), practitionerID, id); err != nil {
			handleScheduleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, schedule.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotOccupied):
		writeError(w, http.StatusConflict, "slot_occupied", err.Error())
	case errors.Is(err, schedule.ErrSlotBusy):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
