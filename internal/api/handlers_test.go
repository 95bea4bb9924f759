package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoaquinFreire/odontologiafinal/internal/auth"
	"github.com/JoaquinFreire/odontologiafinal/internal/schedule"
)

type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserStore struct {
	user *auth.User
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, auth.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, auth.ErrUserNotFound
}

type testEnv struct {
	router http.Handler
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zap.NewNop()
	clock := schedule.NewClock(time.UTC)
	repo := schedule.NewMemoryRepository()
	svc := schedule.NewService(repo, passLocker{}, clock, log)

	hash, err := auth.HashPassword("demo1234")
	require.NoError(t, err)
	users := &fakeUserStore{user: &auth.User{
		ID:           7,
		Email:        "dra@clinica.test",
		FullName:     "Dra. Demo",
		PasswordHash: hash,
	}}

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(7, "dra@clinica.test")
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Service: svc,
		Users:   users,
		Issuer:  issuer,
		Env:     "test",
		Version: "test",
		Logger:  log,
	})

	return &testEnv{router: router, token: token}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// A date far enough ahead that the past-date rule never trips.
func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days+1).Format("2006-01-02")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "dra@clinica.test",
		Password: "demo1234",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	decodeInto(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(7), resp.User.ID)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "dra@clinica.test",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "nadie@clinica.test",
		Password: "demo1234",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAppointmentsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/appointments/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/appointments/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListAppointment(t *testing.T) {
	env := newTestEnv(t)
	date := futureDate(1)

	rec := env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
		PatientName:   "ana lopez",
		PatientDNI:    "12345678",
		TreatmentType: schedule.TreatmentConsultation,
		Date:          date,
		Time:          "10:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created AppointmentResponse
	decodeInto(t, rec, &created)
	assert.Equal(t, "Ana lopez", created.PatientName)
	assert.Equal(t, date, created.Date)
	assert.Equal(t, "10:00", created.Time)
	assert.False(t, created.Completed)

	rec = env.do(t, http.MethodGet, "/api/appointments/", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []AppointmentResponse
	decodeInto(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestCreateRejectsBadSlots(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
		PatientName:   "Ana",
		TreatmentType: schedule.TreatmentConsultation,
		Date:          futureDate(1),
		Time:          "07:30",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
		PatientName:   "Ana",
		TreatmentType: schedule.TreatmentConsultation,
		Date:          time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02"),
		Time:          "09:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
		PatientName: "Ana",
		Date:        futureDate(1),
		Time:        "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing treatment type")
}

func TestCreateConflict(t *testing.T) {
	env := newTestEnv(t)

	req := CreateAppointmentRequest{
		PatientName:   "Ana",
		TreatmentType: schedule.TreatmentConsultation,
		Date:          futureDate(1),
		Time:          "10:00",
	}

	rec := env.do(t, http.MethodPost, "/api/appointments/", env.token, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req.PatientName = "Benito"
	rec = env.do(t, http.MethodPost, "/api/appointments/", env.token, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "slot_occupied", resp.Error)
}

func TestUpdateMovesAppointment(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
		PatientName:   "Ana",
		TreatmentType: schedule.TreatmentConsultation,
		Date:          futureDate(1),
		Time:          "10:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created AppointmentResponse
	decodeInto(t, rec, &created)

	newDate := futureDate(2)
	newTime := "11:00"
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/appointments/%d", created.ID), env.token, UpdateAppointmentRequest{
		Date: &newDate,
		Time: &newTime,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var moved AppointmentResponse
	decodeInto(t, rec, &moved)
	assert.Equal(t, newDate, moved.Date)
	assert.Equal(t, newTime, moved.Time)

	// Date without time is rejected.
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/appointments/%d", created.ID), env.token, UpdateAppointmentRequest{
		Date: &newDate,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteAndDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
		PatientName:   "Ana",
		TreatmentType: schedule.TreatmentCleaning,
		Date:          futureDate(1),
		Time:          "12:30",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created AppointmentResponse
	decodeInto(t, rec, &created)

	path := fmt.Sprintf("/api/appointments/%d/complete", created.ID)
	rec = env.do(t, http.MethodPatch, path, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var done AppointmentResponse
	decodeInto(t, rec, &done)
	assert.True(t, done.Completed)

	// Completing again is still a success.
	rec = env.do(t, http.MethodPatch, path, env.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/appointments/%d", created.ID), env.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/appointments/%d", created.ID), env.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPendingTotal(t *testing.T) {
	env := newTestEnv(t)

	for i, slot := range []string{"09:00", "09:30"} {
		rec := env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
			PatientName:   fmt.Sprintf("paciente %d", i),
			TreatmentType: schedule.TreatmentConsultation,
			Date:          futureDate(1),
			Time:          slot,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/appointments/pending/total", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count CountResponse
	decodeInto(t, rec, &count)
	assert.Equal(t, int64(2), count.Total)
}

func TestWeekEndpoint(t *testing.T) {
	env := newTestEnv(t)
	date := futureDate(1)

	rec := env.do(t, http.MethodPost, "/api/appointments/", env.token, CreateAppointmentRequest{
		PatientName:   "Ana",
		TreatmentType: schedule.TreatmentConsultation,
		Date:          date,
		Time:          "10:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/appointments/week?anchor="+date, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var week WeekResponse
	decodeInto(t, rec, &week)
	require.Len(t, week.Days, 7)
	require.Len(t, week.Slots, 27)
	assert.Contains(t, week.Days, date)

	cell := week.Cells[schedule.SlotKey(date, "10:00")]
	require.Len(t, cell, 1)
	assert.Equal(t, "Ana", cell[0].PatientName)

	rec = env.do(t, http.MethodGet, "/api/appointments/week?anchor=banana", env.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
