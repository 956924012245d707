package medical

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisched/booking-api/internal/model"
	appointmentService "github.com/medisched/booking-api/internal/service/appointment"
	"github.com/medisched/booking-api/internal/service/event"
	"github.com/medisched/booking-api/internal/service/notification"
	scheduleService "github.com/medisched/booking-api/internal/service/schedule"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/security"
)

// clinicState is one locked in-memory clinic exposed through the three
// repository interfaces, so the full authoring -> booking -> completion
// -> record chain runs against shared slot and appointment state.
type clinicState struct {
	mu           sync.Mutex
	schedules    map[uuid.UUID]*model.WeeklySchedule
	appointments map[uuid.UUID]*model.Appointment
	records      map[uuid.UUID]*model.MedicalHistory
}

func newClinicState() *clinicState {
	return &clinicState{
		schedules:    make(map[uuid.UUID]*model.WeeklySchedule),
		appointments: make(map[uuid.UUID]*model.Appointment),
		records:      make(map[uuid.UUID]*model.MedicalHistory),
	}
}

func (s *clinicState) findSlotLocked(id uuid.UUID) *model.TimeSlot {
	for _, sched := range s.schedules {
		for _, day := range sched.Days {
			for i := range day.Slots {
				if day.Slots[i].ID == id {
					return &day.Slots[i]
				}
			}
		}
	}
	return nil
}

type scheduleStore struct{ s *clinicState }

func (r scheduleStore) Create(_ context.Context, schedule *model.WeeklySchedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.schedules {
		if existing.DoctorID == schedule.DoctorID && existing.WeekStartDate.Equal(schedule.WeekStartDate) {
			return apperrors.Conflict("a schedule already exists for this doctor and week", nil)
		}
	}
	schedule.ID = uuid.New()
	for _, day := range schedule.Days {
		day.ID = uuid.New()
		day.ScheduleID = schedule.ID
		for i := range day.Slots {
			day.Slots[i].ID = uuid.New()
			day.Slots[i].DayID = day.ID
		}
	}
	r.s.schedules[schedule.ID] = schedule
	return nil
}

func (r scheduleStore) Get(_ context.Context, id uuid.UUID) (*model.WeeklySchedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sched, ok := r.s.schedules[id]
	if !ok {
		return nil, apperrors.NotFound("schedule", nil)
	}
	return sched, nil
}

func (r scheduleStore) GetByDoctorWeek(context.Context, uuid.UUID, time.Time) (*model.WeeklySchedule, error) {
	return nil, apperrors.NotFound("schedule", nil)
}
func (r scheduleStore) Update(context.Context, *model.WeeklySchedule) error { return nil }
func (r scheduleStore) Delete(context.Context, uuid.UUID) (int64, error)   { return 0, nil }
func (r scheduleStore) ListByWeek(context.Context, time.Time, *uuid.UUID) ([]*model.WeeklySchedule, error) {
	return nil, nil
}
func (r scheduleStore) ListByMonth(context.Context, int, time.Month, *time.Location) ([]*model.WeeklySchedule, error) {
	return nil, nil
}
func (r scheduleStore) Search(context.Context, string) ([]*model.WeeklySchedule, error) {
	return nil, nil
}

func (r scheduleStore) FindSlot(_ context.Context, doctorID uuid.UUID, date time.Time, timeRange string) (*model.TimeSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sched := range r.s.schedules {
		if sched.DoctorID != doctorID {
			continue
		}
		for _, day := range sched.Days {
			if !day.Date.Equal(date) {
				continue
			}
			for i := range day.Slots {
				if day.Slots[i].Time == timeRange {
					out := day.Slots[i]
					return &out, nil
				}
			}
		}
	}
	return nil, apperrors.NotFound("time slot", nil)
}

func (r scheduleStore) GetSlot(_ context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot := r.s.findSlotLocked(id)
	if slot == nil {
		return nil, apperrors.NotFound("time slot", nil)
	}
	out := *slot
	return &out, nil
}

func (r scheduleStore) SetSlotAvailability(_ context.Context, id uuid.UUID, available bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot := r.s.findSlotLocked(id)
	if slot == nil {
		return apperrors.NotFound("time slot", nil)
	}
	slot.IsAvailable = available
	return nil
}

type appointmentStore struct{ s *clinicState }

func (r appointmentStore) Book(_ context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot := r.s.findSlotLocked(appointment.SlotID)
	if slot == nil {
		return apperrors.NotFound("time slot", nil)
	}
	if slot.IsBooked || !slot.IsAvailable {
		return apperrors.Conflict("this time range is no longer available", nil)
	}
	slot.IsBooked = true
	patientID := appointment.PatientID
	slot.PatientID = &patientID

	appointment.ID = uuid.New()
	appointment.Status = model.AppointmentStatusPending
	stored := *appointment
	r.s.appointments[appointment.ID] = &stored
	return nil
}

func (r appointmentStore) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	out := *a
	out.Status = model.NormalizeStatus(out.Status)
	return &out, nil
}

func (r appointmentStore) Transition(_ context.Context, id uuid.UUID, to model.AppointmentStatus, note *string) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if a.Status != model.AppointmentStatusPending {
		return nil, apperrors.InvalidTransition("appointment is already " + string(a.Status))
	}
	a.Status = to
	if note != nil {
		a.Notes = *note
	}
	if to == model.AppointmentStatusCancelled {
		if slot := r.s.findSlotLocked(a.SlotID); slot != nil {
			slot.IsBooked = false
			slot.PatientID = nil
		}
	}
	out := *a
	return &out, nil
}

func (r appointmentStore) Delete(context.Context, uuid.UUID) error { return nil }
func (r appointmentStore) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (r appointmentStore) CountByStatus(context.Context, *uuid.UUID) (*model.AppointmentStats, error) {
	return nil, nil
}

type recordStore struct{ s *clinicState }

func (r recordStore) Create(_ context.Context, record *model.MedicalHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.records {
		if existing.AppointmentID == record.AppointmentID {
			return apperrors.Duplicate("a medical history already exists for this appointment")
		}
	}
	record.ID = uuid.New()
	stored := *record
	r.s.records[record.ID] = &stored
	if a, ok := r.s.appointments[record.AppointmentID]; ok {
		a.HasMedicalHistory = true
	}
	return nil
}

func (r recordStore) Get(_ context.Context, id uuid.UUID) (*model.MedicalHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return nil, apperrors.NotFound("medical history", nil)
	}
	out := *rec
	return &out, nil
}

func (r recordStore) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.MedicalHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.records {
		if rec.AppointmentID == appointmentID {
			out := *rec
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("medical history", nil)
}

func (r recordStore) Update(context.Context, *model.MedicalHistory) error { return nil }
func (r recordStore) Delete(context.Context, uuid.UUID) error             { return nil }
func (r recordStore) ListByPatient(context.Context, uuid.UUID) ([]*model.MedicalHistory, error) {
	return nil, nil
}

// TestFullBookingLifecycle walks the whole chain: author a week, book
// a slot, complete the appointment with a note, attach the single
// medical record, and verify the duplicate is rejected.
func TestFullBookingLifecycle(t *testing.T) {
	state := newClinicState()
	log := logger.New(nil)
	events := event.NewService(&fakeOutboxRepo{}, log)
	encryptor, err := security.NewAESEncryptor([]byte(testKey))
	require.NoError(t, err)

	schedules := scheduleService.NewService(scheduleStore{state}, events, time.UTC, log, nil)
	appointments := appointmentService.NewService(appointmentStore{state}, scheduleStore{state}, events, notification.Noop{}, time.UTC, log, nil)
	records := NewService(recordStore{state}, appointmentStore{state}, encryptor, events, log)

	ctx := context.Background()
	doctorID := uuid.New()
	patientID := uuid.New()

	days := make([]model.DayEntry, 0, model.DaysPerWeek)
	for i, label := range model.Weekdays {
		entry := model.DayEntry{Day: label}
		if i == 0 {
			entry.IsAvailable = true
			entry.TimeSlots = []string{"09:00-10:00", "10:00-11:00"}
		}
		days = append(days, entry)
	}

	created, err := schedules.Create(ctx, &model.CreateScheduleRequest{
		DoctorID:      doctorID,
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          days,
	})
	require.NoError(t, err)
	require.Len(t, created.Days[0].Slots, 2)

	booked, err := appointments.Book(ctx, &model.BookAppointmentRequest{
		DoctorID:        doctorID,
		PatientID:       patientID,
		AppointmentDate: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		Timeslot:        "09:00-10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, booked.Status)

	// The booked slot is gone for the next patient.
	_, err = appointments.Book(ctx, &model.BookAppointmentRequest{
		DoctorID:        doctorID,
		PatientID:       uuid.New(),
		AppointmentDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Timeslot:        "09:00-10:00",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	// No record before completion.
	_, err = records.Create(ctx, &model.CreateMedicalHistoryRequest{
		AppointmentID: booked.ID,
		Diagnosis:     "flu",
		Treatment:     "rest",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotEligible))

	note := "exam done"
	completed, err := appointments.Transition(ctx, booked.ID, model.AppointmentStatusCompleted, &note)
	require.NoError(t, err)
	assert.Equal(t, "exam done", completed.Notes)

	record, err := records.Create(ctx, &model.CreateMedicalHistoryRequest{
		AppointmentID: booked.ID,
		Diagnosis:     "flu",
		Treatment:     "rest and fluids",
	})
	require.NoError(t, err)
	assert.Equal(t, "flu", record.Diagnosis)

	_, err = records.Create(ctx, &model.CreateMedicalHistoryRequest{
		AppointmentID: booked.ID,
		Diagnosis:     "flu again",
		Treatment:     "more rest",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicate))

	// Completion is terminal.
	_, err = appointments.Transition(ctx, booked.ID, model.AppointmentStatusCancelled, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))
}
