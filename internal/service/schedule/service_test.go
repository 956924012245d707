package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/service/event"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/metrics"
)

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]*model.WeeklySchedule
	listCalls int
	cancelled int64
	monthLoc  *time.Location
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[uuid.UUID]*model.WeeklySchedule)}
}

func (r *fakeScheduleRepo) Create(_ context.Context, schedule *model.WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.schedules {
		if existing.DoctorID == schedule.DoctorID && existing.WeekStartDate.Equal(schedule.WeekStartDate) {
			return apperrors.Conflict("a schedule already exists for this doctor and week", nil)
		}
	}
	schedule.ID = uuid.New()
	for _, day := range schedule.Days {
		day.ID = uuid.New()
		day.ScheduleID = schedule.ID
		for i := range day.Slots {
			if day.Slots[i].ID == uuid.Nil {
				day.Slots[i].ID = uuid.New()
			}
			day.Slots[i].DayID = day.ID
		}
	}
	r.schedules[schedule.ID] = schedule
	return nil
}

func (r *fakeScheduleRepo) Get(_ context.Context, id uuid.UUID) (*model.WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, apperrors.NotFound("schedule", nil)
	}
	return s, nil
}

func (r *fakeScheduleRepo) GetByDoctorWeek(_ context.Context, doctorID uuid.UUID, weekStart time.Time) (*model.WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.DoctorID == doctorID && s.WeekStartDate.Equal(weekStart) {
			return s, nil
		}
	}
	return nil, apperrors.NotFound("schedule", nil)
}

func (r *fakeScheduleRepo) Update(_ context.Context, schedule *model.WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[schedule.ID]; !ok {
		return apperrors.NotFound("schedule", nil)
	}
	for _, day := range schedule.Days {
		if day.ID == uuid.Nil {
			day.ID = uuid.New()
		}
		for i := range day.Slots {
			if day.Slots[i].ID == uuid.Nil {
				day.Slots[i].ID = uuid.New()
			}
		}
	}
	r.schedules[schedule.ID] = schedule
	return nil
}

func (r *fakeScheduleRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return 0, apperrors.NotFound("schedule", nil)
	}
	delete(r.schedules, id)
	return r.cancelled, nil
}

func (r *fakeScheduleRepo) ListByWeek(_ context.Context, weekStart time.Time, doctorID *uuid.UUID) ([]*model.WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []*model.WeeklySchedule
	for _, s := range r.schedules {
		if !s.WeekStartDate.Equal(weekStart) {
			continue
		}
		if doctorID != nil && s.DoctorID != *doctorID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeScheduleRepo) ListByMonth(_ context.Context, year int, month time.Month, loc *time.Location) ([]*model.WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	r.monthLoc = loc
	var out []*model.WeeklySchedule
	for _, s := range r.schedules {
		if model.WeekOverlapsMonth(s.WeekStartDate, year, month, loc) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) Search(_ context.Context, term string) ([]*model.WeeklySchedule, error) {
	return nil, nil
}

func (r *fakeScheduleRepo) FindSlot(_ context.Context, doctorID uuid.UUID, date time.Time, timeRange string) (*model.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.DoctorID != doctorID {
			continue
		}
		for _, day := range s.Days {
			if !day.Date.Equal(date) {
				continue
			}
			for i := range day.Slots {
				if day.Slots[i].Time == timeRange {
					return &day.Slots[i], nil
				}
			}
		}
	}
	return nil, apperrors.NotFound("time slot", nil)
}

func (r *fakeScheduleRepo) GetSlot(_ context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		for _, day := range s.Days {
			for i := range day.Slots {
				if day.Slots[i].ID == id {
					return &day.Slots[i], nil
				}
			}
		}
	}
	return nil, apperrors.NotFound("time slot", nil)
}

func (r *fakeScheduleRepo) SetSlotAvailability(_ context.Context, id uuid.UUID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		for _, day := range s.Days {
			for i := range day.Slots {
				if day.Slots[i].ID == id {
					day.Slots[i].IsAvailable = available
					return nil
				}
			}
		}
	}
	return apperrors.NotFound("time slot", nil)
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(_ context.Context, evt *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt.ID = uuid.New()
	r.events = append(r.events, evt)
	return nil
}

func (r *fakeOutboxRepo) GetPendingEvents(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (r *fakeOutboxRepo) MarkProcessed(context.Context, uuid.UUID) error      { return nil }
func (r *fakeOutboxRepo) MarkFailed(context.Context, uuid.UUID, string) error { return nil }
func (r *fakeOutboxRepo) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeOutboxRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType)
	}
	return types
}

func newTestService(t *testing.T) (*Service, *fakeScheduleRepo, *fakeOutboxRepo) {
	t.Helper()
	repo := newFakeScheduleRepo()
	outbox := &fakeOutboxRepo{}
	log := logger.New(nil)
	svc := NewService(repo, event.NewService(outbox, log), time.UTC, log, nil)
	return svc, repo, outbox
}

func fullWeek(slots map[string][]string) []model.DayEntry {
	entries := make([]model.DayEntry, 0, model.DaysPerWeek)
	for _, day := range model.Weekdays {
		daySlots, ok := slots[day]
		entries = append(entries, model.DayEntry{
			Day:         day,
			IsAvailable: ok,
			TimeSlots:   daySlots,
		})
	}
	return entries
}

func TestCreateNormalizesWeekStart(t *testing.T) {
	svc, _, outbox := newTestService(t)

	// 2024-06-05 is a Wednesday; the week's Monday is 2024-06-03.
	wednesday := time.Date(2024, 6, 5, 15, 30, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: wednesday,
		Days:          fullWeek(map[string][]string{"Monday": {"09:00-10:00"}}),
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), created.WeekStartDate)
	assert.Equal(t, 23, created.WeekNumber)
	assert.Equal(t, 2024, created.Year)
	assert.Contains(t, outbox.eventTypes(), model.EventScheduleCreated)
}

func TestCreateSundayNormalizesBackToMonday(t *testing.T) {
	svc, _, _ := newTestService(t)

	// 2024-06-09 is the Sunday of the week starting 2024-06-03.
	sunday := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: sunday,
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), created.WeekStartDate)
}

func TestCreateDayDatesFollowWeekStart(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(map[string][]string{"Friday": {"09:00-10:00"}}),
	})
	require.NoError(t, err)

	require.Len(t, created.Days, 7)
	for i, day := range created.Days {
		assert.Equal(t, model.Weekdays[i], day.Day)
		assert.Equal(t, time.Date(2024, 6, 3+i, 0, 0, 0, 0, time.UTC), day.Date)
	}
}

func TestCreateRestDayHasNoSlots(t *testing.T) {
	svc, _, _ := newTestService(t)

	days := fullWeek(map[string][]string{"Monday": {"09:00-10:00"}})
	// Saturday stays a rest day even if slots were supplied.
	days[5].TimeSlots = []string{"09:00-10:00"}

	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          days,
	})
	require.NoError(t, err)

	saturday := created.Days[5]
	assert.False(t, saturday.IsAvailable)
	assert.Empty(t, saturday.Slots)
}

func TestCreateRejectsWholeWeekOnOneBadSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days: fullWeek(map[string][]string{
			"Monday": {"09:00-10:00"},
			"Friday": {"10:00-09:00"},
		}),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, repo.schedules, "nothing persisted on rejection")
}

func TestCreateRejectsOverlappingSlots(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(map[string][]string{"Monday": {"09:00-11:00", "10:00-12:00"}}),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCreateRejectsMisorderedDays(t *testing.T) {
	svc, _, _ := newTestService(t)

	days := fullWeek(nil)
	days[0], days[1] = days[1], days[0]

	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          days,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCreateRejectsWrongDayCount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(nil)[:5],
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCreateDuplicateWeekConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	doctorID := uuid.New()

	// Same ISO week authored from two different days.
	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      doctorID,
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      doctorID,
		WeekStartDate: time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(nil),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func createWithBookedSlot(t *testing.T, svc *Service, repo *fakeScheduleRepo) *model.WeeklySchedule {
	t.Helper()
	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(map[string][]string{"Monday": {"09:00-10:00", "10:00-11:00"}}),
	})
	require.NoError(t, err)

	patientID := uuid.New()
	repo.mu.Lock()
	created.Days[0].Slots[0].IsBooked = true
	created.Days[0].Slots[0].PatientID = &patientID
	repo.mu.Unlock()
	return created
}

func TestUpdateCarriesBookedSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := createWithBookedSlot(t, svc, repo)
	bookedID := created.Days[0].Slots[0].ID
	patientID := *created.Days[0].Slots[0].PatientID

	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateScheduleRequest{
		Days: fullWeek(map[string][]string{
			"Monday":  {"09:00-10:00", "11:00-12:00"},
			"Tuesday": {"14:00-15:00"},
		}),
	})
	require.NoError(t, err)

	slot := updated.Days[0].Slots[0]
	assert.Equal(t, bookedID, slot.ID, "booked slot keeps its identity")
	assert.True(t, slot.IsBooked)
	require.NotNil(t, slot.PatientID)
	assert.Equal(t, patientID, *slot.PatientID)
}

func TestUpdateCannotDropBookedSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := createWithBookedSlot(t, svc, repo)

	_, err := svc.Update(context.Background(), created.ID, &model.UpdateScheduleRequest{
		Days: fullWeek(map[string][]string{"Monday": {"10:00-11:00"}}),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestUpdateCannotRestDayWithBookedSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := createWithBookedSlot(t, svc, repo)

	_, err := svc.Update(context.Background(), created.ID, &model.UpdateScheduleRequest{
		Days: fullWeek(map[string][]string{"Tuesday": {"09:00-10:00"}}),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestUpdateCannotMoveWeekWithBookedSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := createWithBookedSlot(t, svc, repo)

	nextWeek := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Update(context.Background(), created.ID, &model.UpdateScheduleRequest{
		WeekStartDate: &nextWeek,
		Days:          fullWeek(map[string][]string{"Monday": {"09:00-10:00", "10:00-11:00"}}),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestUpdateRecomputesDerivedFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)

	// Move an empty schedule into the first ISO week of 2025.
	newStart := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateScheduleRequest{
		WeekStartDate: &newStart,
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 2025, updated.Year)
	assert.Equal(t, 1, updated.WeekNumber)
}

func TestDeleteReportsCancelledAppointments(t *testing.T) {
	svc, repo, outbox := newTestService(t)
	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(map[string][]string{"Monday": {"09:00-10:00"}}),
	})
	require.NoError(t, err)

	repo.cancelled = 2
	cancelled, err := svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cancelled)
	assert.Contains(t, outbox.eventTypes(), model.EventScheduleDeleted)
}

func TestFindByWeekUsesCache(t *testing.T) {
	svc, repo, _ := newTestService(t)
	week := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	_, err := svc.FindByWeek(context.Background(), nil, week)
	require.NoError(t, err)
	_, err = svc.FindByWeek(context.Background(), nil, week)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "second lookup served from cache")

	// A mutation flushes the cache.
	_, err = svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: week,
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)

	found, err := svc.FindByWeek(context.Background(), nil, week)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, 2, repo.listCalls)
}

func TestFindByWeekNormalizesQueryDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	week := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: week,
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)

	// Query by the Thursday of the same week.
	found, err := svc.FindByWeek(context.Background(), nil, time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestFindByMonthIncludesSpanningWeek(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Week of 2024-04-29 spans April and May.
	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)

	april, err := svc.FindByMonth(context.Background(), 2024, time.April)
	require.NoError(t, err)
	assert.Len(t, april, 1)

	may, err := svc.FindByMonth(context.Background(), 2024, time.May)
	require.NoError(t, err)
	assert.Len(t, may, 1)

	june, err := svc.FindByMonth(context.Background(), 2024, time.June)
	require.NoError(t, err)
	assert.Empty(t, june)
}

func TestFindByMonthRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.FindByMonth(context.Background(), 2024, time.Month(13))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.FindByMonth(context.Background(), 0, time.June)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestSearchRequiresTerm(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Search(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCreateSplitsFreeTextSlotList(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days: fullWeek(map[string][]string{
			"Monday": {"09:00-10:00, 10:00-11:00", "13:00-14:00"},
		}),
	})
	require.NoError(t, err)

	monday := created.Days[0]
	require.Len(t, monday.Slots, 3)
	assert.Equal(t, "09:00-10:00", monday.Slots[0].Time)
	assert.Equal(t, "10:00-11:00", monday.Slots[1].Time, "comma-joined entry split and trimmed")
	assert.Equal(t, "13:00-14:00", monday.Slots[2].Time)
}

func TestCreateRejectsFreeTextGarbageToken(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(map[string][]string{"Monday": {"09:00-10:00, nine to ten"}}),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, repo.schedules)
}

func TestFindByMonthUsesClinicTimezone(t *testing.T) {
	repo := newFakeScheduleRepo()
	log := logger.New(nil)
	clinic := time.FixedZone("clinic", -5*60*60)
	svc := NewService(repo, event.NewService(&fakeOutboxRepo{}, log), clinic, log, nil)

	// The week of Mon 2024-12-30 in clinic time spans both December
	// and January.
	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 12, 30, 0, 0, 0, 0, clinic),
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)

	dec, err := svc.FindByMonth(context.Background(), 2024, time.December)
	require.NoError(t, err)
	assert.Len(t, dec, 1)
	assert.Same(t, clinic, repo.monthLoc, "month boundaries built in the clinic timezone")

	jan, err := svc.FindByMonth(context.Background(), 2025, time.January)
	require.NoError(t, err)
	assert.Len(t, jan, 1)
}

func TestMetricsCountAuthoringAndCache(t *testing.T) {
	repo := newFakeScheduleRepo()
	log := logger.New(nil)
	m := metrics.New("schedule_svc_test")
	svc := NewService(repo, event.NewService(&fakeOutboxRepo{}, log), time.UTC, log, m)

	week := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: week,
		Days:          fullWeek(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SchedulesAuthored))

	_, err = svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: week,
		Days:          fullWeek(nil)[:5],
	})
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ValidationFailures.WithLabelValues("schedule_days")))

	_, err = svc.FindByWeek(context.Background(), nil, week)
	require.NoError(t, err)
	_, err = svc.FindByWeek(context.Background(), nil, week)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ScheduleCacheMiss))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ScheduleCacheHits))
}

func TestSetSlotAvailability(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created, err := svc.Create(context.Background(), &model.CreateScheduleRequest{
		DoctorID:      uuid.New(),
		WeekStartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:          fullWeek(map[string][]string{"Monday": {"09:00-10:00"}}),
	})
	require.NoError(t, err)

	slotID := created.Days[0].Slots[0].ID
	require.NoError(t, svc.SetSlotAvailability(context.Background(), slotID, false))

	slot, err := repo.GetSlot(context.Background(), slotID)
	require.NoError(t, err)
	assert.False(t, slot.IsAvailable)
}
