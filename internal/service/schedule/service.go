package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/repository"
	"github.com/medisched/booking-api/internal/service/event"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/metrics"
)

const (
	queryCacheTTL     = 30 * time.Second
	queryCacheCleanup = time.Minute
)

// Service owns weekly schedule authoring and the read/filter layer
// used by the admin and doctor views. All mutations are all-or-nothing
// and invalidate the query cache.
type Service struct {
	repo    repository.ScheduleRepository
	events  *event.Service
	cache   *gocache.Cache
	loc     *time.Location
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.ScheduleRepository, events *event.Service, loc *time.Location, logger *logger.Logger, m *metrics.Metrics) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:    repo,
		events:  events,
		cache:   gocache.New(queryCacheTTL, queryCacheCleanup),
		loc:     loc,
		logger:  logger,
		metrics: m,
	}
}

func (s *Service) countRejectedSave() {
	if s.metrics != nil {
		s.metrics.ValidationFailures.WithLabelValues("schedule_days").Inc()
	}
}

// validateDays checks the seven authoring entries and builds the day
// models. Entries must arrive Monday through Sunday; a rest day's
// slot list is forced empty; the first offending day or slot rejects
// the whole batch. Slot entries are tokenized as comma-separated free
// text, so "09:00-10:00, 10:00-11:00" and separate list elements are
// equivalent.
func (s *Service) validateDays(entries []model.DayEntry, weekStart time.Time) ([]*model.DayAvailability, error) {
	if len(entries) != model.DaysPerWeek {
		return nil, apperrors.Validation(
			fmt.Sprintf("a schedule needs exactly %d days, got %d", model.DaysPerWeek, len(entries)), nil)
	}

	days := make([]*model.DayAvailability, 0, model.DaysPerWeek)
	for i, entry := range entries {
		if entry.Day != model.Weekdays[i] {
			return nil, apperrors.Validation(
				fmt.Sprintf("days must be ordered Monday through Sunday, got %q at position %d", entry.Day, i+1), nil)
		}

		day := &model.DayAvailability{
			Day:         entry.Day,
			Date:        weekStart.AddDate(0, 0, i),
			IsAvailable: entry.IsAvailable,
			Slots:       []model.TimeSlot{},
		}

		if !entry.IsAvailable {
			days = append(days, day)
			continue
		}

		slots, rejected := ParseSlotList(strings.Join(entry.TimeSlots, ","))
		if len(rejected) > 0 {
			return nil, apperrors.Validation(
				fmt.Sprintf("%s: invalid time slot %q", entry.Day, rejected[0]), nil)
		}
		if err := checkDaySlots(slots); err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("%s: %v", entry.Day, err), nil)
		}
		for _, t := range slots {
			day.Slots = append(day.Slots, model.TimeSlot{
				Time:        t,
				IsBooked:    false,
				IsAvailable: true,
			})
		}
		days = append(days, day)
	}
	return days, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateScheduleRequest) (*model.WeeklySchedule, error) {
	weekStart := model.WeekStart(req.WeekStartDate, s.loc)
	days, err := s.validateDays(req.Days, weekStart)
	if err != nil {
		s.countRejectedSave()
		return nil, err
	}

	year, week := weekStart.ISOWeek()
	schedule := &model.WeeklySchedule{
		DoctorID:      req.DoctorID,
		WeekStartDate: weekStart,
		WeekNumber:    week,
		Year:          year,
		Days:          days,
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SchedulesAuthored.Inc()
	}
	s.cache.Flush()
	s.events.Emit(ctx, model.EventScheduleCreated, schedule)
	s.logger.Info("schedule created",
		"schedule_id", schedule.ID.String(),
		"doctor_id", schedule.DoctorID.String(),
		"week_start", weekStart.Format("2006-01-02"))
	return schedule, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.WeeklySchedule, error) {
	return s.repo.Get(ctx, id)
}

// Update re-validates the full week and hard-blocks edits that would
// drop or re-time a booked slot. Booked slots that survive keep their
// identity, booked flag and patient.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateScheduleRequest) (*model.WeeklySchedule, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	weekStart := existing.WeekStartDate
	if req.WeekStartDate != nil {
		weekStart = model.WeekStart(*req.WeekStartDate, s.loc)
	}

	days, err := s.validateDays(req.Days, weekStart)
	if err != nil {
		s.countRejectedSave()
		return nil, err
	}

	newDayByLabel := make(map[string]*model.DayAvailability, len(days))
	for _, d := range days {
		newDayByLabel[d.Day] = d
	}

	hasBooked := false
	for _, oldDay := range existing.Days {
		for i := range oldDay.Slots {
			oldSlot := &oldDay.Slots[i]
			if !oldSlot.IsBooked {
				continue
			}
			hasBooked = true

			newDay := newDayByLabel[oldDay.Day]
			if newDay == nil || !newDay.IsAvailable {
				return nil, apperrors.Conflict(
					fmt.Sprintf("%s has a booked slot %s and cannot be made unavailable", oldDay.Day, oldSlot.Time), nil)
			}

			carried := false
			for j := range newDay.Slots {
				if newDay.Slots[j].Time == oldSlot.Time {
					newDay.Slots[j].ID = oldSlot.ID
					newDay.Slots[j].IsBooked = true
					newDay.Slots[j].PatientID = oldSlot.PatientID
					carried = true
					break
				}
			}
			if !carried {
				return nil, apperrors.Conflict(
					fmt.Sprintf("booked slot %s on %s cannot be removed or re-timed", oldSlot.Time, oldDay.Day), nil)
			}
		}
	}

	if hasBooked && !weekStart.Equal(existing.WeekStartDate) {
		return nil, apperrors.Conflict("cannot move a week that contains booked slots", nil)
	}

	year, week := weekStart.ISOWeek()
	existing.WeekStartDate = weekStart
	existing.WeekNumber = week
	existing.Year = year
	existing.Days = days

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SchedulesAuthored.Inc()
	}
	s.cache.Flush()
	s.events.Emit(ctx, model.EventScheduleUpdated, existing)
	return existing, nil
}

// Delete removes the schedule wholesale. Pending appointments against
// its booked slots are cancelled in the same transaction; the count
// is logged and returned for the caller's confirmation message.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	cancelled, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	s.cache.Flush()
	s.events.Emit(ctx, model.EventScheduleDeleted, map[string]interface{}{
		"schedule_id":            id,
		"cancelled_appointments": cancelled,
	})
	if cancelled > 0 {
		s.logger.Warn("schedule deleted with booked slots",
			"schedule_id", id.String(),
			"cancelled_appointments", cancelled)
	}
	return cancelled, nil
}

// SetSlotAvailability flips the doctor-controlled availability toggle
// on one slot. Independent of booking state.
func (s *Service) SetSlotAvailability(ctx context.Context, slotID uuid.UUID, available bool) error {
	if err := s.repo.SetSlotAvailability(ctx, slotID, available); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

func (s *Service) FindByWeek(ctx context.Context, doctorID *uuid.UUID, date time.Time) ([]*model.WeeklySchedule, error) {
	weekStart := model.WeekStart(date, s.loc)

	key := "week:" + weekStart.Format("2006-01-02")
	if doctorID != nil {
		key += ":" + doctorID.String()
	}
	if cached, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.ScheduleCacheHits.Inc()
		}
		return cached.([]*model.WeeklySchedule), nil
	}
	if s.metrics != nil {
		s.metrics.ScheduleCacheMiss.Inc()
	}

	schedules, err := s.repo.ListByWeek(ctx, weekStart, doctorID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, schedules)
	return schedules, nil
}

func (s *Service) FindByMonth(ctx context.Context, year int, month time.Month) ([]*model.WeeklySchedule, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.Validation(fmt.Sprintf("invalid month %d", month), nil)
	}
	if year <= 0 {
		return nil, apperrors.Validation(fmt.Sprintf("invalid year %d", year), nil)
	}

	key := fmt.Sprintf("month:%d-%02d", year, month)
	if cached, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.ScheduleCacheHits.Inc()
		}
		return cached.([]*model.WeeklySchedule), nil
	}
	if s.metrics != nil {
		s.metrics.ScheduleCacheMiss.Inc()
	}

	schedules, err := s.repo.ListByMonth(ctx, year, month, s.loc)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, schedules)
	return schedules, nil
}

func (s *Service) Search(ctx context.Context, term string) ([]*model.WeeklySchedule, error) {
	if term == "" {
		return nil, apperrors.Validation("search term is required", nil)
	}
	return s.repo.Search(ctx, term)
}
