package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/repository"
	"github.com/medisched/booking-api/internal/service/event"
	"github.com/medisched/booking-api/internal/service/notification"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/metrics"
	"github.com/medisched/booking-api/pkg/validator"
)

// Service drives the appointment lifecycle: booking a free slot and
// walking the pending -> completed/cancelled state machine, keeping
// slot state consistent with appointment state.
type Service struct {
	repo      repository.AppointmentRepository
	schedules repository.ScheduleRepository
	events    *event.Service
	notifier  notification.Service
	loc       *time.Location
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	schedules repository.ScheduleRepository,
	events *event.Service,
	notifier notification.Service,
	loc *time.Location,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		schedules: schedules,
		events:    events,
		notifier:  notifier,
		loc:       loc,
		logger:    logger,
		metrics:   m,
	}
}

func (s *Service) countBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

// Book reserves the slot matching the caller's doctor/date/range and
// creates a pending appointment. If two callers race for one slot,
// exactly one wins; the loser gets a conflict and no appointment row.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if !validator.IsTimeRange(req.Timeslot) {
		if s.metrics != nil {
			s.metrics.ValidationFailures.WithLabelValues("timeslot").Inc()
		}
		return nil, apperrors.Validation(fmt.Sprintf("invalid time slot %q", req.Timeslot), nil)
	}

	date := req.AppointmentDate.In(s.loc)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)

	slot, err := s.schedules.FindSlot(ctx, req.DoctorID, date, req.Timeslot)
	if err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		SlotID:          slot.ID,
		AppointmentDate: date,
		Timeslot:        req.Timeslot,
	}
	if err := s.repo.Book(ctx, appointment); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			if s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			s.countBooking("conflict")
		} else {
			s.countBooking("error")
		}
		return nil, err
	}
	s.countBooking("booked")

	s.events.Emit(ctx, model.EventAppointmentBooked, appointment)
	s.notifier.AppointmentBooked(ctx, appointment)
	s.logger.Info("appointment booked",
		"appointment_id", appointment.ID.String(),
		"doctor_id", appointment.DoctorID.String(),
		"timeslot", appointment.Timeslot)
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// Transition moves a pending appointment to completed or cancelled.
// Both targets are terminal. Cancelling frees the slot for rebooking;
// completing leaves it booked. A supplied note overwrites the
// existing one; nil preserves it.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, note *string) (*model.Appointment, error) {
	if to != model.AppointmentStatusCompleted && to != model.AppointmentStatusCancelled {
		if s.metrics != nil {
			s.metrics.Transitions.WithLabelValues(string(to), "rejected").Inc()
		}
		return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot transition to %q", to))
	}

	appointment, err := s.repo.Transition(ctx, id, to, note)
	if err != nil {
		if s.metrics != nil {
			s.metrics.Transitions.WithLabelValues(string(to), "rejected").Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(to), "ok").Inc()
	}

	eventType := model.EventAppointmentCompleted
	if to == model.AppointmentStatusCancelled {
		eventType = model.EventAppointmentCancelled
	}
	s.events.Emit(ctx, eventType, appointment)
	s.notifier.AppointmentTransitioned(ctx, appointment)
	s.logger.Info("appointment transitioned",
		"appointment_id", id.String(),
		"status", string(to))
	return appointment, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// Stats is the dashboard aggregate: a derived view, never persisted.
func (s *Service) Stats(ctx context.Context, doctorID *uuid.UUID) (*model.AppointmentStats, error) {
	return s.repo.CountByStatus(ctx, doctorID)
}

// Delete is an administrative override. The referenced slot is left
// untouched; freeing slots is the cancellation flow's job.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Warn("appointment deleted by administrator", "appointment_id", id.String())
	return nil
}
