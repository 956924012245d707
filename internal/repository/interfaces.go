package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// ScheduleRepository owns weekly schedules, their days and slots.
	ScheduleRepository interface {
		Create(ctx context.Context, schedule *model.WeeklySchedule) error
		Get(ctx context.Context, id uuid.UUID) (*model.WeeklySchedule, error)
		GetByDoctorWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time) (*model.WeeklySchedule, error)
		// Update replaces the schedule's days and slots wholesale.
		// Slot IDs supplied on the model are preserved so appointment
		// references to surviving booked slots stay valid.
		Update(ctx context.Context, schedule *model.WeeklySchedule) error
		// Delete removes the schedule and cancels pending appointments
		// referencing its slots, returning how many were cancelled.
		Delete(ctx context.Context, id uuid.UUID) (int64, error)
		ListByWeek(ctx context.Context, weekStart time.Time, doctorID *uuid.UUID) ([]*model.WeeklySchedule, error)
		// ListByMonth returns every schedule whose Mon-Sun span touches
		// the month, with month boundaries built in loc so they line up
		// with the timezone week_start_date was normalized in.
		ListByMonth(ctx context.Context, year int, month time.Month, loc *time.Location) ([]*model.WeeklySchedule, error)
		Search(ctx context.Context, term string) ([]*model.WeeklySchedule, error)
		FindSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, timeRange string) (*model.TimeSlot, error)
		GetSlot(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
		SetSlotAvailability(ctx context.Context, id uuid.UUID, available bool) error
	}

	// AppointmentRepository handles bookings and status transitions.
	// Book and Transition are atomic: the slot flag and the
	// appointment row change in one transaction, and the conditional
	// update serializes concurrent attempts.
	AppointmentRepository interface {
		Book(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, note *string) (*model.Appointment, error)
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		CountByStatus(ctx context.Context, doctorID *uuid.UUID) (*model.AppointmentStats, error)
	}

	// MedicalHistoryRepository enforces the one-record-per-appointment
	// constraint at the storage layer.
	MedicalHistoryRepository interface {
		Create(ctx context.Context, record *model.MedicalHistory) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalHistory, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalHistory, error)
		Update(ctx context.Context, record *model.MedicalHistory) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
