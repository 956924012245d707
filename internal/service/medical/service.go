package medical

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/repository"
	"github.com/medisched/booking-api/internal/service/event"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/security"
)

// Service gates medical history creation on appointment state:
// exactly one record per appointment, and only once the appointment
// is completed. Diagnosis and treatment are encrypted at rest.
type Service struct {
	repo         repository.MedicalHistoryRepository
	appointments repository.AppointmentRepository
	encryptor    security.Encryptor
	events       *event.Service
	logger       *logger.Logger
}

func NewService(
	repo repository.MedicalHistoryRepository,
	appointments repository.AppointmentRepository,
	encryptor security.Encryptor,
	events *event.Service,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		encryptor:    encryptor,
		events:       events,
		logger:       logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateMedicalHistoryRequest) (*model.MedicalHistory, error) {
	appointment, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.NotEligible(
			fmt.Sprintf("medical history requires a completed appointment, status is %s", appointment.Status))
	}
	if appointment.HasMedicalHistory {
		return nil, apperrors.Duplicate("a medical history already exists for this appointment")
	}

	record := &model.MedicalHistory{
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		DoctorID:      appointment.DoctorID,
	}
	if record.Diagnosis, err = s.encryptor.EncryptString(req.Diagnosis); err != nil {
		return nil, fmt.Errorf("failed to encrypt diagnosis: %w", err)
	}
	if record.Treatment, err = s.encryptor.EncryptString(req.Treatment); err != nil {
		return nil, fmt.Errorf("failed to encrypt treatment: %w", err)
	}

	// The unique index backs this up if two creations race past the
	// flag check above.
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, model.EventMedicalHistoryCreated, map[string]interface{}{
		"medical_history_id": record.ID,
		"appointment_id":     record.AppointmentID,
	})
	s.logger.Info("medical history created",
		"medical_history_id", record.ID.String(),
		"appointment_id", record.AppointmentID.String())

	record.Diagnosis = req.Diagnosis
	record.Treatment = req.Treatment
	return record, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.MedicalHistory, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decrypt(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalHistory, error) {
	record, err := s.repo.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.decrypt(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateMedicalHistoryRequest) (*model.MedicalHistory, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decrypt(record); err != nil {
		return nil, err
	}

	if req.Diagnosis != nil {
		record.Diagnosis = *req.Diagnosis
	}
	if req.Treatment != nil {
		record.Treatment = *req.Treatment
	}

	stored := *record
	if stored.Diagnosis, err = s.encryptor.EncryptString(record.Diagnosis); err != nil {
		return nil, fmt.Errorf("failed to encrypt diagnosis: %w", err)
	}
	if stored.Treatment, err = s.encryptor.EncryptString(record.Treatment); err != nil {
		return nil, fmt.Errorf("failed to encrypt treatment: %w", err)
	}
	if err := s.repo.Update(ctx, &stored); err != nil {
		return nil, err
	}

	record.UpdatedAt = stored.UpdatedAt
	return record, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error) {
	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := s.decrypt(r); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Service) decrypt(record *model.MedicalHistory) error {
	var err error
	if record.Diagnosis, err = s.encryptor.DecryptString(record.Diagnosis); err != nil {
		return fmt.Errorf("failed to decrypt diagnosis: %w", err)
	}
	if record.Treatment, err = s.encryptor.DecryptString(record.Treatment); err != nil {
		return fmt.Errorf("failed to decrypt treatment: %w", err)
	}
	return nil
}
