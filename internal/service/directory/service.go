package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/repository"
)

// Service is the thin read/write layer over the doctor and patient
// registries the scheduling core references. Full profile management
// lives in the admin surface, not here.
type Service struct {
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
}

func NewService(doctors repository.DoctorRepository, patients repository.PatientRepository) *Service {
	return &Service{doctors: doctors, patients: patients}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	doctor := &model.Doctor{
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.doctors.Get(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	return s.doctors.List(ctx)
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.patients.Get(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	return s.patients.List(ctx)
}
