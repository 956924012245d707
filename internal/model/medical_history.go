package model

import (
	"github.com/google/uuid"
)

// MedicalHistory is the single clinical record attachable to a
// completed appointment. Diagnosis and Treatment are stored encrypted
// and transparently decrypted by the medical service.
type MedicalHistory struct {
	Base
	AppointmentID uuid.UUID `json:"appointment_id" db:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id" db:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id" db:"doctor_id"`
	Diagnosis     string    `json:"diagnosis" db:"diagnosis"`
	Treatment     string    `json:"treatment" db:"treatment"`
}

type CreateMedicalHistoryRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	Diagnosis     string    `json:"diagnosis" binding:"required,max=4000"`
	Treatment     string    `json:"treatment" binding:"required,max=4000"`
}

type UpdateMedicalHistoryRequest struct {
	Diagnosis *string `json:"diagnosis" binding:"omitempty,max=4000"`
	Treatment *string `json:"treatment" binding:"omitempty,max=4000"`
}
