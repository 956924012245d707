package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// NormalizeStatus maps unknown or malformed status values read from
// storage or external payloads to pending. This is a deserialization
// policy, not a state transition.
func NormalizeStatus(s AppointmentStatus) AppointmentStatus {
	switch s {
	case AppointmentStatusPending, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return s
	default:
		return AppointmentStatusPending
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Appointment is a patient's reservation against exactly one time
// slot. Timeslot is the textual range copied from the slot at booking
// time so the record survives later schedule edits.
type Appointment struct {
	Base
	PatientID         uuid.UUID         `json:"patient_id" db:"patient_id"`
	DoctorID          uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	SlotID            uuid.UUID         `json:"slot_id" db:"slot_id"`
	AppointmentDate   time.Time         `json:"appointment_date" db:"appointment_date"`
	Timeslot          string            `json:"timeslot" db:"timeslot"`
	Status            AppointmentStatus `json:"status" db:"status"`
	Notes             string            `json:"notes,omitempty" db:"notes"`
	HasMedicalHistory bool              `json:"has_medical_history" db:"has_medical_history"`
	ReviewRating      *int              `json:"review_rating,omitempty" db:"review_rating"`
	ReviewComment     *string           `json:"review_comment,omitempty" db:"review_comment"`
}

// BookAppointmentRequest is the external booking caller's contract.
type BookAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	PatientID       uuid.UUID `json:"patient_id" binding:"required"`
	AppointmentDate time.Time `json:"appointment_date" binding:"required"`
	Timeslot        string    `json:"timeslot" binding:"required,timerange"`
}

type TransitionRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
	Note   *string           `json:"note"`
}

type AppointmentFilters struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    *AppointmentStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// AppointmentStats is the dashboard aggregate, a derived view over
// appointment statuses.
type AppointmentStats struct {
	Total     int `json:"total" db:"total"`
	Pending   int `json:"pending" db:"pending"`
	Completed int `json:"completed" db:"completed"`
	Cancelled int `json:"cancelled" db:"cancelled"`
}
