package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types emitted by the booking core.
const (
	EventAppointmentBooked     = "appointment.booked"
	EventAppointmentCompleted  = "appointment.completed"
	EventAppointmentCancelled  = "appointment.cancelled"
	EventScheduleCreated       = "schedule.created"
	EventScheduleUpdated       = "schedule.updated"
	EventScheduleDeleted       = "schedule.deleted"
	EventMedicalHistoryCreated = "medical_history.created"
)

// OutboxEvent is written in the same transaction as the state change
// it describes and relayed to the broker by the worker binary.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
