package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medisched/booking-api/internal/model"
	apperrors "github.com/medisched/booking-api/pkg/errors"
)

// Create inserts the record and flags the appointment in one
// transaction. The unique index on appointment_id is the hard
// guarantee of one record per appointment; a violation surfaces as a
// duplicate error even under concurrent creation.
func (r *medicalHistoryRepository) Create(ctx context.Context, record *model.MedicalHistory) error {
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO medical_histories (
				id, appointment_id, patient_id, doctor_id,
				diagnosis, treatment, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			record.ID,
			record.AppointmentID,
			record.PatientID,
			record.DoctorID,
			record.Diagnosis,
			record.Treatment,
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.Duplicate("a medical history already exists for this appointment")
			}
			return fmt.Errorf("failed to create medical history: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE appointments SET has_medical_history = TRUE, updated_at = $1 WHERE id = $2
		`, time.Now(), record.AppointmentID); err != nil {
			return fmt.Errorf("failed to flag appointment: %w", err)
		}
		return nil
	})
}

func (r *medicalHistoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalHistory, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id, diagnosis, treatment, created_at, updated_at
		FROM medical_histories
		WHERE id = $1
	`
	var record model.MedicalHistory
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("medical history", err)
		}
		return nil, fmt.Errorf("failed to get medical history: %w", err)
	}
	return &record, nil
}

func (r *medicalHistoryRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalHistory, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id, diagnosis, treatment, created_at, updated_at
		FROM medical_histories
		WHERE appointment_id = $1
	`
	var record model.MedicalHistory
	if err := r.db.GetContext(ctx, &record, query, appointmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("medical history", err)
		}
		return nil, fmt.Errorf("failed to get medical history: %w", err)
	}
	return &record, nil
}

func (r *medicalHistoryRepository) Update(ctx context.Context, record *model.MedicalHistory) error {
	record.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE medical_histories
		SET diagnosis = $1, treatment = $2, updated_at = $3
		WHERE id = $4
	`, record.Diagnosis, record.Treatment, record.UpdatedAt, record.ID)
	if err != nil {
		return fmt.Errorf("failed to update medical history: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("medical history", nil)
	}
	return nil
}

// Delete removes the record and clears the appointment flag so the
// appointment becomes a creation candidate again.
func (r *medicalHistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var appointmentID uuid.UUID
		err := tx.GetContext(ctx, &appointmentID,
			`SELECT appointment_id FROM medical_histories WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("medical history", err)
		}
		if err != nil {
			return fmt.Errorf("failed to get medical history: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM medical_histories WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete medical history: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE appointments SET has_medical_history = FALSE, updated_at = $1 WHERE id = $2
		`, time.Now(), appointmentID); err != nil {
			return fmt.Errorf("failed to unflag appointment: %w", err)
		}
		return nil
	})
}

func (r *medicalHistoryRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error) {
	query := `
		SELECT id, appointment_id, patient_id, doctor_id, diagnosis, treatment, created_at, updated_at
		FROM medical_histories
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var records []*model.MedicalHistory
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list medical histories: %w", err)
	}
	return records, nil
}
