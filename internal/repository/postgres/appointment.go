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

// Book marks the slot booked and inserts the pending appointment in
// one transaction. The conditional update on is_booked serializes
// concurrent attempts: the loser sees zero rows and gets a conflict,
// and no appointment row is written for it.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) error {
	appointment.ID = uuid.New()
	appointment.Status = model.AppointmentStatusPending
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE time_slots
			SET is_booked = TRUE, patient_id = $1
			WHERE id = $2 AND is_booked = FALSE AND is_available = TRUE
		`, appointment.PatientID, appointment.SlotID)
		if err != nil {
			return fmt.Errorf("failed to book slot: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS (SELECT 1 FROM time_slots WHERE id = $1)`, appointment.SlotID,
			); err != nil {
				return fmt.Errorf("failed to check slot: %w", err)
			}
			if !exists {
				return apperrors.NotFound("time slot", nil)
			}
			return apperrors.Conflict("this time range is no longer available", nil)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments (
				id, patient_id, doctor_id, slot_id, appointment_date,
				timeslot, status, notes, has_medical_history,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			appointment.ID,
			appointment.PatientID,
			appointment.DoctorID,
			appointment.SlotID,
			appointment.AppointmentDate,
			appointment.Timeslot,
			appointment.Status,
			appointment.Notes,
			appointment.HasMedicalHistory,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, slot_id, appointment_date,
			   timeslot, status, notes, has_medical_history,
			   review_rating, review_comment, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	appointment.Status = model.NormalizeStatus(appointment.Status)
	return &appointment, nil
}

// Transition applies pending -> to with a compare-and-set on the
// current status. A cancelled appointment frees its slot in the same
// transaction; a completed one leaves the slot booked as a record of
// utilization.
func (r *appointmentRepository) Transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, note *string) (*model.Appointment, error) {
	var updated model.Appointment

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = $1, notes = COALESCE($2, notes), updated_at = $3
			WHERE id = $4 AND status = $5
			RETURNING id, patient_id, doctor_id, slot_id, appointment_date,
					  timeslot, status, notes, has_medical_history,
					  review_rating, review_comment, created_at, updated_at
		`
		err := tx.GetContext(ctx, &updated, query, to, note, time.Now(), id, model.AppointmentStatusPending)
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race or already terminal. Distinguish from a
			// missing appointment.
			var current model.AppointmentStatus
			getErr := tx.GetContext(ctx, &current, `SELECT status FROM appointments WHERE id = $1`, id)
			if errors.Is(getErr, sql.ErrNoRows) {
				return apperrors.NotFound("appointment", getErr)
			}
			if getErr != nil {
				return fmt.Errorf("failed to get appointment status: %w", getErr)
			}
			return apperrors.InvalidTransition(
				fmt.Sprintf("appointment is already %s", model.NormalizeStatus(current)),
			)
		}
		if err != nil {
			return fmt.Errorf("failed to transition appointment: %w", err)
		}

		if to == model.AppointmentStatusCancelled {
			if _, err := tx.ExecContext(ctx, `
				UPDATE time_slots
				SET is_booked = FALSE, patient_id = NULL
				WHERE id = $1
			`, updated.SlotID); err != nil {
				return fmt.Errorf("failed to free slot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete is an administrative cleanup. It intentionally does not free
// the referenced slot; slot state is owned by the transition flow.
func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, slot_id, appointment_date,
			   timeslot, status, notes, has_medical_history,
			   review_rating, review_comment, created_at, updated_at
		FROM appointments
		WHERE 1 = 1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		}
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, *filters.Status)
			argCount++
		}
		if filters.StartDate != nil {
			query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, *filters.StartDate)
			argCount++
		}
		if filters.EndDate != nil {
			query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, *filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY appointment_date ASC, created_at ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	for _, a := range appointments {
		a.Status = model.NormalizeStatus(a.Status)
	}
	return appointments, nil
}

// CountByStatus folds unknown statuses into pending, matching the
// read-time normalization policy.
func (r *appointmentRepository) CountByStatus(ctx context.Context, doctorID *uuid.UUID) (*model.AppointmentStats, error) {
	query := `
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			   COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled
		FROM appointments
	`
	args := []interface{}{}
	if doctorID != nil {
		query += " WHERE doctor_id = $1"
		args = append(args, *doctorID)
	}

	var row struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
		Cancelled int `db:"cancelled"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	return &model.AppointmentStats{
		Total:     row.Total,
		Pending:   row.Total - row.Completed - row.Cancelled,
		Completed: row.Completed,
		Cancelled: row.Cancelled,
	}, nil
}
