package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/medisched/booking-api/internal/model"
	apperrors "github.com/medisched/booking-api/pkg/errors"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.WeeklySchedule) error {
	schedule.ID = uuid.New()
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO weekly_schedules (
				id, doctor_id, week_start_date, week_number, year,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.ExecContext(ctx, query,
			schedule.ID,
			schedule.DoctorID,
			schedule.WeekStartDate,
			schedule.WeekNumber,
			schedule.Year,
			schedule.CreatedAt,
			schedule.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("a schedule already exists for this doctor and week", err)
			}
			return fmt.Errorf("failed to create schedule: %w", err)
		}

		return insertDays(ctx, tx, schedule)
	})
}

func insertDays(ctx context.Context, tx *sqlx.Tx, schedule *model.WeeklySchedule) error {
	dayQuery := `
		INSERT INTO day_availabilities (id, schedule_id, day, date, is_available)
		VALUES ($1, $2, $3, $4, $5)
	`
	slotQuery := `
		INSERT INTO time_slots (id, day_id, slot_time, is_booked, is_available, patient_id, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, day := range schedule.Days {
		if day.ID == uuid.Nil {
			day.ID = uuid.New()
		}
		day.ScheduleID = schedule.ID

		if _, err := tx.ExecContext(ctx, dayQuery,
			day.ID, day.ScheduleID, day.Day, day.Date, day.IsAvailable,
		); err != nil {
			return fmt.Errorf("failed to insert day %s: %w", day.Day, err)
		}

		for i := range day.Slots {
			slot := &day.Slots[i]
			if slot.ID == uuid.Nil {
				slot.ID = uuid.New()
			}
			slot.DayID = day.ID
			slot.Position = i

			if _, err := tx.ExecContext(ctx, slotQuery,
				slot.ID, slot.DayID, slot.Time, slot.IsBooked, slot.IsAvailable, slot.PatientID, slot.Position,
			); err != nil {
				return fmt.Errorf("failed to insert slot %s: %w", slot.Time, err)
			}
		}
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.WeeklySchedule, error) {
	query := `
		SELECT id, doctor_id, week_start_date, week_number, year, created_at, updated_at
		FROM weekly_schedules
		WHERE id = $1
	`
	var schedule model.WeeklySchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("schedule", err)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if err := r.loadDays(ctx, []*model.WeeklySchedule{&schedule}); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) GetByDoctorWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time) (*model.WeeklySchedule, error) {
	query := `
		SELECT id, doctor_id, week_start_date, week_number, year, created_at, updated_at
		FROM weekly_schedules
		WHERE doctor_id = $1 AND week_start_date = $2
	`
	var schedule model.WeeklySchedule
	if err := r.db.GetContext(ctx, &schedule, query, doctorID, weekStart); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("schedule", err)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if err := r.loadDays(ctx, []*model.WeeklySchedule{&schedule}); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) loadDays(ctx context.Context, schedules []*model.WeeklySchedule) error {
	if len(schedules) == 0 {
		return nil
	}

	ids := make([]string, len(schedules))
	byID := make(map[uuid.UUID]*model.WeeklySchedule, len(schedules))
	for i, s := range schedules {
		ids[i] = s.ID.String()
		byID[s.ID] = s
		s.Days = nil
	}

	dayQuery := `
		SELECT id, schedule_id, day, date, is_available
		FROM day_availabilities
		WHERE schedule_id = ANY($1::uuid[])
		ORDER BY date ASC
	`
	var days []*model.DayAvailability
	if err := r.db.SelectContext(ctx, &days, dayQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load days: %w", err)
	}

	dayByID := make(map[uuid.UUID]*model.DayAvailability, len(days))
	for _, d := range days {
		d.Slots = []model.TimeSlot{}
		dayByID[d.ID] = d
		byID[d.ScheduleID].Days = append(byID[d.ScheduleID].Days, d)
	}

	slotQuery := `
		SELECT s.id, s.day_id, s.slot_time, s.is_booked, s.is_available, s.patient_id, s.position
		FROM time_slots s
		JOIN day_availabilities d ON d.id = s.day_id
		WHERE d.schedule_id = ANY($1::uuid[])
		ORDER BY s.position ASC
	`
	var slots []model.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, slotQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load slots: %w", err)
	}

	for _, s := range slots {
		day := dayByID[s.DayID]
		day.Slots = append(day.Slots, s)
	}
	return nil
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *model.WeeklySchedule) error {
	schedule.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE weekly_schedules
			SET week_start_date = $1, week_number = $2, year = $3, updated_at = $4
			WHERE id = $5
		`
		result, err := tx.ExecContext(ctx, query,
			schedule.WeekStartDate, schedule.WeekNumber, schedule.Year, schedule.UpdatedAt, schedule.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("a schedule already exists for this doctor and week", err)
			}
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("schedule", nil)
		}

		// Full replace. The service carries over IDs of surviving
		// booked slots so appointment references stay intact.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM time_slots WHERE day_id IN (SELECT id FROM day_availabilities WHERE schedule_id = $1)`,
			schedule.ID,
		); err != nil {
			return fmt.Errorf("failed to clear slots: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM day_availabilities WHERE schedule_id = $1`, schedule.ID,
		); err != nil {
			return fmt.Errorf("failed to clear days: %w", err)
		}

		return insertDays(ctx, tx, schedule)
	})
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var cancelled int64

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Cancel pending appointments referencing this schedule's
		// slots before the slots disappear. Completed history is
		// never touched.
		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = $1, updated_at = $2
			WHERE status = $3
			AND slot_id IN (
				SELECT s.id FROM time_slots s
				JOIN day_availabilities d ON d.id = s.day_id
				WHERE d.schedule_id = $4
			)
		`, model.AppointmentStatusCancelled, time.Now(), model.AppointmentStatusPending, id)
		if err != nil {
			return fmt.Errorf("failed to cancel appointments: %w", err)
		}
		cancelled, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM time_slots WHERE day_id IN (SELECT id FROM day_availabilities WHERE schedule_id = $1)`, id,
		); err != nil {
			return fmt.Errorf("failed to delete slots: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM day_availabilities WHERE schedule_id = $1`, id,
		); err != nil {
			return fmt.Errorf("failed to delete days: %w", err)
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM weekly_schedules WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete schedule: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("schedule", nil)
		}
		return nil
	})

	return cancelled, err
}

func (r *scheduleRepository) ListByWeek(ctx context.Context, weekStart time.Time, doctorID *uuid.UUID) ([]*model.WeeklySchedule, error) {
	query := `
		SELECT id, doctor_id, week_start_date, week_number, year, created_at, updated_at
		FROM weekly_schedules
		WHERE week_start_date = $1
	`
	args := []interface{}{weekStart}
	if doctorID != nil {
		query += " AND doctor_id = $2"
		args = append(args, *doctorID)
	}
	query += " ORDER BY created_at ASC"

	var schedules []*model.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	if err := r.loadDays(ctx, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) ListByMonth(ctx context.Context, year int, month time.Month, loc *time.Location) ([]*model.WeeklySchedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	// A week belongs to every month its Mon-Sun span touches.
	query := `
		SELECT id, doctor_id, week_start_date, week_number, year, created_at, updated_at
		FROM weekly_schedules
		WHERE week_start_date < $1
		AND week_start_date + INTERVAL '7 days' > $2
		ORDER BY week_start_date ASC
	`
	var schedules []*model.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, query, monthEnd, monthStart); err != nil {
		return nil, fmt.Errorf("failed to list schedules by month: %w", err)
	}
	if err := r.loadDays(ctx, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) Search(ctx context.Context, term string) ([]*model.WeeklySchedule, error) {
	query := `
		SELECT w.id, w.doctor_id, w.week_start_date, w.week_number, w.year,
			   w.created_at, w.updated_at,
			   d.name AS doctor_name, d.email AS doctor_email
		FROM weekly_schedules w
		JOIN doctors d ON d.id = w.doctor_id
		WHERE d.name ILIKE '%' || $1 || '%' OR d.email ILIKE '%' || $1 || '%'
		ORDER BY w.week_start_date DESC
	`
	var schedules []*model.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, query, term); err != nil {
		return nil, fmt.Errorf("failed to search schedules: %w", err)
	}
	if err := r.loadDays(ctx, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) FindSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, timeRange string) (*model.TimeSlot, error) {
	query := `
		SELECT s.id, s.day_id, s.slot_time, s.is_booked, s.is_available, s.patient_id, s.position
		FROM time_slots s
		JOIN day_availabilities d ON d.id = s.day_id
		JOIN weekly_schedules w ON w.id = d.schedule_id
		WHERE w.doctor_id = $1 AND d.date = $2 AND s.slot_time = $3
	`
	var slot model.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, doctorID, date, timeRange); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("time slot", err)
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

func (r *scheduleRepository) SetSlotAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE time_slots SET is_available = $1 WHERE id = $2`, available, id)
	if err != nil {
		return fmt.Errorf("failed to update slot availability: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("time slot", nil)
	}
	return nil
}

func (r *scheduleRepository) GetSlot(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	query := `
		SELECT id, day_id, slot_time, is_booked, is_available, patient_id, position
		FROM time_slots
		WHERE id = $1
	`
	var slot model.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("time slot", err)
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &slot, nil
}
