package model

import (
	"time"

	"github.com/google/uuid"
)

// Weekday labels in schedule order. A WeeklySchedule always carries
// exactly one DayAvailability per label, Monday first.
var Weekdays = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DaysPerWeek is the fixed length of a schedule's day list.
const DaysPerWeek = 7

// TimeSlot is one bookable interval within a day. Time is a half-open
// HH:MM-HH:MM range on a 24-hour clock.
type TimeSlot struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	DayID       uuid.UUID  `json:"day_id" db:"day_id"`
	Time        string     `json:"time" db:"slot_time"`
	IsBooked    bool       `json:"is_booked" db:"is_booked"`
	IsAvailable bool       `json:"is_available" db:"is_available"`
	PatientID   *uuid.UUID `json:"patient_id,omitempty" db:"patient_id"`
	Position    int        `json:"-" db:"position"`
}

// DayAvailability is one calendar day's work/rest flag and its
// ordered slots. If IsAvailable is false the slot list is empty.
type DayAvailability struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ScheduleID  uuid.UUID  `json:"schedule_id" db:"schedule_id"`
	Day         string     `json:"day" db:"day"`
	Date        time.Time  `json:"date" db:"date"`
	IsAvailable bool       `json:"is_available" db:"is_available"`
	Slots       []TimeSlot `json:"time_slots"`
}

// WeeklySchedule is one doctor's full authored week. WeekStartDate is
// always the Monday of the ISO week in the clinic timezone;
// WeekNumber and Year are derived from it at write time and never
// trusted from client input.
type WeeklySchedule struct {
	Base
	DoctorID      uuid.UUID          `json:"doctor_id" db:"doctor_id"`
	WeekStartDate time.Time          `json:"week_start_date" db:"week_start_date"`
	WeekNumber    int                `json:"week_number" db:"week_number"`
	Year          int                `json:"year" db:"year"`
	Days          []*DayAvailability `json:"days"`

	// Joined for search results; not a schedule column.
	DoctorName  string `json:"doctor_name,omitempty" db:"doctor_name"`
	DoctorEmail string `json:"doctor_email,omitempty" db:"doctor_email"`
}

// DayEntry is the authoring input for one day.
type DayEntry struct {
	Day         string   `json:"day" validate:"required"`
	IsAvailable bool     `json:"is_available"`
	TimeSlots   []string `json:"time_slots"`
}

type CreateScheduleRequest struct {
	DoctorID      uuid.UUID  `json:"doctor_id" binding:"required"`
	WeekStartDate time.Time  `json:"week_start_date" binding:"required"`
	Days          []DayEntry `json:"days" binding:"required,len=7"`
}

type UpdateScheduleRequest struct {
	WeekStartDate *time.Time `json:"week_start_date"`
	Days          []DayEntry `json:"days" binding:"required,len=7"`
}

// ScheduleFilters scopes schedule queries.
type ScheduleFilters struct {
	DoctorID      *uuid.UUID
	WeekStartDate *time.Time
	Year          int
	Month         time.Month
	SearchTerm    string
}

// WeekStart normalizes t to the Monday beginning its ISO week, at
// midnight in loc. Any day of the week maps to the same Monday.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	monday := t.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)
}

// WeekOverlapsMonth reports whether the Mon-Sun span starting at
// weekStart intersects the given calendar month. A week spanning two
// months belongs to both.
func WeekOverlapsMonth(weekStart time.Time, year int, month time.Month, loc *time.Location) bool {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)
	weekEnd := weekStart.AddDate(0, 0, 7)
	return weekStart.Before(monthEnd) && weekEnd.After(monthStart)
}
