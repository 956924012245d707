package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/repository"
	"github.com/medisched/booking-api/pkg/logger"
)

// Service sends best-effort booking emails. Failures are logged and
// never block the operation that triggered them.
type Service interface {
	AppointmentBooked(ctx context.Context, appointment *model.Appointment)
	AppointmentTransitioned(ctx context.Context, appointment *model.Appointment)
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailService struct {
	dialer   *gomail.Dialer
	from     string
	patients repository.PatientRepository
	logger   *logger.Logger
}

func NewService(cfg Config, patients repository.PatientRepository, logger *logger.Logger) Service {
	return &emailService{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		patients: patients,
		logger:   logger,
	}
}

func (s *emailService) AppointmentBooked(ctx context.Context, appointment *model.Appointment) {
	subject := "Appointment confirmed"
	body := fmt.Sprintf(
		"Your appointment on %s at %s has been booked.",
		appointment.AppointmentDate.Format("Monday, 2 January 2006"),
		appointment.Timeslot,
	)
	s.send(ctx, appointment, subject, body)
}

func (s *emailService) AppointmentTransitioned(ctx context.Context, appointment *model.Appointment) {
	var subject, body string
	switch appointment.Status {
	case model.AppointmentStatusCancelled:
		subject = "Appointment cancelled"
		body = fmt.Sprintf(
			"Your appointment on %s at %s has been cancelled. The time slot is available for rebooking.",
			appointment.AppointmentDate.Format("Monday, 2 January 2006"),
			appointment.Timeslot,
		)
	case model.AppointmentStatusCompleted:
		subject = "Appointment completed"
		body = fmt.Sprintf(
			"Your appointment on %s at %s has been marked completed.",
			appointment.AppointmentDate.Format("Monday, 2 January 2006"),
			appointment.Timeslot,
		)
	default:
		return
	}
	s.send(ctx, appointment, subject, body)
}

func (s *emailService) send(ctx context.Context, appointment *model.Appointment, subject, body string) {
	patient, err := s.patients.Get(ctx, appointment.PatientID)
	if err != nil {
		s.logger.Error(err, "failed to resolve notification recipient",
			"appointment_id", appointment.ID.String())
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", patient.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	go func() {
		if err := s.dialer.DialAndSend(msg); err != nil {
			s.logger.Error(err, "failed to send notification email",
				"appointment_id", appointment.ID.String())
		}
	}()
}

// Noop discards all notifications. Used when SMTP is not configured.
type Noop struct{}

func (Noop) AppointmentBooked(context.Context, *model.Appointment)       {}
func (Noop) AppointmentTransitioned(context.Context, *model.Appointment) {}
