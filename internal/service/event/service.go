package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/repository"
	"github.com/medisched/booking-api/pkg/logger"
)

// Service writes domain events to the outbox table. The worker binary
// relays them to the broker; emission failures are logged, never
// propagated, so a broker outage cannot fail a booking.
type Service struct {
	repo   repository.OutboxRepository
	logger *logger.Logger
}

func NewService(repo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(fmt.Errorf("failed to marshal event payload: %w", err), "event emission skipped",
			"event_type", eventType)
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   raw,
	}
	if err := s.repo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to persist outbox event", "event_type", eventType)
	}
}
