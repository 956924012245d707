package dashboard

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/middleware"
	"github.com/medisched/booking-api/internal/service/appointment"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/httputil"
)

// Handler serves the appointment status aggregate. Counts are computed
// on demand from appointment rows, never stored.
type Handler struct {
	appointments *appointment.Service
}

func NewHandler(appointments *appointment.Service) *Handler {
	return &Handler{appointments: appointments}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	g.GET("/dashboard/stats", auth.Authenticate(), h.Stats)
}

func (h *Handler) Stats(c *gin.Context) {
	var doctorID *uuid.UUID
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID", err))
			return
		}
		doctorID = &id
	}
	// Doctors see their own numbers regardless of the query.
	if c.GetString(middleware.ContextRole) == middleware.RoleDoctor {
		if actor, ok := middleware.ActorDoctorID(c); ok {
			doctorID = &actor
		}
	}

	stats, err := h.appointments.Stats(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
