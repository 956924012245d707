package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/middleware"
	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/service/appointment"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	appointments := g.Group("/appointments")
	appointments.Use(auth.Authenticate())
	{
		appointments.POST("", h.Book)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/transition", auth.RequireRole(middleware.RoleAdmin, middleware.RoleDoctor), h.Transition)
		appointments.DELETE("/:id", auth.RequireRole(middleware.RoleAdmin), h.Delete)
	}
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	booked, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, booked)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID", err))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

// Transition completes or cancels a pending appointment. A doctor may
// only transition appointments belonging to them.
func (h *Handler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID", err))
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := middleware.EnsureOwnDoctor(c, existing.DoctorID); err != nil {
		httputil.RespondWithError(c, apperrors.Forbidden(err.Error()))
		return
	}

	updated, err := h.service.Transition(c.Request.Context(), id, req.Status, req.Note)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID", err))
			return
		}
		filters.DoctorID = &id
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
			return
		}
		filters.PatientID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := model.NormalizeStatus(model.AppointmentStatus(raw))
		filters.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid from date, expected YYYY-MM-DD", err))
			return
		}
		filters.StartDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid to date, expected YYYY-MM-DD", err))
			return
		}
		filters.EndDate = &to
	}

	// Doctors only list their own appointments.
	if c.GetString(middleware.ContextRole) == middleware.RoleDoctor {
		if actor, ok := middleware.ActorDoctorID(c); ok {
			filters.DoctorID = &actor
		}
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "deleted": true})
}
