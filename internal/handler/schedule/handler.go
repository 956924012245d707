package schedule

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/middleware"
	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/service/schedule"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/httputil"
)

type Handler struct {
	service *schedule.Service
}

func NewHandler(service *schedule.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	schedules := g.Group("/schedules")
	schedules.Use(auth.Authenticate())
	{
		schedules.POST("", auth.RequireRole(middleware.RoleAdmin), h.Create)
		schedules.GET("/:id", h.Get)
		schedules.PUT("/:id", auth.RequireRole(middleware.RoleAdmin), h.Update)
		schedules.DELETE("/:id", auth.RequireRole(middleware.RoleAdmin), h.Delete)
		schedules.GET("", h.List)
	}

	slots := g.Group("/slots")
	slots.Use(auth.Authenticate())
	{
		slots.PATCH("/:id/availability", auth.RequireRole(middleware.RoleAdmin, middleware.RoleDoctor), h.SetSlotAvailability)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid schedule ID", err))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid schedule ID", err))
		return
	}

	var req model.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid schedule ID", err))
		return
	}

	cancelled, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"cancelled_appointments": cancelled})
}

// List dispatches on query parameters: week (with optional doctor),
// month, or doctor-name search.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if term := c.Query("search"); term != "" {
		schedules, err := h.service.Search(ctx, term)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, schedules)
		return
	}

	if week := c.Query("week"); week != "" {
		date, err := time.Parse("2006-01-02", week)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid week date, expected YYYY-MM-DD", err))
			return
		}

		var doctorID *uuid.UUID
		if raw := c.Query("doctor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID", err))
				return
			}
			doctorID = &id
		}
		// Doctors only see their own schedules.
		if actor, ok := middleware.ActorDoctorID(c); ok && c.GetString(middleware.ContextRole) == middleware.RoleDoctor {
			doctorID = &actor
		}

		schedules, err := h.service.FindByWeek(ctx, doctorID, date)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, schedules)
		return
	}

	if monthStr := c.Query("month"); monthStr != "" {
		year, err := strconv.Atoi(c.Query("year"))
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("year is required with month", err))
			return
		}
		month, err := strconv.Atoi(monthStr)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid month", err))
			return
		}

		schedules, err := h.service.FindByMonth(ctx, year, time.Month(month))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, schedules)
		return
	}

	httputil.RespondWithError(c, apperrors.Validation("one of search, week or month is required", nil))
}

func (h *Handler) SetSlotAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid slot ID", err))
		return
	}

	var req struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	if err := h.service.SetSlotAvailability(c.Request.Context(), id, *req.IsAvailable); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "is_available": *req.IsAvailable})
}
