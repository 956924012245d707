package medical

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medisched/booking-api/internal/middleware"
	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/service/medical"
	apperrors "github.com/medisched/booking-api/pkg/errors"
	"github.com/medisched/booking-api/pkg/httputil"
)

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	histories := g.Group("/medical-histories")
	histories.Use(auth.Authenticate())
	{
		histories.POST("", auth.RequireRole(middleware.RoleAdmin, middleware.RoleDoctor), h.Create)
		histories.GET("/:id", h.Get)
		histories.PUT("/:id", auth.RequireRole(middleware.RoleAdmin, middleware.RoleDoctor), h.Update)
		histories.DELETE("/:id", auth.RequireRole(middleware.RoleAdmin), h.Delete)
	}

	g.GET("/appointments/:id/medical-history", auth.Authenticate(), h.GetByAppointment)
	g.GET("/patients/:id/medical-histories", auth.Authenticate(), h.ListByPatient)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMedicalHistoryRequest
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
		httputil.RespondWithError(c, apperrors.Validation("invalid medical history ID", err))
		return
	}

	record, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := middleware.EnsureOwnDoctor(c, record.DoctorID); err != nil {
		httputil.RespondWithError(c, apperrors.Forbidden(err.Error()))
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) GetByAppointment(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID", err))
		return
	}

	record, err := h.service.GetByAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	records, err := h.service.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid medical history ID", err))
		return
	}

	var req model.UpdateMedicalHistoryRequest
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
		httputil.RespondWithError(c, apperrors.Validation("invalid medical history ID", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "deleted": true})
}
