package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medisched/booking-api/pkg/auth"
)

const (
	ContextUserID   = "user_id"
	ContextRole     = "role"
	ContextDoctorID = "doctor_id"

	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
)

// AuthMiddleware validates externally issued bearer tokens and places
// the actor's identity in the request scope. Token issuance, refresh
// and expiry policy all live in the identity service.
type AuthMiddleware struct {
	verifier auth.Verifier
}

func NewAuthMiddleware(verifier auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		if claims.DoctorID != "" {
			c.Set(ContextDoctorID, claims.DoctorID)
		}
		c.Next()
	}
}

// RequireRole aborts unless the authenticated actor has one of the
// given roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetString(ContextRole)
		for _, role := range roles {
			if actor == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

// ActorDoctorID returns the doctor id bound to the request's token,
// if the actor is a doctor.
func ActorDoctorID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ContextDoctorID)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnsureOwnDoctor verifies a doctor actor only touches its own data.
// Admins pass through.
func EnsureOwnDoctor(c *gin.Context, doctorID uuid.UUID) error {
	if c.GetString(ContextRole) != RoleDoctor {
		return nil
	}
	actor, ok := ActorDoctorID(c)
	if !ok || actor != doctorID {
		return fmt.Errorf("doctor %s cannot act on another doctor's data", actor)
	}
	return nil
}
