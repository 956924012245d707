package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, AppointmentStatusPending, NormalizeStatus(AppointmentStatusPending))
	assert.Equal(t, AppointmentStatusCompleted, NormalizeStatus(AppointmentStatusCompleted))
	assert.Equal(t, AppointmentStatusCancelled, NormalizeStatus(AppointmentStatusCancelled))

	// Anything unrecognized reads as pending.
	assert.Equal(t, AppointmentStatusPending, NormalizeStatus(""))
	assert.Equal(t, AppointmentStatusPending, NormalizeStatus("scheduled"))
	assert.Equal(t, AppointmentStatusPending, NormalizeStatus("PENDING"))
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, AppointmentStatusPending.IsTerminal())
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.False(t, AppointmentStatus("scheduled").IsTerminal())
}
