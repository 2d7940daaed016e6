package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleFromString(t *testing.T) {
	role, ok := RoleFromString("donor")
	assert.True(t, ok)
	assert.Equal(t, RoleDonor, role)

	role, ok = RoleFromString("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = RoleFromString("moderator")
	assert.False(t, ok)
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleDonor.CanDonate())
	assert.False(t, RoleReceiver.CanDonate())

	assert.True(t, RoleReceiver.CanRequestPickup())
	assert.False(t, RoleDonor.CanRequestPickup())

	assert.True(t, RoleAdmin.CanModerate())
	assert.False(t, RoleDonor.CanModerate())
}

func TestCounterpartType(t *testing.T) {
	assert.Equal(t, MessageFromReceiver, CounterpartType(MessageFromDonor))
	assert.Equal(t, MessageFromDonor, CounterpartType(MessageFromReceiver))
}
