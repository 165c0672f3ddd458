package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/taoyao-code/radiacode-server/internal/api"
)

func TestCommanderUnknownDevice(t *testing.T) {
	_, appm := NewMetrics()
	fleet := NewFleet(zap.NewNop(), appm)

	assert.ErrorIs(t, fleet.SetSoundOn("RC-000-000", true), api.ErrUnknownDevice)
	assert.ErrorIs(t, fleet.DoseReset("RC-000-000"), api.ErrUnknownDevice)
	assert.ErrorIs(t, fleet.PowerOff("RC-000-000"), api.ErrUnknownDevice)
}

func TestFleetListEmpty(t *testing.T) {
	_, appm := NewMetrics()
	fleet := NewFleet(zap.NewNop(), appm)

	assert.Empty(t, fleet.List())
	assert.Equal(t, 0, fleet.Size())
	_, ok := fleet.Get("RC-000-000")
	assert.False(t, ok)
}
