package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountdownFiresOnce(t *testing.T) {
	var c Countdown
	assert.False(t, c.Tick(1), "unarmed countdown must not fire")

	c.Start(1.5)
	assert.False(t, c.Tick(1))
	assert.True(t, c.Tick(0.5))
	assert.False(t, c.Armed())
	assert.False(t, c.Tick(1))
}

func TestCountdownCancel(t *testing.T) {
	var c Countdown
	c.Start(1)
	c.Cancel()
	assert.False(t, c.Tick(2))
}
