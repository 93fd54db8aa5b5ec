package component

// Countdown is a seconds-based timer. It replaces frame counters so that
// timing stays correct under a variable tick rate.
type Countdown struct {
	Remaining float64
	armed     bool
}

// Start arms the countdown for d seconds.
func (c *Countdown) Start(d float64) {
	c.Remaining = d
	c.armed = true
}

// Cancel disarms the countdown without firing.
func (c *Countdown) Cancel() {
	c.Remaining = 0
	c.armed = false
}

func (c *Countdown) Armed() bool {
	return c != nil && c.armed
}

// Tick advances the countdown and reports whether it fired on this call.
// A countdown fires once, when Remaining reaches zero or below.
func (c *Countdown) Tick(dt float64) bool {
	if c == nil || !c.armed {
		return false
	}
	c.Remaining -= dt
	if c.Remaining <= 0 {
		c.armed = false
		return true
	}
	return false
}
