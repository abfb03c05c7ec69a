// Package engine groups the three engine-glow channels into one named mode.
package engine

import (
	"math"

	"falcon-lights/internal/core"
	"falcon-lights/internal/led"
)

// Mode is the named animation mode of the engine group.
type Mode int

const (
	Off Mode = iota
	Idling
	FullPower
	Failing
	RampingUp
	RampingDown
	Landing
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case Idling:
		return "idling"
	case FullPower:
		return "fullPower"
	case Failing:
		return "failing"
	case RampingUp:
		return "rampingUp"
	case RampingDown:
		return "rampingDown"
	case Landing:
		return "landing"
	}
	return "unknown"
}

// Engine fans an engine-level mode change out into three individually
// phased channel reconfigurations.
type Engine struct {
	mode  Mode
	glow1 *led.Animator
	glow2 *led.Animator
	glow3 *led.Animator
}

// New creates an engine group over three glow channels.
func New(glow1, glow2, glow3 *led.Animator) *Engine {
	return &Engine{glow1: glow1, glow2: glow2, glow3: glow3}
}

// Mode returns the current engine mode.
func (e *Engine) Mode() Mode { return e.mode }

// NewState reconfigures all three glow channels for the given mode. All
// three mutations complete before any subsequent Loop call.
func (e *Engine) NewState(mode Mode) {
	e.mode = mode
	switch mode {
	case Off:
		e.glow1.Off()
		e.glow2.Off()
		e.glow3.Off()

	case Idling:
		e.staggered(2000, 10, 40)

	case FullPower:
		e.staggered(60, 200, 255)

	case Failing:
		// Deliberately unsynchronized: two flicker ranges and a slow swell.
		e.glow1.StartFlicker(64, 128, 0)
		e.glow2.StartFlicker(0, 64, 0)
		e.glow3.StartSinusoid(1000, 64, 170, 0)

	case RampingUp:
		e.rampAll(220, 6000)

	case RampingDown:
		e.rampAll(0, 2000)

	case Landing:
		e.rampAll(25, 4000)
	}
}

// Loop forwards the tick to each glow channel. No logic of its own.
func (e *Engine) Loop(now core.Millis) {
	e.glow1.Update(now)
	e.glow2.Update(now)
	e.glow3.Update(now)
}

// staggered starts identical sinusoids offset by a third of the period so
// the three channels appear to pulse in a rotating pattern.
func (e *Engine) staggered(period, minBright, maxBright int) {
	third := int(math.Round(float64(period) / 3))
	e.glow1.StartSinusoid(period, minBright, maxBright, 0)
	e.glow2.StartSinusoid(period, minBright, maxBright, third)
	e.glow3.StartSinusoid(period, minBright, maxBright, -third)
}

func (e *Engine) rampAll(target, period int) {
	e.glow1.RampTo(target, period, 0)
	e.glow2.RampTo(target, period, 0)
	e.glow3.RampTo(target, period, 0)
}
