// Package led implements the per-channel brightness waveform engine.
//
// Each Animator owns one output channel and computes its brightness for any
// elapsed time from the active waveform. Every mode switch anchors on the
// last emitted value and crossfades onto the new waveform, so transitions
// between arbitrary shapes never jump.
package led

import (
	"math"
	"time"

	"falcon-lights/internal/core"
)

// FlickerInterval is the resample cadence of the flicker waveform in ms.
const FlickerInterval = 29

// flashDuration is how long the power-on flash test holds full brightness.
const flashDuration = 250 * time.Millisecond

// waveform is the active animation mode. One implementation per mode, each
// carrying only the parameters that mode uses.
type waveform interface {
	// delay is the ms before the waveform becomes active after a mode switch.
	delay() int
	// blendPeriod sizes the crossfade window (first half of it blends).
	blendPeriod() int
}

type offWave struct{}

type onWave struct {
	max int
}

type rampWave struct {
	from, to int
	period   int
	startLag int
}

type sinusoidWave struct {
	period   int
	phase    int
	min, max int
}

type flickerWave struct {
	min, max int
	startLag int
	bucket   int
}

func (offWave) delay() int        { return 0 }
func (onWave) delay() int         { return 0 }
func (w *rampWave) delay() int    { return w.startLag }
func (sinusoidWave) delay() int   { return 0 }
func (w *flickerWave) delay() int { return w.startLag }

func (offWave) blendPeriod() int         { return 0 }
func (onWave) blendPeriod() int          { return 0 }
func (w *rampWave) blendPeriod() int     { return w.period }
func (w *sinusoidWave) blendPeriod() int { return w.period }
func (*flickerWave) blendPeriod() int    { return FlickerInterval }

// Animator drives one output channel through its brightness waveform.
type Animator struct {
	channel int
	out     Writer
	clock   core.Clock
	rand    core.Rand

	mode      waveform
	startTime core.Millis
	lastValue int
}

// New creates an animator bound to a fixed output channel, initially off.
func New(channel int, out Writer, clock core.Clock, rand core.Rand) *Animator {
	return &Animator{
		channel: channel,
		out:     out,
		clock:   clock,
		rand:    rand,
		mode:    offWave{},
	}
}

// Channel returns the output channel this animator is bound to.
func (a *Animator) Channel() int { return a.channel }

// ModeName returns the active waveform name, for logging and display.
func (a *Animator) ModeName() string {
	switch a.mode.(type) {
	case offWave:
		return "off"
	case onWave:
		return "on"
	case *rampWave:
		return "ramp"
	case *sinusoidWave:
		return "sinusoid"
	case *flickerWave:
		return "flicker"
	}
	return "unknown"
}

// Init runs the power-on flash test: full brightness, a short blocking hold,
// then dark. This is the only blocking call outside the animation loop.
func (a *Animator) Init() {
	a.out.WriteBrightness(a.channel, 255)
	time.Sleep(flashDuration)
	a.out.WriteBrightness(a.channel, 0)
	a.startTime = a.clock.Now()
}

// Off switches the channel off immediately.
func (a *Animator) Off() {
	a.mode = offWave{}
	a.startTime = a.clock.Now()
	a.lastValue = 0
	a.out.WriteBrightness(a.channel, 0)
}

// On switches the channel to a steady brightness immediately.
func (a *Animator) On(max int) {
	a.mode = onWave{max: max}
	a.startTime = a.clock.Now()
	a.lastValue = max
	a.out.WriteBrightness(a.channel, clampByte(max))
}

// RampTo interpolates from the last emitted value to target over period ms,
// optionally after a delay. Ramping to the current value is a legal no-op.
func (a *Animator) RampTo(target, period, delay int) {
	a.mode = &rampWave{from: a.lastValue, to: target, period: period, startLag: delay}
	a.startTime = a.clock.Now()
	a.Update(a.startTime)
}

// StartSinusoid begins a cosine oscillation between the two bounds, one full
// cycle per period ms. The phase offset desynchronizes channels that are
// otherwise configured identically.
func (a *Animator) StartSinusoid(period, minBright, maxBright, phase int) {
	a.mode = &sinusoidWave{period: period, phase: phase, min: minBright, max: maxBright}
	a.startTime = a.clock.Now()
	a.Update(a.startTime)
}

// StartFlicker begins a stochastic waveform that resamples a random
// brightness within the bounds every FlickerInterval ms of elapsed time,
// holding the previous sample between draws.
func (a *Animator) StartFlicker(minBright, maxBright, delay int) {
	a.mode = &flickerWave{min: minBright, max: maxBright, startLag: delay, bucket: -1}
	a.startTime = a.clock.Now()
}

// Resync re-emits the last computed brightness. Used after the peripheral
// reconnects and has lost its channel levels.
func (a *Animator) Resync() {
	a.out.WriteBrightness(a.channel, clampByte(a.lastValue))
}

// Update recomputes the brightness for the elapsed time and writes it to the
// output if it changed. It must be called every driver tick and is
// idempotent for a repeated timestamp.
func (a *Animator) Update(now core.Millis) {
	delta := int(core.Since(now, a.startTime)) - a.mode.delay()
	if delta < 0 {
		// Still inside the pre-start delay window.
		return
	}

	var value int
	switch m := a.mode.(type) {
	case offWave:
		value = 0

	case onWave:
		value = m.max

	case *rampWave:
		p := m.period
		if p < 1 {
			p = 1
		}
		f := float64(min(delta, p)) / float64(p)
		value = m.from + int(float64(m.to-m.from)*f)

	case *sinusoidWave:
		p := m.period
		if p < 2 {
			p = 2
		}
		t := float64((delta+m.phase)%p) / float64(p-1)
		v := (math.Cos(2*math.Pi*(t-0.5)) + 1) / 2
		value = m.min + int(float64(m.max-m.min)*v)

	case *flickerWave:
		value = a.lastValue
		if b := delta / FlickerInterval; b != m.bucket {
			m.bucket = b
			value = a.rand.IntN(m.min, m.max)
		}
	}

	// Crossfade: for the first half of the mode's period, blend toward the
	// value displayed before the switch with a linearly decaying weight.
	if half := float64(a.mode.blendPeriod()) / 2; half > 0 {
		if factor := (half - float64(delta)) / half; factor > 0 {
			value = int(factor*float64(a.lastValue) + (1-factor)*float64(value))
		}
	}

	if value != a.lastValue {
		a.out.WriteBrightness(a.channel, clampByte(value))
	}
	a.lastValue = value
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
