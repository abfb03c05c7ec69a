package led

import (
	"math"
	"testing"

	"falcon-lights/internal/core"
)

type fakeClock struct {
	now core.Millis
}

func (c *fakeClock) Now() core.Millis { return c.now }

type scriptRand struct {
	values []int
}

func (r *scriptRand) IntN(lo, hi int) int {
	if len(r.values) == 0 {
		return lo
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v
}

type write struct {
	channel int
	value   uint8
}

type recordWriter struct {
	writes []write
}

func (w *recordWriter) WriteBrightness(channel int, value uint8) {
	w.writes = append(w.writes, write{channel: channel, value: value})
}

func newTestAnimator(values ...int) (*Animator, *recordWriter, *fakeClock) {
	out := &recordWriter{}
	clock := &fakeClock{}
	a := New(7, out, clock, &scriptRand{values: values})
	return a, out, clock
}

func TestOnOffImmediate(t *testing.T) {
	a, out, _ := newTestAnimator()

	a.On(200)
	if len(out.writes) != 1 || out.writes[0] != (write{channel: 7, value: 200}) {
		t.Fatalf("Expected immediate write of 200 on channel 7, got %v", out.writes)
	}
	if a.lastValue != 200 {
		t.Errorf("Expected lastValue 200, got %d", a.lastValue)
	}

	a.Off()
	if len(out.writes) != 2 || out.writes[1].value != 0 {
		t.Fatalf("Expected immediate write of 0, got %v", out.writes)
	}
	if a.lastValue != 0 {
		t.Errorf("Expected lastValue 0, got %d", a.lastValue)
	}
}

func TestDelayWindowProducesNoWrite(t *testing.T) {
	a, out, clock := newTestAnimator()
	a.On(100)
	before := len(out.writes)

	clock.now = 1000
	a.RampTo(200, 1000, 500)

	for _, now := range []core.Millis{1000, 1200, 1499} {
		a.Update(now)
	}
	if len(out.writes) != before {
		t.Errorf("Expected no writes inside the delay window, got %v", out.writes[before:])
	}
	if a.lastValue != 100 {
		t.Errorf("Expected lastValue unchanged at 100, got %d", a.lastValue)
	}

	// Once the delay and period have elapsed the ramp reaches its target.
	a.Update(2501)
	if a.lastValue != 200 {
		t.Errorf("Expected the ramp to complete after the delay, got %d", a.lastValue)
	}
}

func TestRampContinuityAndEndpoint(t *testing.T) {
	a, out, clock := newTestAnimator()
	a.On(50)
	clock.now = 2000

	a.RampTo(250, 1000, 0)
	if a.lastValue != 50 {
		t.Fatalf("Expected ramp to start at the previous value 50, got %d", a.lastValue)
	}

	a.Update(2500) // midpoint, past the blend window
	if a.lastValue != 150 {
		t.Errorf("Expected midpoint value 150, got %d", a.lastValue)
	}

	a.Update(3000)
	if a.lastValue != 250 {
		t.Errorf("Expected endpoint value 250, got %d", a.lastValue)
	}
	last := out.writes[len(out.writes)-1]
	if last.value != 250 {
		t.Errorf("Expected final write 250, got %d", last.value)
	}

	// Past the period the ramp holds its target.
	n := len(out.writes)
	a.Update(5000)
	if a.lastValue != 250 || len(out.writes) != n {
		t.Errorf("Expected the ramp to hold at 250 with no further writes")
	}
}

func TestRampToCurrentValueIsNoOp(t *testing.T) {
	a, out, clock := newTestAnimator()
	a.On(100)
	before := len(out.writes)

	clock.now = 1000
	a.RampTo(100, 500, 0)
	for now := core.Millis(1000); now <= 2000; now += 50 {
		a.Update(now)
	}
	if len(out.writes) != before {
		t.Errorf("Expected a same-value ramp to emit nothing, got %v", out.writes[before:])
	}
}

func TestSinusoidPeriodicity(t *testing.T) {
	a, _, _ := newTestAnimator()
	a.StartSinusoid(200, 0, 255, 0)

	// Both samples are past the crossfade window (period/2 = 100).
	a.Update(300)
	first := a.lastValue
	a.Update(500)
	second := a.lastValue

	if first != second {
		t.Errorf("Expected brightness at delta and delta+period to match, got %d and %d", first, second)
	}
}

func TestSinusoidRangeAndShape(t *testing.T) {
	a, _, _ := newTestAnimator()
	a.StartSinusoid(2000, 10, 40, 0)

	for now := core.Millis(1001); now < 5000; now += 7 {
		a.Update(now)
		if a.lastValue < 10 || a.lastValue > 40 {
			t.Fatalf("Brightness %d out of bounds [10, 40] at now=%d", a.lastValue, now)
		}
	}
}

func TestFlickerResamplesOnCadence(t *testing.T) {
	a, out, _ := newTestAnimator(100, 180, 90)
	a.Off()

	a.StartFlicker(50, 200, 0)

	// Inside the crossfade window the pre-switch value still dominates.
	a.Update(0)
	if a.lastValue != 0 {
		t.Fatalf("Expected the switch to anchor on the previous value, got %d", a.lastValue)
	}

	a.Update(29)
	if a.lastValue != 180 {
		t.Fatalf("Expected resample to 180 at delta 29, got %d", a.lastValue)
	}

	// Held constant between multiples of the cadence.
	n := len(out.writes)
	for _, now := range []core.Millis{35, 40, 57} {
		a.Update(now)
	}
	if a.lastValue != 180 || len(out.writes) != n {
		t.Errorf("Expected the sample to hold between cadence multiples")
	}

	a.Update(58)
	if a.lastValue != 90 {
		t.Errorf("Expected resample to 90 at delta 58, got %d", a.lastValue)
	}
}

func TestFlickerDelayed(t *testing.T) {
	a, out, _ := newTestAnimator(77)
	a.On(10)
	before := len(out.writes)

	a.StartFlicker(0, 128, 500)
	for _, now := range []core.Millis{0, 100, 499} {
		a.Update(now)
	}
	if len(out.writes) != before || a.lastValue != 10 {
		t.Errorf("Expected silence during the flicker delay window")
	}
}

func TestCrossfadeLaw(t *testing.T) {
	tests := []struct {
		name   string
		start  func(a *Animator)
	}{
		{"ramp", func(a *Animator) { a.RampTo(255, 1000, 0) }},
		{"sinusoid", func(a *Animator) { a.StartSinusoid(1000, 200, 255, 0) }},
		{"flicker", func(a *Animator) { a.StartFlicker(200, 255, 0); a.Update(a.clock.Now()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out, clock := newTestAnimator(250)
			a.On(120)
			before := len(out.writes)

			clock.now = 5000
			tt.start(a)
			if a.lastValue != 120 {
				t.Errorf("Expected brightness at delta 0 to equal the pre-switch value 120, got %d", a.lastValue)
			}
			if len(out.writes) != before {
				t.Errorf("Expected no write at the switch instant, got %v", out.writes[before:])
			}
		})
	}
}

func TestCrossfadeConvergesOntoNewWaveform(t *testing.T) {
	a, _, clock := newTestAnimator()
	a.On(200)
	clock.now = 1000

	a.RampTo(0, 1000, 0)
	prev := a.lastValue
	for now := core.Millis(1010); now <= 2000; now += 10 {
		a.Update(now)
		if a.lastValue > prev {
			t.Fatalf("Expected a monotonic descent through the blend, got %d after %d", a.lastValue, prev)
		}
		prev = a.lastValue
	}
	if a.lastValue != 0 {
		t.Errorf("Expected the blend to converge onto the ramp target 0, got %d", a.lastValue)
	}
}

func TestTinyPeriodsDoNotPanic(t *testing.T) {
	a, _, _ := newTestAnimator(5)
	a.On(100)

	a.RampTo(200, 0, 0)
	a.Update(0)
	a.Update(10)

	a.StartSinusoid(1, 0, 255, 0)
	a.Update(0)
	a.Update(3)

	a.StartSinusoid(0, 0, 255, 0)
	a.Update(1)
}

func TestUpdateIdempotentForSameInstant(t *testing.T) {
	a, out, _ := newTestAnimator(60, 70)
	a.StartFlicker(0, 128, 0)

	a.Update(29)
	value := a.lastValue
	n := len(out.writes)

	a.Update(29)
	if a.lastValue != value || len(out.writes) != n {
		t.Errorf("Expected a repeated timestamp to change nothing")
	}
}

func TestResyncReemitsLastValue(t *testing.T) {
	a, out, _ := newTestAnimator()
	a.On(150)

	a.Resync()
	last := out.writes[len(out.writes)-1]
	if last != (write{channel: 7, value: 150}) {
		t.Errorf("Expected resync to re-emit 150, got %v", last)
	}
}

func TestWrapTolerantElapsedTime(t *testing.T) {
	a, _, clock := newTestAnimator()
	a.On(0)

	// Start a ramp just before the millisecond counter wraps.
	clock.now = core.Millis(math.MaxUint32 - 100)
	a.RampTo(200, 1000, 0)

	a.Update(900) // wrapped: 1001 ms elapsed
	if a.lastValue != 200 {
		t.Errorf("Expected the ramp to complete across the wrap, got %d", a.lastValue)
	}
}
