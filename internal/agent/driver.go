package agent

import (
	"context"
	"time"

	"falcon-lights/internal/config"
	"falcon-lights/internal/core"
	"falcon-lights/internal/engine"
	"falcon-lights/internal/led"
	"falcon-lights/internal/sequencer"
)

// vehicle aggregates the animation state for the one model: six channel
// animators, the engine group and the flight sequencer. Constructed once
// and owned exclusively by the agent's driver loop.
type vehicle struct {
	cockpit       *led.Animator
	headlights    *led.Animator
	landingLights *led.Animator
	engine        *engine.Engine
	sequencer     *sequencer.Sequencer

	// channels lists every animator in init/resync order.
	channels []*led.Animator
}

func newVehicle(cfg config.ChannelsConfig, out led.Writer, clock core.Clock, rnd core.Rand, bus *core.EventBus) *vehicle {
	v := &vehicle{
		cockpit:       led.New(cfg.Cockpit, out, clock, rnd),
		headlights:    led.New(cfg.Headlights, out, clock, rnd),
		landingLights: led.New(cfg.LandingLights, out, clock, rnd),
	}
	glow1 := led.New(cfg.Engine[0], out, clock, rnd)
	glow2 := led.New(cfg.Engine[1], out, clock, rnd)
	glow3 := led.New(cfg.Engine[2], out, clock, rnd)
	v.engine = engine.New(glow1, glow2, glow3)
	v.sequencer = sequencer.New(v.engine, v.cockpit, v.headlights, v.landingLights, rnd, bus)
	v.channels = []*led.Animator{glow1, glow2, glow3, v.cockpit, v.headlights, v.landingLights}
	return v
}

// resync re-emits every channel's last brightness.
func (v *vehicle) resync() {
	for _, ch := range v.channels {
		ch.Resync()
	}
}

// allOff drives every channel dark.
func (v *vehicle) allOff() {
	v.engine.NewState(engine.Off)
	v.cockpit.Off()
	v.headlights.Off()
	v.landingLights.Off()
}

// runShow is the driver loop: the startup flash test and ground preset,
// then one sequencer tick per interval until cancelled.
func (a *Agent) runShow(ctx context.Context, done chan struct{}) {
	defer close(done)
	v := a.vehicle

	for _, ch := range v.channels {
		ch.Init()
	}
	v.cockpit.On(255)
	v.headlights.Off()
	v.landingLights.On(255)
	v.sequencer.Begin(a.clock.Now())

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			v.allOff()
			return
		case <-ticker.C:
			v.sequencer.Tick(a.clock.Now())
		}
	}
}
