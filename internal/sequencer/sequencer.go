// Package sequencer implements the top-level flight state machine. It cycles
// forever through the narrative: ground idle, launch, flight, an occasional
// engine failure with emergency shutdown and restart, and landing.
package sequencer

import (
	"log"

	"falcon-lights/internal/core"
	"falcon-lights/internal/engine"
	"falcon-lights/internal/led"
)

// FlightState is one discrete state of the flight narrative.
type FlightState int

const (
	OnGround FlightState = iota
	PrepareForFlight
	FailingStart
	Failing
	EmergencyShutdown
	Restarting
	InFlight
	Landing
)

func (s FlightState) String() string {
	switch s {
	case OnGround:
		return "OnGround"
	case PrepareForFlight:
		return "PrepareForFlight"
	case FailingStart:
		return "FailingStart"
	case Failing:
		return "Failing"
	case EmergencyShutdown:
		return "EmergencyShutdown"
	case Restarting:
		return "Restarting"
	case InFlight:
		return "InFlight"
	case Landing:
		return "Landing"
	}
	return "unknown"
}

// transition holds the dwell time before the next switch and its target.
type transition struct {
	dwell int
	next  FlightState
}

// Sequencer owns the engine group and the three top-level lighting channels
// and reconfigures them on every state entry.
type Sequencer struct {
	engine        *engine.Engine
	cockpit       *led.Animator
	headlights    *led.Animator
	landingLights *led.Animator
	rand          core.Rand
	bus           *core.EventBus

	state      FlightState
	stateStart core.Millis
	pending    transition

	// lastStartFailed suppresses two consecutive ground-failure branches.
	lastStartFailed bool
}

// New creates a sequencer. The event bus may be nil.
func New(eng *engine.Engine, cockpit, headlights, landingLights *led.Animator, rand core.Rand, bus *core.EventBus) *Sequencer {
	return &Sequencer{
		engine:        eng,
		cockpit:       cockpit,
		headlights:    headlights,
		landingLights: landingLights,
		rand:          rand,
		bus:           bus,
	}
}

// State returns the current flight state.
func (s *Sequencer) State() FlightState { return s.state }

// Begin puts the machine into its initial ground state.
func (s *Sequencer) Begin(now core.Millis) {
	s.stateStart = now
	s.pending = s.enter(OnGround)
}

// Tick runs one driver-loop iteration: the dwell check and any resulting
// reconfiguration first, then the channel updates, so no channel ever
// animates a tick on a mix of old-mode and new-mode parameters. The dwell
// comparison may overshoot by up to one tick; that drift is tolerated.
func (s *Sequencer) Tick(now core.Millis) {
	if core.Since(now, s.stateStart) > int32(s.pending.dwell) {
		s.stateStart = now
		s.pending = s.enter(s.pending.next)
	}

	s.engine.Loop(now)
	s.cockpit.Update(now)
	s.headlights.Update(now)
	s.landingLights.Update(now)
}

// enter reconfigures the channels for the given state and computes when and
// where to transition next. The per-state ramp constants are the show.
func (s *Sequencer) enter(state FlightState) transition {
	s.state = state
	log.Printf("[Sequencer] Entering %s", state)
	if s.bus != nil {
		s.bus.Publish(core.Event{
			Type:    core.FlightStateChangedEvent,
			Payload: map[string]interface{}{"state": state.String()},
		})
	}

	switch state {
	case OnGround:
		s.cockpit.RampTo(255, 250, 0)
		s.headlights.RampTo(0, 1000, 0)
		s.landingLights.RampTo(255, 1000, 1000)
		s.engine.NewState(engine.Idling)

		draw := s.rand.IntN(0, 4)
		failed := !s.lastStartFailed && draw == 0
		s.lastStartFailed = failed
		next := PrepareForFlight
		if failed {
			next = FailingStart
		}
		return transition{dwell: s.rand.IntN(5000, 20000), next: next}

	case PrepareForFlight:
		s.cockpit.RampTo(64, 3000, 2000)
		s.headlights.RampTo(255, 500, 1400)
		s.landingLights.RampTo(0, 1500, 0)
		s.engine.NewState(engine.RampingUp)
		return transition{dwell: 6000, next: InFlight}

	case FailingStart:
		s.cockpit.RampTo(64, 3000, 2000)
		s.headlights.RampTo(255, 500, 1400)
		s.landingLights.RampTo(0, 1500, 0)
		s.engine.NewState(engine.RampingUp)
		return transition{dwell: s.rand.IntN(2000, 4000), next: Failing}

	case Failing:
		s.cockpit.StartFlicker(0, 128, s.rand.IntN(100, 1500))
		s.headlights.StartFlicker(0, 32, s.rand.IntN(1000, 2000))
		s.landingLights.StartFlicker(32, 128, s.rand.IntN(100, 2000))
		s.engine.NewState(engine.Failing)
		return transition{dwell: s.rand.IntN(1000, 2000), next: EmergencyShutdown}

	case EmergencyShutdown:
		s.headlights.RampTo(0, 750, 0)
		s.cockpit.RampTo(0, 250, 750)
		s.landingLights.RampTo(0, 500, 0)
		s.engine.NewState(engine.RampingDown)
		return transition{dwell: 5000, next: Restarting}

	case Restarting:
		s.headlights.Off()
		s.cockpit.RampTo(255, 750, 0)
		s.landingLights.RampTo(255, 1500, 2000)
		s.engine.NewState(engine.Off)
		return transition{dwell: 4000, next: OnGround}

	case InFlight:
		s.cockpit.RampTo(64, 250, 0)
		s.headlights.RampTo(255, 500, 0)
		s.landingLights.RampTo(0, 500, 0)
		s.engine.NewState(engine.FullPower)
		return transition{dwell: s.rand.IntN(10000, 20000), next: Landing}

	case Landing:
		s.cockpit.RampTo(200, 500, 0)
		s.landingLights.RampTo(255, 1500, 1500)
		s.headlights.RampTo(0, 2000, 1500)
		s.engine.NewState(engine.Landing)
		return transition{dwell: 4000, next: OnGround}
	}

	return transition{dwell: 5000, next: OnGround}
}
