package agent

import (
	"context"
	"log"
	"sync"
	"time"

	"falcon-lights/internal/ble"
	"falcon-lights/internal/config"
	"falcon-lights/internal/core"
	"falcon-lights/internal/scheduler"
)

// Agent wires the animation core to the BLE peripheral and owns the
// orchestration loops.
type Agent struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config
	wg     sync.WaitGroup

	state          *core.State
	eventBus       *core.EventBus
	commandChannel core.CommandChannel

	clock core.Clock
	tick  time.Duration

	bleController *ble.Controller
	scheduler     *scheduler.Scheduler
	vehicle       *vehicle

	showMu     sync.Mutex
	showCancel context.CancelFunc
	showDone   chan struct{}
}

// NewAgent builds the agent from the loaded configuration.
func NewAgent(cfg *config.Config) (*Agent, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Agent{
		ctx:            ctx,
		cancel:         cancel,
		config:         cfg,
		state:          core.NewState(),
		eventBus:       core.NewEventBus(),
		commandChannel: make(core.CommandChannel, 20),
		clock:          core.NewSystemClock(),
	}

	bleScanTimeout, _ := time.ParseDuration(cfg.BLE.ScanTimeout)
	bleConnectTimeout, _ := time.ParseDuration(cfg.BLE.ConnectTimeout)
	bleHeartbeatInterval, _ := time.ParseDuration(cfg.BLE.HeartbeatInterval)
	bleRetryDelay, _ := time.ParseDuration(cfg.BLE.RetryDelay)

	a.bleController = ble.NewController(
		ctx,
		cfg.BLE.DeviceNames,
		bleScanTimeout,
		bleConnectTimeout,
		bleHeartbeatInterval,
		bleRetryDelay,
		cfg.BLE.RateLimit,
		cfg.BLE.RateBurst,
	)

	// Validated by config.Load.
	a.tick, _ = time.ParseDuration(cfg.Show.TickInterval)

	a.vehicle = newVehicle(cfg.Show.Channels, a.bleController, a.clock, core.NewSeededRand(), a.eventBus)

	a.scheduler = scheduler.NewScheduler(a.commandChannel, cfg.SchedulesFile)

	return a, nil
}

// Run starts the agent orchestration loop.
func (a *Agent) Run() {
	go a.listenEvents()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.bleController.Run(a.ctx, func(connected bool, rssi int16) {
			a.eventBus.Publish(core.Event{
				Type:    core.DeviceConnectedEvent,
				Payload: map[string]interface{}{"connected": connected, "rssi": rssi},
			})
		})
	}()

	a.scheduler.Start()

	if !a.config.Show.ManualStart {
		a.commandChannel <- core.Command{Type: core.CmdShowOn}
	}

	log.Println("[Agent] Orchestrator ready.")
	for {
		select {
		case <-a.ctx.Done():
			log.Println("[Agent] Orchestrator shutting down...")
			return
		case cmd := <-a.commandChannel:
			a.handleCommand(cmd)
		}
	}
}

// listenEvents maintains the central state and resyncs the peripheral's
// channel levels after a reconnect (the device forgets them).
func (a *Agent) listenEvents() {
	sub := a.eventBus.Subscribe(core.DeviceConnectedEvent, core.FlightStateChangedEvent)

	for {
		select {
		case <-a.ctx.Done():
			return
		case event := <-sub:
			switch event.Type {
			case core.DeviceConnectedEvent:
				payload, ok := event.Payload.(map[string]interface{})
				if !ok {
					continue
				}
				connected, okC := payload["connected"].(bool)
				rssi, okR := payload["rssi"].(int16)
				if !okC || !okR {
					continue
				}
				wasConnected := a.state.Clone().IsConnected
				a.state.SetConnection(connected, rssi)
				if !wasConnected && connected && a.state.Clone().ShowRunning {
					log.Println("[Agent] Device connected, resyncing channel levels.")
					a.vehicle.resync()
				}

			case core.FlightStateChangedEvent:
				if payload, ok := event.Payload.(map[string]interface{}); ok {
					if name, ok := payload["state"].(string); ok {
						a.state.SetFlightState(name)
					}
				}
			}
		}
	}
}

// Shutdown stops everything and waits for the loops to drain.
func (a *Agent) Shutdown() {
	a.scheduler.Stop()
	a.stopShow()
	a.cancel()
	a.wg.Wait()
}
