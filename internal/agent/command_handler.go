package agent

import (
	"context"
	"log"

	"falcon-lights/internal/core"
)

func (a *Agent) handleCommand(cmd core.Command) {
	log.Printf("[Agent] Handling command: %s", cmd.Type)

	switch cmd.Type {
	case core.CmdShowOn:
		a.startShow()
	case core.CmdShowOff:
		a.stopShow()
	default:
		log.Printf("[Agent] Unknown command type: %s", cmd.Type)
	}
}

// startShow launches the driver loop unless it is already running.
func (a *Agent) startShow() {
	a.showMu.Lock()
	defer a.showMu.Unlock()

	if a.showCancel != nil {
		log.Println("[Agent] Show already running.")
		return
	}

	ctx, cancel := context.WithCancel(a.ctx)
	done := make(chan struct{})
	a.showCancel = cancel
	a.showDone = done

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runShow(ctx, done)
	}()

	a.state.SetShowRunning(true)
	a.eventBus.Publish(core.Event{
		Type:    core.ShowChangedEvent,
		Payload: map[string]interface{}{"running": true},
	})
	log.Println("[Agent] Show started.")
}

// stopShow cancels the driver loop, waits for it to finish and makes sure
// every channel on the peripheral is dark.
func (a *Agent) stopShow() {
	a.showMu.Lock()
	defer a.showMu.Unlock()

	if a.showCancel == nil {
		return
	}

	a.showCancel()
	<-a.showDone
	a.showCancel = nil
	a.showDone = nil

	// Per-channel zero frames may be shed by the rate limiter; the
	// broadcast off frame is authoritative.
	a.bleController.AllOff()

	a.state.SetShowRunning(false)
	a.eventBus.Publish(core.Event{
		Type:    core.ShowChangedEvent,
		Payload: map[string]interface{}{"running": false},
	})
	log.Println("[Agent] Show stopped.")
}
