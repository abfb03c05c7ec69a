package core

import "sync"

// State holds the single source of truth for the controller.
type State struct {
	mu          sync.RWMutex
	IsConnected bool
	RSSI        int16
	ShowRunning bool
	FlightState string
}

// NewState creates a new State instance.
func NewState() *State {
	return &State{}
}

// Clone returns a snapshot of the current state for safe reading.
func (s *State) Clone() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		IsConnected: s.IsConnected,
		RSSI:        s.RSSI,
		ShowRunning: s.ShowRunning,
		FlightState: s.FlightState,
	}
}

// SetConnection updates connection state.
func (s *State) SetConnection(connected bool, rssi int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IsConnected = connected
	s.RSSI = rssi
}

// SetShowRunning updates whether the flight show is active.
func (s *State) SetShowRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ShowRunning = running
}

// SetFlightState updates the current flight sequencer state name.
func (s *State) SetFlightState(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FlightState = name
}
