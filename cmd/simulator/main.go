// Command simulator runs the flight show against a terminal renderer
// instead of the BLE peripheral, so the narrative and waveforms can be
// previewed without hardware.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"falcon-lights/internal/core"
	"falcon-lights/internal/engine"
	"falcon-lights/internal/led"
	"falcon-lights/internal/sequencer"
)

const barWidth = 40

var channelNames = [6]string{
	"Cockpit",
	"Headlights",
	"Landing lights",
	"Engine glow 1",
	"Engine glow 2",
	"Engine glow 3",
}

// screenWriter keeps the latest brightness per channel. It is only touched
// from the main loop goroutine, so it needs no locking.
type screenWriter struct {
	levels [6]uint8
}

func (w *screenWriter) WriteBrightness(channel int, value uint8) {
	if channel >= 0 && channel < len(w.levels) {
		w.levels[channel] = value
	}
}

func main() {
	tick := flag.Duration("tick", 5*time.Millisecond, "animation tick interval")
	flag.Parse()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.HideCursor()

	out := &screenWriter{}
	clock := core.NewSystemClock()
	rnd := core.NewSeededRand()

	cockpit := led.New(0, out, clock, rnd)
	headlights := led.New(1, out, clock, rnd)
	landingLights := led.New(2, out, clock, rnd)
	glow1 := led.New(3, out, clock, rnd)
	glow2 := led.New(4, out, clock, rnd)
	glow3 := led.New(5, out, clock, rnd)
	animators := []*led.Animator{cockpit, headlights, landingLights, glow1, glow2, glow3}

	eng := engine.New(glow1, glow2, glow3)
	seq := sequencer.New(eng, cockpit, headlights, landingLights, rnd, nil)

	// Ground preset, then straight into the narrative (no flash test here).
	cockpit.On(255)
	headlights.Off()
	landingLights.On(255)
	seq.Begin(clock.Now())

	quit := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					close(quit)
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}()

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()
	frame := time.NewTicker(33 * time.Millisecond)
	defer frame.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			seq.Tick(clock.Now())
		case <-frame.C:
			draw(screen, out, seq, animators)
		}
	}
}

func draw(screen tcell.Screen, out *screenWriter, seq *sequencer.Sequencer, animators []*led.Animator) {
	screen.Clear()
	title := fmt.Sprintf("Falcon Lights - %s (press q to quit)", seq.State())
	drawText(screen, 1, 0, tcell.StyleDefault.Bold(true), title)

	for i, a := range animators {
		level := out.levels[a.Channel()]
		y := 2 + i
		drawText(screen, 1, y, tcell.StyleDefault,
			fmt.Sprintf("%-15s %-9s %3d ", channelNames[i], a.ModeName(), level))

		barLen := int(level) * barWidth / 255
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(level), int32(level), int32(level)))
		for x := 0; x < barWidth; x++ {
			r := ' '
			if x < barLen {
				r = '█'
			}
			screen.SetContent(32+x, y, r, nil, style)
		}
	}
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
