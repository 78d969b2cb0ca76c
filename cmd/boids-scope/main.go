package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/oscillator"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/simulation"
	"github.com/spf13/pflag"
	"github.com/tochemey/goakt/v3/log"
)

const (
	trailLen    = 256
	scopeRange  = 0.6
	gainStep    = 0.001
	dampingStep = 0.0005
	frameTime   = 33 * time.Millisecond
)

type Scope struct {
	screen        tcell.Screen
	width, height int

	cfg  *simulation.Config
	seed uint64
	gen  *oscillator.Generator

	audioInit bool
	xs, ys    []float64
	lastErr   error // shown instead of the key help

	boids []behavior.Boid
	trail []oscillator.Point
}

func NewScope(screen tcell.Screen, cfg *simulation.Config) (*Scope, error) {
	voice, err := simulation.NewVoice(cfg, nil, simulation.NewSource(cfg.Seed))
	if err != nil {
		return nil, err
	}
	s := &Scope{
		screen: screen,
		cfg:    cfg,
		seed:   cfg.Seed,
		gen:    oscillator.NewGenerator(voice, trailLen),
		xs:     make([]float64, cfg.BlockSize),
		ys:     make([]float64, cfg.BlockSize),
	}
	if screen != nil {
		s.width, s.height = screen.Size()
	}
	return s, nil
}

func (s *Scope) initAudio() error {
	rate := beep.SampleRate(s.cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	voice := oscillator.NewStreamer(s.gen, s.cfg.BlockSize)
	speaker.Play(oscillator.Mix([]beep.Streamer{voice}, s.cfg.Volume))
	s.audioInit = true
	return nil
}

// handleKey applies one key press and reports whether the scope keeps running.
func (s *Scope) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}
	if ev.Key() != tcell.KeyRune {
		return true
	}

	st := s.gen.Settings()
	switch ev.Rune() {
	case 'q':
		return false
	case ' ':
		s.gen.SetMuted(!s.gen.Muted())
		return true
	case 'r':
		s.lastErr = s.respawn(s.seed + 1)
		return true
	case 'c':
		st.Cohesion -= gainStep
	case 'C':
		st.Cohesion += gainStep
	case 's':
		st.Separation -= gainStep
	case 'S':
		st.Separation += gainStep
	case 'a':
		st.Alignment -= gainStep
	case 'A':
		st.Alignment += gainStep
	case 'd':
		st.Damping -= dampingStep
	case 'D':
		st.Damping += dampingStep
	default:
		return true
	}
	s.gen.SetSettings(clampSettings(st))
	return true
}

func clampSettings(st behavior.Settings) behavior.Settings {
	clamp := func(v float64) float64 { return min(max(v, 0), 1) }
	return behavior.Settings{
		Damping:    clamp(st.Damping),
		Cohesion:   clamp(st.Cohesion),
		Separation: clamp(st.Separation),
		Alignment:  clamp(st.Alignment),
	}
}

func (s *Scope) respawn(seed uint64) error {
	voice, err := simulation.NewVoice(s.cfg, nil, simulation.NewSource(seed))
	if err != nil {
		return err
	}
	voice.SetSettings(s.gen.Settings())
	s.seed = seed
	return s.gen.Replace(voice).Close()
}

// cell maps simulation coordinates to a terminal cell. Cells are about twice
// as tall as wide, so the plot is twice as many columns as rows.
func (s *Scope) cell(px, py float64) (int, int, bool) {
	rows := s.height - 2
	cols := min(s.width, 2*rows)
	if rows <= 0 || cols <= 0 {
		return 0, 0, false
	}
	x := int((px + scopeRange) / (2 * scopeRange) * float64(cols-1))
	y := int((scopeRange - py) / (2 * scopeRange) * float64(rows-1))
	if x < 0 || x >= cols || y < 0 || y >= rows {
		return 0, 0, false
	}
	return x, y, true
}

func (s *Scope) drawText(x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (s *Scope) draw() {
	s.screen.Clear()

	s.trail = s.gen.Trail(s.trail[:0])
	for i, p := range s.trail {
		if x, y, ok := s.cell(p.X, p.Y); ok {
			level := int32(60 + 195*i/len(s.trail))
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(level, level*3/4, 0))
			s.screen.SetContent(x, y, '·', nil, style)
		}
	}

	s.boids = s.gen.Boids(s.boids[:0])
	for _, b := range s.boids {
		if x, y, ok := s.cell(b.Pos.X, b.Pos.Y); ok {
			s.screen.SetContent(x, y, '●', nil, tcell.StyleDefault.Foreground(tcell.ColorAqua))
		}
	}

	st := s.gen.Settings()
	status := fmt.Sprintf("damping %.4f  cohesion %.4f  separation %.4f  alignment %.4f  seed %d",
		st.Damping, st.Cohesion, st.Separation, st.Alignment, s.seed)
	if s.gen.Muted() {
		status += "  [muted]"
	}

	s.drawText(0, s.height-2, tcell.StyleDefault.Foreground(tcell.ColorWhite), status)
	if s.lastErr != nil {
		s.drawText(0, s.height-1, tcell.StyleDefault.Foreground(tcell.ColorRed),
			"respawn failed: "+s.lastErr.Error())
	} else {
		s.drawText(0, s.height-1, tcell.StyleDefault.Foreground(tcell.ColorGray),
			"d/D c/C s/S a/A adjust  space mute  r respawn  q quit")
	}

	s.screen.Show()
}

func (s *Scope) run() error {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- s.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !s.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				s.width, s.height = s.screen.Size()
				s.screen.Sync()
			}

		case <-ticker.C:
			// Without a speaker nothing pulls samples.
			if !s.audioInit {
				if err := s.gen.Render(s.xs, s.ys); err != nil {
					return err
				}
			}
			s.draw()
		}
	}
}

func (s *Scope) cleanup() {
	if s.audioInit {
		speaker.Close()
	}
	_ = s.gen.Close()
	s.screen.Fini()
}

func main() {
	configFile := pflag.String("config", "", "path to a JSON or YAML config file")
	schemaFile := pflag.String("schema", "", "path to a JSON schema (default: embedded)")
	seed := pflag.Uint64("seed", 0, "placement seed (overrides the config)")
	silent := pflag.Bool("silent", false, "do not open an audio device")
	pflag.Parse()

	// The terminal belongs to the scope, so only fatal errors are logged,
	// after the screen is released.
	logger := log.New(log.ErrorLevel, os.Stderr)

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		loaded, err := simulation.LoadConfig(*configFile, *schemaFile)
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	simulation.ApplyEnv(cfg)
	if pflag.CommandLine.Changed("seed") {
		cfg.Seed = *seed
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Fatalf("Failed to open terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		logger.Fatalf("Failed to open terminal: %v", err)
	}

	scope, err := NewScope(screen, cfg)
	if err != nil {
		screen.Fini()
		logger.Fatalf("Failed to initialize: %v", err)
	}
	if !*silent {
		// Non-fatal, the scope runs without sound
		_ = scope.initAudio()
	}

	err = scope.run()
	scope.cleanup()
	if err != nil {
		logger.Fatal(err)
	}
}
