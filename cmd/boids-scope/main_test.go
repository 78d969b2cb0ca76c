package main

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/simulation"
)

func newTestScope(t *testing.T) *Scope {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	screen.SetSize(80, 24)
	s, err := NewScope(screen, simulation.DefaultConfig())
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	t.Cleanup(s.cleanup)
	return s
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestScope_HandleKey(t *testing.T) {
	s := newTestScope(t)
	before := s.gen.Settings()

	for _, r := range "CCsAd" {
		if !s.handleKey(key(r)) {
			t.Fatalf("Expected %q to keep the scope running", r)
		}
	}
	after := s.gen.Settings()

	checks := []struct {
		name      string
		got, want float64
	}{
		{"Cohesion", after.Cohesion, before.Cohesion + 2*gainStep},
		{"Separation", after.Separation, before.Separation - gainStep},
		{"Alignment", after.Alignment, before.Alignment + gainStep},
		{"Damping", after.Damping, before.Damping - dampingStep},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-12 {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}

	s.handleKey(key(' '))
	if !s.gen.Muted() {
		t.Error("Expected space to mute")
	}

	s.handleKey(key('r'))
	if s.seed != simulation.DefaultConfig().Seed+1 {
		t.Errorf("Expected seed to advance, got %d", s.seed)
	}

	if s.handleKey(key('q')) {
		t.Error("Expected q to stop the scope")
	}
	if s.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Expected Escape to stop the scope")
	}
}

func TestClampSettings(t *testing.T) {
	s := newTestScope(t)
	for range 2000 {
		s.handleKey(key('D'))
		s.handleKey(key('c'))
	}
	st := s.gen.Settings()
	if st.Damping != 1 || st.Cohesion != 0 {
		t.Errorf("Expected damping 1 and cohesion 0, got %v and %v", st.Damping, st.Cohesion)
	}
}

func TestScope_Cell(t *testing.T) {
	s := newTestScope(t)
	rows := s.height - 2
	cols := min(s.width, 2*rows)

	tests := []struct {
		name   string
		px, py float64
		wx, wy int
		ok     bool
	}{
		{"TopLeft", -scopeRange, scopeRange, 0, 0, true},
		{"BottomRight", scopeRange, -scopeRange, cols - 1, rows - 1, true},
		{"Outside", 2, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := s.cell(tt.px, tt.py)
			if ok != tt.ok || x != tt.wx || y != tt.wy {
				t.Errorf("Expected (%d, %d, %v), got (%d, %d, %v)", tt.wx, tt.wy, tt.ok, x, y, ok)
			}
		})
	}
}

func TestScope_DrawPlotsBoids(t *testing.T) {
	s := newTestScope(t)
	if err := s.gen.Render(s.xs, s.ys); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	s.draw()

	sim := s.screen.(tcell.SimulationScreen)
	cells, w, _ := sim.GetContents()
	found := 0
	for i, c := range cells {
		if i/w < s.height-2 && len(c.Runes) > 0 && c.Runes[0] == '●' {
			found++
		}
	}
	if found == 0 {
		t.Error("Expected at least one boid on screen")
	}
}

func TestScope_RespawnFailureIsShown(t *testing.T) {
	s := newTestScope(t)
	if err := s.gen.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !s.handleKey(key('r')) {
		t.Fatal("Expected a failed respawn to keep the scope running")
	}
	if !errors.Is(s.lastErr, simulation.ErrVoiceClosed) {
		t.Fatalf("Expected ErrVoiceClosed, got %v", s.lastErr)
	}

	s.draw()
	sim := s.screen.(tcell.SimulationScreen)
	cells, w, _ := sim.GetContents()
	var row strings.Builder
	for _, c := range cells[(s.height-1)*w : s.height*w] {
		if len(c.Runes) > 0 {
			row.WriteRune(c.Runes[0])
		}
	}
	if !strings.Contains(row.String(), "respawn failed") {
		t.Errorf("Expected the error on the bottom line, got %q", row.String())
	}

	if !s.handleKey(key('r')) || s.lastErr != nil {
		t.Errorf("Expected the next respawn to succeed, got %v", s.lastErr)
	}
}
