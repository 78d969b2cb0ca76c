package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/internal/arena"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

func newTestHost(t *testing.T, voices int) *Host {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig(16)
	cfg.Voices = voices

	h, err := NewHost(ctx, cfg, WithLogger(log.DiscardLogger))
	if err != nil {
		t.Fatalf("NewHost failed: %v", err)
	}
	t.Cleanup(func() { _ = h.Stop(ctx) })
	return h
}

func TestHost_RenderMatchesLocalVoice(t *testing.T) {
	ctx := context.Background()
	h := newTestHost(t, 2)

	if err := h.SpawnVoice(ctx, "voice-0", 42); err != nil {
		t.Fatalf("SpawnVoice failed: %v", err)
	}
	local, _ := NewVoice(testConfig(16), nil, NewSource(42))

	changed := behavior.Settings{Damping: 0.95, Cohesion: 0.05, Separation: 0.01, Alignment: 0.02}

	hx, hy := make([]float64, 64), make([]float64, 64)
	lx, ly := make([]float64, 64), make([]float64, 64)
	for blk := 0; blk < 8; blk++ {
		// Settings change half way through, as a host would between blocks
		if blk == 4 {
			if err := h.SetSettings(ctx, "voice-0", changed); err != nil {
				t.Fatalf("SetSettings failed: %v", err)
			}
			local.SetSettings(changed)
		}
		if err := h.Render(ctx, "voice-0", hx, hy); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if err := local.Render(lx, ly); err != nil {
			t.Fatalf("local Render failed: %v", err)
		}
		for i := range hx {
			if hx[i] != lx[i] || hy[i] != ly[i] {
				t.Fatalf("block %d sample %d: host (%v, %v) != local (%v, %v)", blk, i, hx[i], hy[i], lx[i], ly[i])
			}
		}
	}

	boids, err := h.Snapshot(ctx, "voice-0")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := local.Flock().Boids(nil)
	if len(boids) != len(want) {
		t.Fatalf("Expected %d boids, got %d", len(want), len(boids))
	}
	for i := range want {
		if boids[i] != want[i] {
			t.Errorf("boid %d: host %+v != local %+v", i, boids[i], want[i])
		}
	}
}

func TestHost_VoiceRef(t *testing.T) {
	ctx := context.Background()
	h := newTestHost(t, 1)
	if err := h.SpawnVoice(ctx, "solo", 7); err != nil {
		t.Fatalf("SpawnVoice failed: %v", err)
	}

	ref := h.Voice("solo")
	xs, ys := make([]float64, 32), make([]float64, 32)
	if err := ref.Render(xs, ys); err != nil {
		t.Fatalf("VoiceRef.Render failed: %v", err)
	}
	if err := ref.Render(xs, ys[:8]); !errors.Is(err, ErrBufferMismatch) {
		t.Errorf("Expected ErrBufferMismatch, got %v", err)
	}
}

func TestHost_Lifecycle(t *testing.T) {
	ctx := context.Background()
	h := newTestHost(t, 1)

	if err := h.SpawnVoice(ctx, "a", 1); err != nil {
		t.Fatalf("SpawnVoice failed: %v", err)
	}
	if h.InUse() != 1 {
		t.Errorf("Expected 1 flock in the arena, got %d", h.InUse())
	}

	if err := h.SpawnVoice(ctx, "a", 1); err == nil {
		t.Error("Expected an error for a duplicate voice name")
	}
	if err := h.SpawnVoice(ctx, "b", 2); !errors.Is(err, arena.ErrExhausted) {
		t.Errorf("Expected arena.ErrExhausted, got %v", err)
	}

	if got := h.Voices(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected voices [a], got %v", got)
	}

	if err := h.FreeVoice(ctx, "a"); err != nil {
		t.Fatalf("FreeVoice failed: %v", err)
	}
	if err := h.FreeVoice(ctx, "a"); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("Expected ErrUnknownVoice, got %v", err)
	}
	if err := h.Render(ctx, "a", make([]float64, 4), make([]float64, 4)); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("Expected ErrUnknownVoice, got %v", err)
	}
	if _, err := h.Snapshot(ctx, "missing"); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("Expected ErrUnknownVoice, got %v", err)
	}
	if err := h.SetSettings(ctx, "missing", behavior.Settings{}); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("Expected ErrUnknownVoice, got %v", err)
	}
}

func TestHost_FreeVoiceKeepsVoiceWhenShutdownFails(t *testing.T) {
	ctx := context.Background()
	h := newTestHost(t, 1)
	if err := h.SpawnVoice(ctx, "a", 1); err != nil {
		t.Fatalf("SpawnVoice failed: %v", err)
	}

	stop := h.shutdown
	failure := errors.New("mailbox stuck")
	h.shutdown = func(context.Context, *actor.PID) error { return failure }

	if err := h.FreeVoice(ctx, "a"); !errors.Is(err, failure) {
		t.Fatalf("Expected the shutdown error, got %v", err)
	}
	if got := h.Voices(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected voice a to stay registered, got %v", got)
	}
	if h.InUse() != 1 {
		t.Errorf("Expected its flock to stay allocated, got %d in use", h.InUse())
	}
	if err := h.Render(ctx, "a", make([]float64, 8), make([]float64, 8)); err != nil {
		t.Errorf("Expected voice a to keep rendering, got %v", err)
	}

	h.shutdown = stop
	if err := h.FreeVoice(ctx, "a"); err != nil {
		t.Fatalf("FreeVoice failed: %v", err)
	}
	if len(h.Voices()) != 0 || h.InUse() != 0 {
		t.Errorf("Expected no voices and no flocks, got %v and %d", h.Voices(), h.InUse())
	}
}
