package simulation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/internal/arena"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var ErrUnknownVoice = errors.New("unknown voice")

const defaultAskTimeout = 5 * time.Second

// ============================================================================
// Voice actor
// ============================================================================

// VoiceActor owns one Voice. Every message it handles runs on the actor's
// goroutine, so the voice itself needs no locking.
type VoiceActor struct {
	cfg   *Config
	alloc Allocator
	seed  uint64

	voice  *Voice
	xs, ys []float64
}

var _ actor.Actor = (*VoiceActor)(nil)

func NewVoiceActor(cfg *Config, alloc Allocator, seed uint64) *VoiceActor {
	return &VoiceActor{cfg: cfg, alloc: alloc, seed: seed}
}

func (a *VoiceActor) PreStart(ctx *actor.Context) error {
	voice, err := NewVoice(a.cfg, a.alloc, NewSource(a.seed))
	if err != nil {
		return err
	}
	a.voice = voice
	ctx.ActorSystem().Logger().Debugf("[%s] flock of %d boids placed (seed=%d)",
		ctx.ActorName(), voice.Flock().Len(), a.seed)
	return nil
}

func (a *VoiceActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Debugf("[%s] voice started", ctx.Self().Name())

	// Per-block settings, sent with Tell before the render request
	case *structpb.Struct:
		s, err := SettingsFromProto(msg)
		if err != nil {
			ctx.Logger().Warnf("[%s] ignoring settings: %v", ctx.Self().Name(), err)
			ctx.Err(err)
			return
		}
		a.voice.SetSettings(s)

	case *wrapperspb.UInt32Value:
		n := int(msg.GetValue())
		if cap(a.xs) < n {
			a.xs = make([]float64, n)
			a.ys = make([]float64, n)
		}
		xs, ys := a.xs[:n], a.ys[:n]
		if err := a.voice.Render(xs, ys); err != nil {
			ctx.Err(err)
			return
		}
		ctx.Response(BlockToProto(xs, ys))

	case *emptypb.Empty:
		var boids []behavior.Boid
		if f := a.voice.Flock(); f != nil {
			boids = f.Boids(nil)
		}
		ctx.Response(SnapshotToProto(boids))

	default:
		ctx.Unhandled()
	}
}

func (a *VoiceActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Debugf("[%s] releasing flock", ctx.ActorName())
	if a.voice == nil {
		return nil
	}
	return a.voice.Close()
}

// ============================================================================
// Host
// ============================================================================

// Host runs voices as actors and hands their flock memory out of a shared arena.
type Host struct {
	cfg     *Config
	system  actor.ActorSystem
	arena   *arena.Arena
	logger  log.Logger
	timeout time.Duration

	mu     sync.RWMutex
	voices map[string]*actor.PID

	// shutdown stops one voice actor; PostStop gives its flock back.
	shutdown func(ctx context.Context, pid *actor.PID) error
}

type HostOption func(*Host)

// WithLogger sets the logger of the host and of its actor system.
func WithLogger(logger log.Logger) HostOption {
	return func(h *Host) { h.logger = logger }
}

// WithAskTimeout bounds every render and snapshot request.
func WithAskTimeout(d time.Duration) HostOption {
	return func(h *Host) { h.timeout = d }
}

// NewHost starts an actor system sized for cfg.Voices concurrent voices.
func NewHost(ctx context.Context, cfg *Config, opts ...HostOption) (*Host, error) {
	h := &Host{
		cfg:     cfg,
		logger:  log.DiscardLogger,
		timeout: defaultAskTimeout,
		voices:  make(map[string]*actor.PID),
		shutdown: func(ctx context.Context, pid *actor.PID) error {
			return pid.Shutdown(ctx)
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	a, err := arena.New(cfg.Voices)
	if err != nil {
		return nil, fmt.Errorf("failed to create arena: %w", err)
	}
	h.arena = a

	system, err := actor.NewActorSystem("BoidsHost",
		actor.WithLogger(h.logger),
		actor.WithActorInitMaxRetries(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	h.system = system

	h.logger.Infof("host started: %d voice(s) of %d boids at %d Hz",
		cfg.Voices, ClampPopulation(cfg.Population), cfg.SampleRate)
	return h, nil
}

// SpawnVoice places a new flock seeded with seed and registers it under name.
func (h *Host) SpawnVoice(ctx context.Context, name string, seed uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.voices[name]; exists {
		return fmt.Errorf("voice %q already exists", name)
	}
	if h.arena.InUse() >= h.arena.Capacity() {
		return fmt.Errorf("failed to spawn voice %q: %w", name, arena.ErrExhausted)
	}

	pid, err := h.system.Spawn(ctx, name, NewVoiceActor(h.cfg, h.arena, seed))
	if err != nil {
		return fmt.Errorf("failed to spawn voice %q: %w", name, err)
	}
	h.voices[name] = pid
	h.logger.Infof("voice %s spawned (seed=%d)", name, seed)
	return nil
}

func (h *Host) pid(name string) (*actor.PID, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pid, ok := h.voices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	return pid, nil
}

// SetSettings queues new coefficients; they apply from the next rendered block.
func (h *Host) SetSettings(ctx context.Context, name string, s behavior.Settings) error {
	pid, err := h.pid(name)
	if err != nil {
		return err
	}
	return actor.Tell(ctx, pid, SettingsToProto(s))
}

func (h *Host) ask(ctx context.Context, name string, msg proto.Message) (*structpb.Struct, error) {
	pid, err := h.pid(name)
	if err != nil {
		return nil, err
	}
	reply, err := actor.Ask(ctx, pid, msg, h.timeout)
	if err != nil {
		return nil, fmt.Errorf("voice %q: %w", name, err)
	}
	out, ok := reply.(*structpb.Struct)
	if !ok {
		return nil, fmt.Errorf("voice %q: unexpected reply %T", name, reply)
	}
	return out, nil
}

// Render asks voice name for len(xs) samples and copies them into xs and ys.
func (h *Host) Render(ctx context.Context, name string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d != %d", ErrBufferMismatch, len(xs), len(ys))
	}
	reply, err := h.ask(ctx, name, wrapperspb.UInt32(uint32(len(xs))))
	if err != nil {
		return err
	}
	return BlockFromProto(reply, xs, ys)
}

// Snapshot returns a copy of every boid of voice name.
func (h *Host) Snapshot(ctx context.Context, name string) ([]behavior.Boid, error) {
	reply, err := h.ask(ctx, name, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return SnapshotFromProto(reply)
}

// FreeVoice stops voice name; its flock goes back to the arena.
func (h *Host) FreeVoice(ctx context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	pid, ok := h.voices[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	// The voice stays registered while its actor may still hold a flock.
	if err := h.shutdown(ctx, pid); err != nil {
		return fmt.Errorf("failed to stop voice %q: %w", name, err)
	}
	delete(h.voices, name)
	h.logger.Infof("voice %s freed", name)
	return nil
}

// Voices returns the names of the running voices, sorted.
func (h *Host) Voices() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.voices))
	for name := range h.voices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// InUse reports how many flocks are currently allocated in the arena.
func (h *Host) InUse() int {
	return h.arena.InUse()
}

// Stop shuts every voice down and stops the actor system.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	clear(h.voices)
	h.mu.Unlock()
	h.logger.Info("host is shutdown...")
	return h.system.Stop(ctx)
}

// Voice returns a Renderer bound to voice name.
func (h *Host) Voice(name string) *VoiceRef {
	return &VoiceRef{host: h, name: name}
}

// VoiceRef renders a hosted voice as if it were local.
type VoiceRef struct {
	host *Host
	name string
}

func (r *VoiceRef) Name() string { return r.name }

func (r *VoiceRef) Render(xs, ys []float64) error {
	return r.host.Render(context.Background(), r.name, xs, ys)
}
