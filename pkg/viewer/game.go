// Package viewer is the ebiten front end: an XY scope of the flock with
// live controls for the four coefficients, and the centroid played as audio.
package viewer

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/oscillator"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/ui"
	"github.com/tochemey/goakt/v3/log"
)

const (
	ScreenWidth  = 1000
	ScreenHeight = 700

	panelWidth = 280
	trailLen   = 512

	// scopeRange is the half-width of the space shown by the scope,
	// a little more than the containment cube.
	scopeRange = 0.6
)

// whiteImage is the texture of the boid triangles, created on first draw.
var whiteImage *ebiten.Image

type Game struct {
	cfg    *simulation.Config
	seed   uint64
	gen    *oscillator.Generator
	logger log.Logger

	player *audio.Player

	panel            *ui.Panel
	widgetDamping    *ui.Slider
	widgetCohesion   *ui.Slider
	widgetSeparation *ui.Slider
	widgetAlignment  *ui.Slider
	widgetMute       *ui.Checkbox
	widgetTrail      *ui.Checkbox

	// Reused every frame
	boids  []behavior.Boid
	trail  []oscillator.Point
	xs, ys []float64

	updateAvg float64 // Rolling average in ms
	drawAvg   float64
}

// NewGame builds the voice described by cfg. With withAudio the voice drives
// an ebiten audio player; otherwise it only advances when rendered.
func NewGame(cfg *simulation.Config, withAudio bool, logger log.Logger) (*Game, error) {
	voice, err := simulation.NewVoice(cfg, nil, simulation.NewSource(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("failed to create voice: %w", err)
	}

	g := &Game{
		cfg:    cfg,
		seed:   cfg.Seed,
		gen:    oscillator.NewGenerator(voice, trailLen),
		logger: logger,
		xs:     make([]float64, cfg.BlockSize),
		ys:     make([]float64, cfg.BlockSize),
	}

	g.panel = ui.NewPanel(10, 10, panelWidth, ScreenHeight-20, "Boids oscillator")
	g.panel.AddSection("Per-block coefficients")
	g.widgetDamping = g.panel.AddSlider("Damping", 0.9, 1.0, cfg.Damping)
	g.widgetCohesion = g.panel.AddSlider("Cohesion", 0, 0.1, cfg.CohesionGain)
	g.widgetSeparation = g.panel.AddSlider("Separation", 0, 0.1, cfg.SeparationGain)
	g.widgetAlignment = g.panel.AddSlider("Alignment", 0, 0.1, cfg.AlignmentGain)
	g.panel.AddSection("Voice")
	g.widgetMute = g.panel.AddCheckbox("Mute", false)
	g.widgetTrail = g.panel.AddCheckbox("Show centroid trail", true)
	g.panel.AddButton("Respawn with next seed", func() { _ = g.respawnNext() })

	if withAudio {
		ctx := audio.NewContext(cfg.SampleRate)
		player, err := ctx.NewPlayerF32(oscillator.NewReader(g.gen, cfg.BlockSize, cfg.Volume))
		if err != nil {
			return nil, fmt.Errorf("failed to create audio player: %w", err)
		}
		player.SetBufferSize(time.Duration(4*cfg.BlockSize) * time.Second / time.Duration(cfg.SampleRate))
		player.Play()
		g.player = player
	}
	return g, nil
}

// Respawn replaces the flock with a new one placed from seed.
func (g *Game) Respawn(seed uint64) error {
	voice, err := simulation.NewVoice(g.cfg, nil, simulation.NewSource(seed))
	if err != nil {
		return err
	}
	voice.SetSettings(g.gen.Settings())
	old := g.gen.Replace(voice)
	g.seed = seed
	return old.Close()
}

// respawnNext is the Respawn button: the next seed, failures logged.
func (g *Game) respawnNext() error {
	seed := g.seed + 1
	err := g.Respawn(seed)
	if err != nil {
		g.logger.Warnf("respawn with seed %d failed: %v", seed, err)
	}
	return err
}

// Seed is the seed of the flock currently playing.
func (g *Game) Seed() uint64 { return g.seed }

// Generator exposes the voice wrapper shared with the audio thread.
func (g *Game) Generator() *oscillator.Generator { return g.gen }

// Close stops the audio and releases the voice.
func (g *Game) Close() error {
	if g.player != nil {
		_ = g.player.Close()
	}
	return g.gen.Close()
}

func (g *Game) settings() behavior.Settings {
	return behavior.Settings{
		Damping:    g.widgetDamping.Value,
		Cohesion:   g.widgetCohesion.Value,
		Separation: g.widgetSeparation.Value,
		Alignment:  g.widgetAlignment.Value,
	}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update(ui.PollInput())
	g.gen.SetSettings(g.settings())
	g.gen.SetMuted(g.widgetMute.Value)

	// Without audio nothing pulls samples, so advance one block per tick.
	if g.player == nil {
		if err := g.gen.Render(g.xs, g.ys); err != nil {
			return err
		}
	}
	return nil
}

// scope is the square area right of the panel where the flock is drawn.
func scope() (x, y, size float32) {
	x = panelWidth + 30
	size = float32(min(ScreenWidth-int(x)-20, ScreenHeight-40))
	return x, 20, size
}

// project maps simulation coordinates to screen pixels, y pointing up.
func project(px, py float64) (float32, float32) {
	x0, y0, size := scope()
	sx := x0 + float32((px+scopeRange)/(2*scopeRange))*size
	sy := y0 + float32((scopeRange-py)/(2*scopeRange))*size
	return sx, sy
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(3, 3)
		whiteImage.Fill(color.RGBA{R: 100, G: 200, B: 255, A: 255})
	}

	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})
	g.drawScope(screen)

	if g.widgetTrail.Value {
		g.trail = g.gen.Trail(g.trail[:0])
		for i := 1; i < len(g.trail); i++ {
			x0, y0 := project(g.trail[i-1].X, g.trail[i-1].Y)
			x1, y1 := project(g.trail[i].X, g.trail[i].Y)
			alpha := uint8(40 + 215*i/len(g.trail))
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, color.RGBA{R: 255, G: 180, B: 60, A: alpha}, true)
		}
	}

	g.boids = g.gen.Boids(g.boids[:0])
	for _, b := range g.boids {
		drawBoid(screen, b)
	}

	g.panel.Draw(screen)

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms\nSeed:   %d\nBoids:  %d",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		g.seed,
		len(g.boids))
	ebitenutil.DebugPrintAt(screen, msg, ScreenWidth-150, 10)
}

// drawScope outlines the scope and the containment cube.
func (g *Game) drawScope(screen *ebiten.Image) {
	x, y, size := scope()
	vector.StrokeRect(screen, x, y, size, size, 1, color.RGBA{R: 70, G: 70, B: 90, A: 255}, true)

	bx0, by0 := project(behavior.BoundMin, behavior.BoundMax)
	bx1, by1 := project(behavior.BoundMax, behavior.BoundMin)
	vector.StrokeRect(screen, bx0, by0, bx1-bx0, by1-by0, 1, color.RGBA{R: 60, G: 120, B: 60, A: 255}, true)

	cx, cy := project(0, 0)
	vector.StrokeLine(screen, x, cy, x+size, cy, 1, color.RGBA{R: 40, G: 40, B: 60, A: 255}, true)
	vector.StrokeLine(screen, cx, y, cx, y+size, 1, color.RGBA{R: 40, G: 40, B: 60, A: 255}, true)
}

// drawBoid draws a triangle pointing along the boid's velocity in the XY plane.
func drawBoid(screen *ebiten.Image, b behavior.Boid) {
	cx, cy := project(b.Pos.X, b.Pos.Y)
	angle := math.Atan2(-b.Vel.Y, b.Vel.X) // screen y points down

	vertex := func(a, r float64) ebiten.Vertex {
		return ebiten.Vertex{
			DstX: cx + float32(math.Cos(a)*r),
			DstY: cy + float32(math.Sin(a)*r),
			SrcX: 1, SrcY: 1,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	vertices := []ebiten.Vertex{
		vertex(angle, 7),
		vertex(angle+2.5, 5),
		vertex(angle-2.5, 5),
	}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, whiteImage, &ebiten.DrawTrianglesOptions{})
}

func (g *Game) Layout(w, h int) (int, int) { return ScreenWidth, ScreenHeight }
