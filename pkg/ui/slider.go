package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const sliderHeight = 14

// Slider edits a float64 in [Min, Max] by dragging.
type Slider struct {
	rect
	Label    string
	Format   string // printf verb for the value, "%.4f" by default
	Value    float64
	Min, Max float64

	// OnChange is called with the new value whenever a drag moves it.
	OnChange func(v float64)
}

func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		rect:   rect{X: x, Y: y, W: w, H: sliderHeight},
		Label:  label,
		Format: "%.4f",
		Min:    min,
		Max:    max,
	}
	s.Set(value)
	return s
}

// Set clamps v into [Min, Max] and stores it.
func (s *Slider) Set(v float64) {
	s.Value = min(max(v, s.Min), s.Max)
}

// Ratio is the position of Value in the range, between 0 and 1.
func (s *Slider) Ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Update(in Input) {
	if !in.Pressed || !s.contains(in.X, in.Y) {
		return
	}
	old := s.Value
	s.Set(s.Min + (in.X-s.X)/s.W*(s.Max-s.Min))
	if s.Value != old && s.OnChange != nil {
		s.OnChange(s.Value)
	}
}

func (s *Slider) Draw(screen *ebiten.Image) {
	text := fmt.Sprintf("%s: "+s.Format, s.Label, s.Value)
	ebitenutil.DebugPrintAt(screen, text, int(s.X), int(s.Y)-16)

	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H),
		color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.Ratio()), float32(s.H),
		color.RGBA{R: 120, G: 190, B: 230, A: 255}, true)
}

func (s *Slider) Height() float64 { return s.H + 22 }

func (s *Slider) MoveTo(x, y float64) { s.X, s.Y = x, y+16 }
