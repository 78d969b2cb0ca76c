package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	panelTitleHeight   = 30
	panelSectionHeight = 25
	panelMargin        = 10
	panelScrollStep    = 20
)

// panelItem is either a section header (widget == nil) or a widget.
type panelItem struct {
	title  string
	widget Widget
}

// Panel stacks widgets vertically under section headers and scrolls
// with the mouse wheel when the content is taller than the panel.
type Panel struct {
	rect
	Title        string
	ScrollOffset float64

	BGColor     color.RGBA
	BorderColor color.RGBA

	items []panelItem
}

func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		rect:        rect{X: x, Y: y, W: width, H: height},
		Title:       title,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

func (p *Panel) AddSection(title string) {
	p.items = append(p.items, panelItem{title: title})
}

// Add appends any widget; it is positioned on the next layout.
func (p *Panel) Add(w Widget) {
	p.items = append(p.items, panelItem{widget: w})
	p.layout()
}

func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(0, 0, p.W-2*panelMargin, label, min, max, value)
	p.Add(s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	p.Add(c)
	return c
}

func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(0, 0, p.W-2*panelMargin, 24, label, onClick)
	p.Add(b)
	return b
}

// ContentHeight is the height of everything the panel holds, title included.
func (p *Panel) ContentHeight() float64 {
	h := float64(panelTitleHeight)
	for _, it := range p.items {
		if it.widget == nil {
			h += panelSectionHeight
		} else {
			h += it.widget.Height()
		}
	}
	return h
}

func (p *Panel) maxScroll() float64 {
	return max(p.ContentHeight()-p.H, 0)
}

// layout moves every widget to its scrolled position.
func (p *Panel) layout() {
	y := p.Y + panelTitleHeight - p.ScrollOffset
	for _, it := range p.items {
		if it.widget == nil {
			y += panelSectionHeight
			continue
		}
		it.widget.MoveTo(p.X+panelMargin, y)
		y += it.widget.Height()
	}
}

func (p *Panel) visible(y, h float64) bool {
	return y+h > p.Y+panelTitleHeight && y < p.Y+p.H
}

func (p *Panel) Update(in Input) {
	if in.WheelY != 0 && p.contains(in.X, in.Y) {
		p.ScrollOffset = min(max(p.ScrollOffset-in.WheelY*panelScrollStep, 0), p.maxScroll())
	}
	p.layout()

	y := p.Y + panelTitleHeight - p.ScrollOffset
	for _, it := range p.items {
		if it.widget == nil {
			y += panelSectionHeight
			continue
		}
		// Hidden widgets must not grab clicks meant for what is drawn over them.
		if p.visible(y, it.widget.Height()) {
			it.widget.Update(in)
		}
		y += it.widget.Height()
	}
}

func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.W), float32(p.H), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.W), float32(p.H), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+panelMargin), int(p.Y+5))

	y := p.Y + panelTitleHeight - p.ScrollOffset
	for _, it := range p.items {
		if it.widget == nil {
			if p.visible(y, panelSectionHeight) {
				vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.W-10), 20,
					color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
				ebitenutil.DebugPrintAt(screen, it.title, int(p.X+panelMargin), int(y+3))
			}
			y += panelSectionHeight
			continue
		}
		if p.visible(y, it.widget.Height()) {
			it.widget.Draw(screen)
		}
		y += it.widget.Height()
	}
}
