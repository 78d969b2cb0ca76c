package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Input is the mouse state widgets react to, sampled once per frame.
type Input struct {
	X, Y    float64
	Pressed bool    // left button held
	WheelY  float64 // vertical scroll since last frame
}

// PollInput reads the current mouse state from ebiten.
func PollInput() Input {
	mx, my := ebiten.CursorPosition()
	_, dy := ebiten.Wheel()
	return Input{
		X:       float64(mx),
		Y:       float64(my),
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		WheelY:  dy,
	}
}

// Widget is implemented by every control the Panel can lay out.
type Widget interface {
	Update(in Input)
	Draw(screen *ebiten.Image)
	Height() float64 // vertical space taken in a panel, label included
	MoveTo(x, y float64)
}

// rect is the hit box shared by all widgets.
type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// latch turns a held button into a single event per press.
type latch struct {
	held bool
}

// fire reports true on the first frame of a press that started inside the widget.
func (l *latch) fire(pressedInside bool) bool {
	if !pressedInside {
		l.held = false
		return false
	}
	if l.held {
		return false
	}
	l.held = true
	return true
}
