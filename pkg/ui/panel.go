package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Widget is the common surface of every panel element.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
}

type entry struct {
	widget Widget
	label  string // drawn above the widget; empty for section headers
	header string // non-empty marks a section header row
	height float64
}

// Panel stacks labeled widgets vertically inside a framed box. Widgets are
// positioned once, at Add time; the panel has no scrolling.
type Panel struct {
	X, Y          float64
	Width, Height float64

	entries []entry
	cursorY float64 // next free Y inside the panel

	BGColor     color.RGBA
	BorderColor color.RGBA
}

// NewPanel creates an empty panel at the given screen rectangle.
func NewPanel(x, y, width, height float64) *Panel {
	return &Panel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		cursorY:     y + 28, // leave room for the title row
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection inserts a section header row.
func (p *Panel) AddSection(title string) {
	p.entries = append(p.entries, entry{header: title, height: 22})
	p.cursorY += 22
}

// AddSlider appends a labeled slider and returns it.
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, p.cursorY+16, p.Width-20, label, min, max, value)
	p.entries = append(p.entries, entry{widget: s, label: label, height: 38})
	p.cursorY += 38
	return s
}

// AddCheckbox appends a labeled checkbox and returns it.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, p.cursorY+2, label, value)
	p.entries = append(p.entries, entry{widget: c, label: "", height: 22})
	p.cursorY += 22
	return c
}

// AddButton appends a button and returns it.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, p.cursorY+4, p.Width-20, 24, label, onClick)
	p.entries = append(p.entries, entry{widget: b, label: "", height: 32})
	p.cursorY += 32
	return b
}

// Update handles input for all widgets.
func (p *Panel) Update() {
	for _, e := range p.entries {
		if e.widget != nil {
			e.widget.Update()
		}
	}
}

// Draw renders the frame, the section headers and every widget.
func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)

	ebitenutil.DebugPrintAt(screen, "Configuration", int(p.X+10), int(p.Y+6))

	y := p.Y + 28
	for _, e := range p.entries {
		switch {
		case e.header != "":
			vector.FillRect(screen,
				float32(p.X+5), float32(y),
				float32(p.Width-10), 18,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, e.header, int(p.X+10), int(y+2))
		case e.widget != nil:
			if e.label != "" {
				ebitenutil.DebugPrintAt(screen, e.label, int(p.X+10), int(y))
			}
			e.widget.Draw(screen)
			// Checkboxes carry their own label to the right of the box.
			if c, ok := e.widget.(*Checkbox); ok {
				ebitenutil.DebugPrintAt(screen, c.Label, int(c.X+c.Size+8), int(c.Y))
			}
		}
		y += e.height
	}
}
