// Package ui draws the in-viewer tuning panel with raygui widgets.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/sim"
)

const (
	panelWidth  = 260
	panelMargin = 10
	sliderH     = 20
	rowH        = 38
)

// Panel edits one school's steering weights live. Tab cycles schools,
// H hides the panel.
type Panel struct {
	school  int
	visible bool
}

// New creates a visible panel editing the first school.
func New() *Panel {
	return &Panel{visible: true}
}

// Toggle flips panel visibility.
func (p *Panel) Toggle() { p.visible = !p.visible }

// NextSchool cycles the edited school.
func (p *Panel) NextSchool(count int) {
	if count > 0 {
		p.school = (p.school + 1) % count
	}
}

// Draw renders the panel and applies any slider change to the engine.
// Must be called inside an open drawing context, outside 3D mode.
func (p *Panel) Draw(eng *sim.Engine, screenWidth int) {
	if !p.visible || eng.SchoolCount() == 0 {
		return
	}

	x := float32(screenWidth - panelWidth - panelMargin)
	y := float32(panelMargin)
	s := eng.School(p.school)

	rl.DrawRectangle(int32(x-panelMargin), 0, panelWidth+2*panelMargin,
		int32(4*rowH+70), rl.Fade(rl.Black, 0.5))
	rl.DrawText(fmt.Sprintf("school: %s", eng.SchoolName(p.school)),
		int32(x), int32(y), 18, rl.RayWhite)
	y += 28

	sep := p.slider(x, &y, "separation", float32(s.SeparationWeight), 0, 4)
	align := p.slider(x, &y, "alignment", float32(s.AlignmentWeight), 0, 4)
	target := p.slider(x, &y, "target", float32(s.TargetWeight), 0, 4)

	if float64(sep) != s.SeparationWeight ||
		float64(align) != s.AlignmentWeight ||
		float64(target) != s.TargetWeight {
		eng.SetSchoolWeights(p.school, float64(sep), float64(align), float64(target))
	}

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 110, Height: 26}, "Next school") {
		p.NextSchool(eng.SchoolCount())
	}
}

// slider draws one labeled SliderBar row and advances the y cursor.
func (p *Panel) slider(x float32, y *float32, label string, value, min, max float32) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.LightGray)
	*y += 16
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: panelWidth - 60, Height: sliderH},
		"", "", value, min, max,
	)
	rl.DrawText(fmt.Sprintf("%.2f", v), int32(x+panelWidth-52), int32(*y+2), 16, rl.RayWhite)
	*y += rowH - 16
	return v
}
