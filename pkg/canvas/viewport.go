package canvas

import (
	"math"

	"github.com/aretw0/nestflow/pkg/domain"
)

const (
	MinZoom  = 0.1
	MaxZoom  = 3.0
	ZoomStep = 0.1
)

// Viewport is the zoom and pan state of the editor canvas. The zero value is not ready;
// use NewViewport.
type Viewport struct {
	Zoom float64         `json:"zoom"`
	Pan  domain.Position `json:"pan"`
}

// NewViewport returns an unpanned viewport at 100%.
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ZoomBy moves the zoom level by delta steps, clamped to [MinZoom, MaxZoom].
func (v *Viewport) ZoomBy(delta int) {
	v.SetZoom(v.Zoom + float64(delta)*ZoomStep)
}

// SetZoom sets the zoom level, clamped to [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(z float64) {
	// Round to the step grid so repeated float additions do not drift.
	z = math.Round(z*100) / 100
	v.Zoom = math.Min(MaxZoom, math.Max(MinZoom, z))
}

// Reset restores 100% zoom without touching the pan offset.
func (v *Viewport) Reset() {
	v.Zoom = 1
}

// Wheel applies a wheel event. Only modified wheels (ctrl or meta) zoom; plain wheels
// scroll and are left to the caller, which Wheel reports by returning false.
func (v *Viewport) Wheel(deltaY float64, modified bool) bool {
	if !modified || deltaY == 0 {
		return false
	}
	if deltaY > 0 {
		v.ZoomBy(-1)
	} else {
		v.ZoomBy(1)
	}
	return true
}

// Percent is the zoom level as shown in the toolbar.
func (v Viewport) Percent() int {
	return int(math.Round(v.Zoom * 100))
}

// PanBy shifts the viewport by a screen-space offset.
func (v *Viewport) PanBy(dx, dy float64) {
	v.Pan.X += dx
	v.Pan.Y += dy
}

// ToCanvas converts a screen point into canvas coordinates.
func (v Viewport) ToCanvas(p domain.Position) domain.Position {
	return domain.Position{X: (p.X - v.Pan.X) / v.Zoom, Y: (p.Y - v.Pan.Y) / v.Zoom}
}

// ToScreen converts a canvas point into screen coordinates.
func (v Viewport) ToScreen(p domain.Position) domain.Position {
	return domain.Position{X: p.X*v.Zoom + v.Pan.X, Y: p.Y*v.Zoom + v.Pan.Y}
}
