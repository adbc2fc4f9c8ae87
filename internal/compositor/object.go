package compositor

import (
	"streamoverlay/internal/overlay"

	"github.com/gogpu/gg"
)

// Fallbacks used when a numeric read on an object has no meaningful value.
const (
	fallbackPosition = 0
	fallbackSize     = 100
)

// Object is one rendered overlay on the drawing surface. Objects are rebuilt
// from scratch whenever the overlay list changes; they never outlive a scene.
type Object struct {
	id   string
	kind overlay.Kind

	left, top float64

	// Text attributes.
	content  string
	fontSize float64
	color    string

	// Logo attributes. Natural dimensions default to 100 until the image
	// resolves; scale maps the natural size onto the record's target box.
	targetW, targetH   float64
	naturalW, naturalH float64
	scaleX, scaleY     float64
	img                *gg.ImageBuf
	failed             bool
}

// ID returns the id of the overlay record this object renders.
func (o Object) ID() string { return o.id }

// Kind returns the overlay kind.
func (o Object) Kind() overlay.Kind { return o.kind }

// Position returns the object's top-left coordinate on the surface.
func (o Object) Position() (x, y float64) { return o.left, o.top }

// Content returns the text content (text objects only).
func (o Object) Content() string { return o.content }

// FontSize returns the font size (text objects only).
func (o Object) FontSize() float64 { return o.fontSize }

// Color returns the fill color (text objects only).
func (o Object) Color() string { return o.color }

// Resolved reports whether a logo object's image has been resolved.
func (o Object) Resolved() bool { return o.img != nil }

// EffectiveSize returns the rendered size of a logo object:
// natural dimensions times the current scale factors.
func (o Object) EffectiveSize() (w, h float64) {
	return o.naturalW * o.scaleX, o.naturalH * o.scaleY
}
