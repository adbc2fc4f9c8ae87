package compositor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"sync"

	"streamoverlay/internal/overlay"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

// Reference frame for overlay geometry.
const (
	FrameWidth  = 1280
	FrameHeight = 720
)

// Text styling fallbacks applied at render time when a record carries none.
const (
	renderFontSize = 16
	renderColor    = "#ffffff"
)

var errClosed = errors.New("surface is closed")

// UpdateFunc receives the geometry of an object after a completed gesture.
// The call does not wait for persistence and nothing is rolled back if
// persistence later fails.
type UpdateFunc func(id string, upd overlay.Update)

// Surface projects overlay records onto a fixed 1280x720 drawing context and
// propagates user-driven geometry edits back through an UpdateFunc.
//
// On every SetOverlays call the whole scene is cleared and reconstructed;
// there is no incremental diffing. A full rebuild means stale objects never
// linger after a record is removed, at the cost of redrawing unchanged
// records. The rebuild bumps a generation counter so image resolutions that
// complete against a replaced scene are silently dropped.
type Surface struct {
	mu       sync.Mutex
	dc       *gg.Context
	fonts    *text.FontSource
	resolver Resolver
	onUpdate UpdateFunc

	objects map[string]*Object
	order   []string
	gen     uint64
	closed  bool
}

// NewSurface returns a Surface drawing at the 1280x720 reference frame.
// fonts may be nil, in which case text objects are tracked but not painted.
// resolver may be nil, in which case logo objects never resolve.
func NewSurface(resolver Resolver, fonts *text.FontSource) *Surface {
	return &Surface{
		dc:       gg.NewContext(FrameWidth, FrameHeight),
		fonts:    fonts,
		resolver: resolver,
		objects:  make(map[string]*Object),
	}
}

// OnUpdate registers the callback invoked when a gesture completes.
func (s *Surface) OnUpdate(fn UpdateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// SetOverlays replaces the rendered scene with objects built from the given
// records. Records with no renderable payload (text without content, logo
// without an address) are skipped, matching what the store may hold.
func (s *Surface) SetOverlays(overlays []overlay.Overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.gen++
	gen := s.gen
	s.objects = make(map[string]*Object, len(overlays))
	s.order = s.order[:0]

	for _, o := range overlays {
		switch {
		case o.Kind == overlay.KindText && o.Content != "":
			obj := &Object{
				id:       o.ID,
				kind:     overlay.KindText,
				left:     o.PositionX,
				top:      o.PositionY,
				content:  o.Content,
				fontSize: o.FontSize,
				color:    o.Color,
			}
			if obj.fontSize <= 0 {
				obj.fontSize = renderFontSize
			}
			if obj.color == "" {
				obj.color = renderColor
			}
			s.objects[o.ID] = obj
			s.order = append(s.order, o.ID)

		case o.Kind == overlay.KindLogo && o.ImageURL != "":
			obj := &Object{
				id:       o.ID,
				kind:     overlay.KindLogo,
				left:     o.PositionX,
				top:      o.PositionY,
				targetW:  o.Width,
				targetH:  o.Height,
				naturalW: fallbackSize,
				naturalH: fallbackSize,
			}
			obj.scaleX = obj.targetW / obj.naturalW
			obj.scaleY = obj.targetH / obj.naturalH
			s.objects[o.ID] = obj
			s.order = append(s.order, o.ID)

			if s.resolver != nil {
				go s.resolve(gen, o.ID, o.ImageURL)
			}
		}
	}
}

// resolve fetches a logo image and installs it on the owning object unless
// the scene has been rebuilt (or the surface closed) in the meantime.
func (s *Surface) resolve(gen uint64, id, url string) {
	img, err := s.resolver.Resolve(context.Background(), url)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		return
	}
	obj, ok := s.objects[id]
	if !ok {
		return
	}
	if err != nil {
		// Unresolvable addresses leave the record unrendered; no notice.
		obj.failed = true
		return
	}

	buf := gg.ImageBufFromImage(img)
	obj.img = buf
	obj.naturalW = float64(buf.Width())
	obj.naturalH = float64(buf.Height())
	if obj.naturalW <= 0 {
		obj.naturalW = fallbackSize
	}
	if obj.naturalH <= 0 {
		obj.naturalH = fallbackSize
	}
	obj.scaleX = obj.targetW / obj.naturalW
	obj.scaleY = obj.targetH / obj.naturalH
}

// Object returns a snapshot of the rendered object for the given record id.
func (s *Surface) Object(id string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// ObjectCount returns the number of rendered objects in the current scene.
func (s *Surface) ObjectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Gesture is the final state of a completed move/resize interaction on a
// rendered object, bounded by press and release.
type Gesture struct {
	Left, Top float64

	// Scale factors after a resize; values <= 0 leave the current scale.
	ScaleX, ScaleY float64
}

// CompleteGesture applies the gesture's final geometry to the object and
// invokes the update callback exactly once with the object's position and,
// for images, natural size times the current scale factors. It reports
// whether the object exists. The callback runs outside the surface lock.
func (s *Surface) CompleteGesture(id string, g Gesture) bool {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return false
	}
	obj, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return false
	}

	obj.left = g.Left
	obj.top = g.Top
	if obj.kind == overlay.KindLogo {
		if g.ScaleX > 0 {
			obj.scaleX = g.ScaleX
		}
		if g.ScaleY > 0 {
			obj.scaleY = g.ScaleY
		}
	}

	x := safeCoord(obj.left)
	y := safeCoord(obj.top)
	var w, h float64
	switch obj.kind {
	case overlay.KindLogo:
		w, h = obj.EffectiveSize()
	case overlay.KindText:
		w, h = s.measureLocked(obj)
	}
	if w <= 0 || math.IsNaN(w) {
		w = fallbackSize
	}
	if h <= 0 || math.IsNaN(h) {
		h = fallbackSize
	}

	upd := overlay.Update{
		PositionX: &x,
		PositionY: &y,
		Width:     &w,
		Height:    &h,
	}
	cb := s.onUpdate
	s.mu.Unlock()

	if cb != nil {
		cb(id, upd)
	}
	return true
}

// Render composites the current scene and returns the frame. Logo objects
// whose image has not resolved (or failed to) are not painted.
func (s *Surface) Render() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.dc.ClearWithColor(gg.RGBA{})

	for _, id := range s.order {
		obj, ok := s.objects[id]
		if !ok {
			continue
		}
		switch obj.kind {
		case overlay.KindText:
			if s.fonts == nil {
				continue
			}
			s.dc.SetFont(s.fonts.Face(obj.fontSize))
			s.dc.SetHexColor(obj.color)
			s.dc.DrawStringAnchored(obj.content, obj.left, obj.top, 0, 0)
		case overlay.KindLogo:
			if obj.img == nil {
				continue
			}
			s.dc.DrawImageEx(obj.img, gg.DrawImageOptions{
				X:             obj.left,
				Y:             obj.top,
				DstWidth:      obj.naturalW * obj.scaleX,
				DstHeight:     obj.naturalH * obj.scaleY,
				Interpolation: gg.InterpBilinear,
				Opacity:       1.0,
				BlendMode:     gg.BlendNormal,
			})
		}
	}

	return s.dc.Image()
}

// FramePNG renders the scene and encodes it as PNG.
func (s *Surface) FramePNG() ([]byte, error) {
	img := s.Render()
	if img == nil {
		return nil, errClosed
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases the drawing context. No callbacks fire afterwards.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.objects = nil
	s.order = nil
	return s.dc.Close()
}

func (s *Surface) measureLocked(obj *Object) (w, h float64) {
	if s.fonts == nil {
		return 0, 0
	}
	return text.Measure(obj.content, s.fonts.Face(obj.fontSize))
}

func safeCoord(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallbackPosition
	}
	return v
}
