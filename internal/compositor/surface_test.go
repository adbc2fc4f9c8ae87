package compositor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"streamoverlay/internal/overlay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver serves a fixed image (or error) and can be gated to simulate
// slow resolutions.
type fakeResolver struct {
	mu    sync.Mutex
	gate  chan struct{}
	img   image.Image
	err   error
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return f.img, f.err
}

func textRecord(id, content string, x, y float64) overlay.Overlay {
	return overlay.Overlay{ID: id, Kind: overlay.KindText, Content: content, PositionX: x, PositionY: y}
}

func TestSurface_text_defaults(t *testing.T) {
	s := NewSurface(nil, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{textRecord("1", "LIVE", 50, 50)})

	obj, ok := s.Object("1")
	require.True(t, ok)
	x, y := obj.Position()
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 50.0, y)
	assert.Equal(t, "LIVE", obj.Content())
	assert.Equal(t, 16.0, obj.FontSize())
	assert.Equal(t, "#ffffff", obj.Color())
}

func TestSurface_text_explicit_styling(t *testing.T) {
	s := NewSurface(nil, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{{
		ID: "1", Kind: overlay.KindText, Content: "Title",
		PositionX: 10, PositionY: 20, FontSize: 32, Color: "#ff0000",
	}})

	obj, ok := s.Object("1")
	require.True(t, ok)
	assert.Equal(t, 32.0, obj.FontSize())
	assert.Equal(t, "#ff0000", obj.Color())
}

func TestSurface_skips_records_without_payload(t *testing.T) {
	s := NewSurface(nil, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{
		{ID: "1", Kind: overlay.KindText},                    // no content
		{ID: "2", Kind: overlay.KindLogo},                    // no image address
		{ID: "3", Kind: overlay.KindText, Content: "shown"},  // renderable
	})

	assert.Equal(t, 1, s.ObjectCount())
	_, ok := s.Object("3")
	assert.True(t, ok)
}

func TestSurface_logo_effective_size(t *testing.T) {
	resolver := &fakeResolver{img: image.NewRGBA(image.Rect(0, 0, 200, 100))}
	s := NewSurface(resolver, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{{
		ID: "logo", Kind: overlay.KindLogo, ImageURL: "http://x/y.png",
		PositionX: 40, PositionY: 60, Width: 300, Height: 150,
	}})

	require.Eventually(t, func() bool {
		obj, ok := s.Object("logo")
		return ok && obj.Resolved()
	}, time.Second, 5*time.Millisecond)

	obj, _ := s.Object("logo")
	w, h := obj.EffectiveSize()
	assert.InDelta(t, 300, w, 0.5)
	assert.InDelta(t, 150, h, 0.5)
}

func TestSurface_logo_failure_unrendered(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("boom")}
	s := NewSurface(resolver, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{{
		ID: "logo", Kind: overlay.KindLogo, ImageURL: "http://x/broken.png", Width: 10, Height: 10,
	}})

	// The record stays tracked but never resolves; no notice is raised.
	require.Eventually(t, func() bool {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		return resolver.calls == 1
	}, time.Second, 5*time.Millisecond)

	obj, ok := s.Object("logo")
	require.True(t, ok)
	assert.False(t, obj.Resolved())
}

func TestSurface_empty_list_clears(t *testing.T) {
	s := NewSurface(nil, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{textRecord("1", "a", 0, 0), textRecord("2", "b", 0, 0)})
	require.Equal(t, 2, s.ObjectCount())

	s.SetOverlays(nil)
	assert.Equal(t, 0, s.ObjectCount())

	// Idempotent.
	s.SetOverlays(nil)
	assert.Equal(t, 0, s.ObjectCount())
}

func TestSurface_full_rebuild_replaces_scene(t *testing.T) {
	s := NewSurface(nil, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{textRecord("1", "old", 0, 0)})
	s.SetOverlays([]overlay.Overlay{textRecord("2", "new", 0, 0)})

	_, ok := s.Object("1")
	assert.False(t, ok, "removed records must not linger")
	_, ok = s.Object("2")
	assert.True(t, ok)
}

func TestSurface_stale_resolution_dropped(t *testing.T) {
	resolver := &fakeResolver{
		img:  image.NewRGBA(image.Rect(0, 0, 50, 50)),
		gate: make(chan struct{}),
	}
	s := NewSurface(resolver, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{{
		ID: "logo", Kind: overlay.KindLogo, ImageURL: "http://x/slow.png", Width: 10, Height: 10,
	}})

	// The scene is rebuilt while the resolution is still in flight.
	s.SetOverlays(nil)
	close(resolver.gate)

	// The late completion is silently dropped.
	assert.Never(t, func() bool { return s.ObjectCount() != 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSurface_gesture_single_update(t *testing.T) {
	s := NewSurface(nil, nil)
	defer s.Close()

	var mu sync.Mutex
	var updates []overlay.Update
	s.OnUpdate(func(id string, upd overlay.Update) {
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, "1", id)
		updates = append(updates, upd)
	})

	s.SetOverlays([]overlay.Overlay{textRecord("1", "LIVE", 50, 50)})

	ok := s.CompleteGesture("1", Gesture{Left: 300, Top: 200})
	require.True(t, ok)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 1, "a completed gesture must trigger exactly one update")
	upd := updates[0]
	require.NotNil(t, upd.PositionX)
	require.NotNil(t, upd.PositionY)
	assert.Equal(t, 300.0, *upd.PositionX)
	assert.Equal(t, 200.0, *upd.PositionY)

	// The object reflects the final on-surface coordinates.
	obj, _ := s.Object("1")
	x, y := obj.Position()
	assert.Equal(t, 300.0, x)
	assert.Equal(t, 200.0, y)
}

func TestSurface_gesture_logo_reports_scaled_size(t *testing.T) {
	resolver := &fakeResolver{img: image.NewRGBA(image.Rect(0, 0, 100, 50))}
	s := NewSurface(resolver, nil)
	defer s.Close()

	var got overlay.Update
	s.OnUpdate(func(id string, upd overlay.Update) { got = upd })

	s.SetOverlays([]overlay.Overlay{{
		ID: "logo", Kind: overlay.KindLogo, ImageURL: "http://x/y.png", Width: 100, Height: 50,
	}})
	require.Eventually(t, func() bool {
		obj, ok := s.Object("logo")
		return ok && obj.Resolved()
	}, time.Second, 5*time.Millisecond)

	// A resize doubling both scale factors reports natural size x scale.
	require.True(t, s.CompleteGesture("logo", Gesture{Left: 0, Top: 0, ScaleX: 2, ScaleY: 2}))
	require.NotNil(t, got.Width)
	require.NotNil(t, got.Height)
	assert.InDelta(t, 200, *got.Width, 0.5)
	assert.InDelta(t, 100, *got.Height, 0.5)
}

func TestSurface_gesture_unknown_object(t *testing.T) {
	s := NewSurface(nil, nil)
	defer s.Close()

	called := false
	s.OnUpdate(func(string, overlay.Update) { called = true })

	assert.False(t, s.CompleteGesture("missing", Gesture{}))
	assert.False(t, called)
}

func TestSurface_close_stops_callbacks(t *testing.T) {
	s := NewSurface(nil, nil)

	called := false
	s.OnUpdate(func(string, overlay.Update) { called = true })
	s.SetOverlays([]overlay.Overlay{textRecord("1", "LIVE", 0, 0)})

	require.NoError(t, s.Close())

	assert.False(t, s.CompleteGesture("1", Gesture{Left: 1, Top: 1}))
	assert.False(t, called, "no callbacks fire after Close")

	_, err := s.FramePNG()
	assert.Error(t, err)

	// Closing twice is safe.
	assert.NoError(t, s.Close())
}

func TestSurface_frame_png(t *testing.T) {
	resolver := &fakeResolver{img: image.NewRGBA(image.Rect(0, 0, 10, 10))}
	s := NewSurface(resolver, nil)
	defer s.Close()

	s.SetOverlays([]overlay.Overlay{{
		ID: "logo", Kind: overlay.KindLogo, ImageURL: "http://x/y.png", Width: 20, Height: 20,
	}})
	require.Eventually(t, func() bool {
		obj, ok := s.Object("logo")
		return ok && obj.Resolved()
	}, time.Second, 5*time.Millisecond)

	data, err := s.FramePNG()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, FrameWidth, img.Bounds().Dx())
	assert.Equal(t, FrameHeight, img.Bounds().Dy())
}
