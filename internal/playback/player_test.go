package playback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

const testPlaylist = "#EXTM3U\n" +
	"#EXT-X-TARGETDURATION:2\n" +
	"#EXT-X-MEDIA-SEQUENCE:0\n" +
	"#EXTINF:2.0,\n" +
	"/0.ts\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPlayer_Load_engine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", MIMETypeHLS)
		w.Write([]byte(testPlaylist))
	}))
	defer srv.Close()

	p := NewPlayer(&HLSEngine{}, NewMemorySink(false), testLogger())
	if err := p.Load(context.Background(), srv.URL+"/playlist.m3u8"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	att := p.Attachment()
	if att == nil || len(att.Playlist.Segments) != 1 {
		t.Errorf("expected attachment with 1 segment, got %+v", att)
	}
	if p.Err() != nil {
		t.Errorf("no error should be latched, got %v", p.Err())
	}
}

func TestPlayer_Load_fatal_error_latched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewPlayer(&HLSEngine{}, NewMemorySink(false), testLogger())
	err := p.Load(context.Background(), srv.URL+"/playlist.m3u8")
	if !errors.Is(err, ErrStreamFailed) {
		t.Fatalf("expected ErrStreamFailed, got %v", err)
	}
	if !errors.Is(p.Err(), ErrStreamFailed) {
		t.Errorf("fatal error should be latched, got %v", p.Err())
	}
	if p.State().Error == "" {
		t.Error("state should surface the latched error")
	}
}

func TestPlayer_Load_native_fallback(t *testing.T) {
	sink := NewMemorySink(true)
	p := NewPlayer(nil, sink, testLogger())

	if err := p.Load(context.Background(), "http://example.com/stream.m3u8"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sink.Source != "http://example.com/stream.m3u8" {
		t.Errorf("native fallback should assign the source directly, got %q", sink.Source)
	}
}

func TestPlayer_Load_unsupported(t *testing.T) {
	p := NewPlayer(nil, NewMemorySink(false), testLogger())

	err := p.Load(context.Background(), "http://example.com/stream.m3u8")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if !errors.Is(p.Err(), ErrUnsupported) {
		t.Errorf("unsupported should latch, got %v", p.Err())
	}
}

func TestPlayer_Load_replaces_attachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPlaylist))
	}))
	defer srv.Close()

	p := NewPlayer(&HLSEngine{}, NewMemorySink(false), testLogger())
	if err := p.Load(context.Background(), srv.URL+"/a.m3u8"); err != nil {
		t.Fatal(err)
	}
	first := p.Attachment()

	if err := p.Load(context.Background(), srv.URL+"/b.m3u8"); err != nil {
		t.Fatal(err)
	}
	second := p.Attachment()
	if second == first {
		t.Error("a new Load should replace the previous attachment")
	}
	if second.URL == first.URL {
		t.Errorf("attachment URL should track the new source, got %q", second.URL)
	}
}

func TestPlayer_transport_controls(t *testing.T) {
	sink := NewMemorySink(false)
	p := NewPlayer(nil, sink, testLogger())

	if playing := p.TogglePlay(); !playing || !sink.Playing {
		t.Error("first toggle should start playback")
	}
	if playing := p.TogglePlay(); playing || sink.Playing {
		t.Error("second toggle should pause")
	}

	p.SetVolume(0.3)
	if sink.Volume != 0.3 {
		t.Errorf("volume: got %v", sink.Volume)
	}

	if muted := p.ToggleMute(); !muted || sink.Volume != 0 {
		t.Errorf("mute should zero volume, got muted=%v volume=%v", muted, sink.Volume)
	}
	if muted := p.ToggleMute(); muted || sink.Volume != 0.3 {
		t.Errorf("unmute should restore volume, got muted=%v volume=%v", muted, sink.Volume)
	}
}

func TestPlayer_SetVolume_zero_mutes(t *testing.T) {
	p := NewPlayer(nil, NewMemorySink(false), testLogger())
	p.SetVolume(0)
	if st := p.State(); !st.Muted {
		t.Error("volume 0 should report muted")
	}
}

func TestPlayer_SetVolume_clamps(t *testing.T) {
	sink := NewMemorySink(false)
	p := NewPlayer(nil, sink, testLogger())

	p.SetVolume(1.5)
	if sink.Volume != 1 {
		t.Errorf("volume should clamp to 1, got %v", sink.Volume)
	}
	p.SetVolume(-0.2)
	if sink.Volume != 0 {
		t.Errorf("volume should clamp to 0, got %v", sink.Volume)
	}
}
