package playback

import (
	"context"
	"fmt"
	"net/http"
)

// MIMETypeHLS is the content type of HLS playlists.
const MIMETypeHLS = "application/vnd.apple.mpegurl"

// Sink is the video output the player drives: the service-side equivalent of
// a media element. A sink may be able to play HLS natively, in which case the
// player assigns the source directly instead of attaching an engine.
type Sink interface {
	CanPlayNatively(contentType string) bool
	SetSource(url string)
	Play()
	Pause()
	SetVolume(v float64)
}

// Engine resolves a stream address into playable state by progressive
// segment fetching.
type Engine interface {
	// Attach probes and parses the stream's manifest. The returned
	// attachment owns the engine-side resources for this source.
	Attach(ctx context.Context, url string) (*Attachment, error)
}

// Attachment is a live binding between an engine and one stream address.
type Attachment struct {
	URL      string
	Playlist MediaPlaylist
}

// HLSEngine fetches and parses HLS manifests over HTTP.
type HLSEngine struct {
	Client *http.Client
}

// Attach implements Engine. The manifest must parse as an HLS playlist;
// anything else is a stream failure.
func (e *HLSEngine) Attach(ctx context.Context, url string) (*Attachment, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attach %s: status %d", url, resp.StatusCode)
	}

	pl, err := ParseMediaPlaylist(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", url, err)
	}

	return &Attachment{URL: url, Playlist: pl}, nil
}

// MemorySink is a Sink that records what the player drives into it.
// It stands in for a real video output in the server process and in tests.
type MemorySink struct {
	Native  bool
	Source  string
	Playing bool
	Volume  float64
}

// NewMemorySink returns a sink at full volume with no source.
func NewMemorySink(native bool) *MemorySink {
	return &MemorySink{Native: native, Volume: 1}
}

// CanPlayNatively implements Sink.
func (s *MemorySink) CanPlayNatively(contentType string) bool {
	return s.Native && contentType == MIMETypeHLS
}

// SetSource implements Sink.
func (s *MemorySink) SetSource(url string) { s.Source = url }

// Play implements Sink.
func (s *MemorySink) Play() { s.Playing = true }

// Pause implements Sink.
func (s *MemorySink) Pause() { s.Playing = false }

// SetVolume implements Sink.
func (s *MemorySink) SetVolume(v float64) { s.Volume = v }
