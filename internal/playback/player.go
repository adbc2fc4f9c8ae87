package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrUnsupported is reported when no engine is available and the sink
	// cannot play the format natively.
	ErrUnsupported = errors.New("HLS is not supported by this environment")

	// ErrStreamFailed wraps unrecoverable stream failures.
	ErrStreamFailed = errors.New("failed to load stream")
)

// Player renders video decoded from a stream address and exposes basic
// transport controls. Unrecoverable stream failures latch a terminal error
// state; there is no automatic retry.
type Player struct {
	mu     sync.Mutex
	engine Engine
	sink   Sink
	log    *slog.Logger

	attachment *Attachment
	playing    bool
	volume     float64
	muted      bool
	lastVolume float64
	fatal      error
}

// NewPlayer returns a Player driving the given sink. engine may be nil to
// model an environment without engine support (native fallback only).
func NewPlayer(engine Engine, sink Sink, log *slog.Logger) *Player {
	return &Player{engine: engine, sink: sink, log: log, volume: 1}
}

// Load resolves the stream address into playback. If an engine is available
// it is attached; if not and the sink can play HLS natively, the source is
// assigned directly; otherwise ErrUnsupported is reported. A new Load
// releases the previous attachment first.
func (p *Player) Load(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.attachment = nil
	p.fatal = nil

	switch {
	case p.engine != nil:
		att, err := p.engine.Attach(ctx, url)
		if err != nil {
			p.fatal = fmt.Errorf("%w: %v", ErrStreamFailed, err)
			p.log.Error("stream attach failed",
				slog.String("url", url),
				slog.String("error", err.Error()))
			return p.fatal
		}
		p.attachment = att
		p.log.Info("stream attached",
			slog.String("url", url),
			slog.Int("segments", len(att.Playlist.Segments)))
		return nil

	case p.sink.CanPlayNatively(MIMETypeHLS):
		p.sink.SetSource(url)
		p.log.Info("stream assigned natively", slog.String("url", url))
		return nil

	default:
		p.fatal = ErrUnsupported
		return ErrUnsupported
	}
}

// Err returns the latched terminal error, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fatal
}

// Attachment returns the current engine attachment, if any.
func (p *Player) Attachment() *Attachment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attachment
}

// TogglePlay flips between playing and paused and reports the new state.
func (p *Player) TogglePlay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		p.sink.Pause()
	} else {
		p.sink.Play()
	}
	p.playing = !p.playing
	return p.playing
}

// SetVolume sets the output volume in [0, 1]. Setting 0 mutes.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.sink.SetVolume(v)
	p.volume = v
	p.muted = v == 0
}

// ToggleMute flips the mute state, restoring the previous volume on unmute
// (or half volume when none was set).
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.muted {
		v := p.lastVolume
		if v == 0 {
			v = 0.5
		}
		p.sink.SetVolume(v)
		p.volume = v
		p.muted = false
	} else {
		p.lastVolume = p.volume
		p.sink.SetVolume(0)
		p.volume = 0
		p.muted = true
	}
	return p.muted
}

// State is a snapshot of the player for the studio view.
type State struct {
	Playing bool    `json:"playing"`
	Volume  float64 `json:"volume"`
	Muted   bool    `json:"muted"`
	Error   string  `json:"error,omitempty"`
}

// State returns a snapshot of the transport state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := State{Playing: p.playing, Volume: p.volume, Muted: p.muted}
	if p.fatal != nil {
		st.Error = p.fatal.Error()
	}
	return st
}

// Close releases engine resources.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attachment = nil
}
