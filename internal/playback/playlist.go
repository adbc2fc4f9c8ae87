package playback

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Segment is a single HLS media segment as listed by a playlist.
type Segment struct {
	Sequence int64
	Duration float64
	URI      string
}

// MediaPlaylist is the parsed form of an HLS media playlist.
type MediaPlaylist struct {
	TargetDuration int
	MediaSequence  int64
	Segments       []Segment
	Ended          bool
}

// ErrNotPlaylist is returned when the input does not start with #EXTM3U.
var ErrNotPlaylist = errors.New("not an HLS playlist")

// ParseMediaPlaylist reads an HLS media playlist. Sequence numbers are
// assigned from #EXT-X-MEDIA-SEQUENCE onwards; unrecognized tags are ignored
// so vendor extensions do not break attachment.
func ParseMediaPlaylist(r io.Reader) (MediaPlaylist, error) {
	var pl MediaPlaylist

	sc := bufio.NewScanner(r)
	sawHeader := false
	pendingDuration := -1.0

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if !sawHeader {
			if line != "#EXTM3U" {
				return MediaPlaylist{}, ErrNotPlaylist
			}
			sawHeader = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:"))
			if err != nil {
				return MediaPlaylist{}, fmt.Errorf("invalid target duration: %w", err)
			}
			pl.TargetDuration = n

		case strings.HasPrefix(line, "#EXT-X-MEDIA-SEQUENCE:"):
			n, err := strconv.ParseInt(strings.TrimPrefix(line, "#EXT-X-MEDIA-SEQUENCE:"), 10, 64)
			if err != nil {
				return MediaPlaylist{}, fmt.Errorf("invalid media sequence: %w", err)
			}
			pl.MediaSequence = n

		case strings.HasPrefix(line, "#EXTINF:"):
			spec := strings.TrimPrefix(line, "#EXTINF:")
			if i := strings.IndexByte(spec, ','); i >= 0 {
				spec = spec[:i]
			}
			d, err := strconv.ParseFloat(spec, 64)
			if err != nil {
				return MediaPlaylist{}, fmt.Errorf("invalid segment duration: %w", err)
			}
			pendingDuration = d

		case line == "#EXT-X-ENDLIST":
			pl.Ended = true

		case strings.HasPrefix(line, "#"):
			// Ignore other tags and comments.

		default:
			// A URI line closes the preceding #EXTINF.
			if pendingDuration < 0 {
				return MediaPlaylist{}, fmt.Errorf("segment URI without #EXTINF: %s", line)
			}
			pl.Segments = append(pl.Segments, Segment{
				Sequence: pl.MediaSequence + int64(len(pl.Segments)),
				Duration: pendingDuration,
				URI:      line,
			})
			pendingDuration = -1
		}
	}
	if err := sc.Err(); err != nil {
		return MediaPlaylist{}, err
	}
	if !sawHeader {
		return MediaPlaylist{}, ErrNotPlaylist
	}

	return pl, nil
}
