package overlay

import "time"

// Kind selects the overlay variant. The two kinds are mutually exclusive:
// text overlays carry Content/FontSize/Color, logo overlays carry ImageURL.
type Kind string

const (
	KindText Kind = "text"
	KindLogo Kind = "logo"
)

// Valid reports whether k is one of the closed set of overlay kinds.
func (k Kind) Valid() bool {
	return k == KindText || k == KindLogo
}

// Overlay is a positioned text or logo element composited over video.
// Geometry is expressed in pixels at the fixed 1280x720 reference frame.
// This also matches the JSON payload exchanged with the API.
type Overlay struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Kind      Kind    `json:"type"`
	Content   string  `json:"content,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FontSize  float64 `json:"font_size,omitempty"`
	Color     string  `json:"color,omitempty"`

	// Assigned by the store on insert.
	CreatedAt time.Time `json:"created_at"`
}

// Update is a partial mutation of an overlay record keyed by id.
// Nil fields are left unchanged. Geometry updates produced by completed
// move/resize gestures only ever set the four geometry fields.
type Update struct {
	Name      *string  `json:"name,omitempty"`
	Content   *string  `json:"content,omitempty"`
	ImageURL  *string  `json:"image_url,omitempty"`
	PositionX *float64 `json:"position_x,omitempty"`
	PositionY *float64 `json:"position_y,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	FontSize  *float64 `json:"font_size,omitempty"`
	Color     *string  `json:"color,omitempty"`
}

// Draft is the user-supplied portion of a new overlay. Geometry is never
// part of a draft; new overlays always start at the default placement.
type Draft struct {
	Name     string  `json:"name"`
	Kind     Kind    `json:"type"`
	Content  string  `json:"content"`
	ImageURL string  `json:"image_url"`
	FontSize float64 `json:"font_size"`
	Color    string  `json:"color"`
}
