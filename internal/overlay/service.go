package overlay

import "errors"

// Defaults applied when creating an overlay. New overlays always start at the
// same placement; text styling falls back to a readable white 24pt.
const (
	DefaultPositionX = 50
	DefaultPositionY = 50
	DefaultWidth     = 200
	DefaultHeight    = 100
	DefaultFontSize  = 24
	DefaultColor     = "#ffffff"
)

var (
	// ErrUnauthenticated is returned when a write is attempted without a
	// resolvable actor identity. No write is performed.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidKind is returned when a draft names a kind outside the
	// closed {text, logo} set.
	ErrInvalidKind = errors.New("invalid overlay kind")
)

// Service applies the overlay business rules (creation defaults, kind-dependent
// fields, the authentication gate) and delegates storage to Repository.
type Service struct {
	repo Repository
}

// NewService returns a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new overlay for the given user from a draft.
// An empty userID fails with ErrUnauthenticated before any write.
// Fields not meaningful for the draft's kind are dropped; text styling
// defaults are applied. On failure the caller's draft is untouched.
func (s *Service) Create(userID string, d Draft) (Overlay, error) {
	if userID == "" {
		return Overlay{}, ErrUnauthenticated
	}
	if !d.Kind.Valid() {
		return Overlay{}, ErrInvalidKind
	}

	o := Overlay{
		UserID:    userID,
		Name:      d.Name,
		Kind:      d.Kind,
		PositionX: DefaultPositionX,
		PositionY: DefaultPositionY,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
	}

	switch d.Kind {
	case KindText:
		o.Content = d.Content
		o.FontSize = d.FontSize
		if o.FontSize <= 0 {
			o.FontSize = DefaultFontSize
		}
		o.Color = d.Color
		if o.Color == "" {
			o.Color = DefaultColor
		}
	case KindLogo:
		o.ImageURL = d.ImageURL
	}

	return s.repo.Insert(o)
}

// List returns the user's overlays, newest first.
func (s *Service) List(userID string) []Overlay {
	return s.repo.ListByUser(userID)
}

// Update applies a partial mutation keyed by id. Geometry updates from
// completed gestures arrive here; last write wins.
func (s *Service) Update(id string, upd Update) (Overlay, error) {
	return s.repo.Update(id, upd)
}

// Delete removes the overlay with the given id.
func (s *Service) Delete(id string) error {
	return s.repo.Delete(id)
}

// Count returns the number of stored overlays.
func (s *Service) Count() int {
	return s.repo.Count()
}
