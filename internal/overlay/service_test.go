package overlay

import (
	"errors"
	"testing"
)

func TestService_Create_defaults(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)

	o, err := svc.Create("u1", Draft{Name: "Title", Kind: KindText, Content: "LIVE"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.PositionX != 50 || o.PositionY != 50 || o.Width != 200 || o.Height != 100 {
		t.Errorf("default geometry: got (%v,%v) %vx%v", o.PositionX, o.PositionY, o.Width, o.Height)
	}
	if o.FontSize != 24 || o.Color != "#ffffff" {
		t.Errorf("default styling: got %v %q", o.FontSize, o.Color)
	}
	if o.UserID != "u1" {
		t.Errorf("user id: got %q", o.UserID)
	}
}

func TestService_Create_unauthenticated(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)

	_, err := svc.Create("", Draft{Name: "Title", Kind: KindText, Content: "LIVE"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	// No write happened.
	if n := repo.Count(); n != 0 {
		t.Errorf("expected zero writes, got %d records", n)
	}
}

func TestService_Create_invalid_kind(t *testing.T) {
	svc := NewService(NewInMemoryRepository())

	_, err := svc.Create("u1", Draft{Name: "x", Kind: Kind("video")})
	if !errors.Is(err, ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
}

func TestService_Create_kind_dependent_fields(t *testing.T) {
	svc := NewService(NewInMemoryRepository())

	t.Run("text_drops_image_url", func(t *testing.T) {
		o, err := svc.Create("u1", Draft{Name: "t", Kind: KindText, Content: "hi", ImageURL: "http://x/y.png"})
		if err != nil {
			t.Fatal(err)
		}
		if o.ImageURL != "" {
			t.Errorf("text overlay should not keep image_url, got %q", o.ImageURL)
		}
	})

	t.Run("logo_drops_text_fields", func(t *testing.T) {
		o, err := svc.Create("u1", Draft{Name: "Logo1", Kind: KindLogo, ImageURL: "http://x/y.png", Content: "hi", FontSize: 30, Color: "#ff0000"})
		if err != nil {
			t.Fatal(err)
		}
		if o.Content != "" || o.FontSize != 0 || o.Color != "" {
			t.Errorf("logo overlay should drop text fields, got %q %v %q", o.Content, o.FontSize, o.Color)
		}
		if o.ImageURL != "http://x/y.png" {
			t.Errorf("image_url: got %q", o.ImageURL)
		}
	})
}

func TestService_Create_logo_scenario(t *testing.T) {
	// Authenticated create inserts with the caller's user id and default
	// geometry, and the refetched list contains the new record.
	repo := NewInMemoryRepository()
	svc := NewService(repo)

	o, err := svc.Create("U", Draft{Name: "Logo1", Kind: KindLogo, ImageURL: "http://x/y.png"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.UserID != "U" {
		t.Errorf("user_id: got %q", o.UserID)
	}

	list := svc.List("U")
	if len(list) != 1 || list[0].ID != o.ID {
		t.Fatalf("refetched list should contain the new record, got %v", list)
	}
	got := list[0]
	if got.PositionX != 50 || got.PositionY != 50 || got.Width != 200 || got.Height != 100 {
		t.Errorf("default geometry: got (%v,%v) %vx%v", got.PositionX, got.PositionY, got.Width, got.Height)
	}
}

func TestService_Delete_missing(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	o, _ := svc.Create("u1", Draft{Name: "t", Kind: KindText, Content: "hi"})

	if err := svc.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	// Failed delete leaves the list untouched.
	if list := svc.List("u1"); len(list) != 1 || list[0].ID != o.ID {
		t.Errorf("list should be unchanged after failed delete, got %v", list)
	}
}
