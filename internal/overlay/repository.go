package overlay

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the concurrency-safe contract for accessing and mutating
// overlay records.
type Repository interface {
	// Insert stores a new overlay, assigning its ID and creation time.
	// The stored record is returned.
	Insert(o Overlay) (Overlay, error)

	// ListByUser returns all overlays owned by the given user, ordered by
	// creation time descending (newest first).
	ListByUser(userID string) []Overlay

	// Update applies a partial mutation to the overlay with the given id and
	// returns the updated record. ErrNotFound is returned if no such record
	// exists. Updates are applied unconditionally: concurrent writers resolve
	// last-write-wins, there is no version token.
	Update(id string, upd Update) (Overlay, error)

	// Delete removes the overlay with the given id. ErrNotFound is returned
	// if no such record exists.
	Delete(id string) error

	// Count returns the number of stored overlays. Used for metrics.
	Count() int
}

// ErrNotFound is returned when an overlay id does not resolve to a record.
var ErrNotFound = errors.New("overlay not found")

// InMemoryRepository is a concurrency-safe in-memory implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store

	// Insertion order, for a stable sort when creation times collide.
	seq     map[string]uint64
	nextSeq uint64
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
// Useful for testing or for plugging in a different persistence backend.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store, seq: make(map[string]uint64)}
}

// Insert implements Repository.Insert.
func (r *InMemoryRepository) Insert(o Overlay) (Overlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()

	stored := o
	r.store.Set(&stored)
	r.nextSeq++
	r.seq[o.ID] = r.nextSeq

	return o, nil
}

// ListByUser implements Repository.ListByUser.
func (r *InMemoryRepository) ListByUser(userID string) []Overlay {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Build a copy to avoid exposing internal records.
	out := make([]Overlay, 0)
	for _, id := range r.store.ListIDs() {
		if o, ok := r.store.Get(id); ok && o.UserID == userID {
			out = append(out, *o)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})

	return out
}

// Update implements Repository.Update.
func (r *InMemoryRepository) Update(id string, upd Update) (Overlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.store.Get(id)
	if !ok {
		return Overlay{}, ErrNotFound
	}

	applyUpdate(o, upd)
	return *o, nil
}

// Delete implements Repository.Delete.
func (r *InMemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store.Get(id); !ok {
		return ErrNotFound
	}

	r.store.Delete(id)
	delete(r.seq, id)
	return nil
}

// Count implements Repository.Count.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.ListIDs())
}

func applyUpdate(o *Overlay, upd Update) {
	if upd.Name != nil {
		o.Name = *upd.Name
	}
	if upd.Content != nil {
		o.Content = *upd.Content
	}
	if upd.ImageURL != nil {
		o.ImageURL = *upd.ImageURL
	}
	if upd.PositionX != nil {
		o.PositionX = *upd.PositionX
	}
	if upd.PositionY != nil {
		o.PositionY = *upd.PositionY
	}
	if upd.Width != nil {
		o.Width = *upd.Width
	}
	if upd.Height != nil {
		o.Height = *upd.Height
	}
	if upd.FontSize != nil {
		o.FontSize = *upd.FontSize
	}
	if upd.Color != nil {
		o.Color = *upd.Color
	}
}
