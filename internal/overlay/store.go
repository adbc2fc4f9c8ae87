package overlay

// Store is the persistence abstraction for overlay records.
// Implementations can be in-memory, file-based, or remote.
// The Repository uses Store for all reads and writes; callers of Repository
// do not need to know which Store is used.
type Store interface {
	Get(id string) (*Overlay, bool)
	Set(o *Overlay)
	Delete(id string)
	ListIDs() []string
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	overlays map[string]*Overlay
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		overlays: make(map[string]*Overlay),
	}
}

// Get implements Store.Get.
func (s *InMemoryStore) Get(id string) (*Overlay, bool) {
	o, ok := s.overlays[id]
	return o, ok
}

// Set implements Store.Set.
func (s *InMemoryStore) Set(o *Overlay) {
	s.overlays[o.ID] = o
}

// Delete implements Store.Delete.
func (s *InMemoryStore) Delete(id string) {
	delete(s.overlays, id)
}

// ListIDs implements Store.ListIDs.
func (s *InMemoryStore) ListIDs() []string {
	ids := make([]string, 0, len(s.overlays))
	for id := range s.overlays {
		ids = append(ids, id)
	}
	return ids
}
