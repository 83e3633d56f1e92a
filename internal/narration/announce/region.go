package announce

import "sync"

// Politeness mirrors aria-live: polite regions wait for the user to be
// idle, assertive ones interrupt.
type Politeness string

const (
	Polite    Politeness = "polite"
	Assertive Politeness = "assertive"
)

// LiveRegion is a passive text node read by assistive technology.
// Subscribers see every mutation of the text, and only mutations: writing
// the text a region already holds is not an event.
type LiveRegion struct {
	id         string
	politeness Politeness

	mu   sync.Mutex
	text string
	subs map[int]func(string)
	next int
}

// NewLiveRegion returns an empty region.
func NewLiveRegion(id string, politeness Politeness) *LiveRegion {
	return &LiveRegion{id: id, politeness: politeness, subs: make(map[int]func(string))}
}

func (r *LiveRegion) ID() string { return r.id }
func (r *LiveRegion) Politeness() Politeness { return r.politeness }

// Text returns the current content.
func (r *LiveRegion) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

// Set replaces the content. It reports whether the text changed.
func (r *LiveRegion) Set(text string) bool {
	r.mu.Lock()
	if r.text == text {
		r.mu.Unlock()
		return false
	}
	r.text = text
	subs := make([]func(string), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(text)
	}
	return true
}

// Clear empties the region.
func (r *LiveRegion) Clear() bool {
	return r.Set("")
}

// Subscribe registers fn for text mutations. The returned function
// unsubscribes.
func (r *LiveRegion) Subscribe(fn func(text string)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}
