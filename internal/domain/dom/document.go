// Package dom is a small in-memory document model: elements with
// attributes and text, id lookup, focus, and document-level listeners for
// the keyboard, pointer and focus events the narrator reacts to.
package dom

import (
	"strings"
	"sync"
)

// Event types dispatched by a Document.
const (
	EventKeyDown   = "keydown"
	EventMouseDown = "mousedown"
	EventFocus     = "focus"
)

// Event is a single keyboard, pointer or focus event.
type Event struct {
	Type   string
	Key    string   // keydown only
	Target *Element // focus only
}

// Listener receives events dispatched on a Document.
type Listener func(Event)

type listenerEntry struct {
	id  int
	typ string
	fn  Listener
}

// Document owns a tree of elements rooted at its body.
type Document struct {
	mu        sync.RWMutex
	title     string
	body      *Element
	active    *Element
	nextID    int
	listeners []listenerEntry
}

// NewDocument returns an empty document with the given title.
func NewDocument(title string) *Document {
	d := &Document{title: title}
	d.body = &Element{doc: d, tag: "body"}
	return d
}

// Title returns the document title.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

// SetTitle replaces the document title.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
}

// Body returns the root element.
func (d *Document) Body() *Element { return d.body }

// CreateElement returns a detached element. attrs is a flat list of
// name/value pairs; a trailing name without a value is ignored.
func (d *Document) CreateElement(tag string, attrs ...string) *Element {
	el := &Element{doc: d, tag: strings.ToLower(tag)}
	if len(attrs) > 1 {
		el.attrs = make(map[string]string, len(attrs)/2)
		for i := 0; i+1 < len(attrs); i += 2 {
			el.attrs[strings.ToLower(attrs[i])] = attrs[i+1]
		}
	}
	return el
}

// ElementByID returns the first attached element with the given id.
func (d *Document) ElementByID(id string) *Element {
	if id == "" {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return findByID(d.body, id)
}

func findByID(e *Element, id string) *Element {
	if e.tag != textTag && e.attrs["id"] == id {
		return e
	}
	for _, c := range e.children {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// ActiveElement returns the focused element, or nil.
func (d *Document) ActiveElement() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.active != nil && !d.active.attachedLocked() {
		return nil
	}
	return d.active
}

// Focus moves focus to el and dispatches a focus event. It reports false,
// and does nothing, when el is detached or not focusable.
func (d *Document) Focus(el *Element) bool {
	if el == nil || el.doc != d || !el.Attached() || !el.Focusable() {
		return false
	}
	d.mu.Lock()
	d.active = el
	d.mu.Unlock()
	d.dispatch(Event{Type: EventFocus, Target: el})
	return true
}

// KeyDown dispatches a keydown event for key, e.g. "Tab" or "Escape".
func (d *Document) KeyDown(key string) {
	d.dispatch(Event{Type: EventKeyDown, Key: key})
}

// MouseDown dispatches a pointer-down event.
func (d *Document) MouseDown() {
	d.dispatch(Event{Type: EventMouseDown})
}

// AddEventListener registers fn for events of type typ. The returned
// function removes the listener; calling it more than once is safe.
func (d *Document) AddEventListener(typ string, fn Listener) (remove func()) {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, listenerEntry{id: id, typ: typ, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of listeners registered for typ.
func (d *Document) ListenerCount(typ string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, l := range d.listeners {
		if l.typ == typ {
			n++
		}
	}
	return n
}

// dispatch invokes matching listeners outside the lock, in registration
// order.
func (d *Document) dispatch(ev Event) {
	d.mu.RLock()
	var fns []Listener
	for _, l := range d.listeners {
		if l.typ == ev.Type {
			fns = append(fns, l.fn)
		}
	}
	d.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
