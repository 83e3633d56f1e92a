package dom

import "strings"

// textTag marks a text node. Text nodes carry their content in data and
// never have attributes or children.
const textTag = "#text"

// blockTags render on their own line.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "div": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// Element is a node of a Document. Elements are created through their
// document and are safe for concurrent use.
type Element struct {
	doc      *Document
	parent   *Element
	children []*Element
	tag      string
	data     string
	attrs    map[string]string
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return e.tag }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// ID returns the id attribute, or "".
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Attr returns the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	v, ok := e.attrs[name]
	return v, ok
}

// HasAttr reports whether the named attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// SetAttr sets an attribute, replacing any previous value.
func (e *Element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[strings.ToLower(name)] = value
}

// RemoveAttr deletes an attribute. Removing an absent attribute is a no-op.
func (e *Element) RemoveAttr(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	delete(e.attrs, strings.ToLower(name))
}

// AppendChild moves child under e. A child that belongs to another document
// is ignored.
func (e *Element) AppendChild(child *Element) *Element {
	if child == nil || child.doc != e.doc {
		return e
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	child.detachLocked()
	child.parent = e
	e.children = append(e.children, child)
	return e
}

// AppendText adds a text node holding s.
func (e *Element) AppendText(s string) *Element {
	return e.AppendChild(&Element{doc: e.doc, tag: textTag, data: s})
}

// Remove detaches e, and its subtree, from its parent.
func (e *Element) Remove() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.detachLocked()
}

func (e *Element) detachLocked() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Attached reports whether e is reachable from the document body.
func (e *Element) Attached() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.attachedLocked()
}

func (e *Element) attachedLocked() bool {
	for n := e; n != nil; n = n.parent {
		if n == e.doc.body {
			return true
		}
	}
	return false
}

// Text returns the rendered text of the subtree. Line breaks separate block
// elements and <br>; all other whitespace is kept as written.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var b strings.Builder
	e.writeText(&b)
	return b.String()
}

func (e *Element) writeText(b *strings.Builder) {
	switch {
	case e.tag == textTag:
		b.WriteString(e.data)
		return
	case e.tag == "br":
		b.WriteByte('\n')
		return
	}
	block := blockTags[e.tag]
	if block {
		b.WriteByte('\n')
	}
	for _, c := range e.children {
		c.writeText(b)
	}
	if block {
		b.WriteByte('\n')
	}
}

// Focusable reports whether the element can take focus: natively
// interactive controls, links with an href, and anything with a tabindex.
func (e *Element) Focusable() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if _, ok := e.attrs["tabindex"]; ok {
		return true
	}
	if _, ok := e.attrs["disabled"]; ok {
		return false
	}
	switch e.tag {
	case "button", "input", "select", "textarea":
		return true
	case "a":
		_, ok := e.attrs["href"]
		return ok
	}
	return false
}

// Interactive reports whether the element is something a user would expect
// to reach with the keyboard: a focusable element or one carrying a role.
func (e *Element) Interactive() bool {
	if e.tag == textTag {
		return false
	}
	return e.Focusable() || e.HasAttr("role")
}

// Walk calls fn for e and every element below it, depth first. Text nodes
// are skipped.
func (e *Element) Walk(fn func(*Element)) {
	e.doc.mu.RLock()
	var all []*Element
	e.collectLocked(&all)
	e.doc.mu.RUnlock()
	for _, el := range all {
		fn(el)
	}
}

func (e *Element) collectLocked(out *[]*Element) {
	if e.tag == textTag {
		return
	}
	*out = append(*out, e)
	for _, c := range e.children {
		c.collectLocked(out)
	}
}
