// Package resolve turns a focused element into the single string the
// narrator speaks. Label sources are tried in a fixed order and the first
// non-empty one wins; the structural fallback guarantees a result.
package resolve

import "strings"

// FallbackText is spoken when nothing else describes the element.
const FallbackText = "Item focused"

// Request is everything the resolver may read about one focus event.
type Request struct {
	// ExplicitLabel is supplied by the component that owns the element.
	ExplicitLabel string
	// AccessibleLabel is the aria-label attribute.
	AccessibleLabel string
	// LabelledByText is the text of the elements named by aria-labelledby.
	LabelledByText string
	// OwnText is the element's rendered text.
	OwnText string

	Role      string
	Tag       string
	InputType string
}

// Source returns a label for req, or false when it has none.
type Source func(req Request) (string, bool)

// Chain tries sources in order.
type Chain []Source

// DefaultChain is the narration precedence: explicit label, aria-label,
// aria-labelledby, own text, then the structural description.
var DefaultChain = Chain{Explicit, AccessibleName, LabelledBy, OwnText, Structural}

// Resolve returns the first non-empty label. It never returns "".
func (c Chain) Resolve(req Request) string {
	for _, src := range c {
		if label, ok := src(req); ok {
			return label
		}
	}
	return FallbackText
}

// Resolve applies DefaultChain.
func Resolve(req Request) string {
	return DefaultChain.Resolve(req)
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Explicit uses the label supplied by the owning component.
func Explicit(req Request) (string, bool) {
	return nonEmpty(req.ExplicitLabel)
}

// AccessibleName uses aria-label.
func AccessibleName(req Request) (string, bool) {
	return nonEmpty(req.AccessibleLabel)
}

// LabelledBy uses the referenced label text.
func LabelledBy(req Request) (string, bool) {
	return nonEmpty(Normalize(req.LabelledByText))
}

// OwnText uses the element's own rendered text.
func OwnText(req Request) (string, bool) {
	return nonEmpty(Normalize(req.OwnText))
}

// Structural describes the element by role or tag.
func Structural(req Request) (string, bool) {
	if role := strings.TrimSpace(req.Role); role != "" {
		return role + " focused", true
	}
	switch strings.ToLower(req.Tag) {
	case "button":
		return "Button", true
	case "a":
		return "Link", true
	case "input":
		inputType := strings.TrimSpace(req.InputType)
		if inputType == "" {
			inputType = "text"
		}
		return inputType + " input", true
	}
	return FallbackText, true
}
