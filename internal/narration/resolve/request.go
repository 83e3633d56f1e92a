package resolve

import (
	"strings"

	"focusnarrator/internal/domain/dom"
)

// RequestFor reads the accessibility surface of el. Ids in aria-labelledby
// that match no element are skipped.
func RequestFor(el *dom.Element, explicit string) Request {
	req := Request{
		ExplicitLabel: explicit,
		Tag:           el.Tag(),
	}
	req.AccessibleLabel, _ = el.Attr("aria-label")
	req.Role, _ = el.Attr("role")
	if req.Tag == "input" {
		req.InputType, _ = el.Attr("type")
	}

	if ids, ok := el.Attr("aria-labelledby"); ok {
		var parts []string
		for _, id := range strings.Fields(ids) {
			ref := el.Document().ElementByID(id)
			if ref == nil {
				continue
			}
			if text := Normalize(ref.Text()); text != "" {
				parts = append(parts, text)
			}
		}
		req.LabelledByText = strings.Join(parts, " ")
	}

	req.OwnText = Normalize(el.Text())
	return req
}

// Element resolves the narration for el in one step.
func Element(el *dom.Element, explicit string) string {
	return Resolve(RequestFor(el, explicit))
}
