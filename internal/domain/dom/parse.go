package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements contribute neither children nor text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
}

// Parse reads an HTML document. The <title> becomes the document title and
// the <body> subtree becomes the element tree. Whitespace runs inside text
// nodes, which come from source formatting, are collapsed to one space.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc := NewDocument("")
	var body *html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if n.FirstChild != nil {
					doc.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Body:
				if body == nil {
					body = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)

	if body == nil {
		return doc, nil
	}
	for _, a := range body.Attr {
		doc.body.SetAttr(a.Key, a.Val)
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(doc, c); child != nil {
			doc.body.AppendChild(child)
		}
	}
	return doc, nil
}

// MustParse parses a literal HTML string and panics on error. Intended for
// fixtures.
func MustParse(s string) *Document {
	doc, err := Parse(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return doc
}

func convert(doc *Document, n *html.Node) *Element {
	switch n.Type {
	case html.TextNode:
		text := collapseSpace(n.Data)
		if text == "" {
			return nil
		}
		return &Element{doc: doc, tag: textTag, data: text}
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return nil
		}
		el := doc.CreateElement(n.Data)
		for _, a := range n.Attr {
			el.SetAttr(a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(doc, c); child != nil {
				el.AppendChild(child)
			}
		}
		return el
	}
	return nil
}

func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	if strings.TrimSpace(s) == "" {
		return " "
	}
	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' || s[0] == '\r' {
		out = " " + out
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' || last == '\t' || last == '\r' {
		out += " "
	}
	return out
}
