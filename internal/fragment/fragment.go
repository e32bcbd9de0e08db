// Package fragment wraps the server-rendered markup blobs that replace one
// named region of the page. Controllers only need a handful of lookups
// (element text by id, radio groups, textareas) and a readable plain-text
// rendition for the terminal.
package fragment

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fragment is a parsed markup fragment for one region.
type Fragment struct {
	Name string
	HTML string
	root *html.Node
}

// Option is one selectable value of a radio group.
type Option struct {
	Value   string
	Label   string
	Checked bool
}

// RadioGroup is the set of radio inputs sharing a name.
type RadioGroup struct {
	Name    string
	Options []Option
}

// Field is a textarea found in the fragment.
type Field struct {
	ID    string
	Name  string
	Value string
}

// Parse parses markup into a Fragment.
func Parse(name, markup string) (*Fragment, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("fragment: parse %s: %w", name, err)
	}
	return &Fragment{Name: name, HTML: markup, root: root}, nil
}

// Empty reports whether the fragment has no visible text and no form fields.
func (f *Fragment) Empty() bool {
	if f == nil || f.root == nil {
		return true
	}
	return strings.TrimSpace(f.Text()) == "" && len(f.RadioGroups()) == 0 && len(f.Textareas()) == 0
}

// Scope returns the sub-fragment rooted at the element with the given id.
func (f *Fragment) Scope(id string) (*Fragment, bool) {
	node := f.elementByID(id)
	if node == nil {
		return nil, false
	}
	return &Fragment{Name: f.Name, HTML: f.HTML, root: node}, true
}

// Has reports whether an element with the id exists.
func (f *Fragment) Has(id string) bool {
	return f.elementByID(id) != nil
}

// TextByID returns the trimmed text content of the element with the id.
func (f *Fragment) TextByID(id string) string {
	node := f.elementByID(id)
	if node == nil {
		return ""
	}
	var b strings.Builder
	collectText(node, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

// RadioGroups returns radio inputs grouped by name, in document order.
func (f *Fragment) RadioGroups() []RadioGroup {
	if f == nil || f.root == nil {
		return nil
	}
	labels := f.labels()
	index := map[string]int{}
	var groups []RadioGroup
	walk(f.root, func(n *html.Node) {
		if n.DataAtom != atom.Input || !strings.EqualFold(attr(n, "type"), "radio") {
			return
		}
		name := attr(n, "name")
		if name == "" {
			return
		}
		value := attr(n, "value")
		label := labels[attr(n, "id")]
		if label == "" {
			label = value
		}
		idx, ok := index[name]
		if !ok {
			idx = len(groups)
			index[name] = idx
			groups = append(groups, RadioGroup{Name: name})
		}
		groups[idx].Options = append(groups[idx].Options, Option{Value: value, Label: label, Checked: hasAttr(n, "checked")})
	})
	return groups
}

// Textareas returns every textarea in document order.
func (f *Fragment) Textareas() []Field {
	if f == nil || f.root == nil {
		return nil
	}
	var fields []Field
	walk(f.root, func(n *html.Node) {
		if n.DataAtom != atom.Textarea {
			return
		}
		var b strings.Builder
		collectText(n, &b)
		fields = append(fields, Field{ID: attr(n, "id"), Name: attr(n, "name"), Value: b.String()})
	})
	return fields
}

// Text renders the fragment as plain text. Block elements start new lines,
// form controls are omitted.
func (f *Fragment) Text() string {
	if f == nil || f.root == nil {
		return ""
	}
	var lines []string
	var current strings.Builder
	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Textarea, atom.Input, atom.Select, atom.Head:
				return
			}
		}
		block := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if block {
			flush()
		}
	}
	visit(f.root)
	flush()
	return strings.Join(lines, "\n")
}

func (f *Fragment) labels() map[string]string {
	out := map[string]string{}
	walk(f.root, func(n *html.Node) {
		if n.DataAtom != atom.Label {
			return
		}
		target := attr(n, "for")
		if target == "" {
			return
		}
		var b strings.Builder
		collectText(n, &b)
		out[target] = strings.Join(strings.Fields(b.String()), " ")
	})
	return out
}

func (f *Fragment) elementByID(id string) *html.Node {
	if f == nil || f.root == nil || id == "" {
		return nil
	}
	var found *html.Node
	walk(f.root, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
		}
	})
	return found
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Footer, atom.Section, atom.Article, atom.Fieldset, atom.Legend, atom.Br, atom.Tr, atom.Form:
		return true
	}
	return false
}
