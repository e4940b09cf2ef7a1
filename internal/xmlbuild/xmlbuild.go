package xmlbuild

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Header is the document prologue emitted by Marshal.
const Header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Namespace associates a serialization prefix with a namespace URI.
type Namespace struct {
	Prefix string
	URI    string
}

// Qualify returns the namespace-qualified name pair for an element or
// attribute in this namespace.
func (n Namespace) Qualify(local string) (space, name string) {
	return n.URI, local
}

// Attr is a serialized attribute. Space is a namespace URI or empty.
type Attr struct {
	Space string
	Local string
	Value string
}

// Element is a mutable XML element tree node. Space is a namespace URI or
// empty for elements that inherit the active default namespace.
type Element struct {
	Space    string
	Local    string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// New returns a new element with the given namespace URI and local name.
func New(space, local string) *Element {
	return &Element{Space: space, Local: local}
}

// Sub appends a new child element and returns it.
func (e *Element) Sub(space, local string) *Element {
	child := New(space, local)
	e.Children = append(e.Children, child)
	return child
}

// Append adds an existing element as the last child.
func (e *Element) Append(child *Element) {
	if child != nil {
		e.Children = append(e.Children, child)
	}
}

// SetText sets the element text content and returns the element.
func (e *Element) SetText(text string) *Element {
	e.Text = text
	return e
}

// SetAttr sets an unqualified attribute, replacing any previous value.
func (e *Element) SetAttr(local, value string) *Element {
	return e.SetAttrNS("", local, value)
}

// SetAttrNS sets a namespace-qualified attribute, replacing any previous value.
func (e *Element) SetAttrNS(space, local, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Space == space && e.Attrs[i].Local == local {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Space: space, Local: local, Value: value})
	return e
}

// Find returns the first direct child with the given namespace URI and local
// name, or nil.
func (e *Element) Find(space, local string) *Element {
	for _, child := range e.Children {
		if child.Space == space && child.Local == local {
			return child
		}
	}
	return nil
}

// FindAll returns all direct children with the given namespace URI and local name.
func (e *Element) FindAll(space, local string) []*Element {
	var out []*Element
	for _, child := range e.Children {
		if child.Space == space && child.Local == local {
			out = append(out, child)
		}
	}
	return out
}

// Marshal serializes the tree rooted at root with two-space indentation and
// an XML declaration. The provided namespaces are declared as prefixes on the
// root element; elements in any other namespace declare it as the default
// namespace in place.
func Marshal(root *Element, namespaces []Namespace) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("marshal: nil root element")
	}
	prefixes := make(map[string]string, len(namespaces))
	for _, ns := range namespaces {
		if ns.Prefix == "" || ns.URI == "" {
			return nil, fmt.Errorf("marshal: namespace %q needs both prefix and URI", ns.Prefix)
		}
		prefixes[ns.URI] = ns.Prefix
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	w := &writer{buf: &buf, prefixes: prefixes}
	if err := w.element(root, namespaces, "", 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type writer struct {
	buf      *bytes.Buffer
	prefixes map[string]string
}

func (w *writer) element(e *Element, declare []Namespace, inheritedDefault string, depth int) error {
	name, activeDefault, defaultDecl, err := w.resolveName(e, inheritedDefault)
	if err != nil {
		return err
	}

	indent := strings.Repeat("  ", depth)
	w.buf.WriteString(indent)
	w.buf.WriteByte('<')
	w.buf.WriteString(name)

	for _, ns := range declare {
		fmt.Fprintf(w.buf, ` xmlns:%s="%s"`, ns.Prefix, ns.URI)
	}
	if defaultDecl != "" {
		fmt.Fprintf(w.buf, ` xmlns="%s"`, escape(defaultDecl))
	}
	for _, attr := range e.Attrs {
		attrName := attr.Local
		if attr.Space != "" {
			prefix, ok := w.prefixes[attr.Space]
			if !ok {
				return fmt.Errorf("marshal: attribute namespace %q has no declared prefix", attr.Space)
			}
			attrName = prefix + ":" + attr.Local
		}
		fmt.Fprintf(w.buf, ` %s="%s"`, attrName, escape(attr.Value))
	}

	switch {
	case len(e.Children) == 0 && e.Text == "":
		w.buf.WriteString("/>")
	case len(e.Children) == 0:
		w.buf.WriteByte('>')
		w.buf.WriteString(escape(e.Text))
		w.buf.WriteString("</")
		w.buf.WriteString(name)
		w.buf.WriteByte('>')
	default:
		w.buf.WriteByte('>')
		for _, child := range e.Children {
			w.buf.WriteByte('\n')
			if err := w.element(child, nil, activeDefault, depth+1); err != nil {
				return err
			}
		}
		w.buf.WriteByte('\n')
		w.buf.WriteString(indent)
		w.buf.WriteString("</")
		w.buf.WriteString(name)
		w.buf.WriteByte('>')
	}
	return nil
}

// resolveName picks the serialized element name and tracks default-namespace
// scope: prefixed when the namespace was declared at the root, inherited when
// it matches the active default, declared in place otherwise.
func (w *writer) resolveName(e *Element, inheritedDefault string) (name, activeDefault, defaultDecl string, err error) {
	if e.Local == "" {
		return "", "", "", fmt.Errorf("marshal: element with empty local name")
	}
	switch {
	case e.Space == "":
		return e.Local, inheritedDefault, "", nil
	case w.prefixes[e.Space] != "":
		return w.prefixes[e.Space] + ":" + e.Local, inheritedDefault, "", nil
	case e.Space == inheritedDefault:
		return e.Local, inheritedDefault, "", nil
	default:
		return e.Local, e.Space, e.Space, nil
	}
}

func escape(value string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(value))
	return buf.String()
}

// Parse decodes an XML document into an element tree. Namespace URIs are
// preserved on elements and attributes; surrounding whitespace in text
// content is trimmed.
func Parse(data []byte) (*Element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var stack []*Element
	var root *Element

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			el := New(t.Name.Space, t.Name.Local)
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Space: attr.Name.Space, Local: attr.Name.Local, Value: attr.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse xml: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml: unbalanced end element")
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				if text := strings.TrimSpace(string(t)); text != "" {
					stack[len(stack)-1].Text += text
				}
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parse xml: no root element")
	}
	return root, nil
}
