package xmlbuild_test

import (
	"strings"
	"testing"

	"sipbuilder/internal/xmlbuild"
)

const (
	nsA = "http://example.com/a"
	nsB = "http://example.com/b"
)

func TestMarshalDeclaresPrefixesAtRoot(t *testing.T) {
	root := xmlbuild.New(nsA, "root")
	root.Sub(nsA, "child").SetText("value")

	data, err := xmlbuild.Marshal(root, []xmlbuild.Namespace{{Prefix: "a", URI: nsA}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	out := string(data)
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing XML declaration: %q", out)
	}
	if !strings.Contains(out, `<a:root xmlns:a="http://example.com/a">`) {
		t.Fatalf("expected prefixed root with declaration, got: %q", out)
	}
	if !strings.Contains(out, "<a:child>value</a:child>") {
		t.Fatalf("expected prefixed child, got: %q", out)
	}
}

func TestMarshalDefaultNamespaceSubtree(t *testing.T) {
	root := xmlbuild.New(nsA, "root")
	inner := root.Sub(nsB, "inner")
	inner.Sub(nsB, "leaf").SetText("x")

	data, err := xmlbuild.Marshal(root, []xmlbuild.Namespace{{Prefix: "a", URI: nsA}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `<inner xmlns="http://example.com/b">`) {
		t.Fatalf("expected in-place default namespace declaration, got: %q", out)
	}
	if !strings.Contains(out, "<leaf>x</leaf>") {
		t.Fatalf("expected unprefixed leaf inheriting the default namespace, got: %q", out)
	}
	if strings.Count(out, `xmlns="http://example.com/b"`) != 1 {
		t.Fatalf("default namespace should be declared once, got: %q", out)
	}
}

func TestMarshalEscapesTextAndAttributes(t *testing.T) {
	root := xmlbuild.New(nsA, "root")
	root.SetAttr("note", `a<b&"c"`)
	root.SetText("x < y & z")

	data, err := xmlbuild.Marshal(root, []xmlbuild.Namespace{{Prefix: "a", URI: nsA}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	out := string(data)
	if strings.Contains(out, "x < y") {
		t.Fatalf("text not escaped: %q", out)
	}
	if !strings.Contains(out, "x &lt; y &amp; z") {
		t.Fatalf("unexpected escaping: %q", out)
	}
}

func TestMarshalSelfClosesEmptyElements(t *testing.T) {
	root := xmlbuild.New(nsA, "root")
	root.Sub(nsA, "empty")

	data, err := xmlbuild.Marshal(root, []xmlbuild.Namespace{{Prefix: "a", URI: nsA}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "<a:empty/>") {
		t.Fatalf("expected self-closing element, got: %q", string(data))
	}
}

func TestParsePreservesNamespaces(t *testing.T) {
	doc := `<?xml version="1.0"?>
<r:record xmlns:r="http://example.com/a" xmlns:o="http://example.com/b">
  <o:title lang="en">Example</o:title>
</r:record>`

	root, err := xmlbuild.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if root.Space != nsA || root.Local != "record" {
		t.Fatalf("unexpected root: %q %q", root.Space, root.Local)
	}
	title := root.Find(nsB, "title")
	if title == nil {
		t.Fatal("expected title child")
	}
	if title.Text != "Example" {
		t.Fatalf("unexpected text: %q", title.Text)
	}
	if len(title.Attrs) != 1 || title.Attrs[0].Local != "lang" || title.Attrs[0].Value != "en" {
		t.Fatalf("unexpected attrs: %#v", title.Attrs)
	}
}

func TestParseRejectsMalformedDocument(t *testing.T) {
	if _, err := xmlbuild.Parse([]byte("<open>")); err == nil {
		t.Fatal("expected error for unterminated document")
	}
}

func TestMarshalRejectsAttributeWithoutPrefix(t *testing.T) {
	root := xmlbuild.New(nsA, "root")
	root.SetAttrNS(nsB, "ref", "x")

	if _, err := xmlbuild.Marshal(root, []xmlbuild.Namespace{{Prefix: "a", URI: nsA}}); err == nil {
		t.Fatal("expected error for attribute namespace without declared prefix")
	}
}
