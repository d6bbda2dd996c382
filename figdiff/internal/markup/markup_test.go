package markup

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/figdiff/figma"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func whiteRect() *figma.Node {
	return &figma.Node{
		ID: "1:1", Name: "Box", Type: figma.TypeRectangle,
		AbsoluteBoundingBox: &figma.Rect{Width: 40, Height: 20},
		Fills:               []figma.Paint{figma.Solid(figma.Color{R: 1, G: 1, B: 1, A: 1})},
		CornerRadius:        8,
	}
}

func TestFragment_Rectangle(t *testing.T) {
	got, err := New(quiet()).Fragment(whiteRect())
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	want := `<div style="width:40px;height:20px;box-sizing:border-box;background-color:rgba(255, 255, 255, 1);border-radius:8px"></div>`
	if got != want {
		t.Fatalf("Fragment:\n got %s\nwant %s", got, want)
	}
	if strings.Contains(got, "border:") {
		t.Error("no stroke should mean no border")
	}
}

func TestFragment_RectangleWithStroke(t *testing.T) {
	n := whiteRect()
	n.Strokes = []figma.Paint{figma.Solid(figma.Color{A: 1})}
	n.StrokeWeight = 2
	got, err := New(quiet()).Fragment(n)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	for _, want := range []string{"width:44px", "height:24px", "border:2px solid rgba(0, 0, 0, 1)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Fragment %s: missing %q", got, want)
		}
	}
}

func TestFragment_RectangleNoFill(t *testing.T) {
	n := whiteRect()
	n.Fills = nil
	got, _ := New(quiet()).Fragment(n)
	if strings.Contains(got, "background-color") {
		t.Fatalf("Fragment: unexpected background in %s", got)
	}
}

func TestFragment_Text(t *testing.T) {
	n := &figma.Node{ID: "1:2", Type: figma.TypeText, Characters: "Hello"}
	got, err := New(quiet()).Fragment(n)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	if got != "<span>Hello</span>" {
		t.Fatalf("Fragment: got %q", got)
	}

	nodes := New(quiet()).Nodes(n)
	if len(nodes) != 1 || nodes[0].FirstChild == nil || nodes[0].FirstChild.Type != html.TextNode {
		t.Fatal("text span should hold a single text node")
	}
	if nodes[0].FirstChild.NextSibling != nil {
		t.Fatal("text span should have no other children")
	}
}

func TestFragment_TextEscaped(t *testing.T) {
	n := &figma.Node{ID: "1:2", Type: figma.TypeText, Characters: "<b>&"}
	got, _ := New(quiet()).Fragment(n)
	if got != "<span>&lt;b&gt;&amp;</span>" {
		t.Fatalf("Fragment: got %q", got)
	}
}

func TestFragment_ComponentConcatenatesChildren(t *testing.T) {
	comp := &figma.Node{ID: "1:0", Type: figma.TypeComponent, ChildNodes: []*figma.Node{
		whiteRect(),
		{ID: "1:2", Type: figma.TypeText, Characters: "OK"},
	}}
	got, _ := New(quiet()).Fragment(comp)
	if !strings.HasPrefix(got, "<div ") || !strings.HasSuffix(got, "<span>OK</span>") {
		t.Fatalf("Fragment: got %s", got)
	}
	if strings.Count(got, "<div") != 1 {
		t.Fatalf("component must not wrap its children: %s", got)
	}
}

func TestFragment_UnsupportedType(t *testing.T) {
	// WHAT: Unhandled node types render an empty placeholder and log a warning.
	// WHY: One unsupported node must not fail the whole run.
	var logs bytes.Buffer
	tr := New(slog.New(slog.NewTextHandler(&logs, nil)))

	got, err := tr.Fragment(&figma.Node{ID: "3:1", Type: figma.TypeStar})
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	if got != "<span></span>" {
		t.Fatalf("Fragment: got %q", got)
	}
	if !strings.Contains(logs.String(), "STAR") || !strings.Contains(logs.String(), "shape not supported") {
		t.Fatalf("diagnostic should name the shape type: %q", logs.String())
	}

	logs.Reset()
	got, _ = tr.Fragment(&figma.Node{ID: "3:2", Type: "WIDGET"})
	if got != "<span></span>" || !strings.Contains(logs.String(), "WIDGET") || !strings.Contains(logs.String(), "unknown node type") {
		t.Fatalf("unknown type: got %q, logs %q", got, logs.String())
	}
}

// WHAT: A gradient fill renders the sentinel colour and logs which paint.
// WHY: The green box in the screenshot needs an explanation in the logs.
func TestFragment_GradientFillWarns(t *testing.T) {
	var logs bytes.Buffer
	tr := New(slog.New(slog.NewTextHandler(&logs, nil)))

	n := whiteRect()
	n.Fills = []figma.Paint{{Type: figma.PaintGradientLinear}}
	got, err := tr.Fragment(n)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	if !strings.Contains(got, "background-color:#00ff00") {
		t.Fatalf("Fragment: got %s, want sentinel background", got)
	}
	out := logs.String()
	for _, want := range []string{"paint not supported", "role=fill", "paint=GRADIENT_LINEAR", "gradient=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}

	logs.Reset()
	if _, err := tr.Fragment(whiteRect()); err != nil || logs.Len() != 0 {
		t.Fatalf("solid fill should not warn: %v %q", err, logs.String())
	}
}

func TestFragment_HiddenNodeSkipped(t *testing.T) {
	n := whiteRect()
	n.Visible = figma.Bool(false)
	got, _ := New(quiet()).Fragment(n)
	if got != "" {
		t.Fatalf("Fragment: got %q, want empty", got)
	}
}

func TestFragment_Ellipse(t *testing.T) {
	n := whiteRect()
	n.Type = figma.TypeEllipse
	got, _ := New(quiet()).Fragment(n)
	if !strings.Contains(got, "border-radius:50%") {
		t.Fatalf("Fragment: got %s", got)
	}
}

func TestTranslator_Deterministic(t *testing.T) {
	comp := &figma.Node{ID: "1:0", Type: figma.TypeFrame, ChildNodes: []*figma.Node{whiteRect(), whiteRect()}}
	tr := New(quiet())
	a, _ := tr.Document(comp)
	b, _ := tr.Document(comp)
	if a != b {
		t.Fatal("Document output differs between calls")
	}
}

func TestDocument_Page(t *testing.T) {
	got, err := New(quiet()).Document(whiteRect())
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if !strings.HasPrefix(got, "<!DOCTYPE html>") {
		t.Errorf("missing doctype: %s", got)
	}
	for _, want := range []string{"overflow: hidden", "margin: 0", "<body><div "} {
		if !strings.Contains(got, want) {
			t.Errorf("Document: missing %q in %s", want, got)
		}
	}
}
