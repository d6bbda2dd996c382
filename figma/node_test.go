package figma

import (
	"encoding/json"
	"errors"
	"testing"
)

const sampleDoc = `{
  "id": "0:0", "name": "Document", "type": "DOCUMENT",
  "children": [{
    "id": "0:1", "name": "Page 1", "type": "CANVAS",
    "children": [
      {"id": "1:1", "name": "Button", "type": "RECTANGLE",
       "absoluteBoundingBox": {"x": 0, "y": 0, "width": 50, "height": 50},
       "fills": [{"type": "SOLID", "color": {"r": 1, "g": 0, "b": 0, "a": 1}}],
       "strokes": [{"type": "SOLID", "visible": false, "opacity": 0.5, "color": {"r": 0, "g": 0, "b": 0, "a": 1}}],
       "strokeWeight": 1, "cornerRadius": 4},
      {"id": "1:2", "name": "Label", "type": "TEXT", "characters": "Hello"},
      {"id": "1:3", "name": "Legacy", "type": "BOOLEAN", "children": []},
      {"id": "1:4", "name": "Future", "type": "WIDGET"}
    ]
  }]
}`

func decodeSample(t *testing.T) *Node {
	t.Helper()
	var n Node
	if err := json.Unmarshal([]byte(sampleDoc), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &n
}

// find returns the first node with the given ID in pre-order, or nil.
func find(root *Node, id string) *Node {
	var found *Node
	root.Walk(func(n *Node) bool {
		if found == nil && n.ID == id {
			found = n
		}
		return found == nil
	})
	return found
}

func TestDecode_Defaults(t *testing.T) {
	doc := decodeSample(t)
	rect := find(doc, "1:1")
	if rect == nil {
		t.Fatal("1:1 not found")
	}
	if !rect.IsVisible() {
		t.Error("node visible should default to true")
	}
	if !rect.Fills[0].IsVisible() || rect.Fills[0].Alpha() != 1 {
		t.Errorf("fill defaults: visible=%v alpha=%v", rect.Fills[0].IsVisible(), rect.Fills[0].Alpha())
	}
	if rect.Strokes[0].IsVisible() || rect.Strokes[0].Alpha() != 0.5 {
		t.Errorf("stroke: visible=%v alpha=%v", rect.Strokes[0].IsVisible(), rect.Strokes[0].Alpha())
	}
}

func TestDecode_TypeTags(t *testing.T) {
	doc := decodeSample(t)
	if got := find(doc, "1:3").Type; got != TypeBoolean {
		t.Errorf("legacy BOOLEAN: got %q", got)
	}
	future := find(doc, "1:4")
	if future.Type.Known() {
		t.Errorf("WIDGET should not be known")
	}
	if _, err := future.Box(); !errors.Is(err, ErrAttribute) {
		t.Errorf("unknown type Box: got %v, want ErrAttribute", err)
	}
}

func TestAccessors_ContractViolation(t *testing.T) {
	// WHAT: Reading an attribute the type does not define fails loudly.
	// WHY: A silent zero value would render wrong output without a trace.
	doc := decodeSample(t)
	text := find(doc, "1:2")
	if _, err := text.Radius(); !errors.Is(err, ErrAttribute) {
		t.Errorf("TEXT Radius: got %v", err)
	}
	if _, err := text.Children(); !errors.Is(err, ErrAttribute) {
		t.Errorf("TEXT Children: got %v", err)
	}
	rect := find(doc, "1:1")
	if _, err := rect.Text(); !errors.Is(err, ErrAttribute) {
		t.Errorf("RECTANGLE Text: got %v", err)
	}
	if r, err := rect.Radius(); err != nil || r != 4 {
		t.Errorf("RECTANGLE Radius: got %v, %v", r, err)
	}
	if _, err := doc.Box(); !errors.Is(err, ErrAttribute) {
		t.Errorf("DOCUMENT Box: got %v", err)
	}
	if s, err := text.Text(); err != nil || s != "Hello" {
		t.Errorf("TEXT Text: got %q, %v", s, err)
	}
}

func TestWalk_PreOrder(t *testing.T) {
	doc := decodeSample(t)
	var ids []string
	doc.Walk(func(n *Node) bool {
		ids = append(ids, n.ID)
		return true
	})
	want := []string{"0:0", "0:1", "1:1", "1:2", "1:3", "1:4"}
	if len(ids) != len(want) {
		t.Fatalf("walk: got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("walk: got %v, want %v", ids, want)
		}
	}
}

func TestColor_RGBA8Rounds(t *testing.T) {
	r, g, b := Color{R: 0.5, G: 0.999, B: 0.001}.RGBA8()
	if r != 128 || g != 255 || b != 0 {
		t.Errorf("RGBA8: got %d %d %d, want 128 255 0", r, g, b)
	}
	r, _, _ = Color{R: 1.4}.RGBA8()
	if r != 255 {
		t.Errorf("RGBA8 clamp: got %d", r)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		typ       NodeType
		container bool
		shape     bool
	}{
		{TypeFrame, true, false},
		{TypeInstance, true, false},
		{TypeRectangle, false, true},
		{TypeText, false, true},
		{TypeSlice, false, false},
		{NodeType("WIDGET"), false, false},
	}
	for _, c := range cases {
		n := &Node{Type: c.typ}
		if n.IsContainer() != c.container || n.IsShape() != c.shape {
			t.Errorf("%s: container=%v shape=%v", c.typ, n.IsContainer(), n.IsShape())
		}
	}
}
