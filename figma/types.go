// Package figma models the subset of the Figma REST API that figdiff
// consumes: the document node tree, paints and colours, and the image
// render endpoint.
//
// Nodes mirror the JSON wire format. The node's Type decides which
// attributes are meaningful; read them through the typed accessors in
// node.go, which reject attributes the type does not define.
package figma

import (
	"encoding/json"
	"math"
)

// NodeType is the Figma node type tag.
type NodeType string

const (
	TypeDocument       NodeType = "DOCUMENT"
	TypeCanvas         NodeType = "CANVAS"
	TypeFrame          NodeType = "FRAME"
	TypeGroup          NodeType = "GROUP"
	TypeVector         NodeType = "VECTOR"
	TypeBoolean        NodeType = "BOOLEAN_OPERATION"
	TypeStar           NodeType = "STAR"
	TypeLine           NodeType = "LINE"
	TypeEllipse        NodeType = "ELLIPSE"
	TypeRegularPolygon NodeType = "REGULAR_POLYGON"
	TypeRectangle      NodeType = "RECTANGLE"
	TypeText           NodeType = "TEXT"
	TypeSlice          NodeType = "SLICE"
	TypeComponent      NodeType = "COMPONENT"
	TypeComponentSet   NodeType = "COMPONENT_SET"
	TypeInstance       NodeType = "INSTANCE"
)

// UnmarshalJSON accepts the legacy "BOOLEAN" tag as TypeBoolean. Unknown
// tags are kept verbatim so that newer node kinds still decode.
func (t *NodeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "BOOLEAN" {
		s = string(TypeBoolean)
	}
	*t = NodeType(s)
	return nil
}

// Known reports whether t is one of the node types listed above.
func (t NodeType) Known() bool {
	switch t {
	case TypeDocument, TypeCanvas, TypeFrame, TypeGroup, TypeVector,
		TypeBoolean, TypeStar, TypeLine, TypeEllipse, TypeRegularPolygon,
		TypeRectangle, TypeText, TypeSlice, TypeComponent, TypeComponentSet,
		TypeInstance:
		return true
	}
	return false
}

// PaintType is the Figma paint type tag.
type PaintType string

const (
	PaintSolid           PaintType = "SOLID"
	PaintGradientLinear  PaintType = "GRADIENT_LINEAR"
	PaintGradientRadial  PaintType = "GRADIENT_RADIAL"
	PaintGradientAngular PaintType = "GRADIENT_ANGULAR"
	PaintGradientDiamond PaintType = "GRADIENT_DIAMOND"
	PaintImage           PaintType = "IMAGE"
	PaintEmoji           PaintType = "EMOJI"
)

// Color is an RGBA colour with channels in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// RGBA8 returns the red, green and blue channels scaled to 0..255 with
// rounding. Out-of-range inputs are clamped.
func (c Color) RGBA8() (r, g, b uint8) {
	return channel8(c.R), channel8(c.G), channel8(c.B)
}

func channel8(v float64) uint8 {
	v = math.Round(v * 255)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// Rect is an absolute bounding box in canvas coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Vector is a 2D point.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ColorStop is one stop of a gradient.
type ColorStop struct {
	Position float64 `json:"position"`
	Color    Color   `json:"color"`
}

// Paint is a fill or stroke entry. Visible and Opacity are pointers because
// the API omits them when they hold their defaults (true and 1).
type Paint struct {
	Type                    PaintType   `json:"type"`
	Visible                 *bool       `json:"visible,omitempty"`
	Opacity                 *float64    `json:"opacity,omitempty"`
	Color                   *Color      `json:"color,omitempty"`
	GradientHandlePositions []Vector    `json:"gradientHandlePositions,omitempty"`
	GradientStops           []ColorStop `json:"gradientStops,omitempty"`
	ScaleMode               string      `json:"scaleMode,omitempty"`
	ImageRef                string      `json:"imageRef,omitempty"`
}

// IsVisible reports the paint's visibility, defaulting to true.
func (p Paint) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

// Alpha returns the paint opacity, defaulting to 1.
func (p Paint) Alpha() float64 {
	if p.Opacity == nil {
		return 1
	}
	return *p.Opacity
}

// IsSolid reports whether p is a solid colour paint carrying a colour.
func (p Paint) IsSolid() bool {
	return p.Type == PaintSolid && p.Color != nil
}

// IsGradient reports whether p is any of the four gradient kinds.
func (p Paint) IsGradient() bool {
	switch p.Type {
	case PaintGradientLinear, PaintGradientRadial, PaintGradientAngular, PaintGradientDiamond:
		return true
	}
	return false
}

// Solid builds a visible solid paint.
func Solid(c Color) Paint {
	return Paint{Type: PaintSolid, Color: &c}
}

// Node is one element of the document tree.
type Node struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Visible *bool    `json:"visible,omitempty"`
	Type    NodeType `json:"type"`

	ChildNodes          []*Node `json:"children,omitempty"`
	AbsoluteBoundingBox *Rect   `json:"absoluteBoundingBox,omitempty"`
	Fills               []Paint `json:"fills,omitempty"`
	Strokes             []Paint `json:"strokes,omitempty"`
	StrokeWeight        float64 `json:"strokeWeight,omitempty"`
	StrokeAlign         string  `json:"strokeAlign,omitempty"`
	CornerRadius        float64 `json:"cornerRadius,omitempty"`
	Characters          string  `json:"characters,omitempty"`

	BackgroundColor *Color   `json:"backgroundColor,omitempty"`
	Opacity         *float64 `json:"opacity,omitempty"`
	ComponentID     string   `json:"componentId,omitempty"`
}

// IsVisible reports the node's visibility, defaulting to true.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// ComponentMeta is an entry of File.Components.
type ComponentMeta struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// File is the response of GET /v1/files/:key.
type File struct {
	Name          string                   `json:"name"`
	LastModified  string                   `json:"lastModified"`
	ThumbnailURL  string                   `json:"thumbnailUrl"`
	Version       string                   `json:"version"`
	SchemaVersion int                      `json:"schemaVersion"`
	Document      *Node                    `json:"document"`
	Components    map[string]ComponentMeta `json:"components"`
}

// ImageResult is the response of GET /v1/images/:key. A nil entry in
// Images means Figma could not render that node.
type ImageResult struct {
	Err    string             `json:"err"`
	Status int                `json:"status"`
	Images map[string]*string `json:"images"`
}

// URL returns the render URL for id, or "" when Figma returned null or
// omitted the id.
func (r *ImageResult) URL(id string) string {
	if r == nil {
		return ""
	}
	if u := r.Images[id]; u != nil {
		return *u
	}
	return ""
}

// Bool returns a pointer to b, for building nodes and paints in code.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
