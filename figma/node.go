package figma

import (
	"errors"
	"fmt"
)

// ErrAttribute is returned by the typed accessors when the node type does
// not define the requested attribute.
var ErrAttribute = errors.New("figma: attribute not defined for node type")

func attrErr(n *Node, attr string) error {
	return fmt.Errorf("%w: %s on %s node %q", ErrAttribute, attr, n.Type, n.ID)
}

// DefinesChildren reports whether nodes of type t own a child list.
func (t NodeType) DefinesChildren() bool {
	switch t {
	case TypeDocument, TypeCanvas, TypeFrame, TypeGroup, TypeBoolean,
		TypeComponent, TypeComponentSet, TypeInstance:
		return true
	}
	return false
}

// DefinesBox reports whether nodes of type t carry an absolute bounding box.
func (t NodeType) DefinesBox() bool {
	return t.Known() && t != TypeDocument && t != TypeCanvas
}

// DefinesPaints reports whether nodes of type t carry fills, strokes and a
// stroke weight.
func (t NodeType) DefinesPaints() bool {
	switch t {
	case TypeFrame, TypeGroup, TypeVector, TypeBoolean, TypeStar, TypeLine,
		TypeEllipse, TypeRegularPolygon, TypeRectangle, TypeText,
		TypeComponent, TypeComponentSet, TypeInstance:
		return true
	}
	return false
}

// DefinesCornerRadius reports whether nodes of type t carry a corner radius.
func (t NodeType) DefinesCornerRadius() bool {
	switch t {
	case TypeRectangle, TypeFrame, TypeComponent, TypeComponentSet, TypeInstance:
		return true
	}
	return false
}

// HasChildren reports whether n defines children and has at least one.
func (n *Node) HasChildren() bool {
	return n.Type.DefinesChildren() && len(n.ChildNodes) > 0
}

// Children returns the ordered child list.
func (n *Node) Children() ([]*Node, error) {
	if !n.Type.DefinesChildren() {
		return nil, attrErr(n, "children")
	}
	return n.ChildNodes, nil
}

// Box returns the absolute bounding box. A nil box with a nil error means
// the type defines a box but the document did not include one.
func (n *Node) Box() (*Rect, error) {
	if !n.Type.DefinesBox() {
		return nil, attrErr(n, "absoluteBoundingBox")
	}
	return n.AbsoluteBoundingBox, nil
}

// FillPaints returns the ordered fill list.
func (n *Node) FillPaints() ([]Paint, error) {
	if !n.Type.DefinesPaints() {
		return nil, attrErr(n, "fills")
	}
	return n.Fills, nil
}

// StrokePaints returns the ordered stroke list.
func (n *Node) StrokePaints() ([]Paint, error) {
	if !n.Type.DefinesPaints() {
		return nil, attrErr(n, "strokes")
	}
	return n.Strokes, nil
}

// Weight returns the stroke thickness.
func (n *Node) Weight() (float64, error) {
	if !n.Type.DefinesPaints() {
		return 0, attrErr(n, "strokeWeight")
	}
	return n.StrokeWeight, nil
}

// Radius returns the corner radius.
func (n *Node) Radius() (float64, error) {
	if !n.Type.DefinesCornerRadius() {
		return 0, attrErr(n, "cornerRadius")
	}
	return n.CornerRadius, nil
}

// Text returns the literal characters of a TEXT node.
func (n *Node) Text() (string, error) {
	if n.Type != TypeText {
		return "", attrErr(n, "characters")
	}
	return n.Characters, nil
}

// Walk visits n and its descendants in pre-order, parent before child and
// siblings in document order. Returning false from fn skips the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if !n.Type.DefinesChildren() {
		return
	}
	for _, c := range n.ChildNodes {
		c.Walk(fn)
	}
}

// IsContainer reports whether n groups other nodes without drawing itself.
func (n *Node) IsContainer() bool {
	return n.Type.DefinesChildren()
}

// IsShape reports whether n draws geometry of its own.
func (n *Node) IsShape() bool {
	switch n.Type {
	case TypeVector, TypeBoolean, TypeStar, TypeLine, TypeEllipse,
		TypeRegularPolygon, TypeRectangle, TypeText:
		return true
	}
	return false
}
