// Package geometry computes the on-screen size a node needs when rendered
// on its own.
package geometry

import (
	"log/slog"
	"math"

	"github.com/hazyhaar/figdiff/figma"
)

// Size is a width and height in CSS pixels.
type Size struct {
	Width  float64
	Height float64
}

// Pixels rounds both dimensions up to whole pixels for viewport sizing.
func (s Size) Pixels() (w, h int) {
	return int(math.Ceil(s.Width)), int(math.Ceil(s.Height))
}

// Resolve returns the bounding-box size of n inflated by its stroke.
// Visible strokes extend outward by their full weight on every side, so
// each axis grows by twice the weight. A node without a bounding box
// resolves to zero and a warning is logged; that is not an error.
func Resolve(n *figma.Node, logger *slog.Logger) Size {
	if logger == nil {
		logger = slog.Default()
	}

	var s Size
	box, err := n.Box()
	if err != nil || box == nil {
		logger.Warn("geometry: no bounding box, rendering may be inaccurate",
			"node_id", n.ID, "type", n.Type)
		return s
	}
	s.Width += box.Width
	s.Height += box.Height

	if w := StrokeInset(n); w > 0 {
		s.Width += 2 * w
		s.Height += 2 * w
	}

	s.Width = math.Max(s.Width, 0)
	s.Height = math.Max(s.Height, 0)
	return s
}

// StrokeInset returns the stroke weight that applies to n: its weight when
// at least one stroke paint is visible, zero otherwise.
func StrokeInset(n *figma.Node) float64 {
	strokes, err := n.StrokePaints()
	if err != nil {
		return 0
	}
	weight, err := n.Weight()
	if err != nil || weight <= 0 {
		return 0
	}
	for _, p := range strokes {
		if p.IsVisible() {
			return weight
		}
	}
	return 0
}
