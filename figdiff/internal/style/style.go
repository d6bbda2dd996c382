// Package style turns a node's paint stack into a single CSS colour.
//
// Figma draws paints bottom to top, so the last visible paint is the one
// on screen. Only solid paints map to a colour; every other kind resolves
// to Unsupported so the gap is obvious in the screenshot.
package style

import (
	"fmt"
	"strconv"

	"github.com/hazyhaar/figdiff/figma"
)

// Unsupported is the colour used for gradient, image and emoji paints.
const Unsupported = "#00ff00"

// Resolve returns the CSS colour of the topmost visible paint. ok is false
// when there is no visible paint, meaning the style must not be applied.
func Resolve(paints []figma.Paint) (css string, ok bool) {
	top, ok := Top(paints)
	if !ok {
		return "", false
	}
	if !top.IsSolid() {
		return Unsupported, true
	}
	return RGBA(*top.Color, top.Alpha()), true
}

// Top returns the last visible paint, the one drawn on top.
func Top(paints []figma.Paint) (figma.Paint, bool) {
	for i := len(paints) - 1; i >= 0; i-- {
		if paints[i].IsVisible() {
			return paints[i], true
		}
	}
	return figma.Paint{}, false
}

// RGBA formats c as rgba(r, g, b, a). Channels are rounded to 8 bits; the
// alpha is c.A times opacity, not rounded.
func RGBA(c figma.Color, opacity float64) string {
	r, g, b := c.RGBA8()
	a := strconv.FormatFloat(c.A*opacity, 'g', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, a)
}

// Fill resolves the fill list of n. Types without paints resolve to absent.
func Fill(n *figma.Node) (string, bool) {
	paints, err := n.FillPaints()
	if err != nil {
		return "", false
	}
	return Resolve(paints)
}

// Stroke resolves the stroke list of n.
func Stroke(n *figma.Node) (string, bool) {
	paints, err := n.StrokePaints()
	if err != nil {
		return "", false
	}
	return Resolve(paints)
}
