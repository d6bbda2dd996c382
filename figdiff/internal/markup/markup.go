// Package markup translates Figma nodes into static HTML.
//
// The translator is a pure function of the node subtree: the same input
// always renders to the same bytes, which the screenshot comparison
// relies on. Output is built as golang.org/x/net/html nodes and serialised
// with html.Render, so text and attribute escaping follow the HTML5 rules.
package markup

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/figdiff/figdiff/internal/geometry"
	"github.com/hazyhaar/figdiff/figdiff/internal/style"
	"github.com/hazyhaar/figdiff/figma"
)

// pageCSS resets the user-agent margins so the node sits at the viewport
// origin, and keeps scrollbars out of the capture.
const pageCSS = `html, body { margin: 0; padding: 0; background: transparent; }
body { overflow: hidden; }`

// Translator converts nodes to HTML. Unsupported node types produce an
// empty placeholder and a warning on Logger.
type Translator struct {
	logger *slog.Logger
}

// New creates a Translator. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{logger: logger}
}

// Fragment renders n as an HTML fragment.
func (t *Translator) Fragment(n *figma.Node) (string, error) {
	var buf bytes.Buffer
	for _, h := range t.Nodes(n) {
		if err := html.Render(&buf, h); err != nil {
			return "", fmt.Errorf("markup: render %s: %w", n.ID, err)
		}
	}
	return buf.String(), nil
}

// Document renders n inside a complete HTML page ready for the browser.
func (t *Translator) Document(n *figma.Node) (string, error) {
	body := element(atom.Body)
	for _, h := range t.Nodes(n) {
		body.AppendChild(h)
	}

	styleEl := element(atom.Style)
	styleEl.AppendChild(&html.Node{Type: html.TextNode, Data: pageCSS})
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(styleEl)

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	var buf bytes.Buffer
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("markup: render document %s: %w", n.ID, err)
	}
	return buf.String(), nil
}

// Nodes translates n into zero or more sibling HTML nodes.
func (t *Translator) Nodes(n *figma.Node) []*html.Node {
	if n == nil || !n.IsVisible() {
		return nil
	}

	switch {
	case n.IsContainer():
		return t.container(n)
	case n.Type == figma.TypeRectangle:
		return []*html.Node{t.box(n, "")}
	case n.Type == figma.TypeEllipse:
		return []*html.Node{t.box(n, "50%")}
	case n.Type == figma.TypeText:
		return []*html.Node{t.text(n)}
	case n.IsShape():
		t.logger.Warn("markup: shape not supported, rendered empty",
			"node_id", n.ID, "name", n.Name, "type", n.Type)
	default:
		t.logger.Warn("markup: unknown node type, rendered empty",
			"node_id", n.ID, "name", n.Name, "type", n.Type)
	}
	return []*html.Node{element(atom.Span)}
}

func (t *Translator) container(n *figma.Node) []*html.Node {
	children, err := n.Children()
	if err != nil {
		t.logger.Warn("markup: container without children", "node_id", n.ID, "error", err)
		return nil
	}
	var out []*html.Node
	for _, c := range children {
		out = append(out, t.Nodes(c)...)
	}
	return out
}

// box renders a shape as a single div. radius overrides the node's corner
// radius when non-empty.
func (t *Translator) box(n *figma.Node, radius string) *html.Node {
	size := geometry.Resolve(n, t.logger)

	decls := []string{
		"width:" + px(size.Width),
		"height:" + px(size.Height),
		"box-sizing:border-box",
	}
	t.checkPaints(n)
	if color, ok := style.Stroke(n); ok {
		if w := geometry.StrokeInset(n); w > 0 {
			decls = append(decls, "border:"+px(w)+" solid "+color)
		}
	}
	if color, ok := style.Fill(n); ok {
		decls = append(decls, "background-color:"+color)
	}
	if radius == "" {
		r, err := n.Radius()
		if err != nil {
			t.logger.Warn("markup: corner radius", "node_id", n.ID, "error", err)
		}
		radius = px(r)
	}
	decls = append(decls, "border-radius:"+radius)

	return element(atom.Div, attr("style", strings.Join(decls, ";")))
}

// checkPaints warns when a top paint cannot be expressed as a CSS colour
// and the sentinel is drawn instead.
func (t *Translator) checkPaints(n *figma.Node) {
	fills, _ := n.FillPaints()
	strokes, _ := n.StrokePaints()
	for _, l := range []struct {
		role   string
		paints []figma.Paint
	}{{"fill", fills}, {"stroke", strokes}} {
		p, ok := style.Top(l.paints)
		if !ok || p.IsSolid() {
			continue
		}
		t.logger.Warn("markup: paint not supported, using sentinel colour",
			"node_id", n.ID, "role", l.role, "paint", p.Type, "gradient", p.IsGradient())
	}
}

func (t *Translator) text(n *figma.Node) *html.Node {
	span := element(atom.Span)
	chars, err := n.Text()
	if err != nil {
		t.logger.Warn("markup: text", "node_id", n.ID, "error", err)
		return span
	}
	if chars != "" {
		span.AppendChild(&html.Node{Type: html.TextNode, Data: chars})
	}
	return span
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
