// Package imgdiff compares a reference render with a local screenshot.
//
// Non-strict comparison treats two pixels as equal when their CIEDE2000
// distance is below the tolerance, after compositing each pixel over both
// a white and a black backdrop so that transparency differences count.
// Images of different dimensions are never equal.
package imgdiff

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// DefaultTolerance is the CIEDE2000 threshold below which a pixel
// difference is ignored. 2.3 is roughly one just-noticeable difference.
const DefaultTolerance = 2.5

// DefaultHighlight marks differing pixels in the diff image.
const DefaultHighlight = "#ff00ff"

// go-colorful reports CIEDE2000 on an L range of [0,1]; tolerances are in
// the conventional [0,100] scale.
const labScale = 100

// ErrNilImage is returned when either input is missing.
var ErrNilImage = errors.New("imgdiff: nil image")

// Options controls comparison and diff rendering. A zero Tolerance
// selects DefaultTolerance; exact comparison is Strict.
type Options struct {
	Tolerance float64 // CIEDE2000 units
	Strict    bool    // exact channel equality
	Highlight string  // hex colour, default DefaultHighlight
}

func (o *Options) defaults() {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Highlight == "" {
		o.Highlight = DefaultHighlight
	}
}

// Result is the outcome of Compare.
type Result struct {
	Equal        bool
	SizeMismatch bool
	DiffPixels   int
	TotalPixels  int
}

// Ratio returns the share of differing pixels in [0,1].
func (r Result) Ratio() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DiffPixels) / float64(r.TotalPixels)
}

// Compare reports whether ref and act are equal under opts.
func Compare(ref, act image.Image, opts Options) (Result, error) {
	if ref == nil || act == nil {
		return Result{}, ErrNilImage
	}
	opts.defaults()

	rb, ab := ref.Bounds(), act.Bounds()
	if rb.Dx() != ab.Dx() || rb.Dy() != ab.Dy() {
		w, h := max(rb.Dx(), ab.Dx()), max(rb.Dy(), ab.Dy())
		return Result{SizeMismatch: true, DiffPixels: w * h, TotalPixels: w * h}, nil
	}

	r, a := Normalize(ref), Normalize(act)
	res := Result{TotalPixels: rb.Dx() * rb.Dy()}
	for y := 0; y < rb.Dy(); y++ {
		for x := 0; x < rb.Dx(); x++ {
			if !same(r.NRGBAAt(x, y), a.NRGBAAt(x, y), opts) {
				res.DiffPixels++
			}
		}
	}
	res.Equal = res.DiffPixels == 0
	return res, nil
}

// Difference renders the reference with every differing pixel painted in
// the highlight colour. The canvas covers the larger of the two images;
// pixels present in only one image count as different.
func Difference(ref, act image.Image, opts Options) (*image.NRGBA, error) {
	if ref == nil || act == nil {
		return nil, ErrNilImage
	}
	opts.defaults()
	hl, err := colorful.Hex(opts.Highlight)
	if err != nil {
		return nil, fmt.Errorf("imgdiff: highlight %q: %w", opts.Highlight, err)
	}
	hr, hg, hb := hl.RGB255()
	highlight := color.NRGBA{R: hr, G: hg, B: hb, A: 0xff}

	r, a := Normalize(ref), Normalize(act)
	rb, ab := r.Bounds(), a.Bounds()
	w, h := max(rb.Dx(), ab.Dx()), max(rb.Dy(), ab.Dy())

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, rb, r, image.Point{}, draw.Src)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := image.Pt(x, y)
			if !p.In(rb) || !p.In(ab) || !same(r.NRGBAAt(x, y), a.NRGBAAt(x, y), opts) {
				out.SetNRGBA(x, y, highlight)
			}
		}
	}
	return out, nil
}

// Normalize copies img into an NRGBA image anchored at the origin.
func Normalize(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Decode reads a PNG.
func Decode(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imgdiff: decode png: %w", err)
	}
	return img, nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("imgdiff: encode png: %w", err)
	}
	return nil
}

func same(p, q color.NRGBA, opts Options) bool {
	if p == q {
		return true
	}
	if opts.Strict {
		return false
	}
	if p.A == 0 && q.A == 0 {
		return true
	}
	for _, bg := range [...]float64{1, 0} {
		if deltaE(over(p, bg), over(q, bg)) >= opts.Tolerance {
			return false
		}
	}
	return true
}

// over composites c onto a grey backdrop of value bg in [0,1].
func over(c color.NRGBA, bg float64) colorful.Color {
	a := float64(c.A) / 255
	mix := func(v uint8) float64 { return float64(v)/255*a + bg*(1-a) }
	return colorful.Color{R: mix(c.R), G: mix(c.G), B: mix(c.B)}
}

func deltaE(p, q colorful.Color) float64 {
	d := p.DistanceCIEDE2000(q) * labScale
	if math.IsNaN(d) {
		return 0
	}
	return d
}
