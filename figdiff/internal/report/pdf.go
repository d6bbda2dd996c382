package report

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/image/draw"

	"github.com/hazyhaar/figdiff/figdiff/internal/imgdiff"
	"github.com/hazyhaar/figdiff/horosafe"
)

// MaxPDFSide bounds the longest side of an image placed in the PDF.
const MaxPDFSide = 1600

// PDF writes one page per image (names relative to dir) into out,
// replacing any previous file. Oversized images are scaled down first.
func PDF(dir string, images []string, out string) error {
	tmp, err := os.MkdirTemp("", "figdiff-pdf-")
	if err != nil {
		return fmt.Errorf("report: pdf: %w", err)
	}
	defer os.RemoveAll(tmp)

	files := make([]string, 0, len(images))
	for i, name := range images {
		src, err := horosafe.SafePath(dir, name)
		if err != nil {
			return fmt.Errorf("report: pdf: %w", err)
		}
		p, err := fitForPDF(src, filepath.Join(tmp, fmt.Sprintf("%04d.png", i)))
		if err != nil {
			return err
		}
		files = append(files, p)
	}

	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("report: pdf: %w", err)
	}
	if err := api.ImportImagesFile(files, out, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return fmt.Errorf("report: pdf import: %w", err)
	}
	return nil
}

// fitForPDF returns src when it already fits, else writes a thumbnail to
// dst and returns dst.
func fitForPDF(src, dst string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("report: pdf: %w", err)
	}
	img, err := imgdiff.Decode(data)
	if err != nil {
		return "", err
	}
	thumb := Thumbnail(img, MaxPDFSide)
	if thumb == img {
		return src, nil
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("report: pdf: %w", err)
	}
	defer f.Close()
	if err := imgdiff.Encode(f, thumb); err != nil {
		return "", err
	}
	return dst, nil
}

// Thumbnail scales img so that its longest side is at most maxSide,
// keeping the aspect ratio. Images that already fit are returned as is.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
