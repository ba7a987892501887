package extractor

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// DiagramRenderer crops a fixed page region of a PDF to a PNG file.
type DiagramRenderer struct {
	dir    string
	region Region
}

func NewDiagramRenderer(dir string, region Region) *DiagramRenderer {
	return &DiagramRenderer{dir: dir, region: region}
}

// Path is where the diagram of model is stored.
func (d *DiagramRenderer) Path(model string) string {
	return filepath.Join(d.dir, model+".png")
}

// Render writes the diagram of the first page of pdfPath, reusing a file that
// already exists, and returns its path.
func (d *DiagramRenderer) Render(pdfPath, model string) (string, error) {
	out := d.Path(model)
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create diagram directory: %w", err)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer doc.Close()

	// At 72 DPI one pixel is one PDF point.
	img, err := doc.ImageDPI(0, 72)
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	crop := d.crop(img)
	if crop.Bounds().Empty() {
		return "", fmt.Errorf("diagram region outside page bounds")
	}

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create diagram file: %w", err)
	}
	if err := png.Encode(f, crop); err != nil {
		f.Close()
		os.Remove(out)
		return "", fmt.Errorf("encode diagram: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close diagram file: %w", err)
	}
	return out, nil
}

func (d *DiagramRenderer) crop(img *image.RGBA) image.Image {
	rect := image.Rect(
		int(d.region.X0), int(d.region.Top),
		int(d.region.X1), int(d.region.Bottom),
	).Add(img.Bounds().Min)
	return img.SubImage(rect.Intersect(img.Bounds()))
}
