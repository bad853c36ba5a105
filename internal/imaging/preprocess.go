package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Grayscale returns a luminance-only copy of img.
//
// Tesseract binarizes internally, but colored text on colored backgrounds
// (UI screenshots, posters) is often recognized better from a gray input.
// The result keeps img's bounds.
func Grayscale(img image.Image) image.Image {
	return effect.Grayscale(img)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// SavePNG writes img to path as PNG, creating or truncating the file.
func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
