package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box is an axis-aligned rectangle to draw, with an optional caption.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
	Label  string
}

// OverlayOptions controls how boxes are drawn.
type OverlayOptions struct {
	// BoxColor is "#RRGGBB" or "#RRGGBBAA". Invalid values fall back to opaque red.
	BoxColor string

	// LineWidth is the stroke width in pixels (default 2).
	LineWidth int

	// ShowLabels draws each box's Label above it.
	ShowLabels bool
}

// OverlayResult contains the annotated image.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	BoxCount    int    `json:"box_count"`
}

const maxLabelRunes = 32

var defaultBoxColor = color.NRGBA{R: 255, A: 255}

// RenderRegions draws boxes over a copy of img and returns it as base64 PNG.
// The source image is not modified.
func RenderRegions(img image.Image, boxes []Box, opts OverlayOptions) (*OverlayResult, error) {
	canvas := Annotate(img, boxes, opts)

	data, err := EncodePNG(canvas)
	if err != nil {
		return nil, err
	}

	return &OverlayResult{
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
		BoxCount:    len(boxes),
	}, nil
}

// Annotate draws boxes over a copy of img.
func Annotate(img image.Image, boxes []Box, opts OverlayOptions) *image.NRGBA {
	canvas := imaging.Clone(img)
	origin := img.Bounds().Min

	boxColor, err := ParseColor(opts.BoxColor)
	if err != nil {
		boxColor = defaultBoxColor
	}
	lw := opts.LineWidth
	if lw <= 0 {
		lw = 2
	}

	for _, b := range boxes {
		// Box coordinates are in img's space; the clone is zero-origin.
		r := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height).Sub(origin)
		strokeRect(canvas, r, lw, boxColor)
		if opts.ShowLabels && b.Label != "" {
			drawLabel(canvas, r.Min.X, r.Min.Y, b.Label, boxColor)
		}
	}
	return canvas
}

// ParseColor parses "#RRGGBB", "#RGB" or "#RRGGBBAA".
func ParseColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}

	switch len(s) {
	case 3, 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want 3, 6 or 8 hex digits", hex)
	}
	if strings.Trim(s, "0123456789abcdefABCDEF") != "" {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: non-hex digit", hex)
	}

	alpha := uint8(255)
	if len(s) == 8 {
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		s = s[:6]
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func strokeRect(dst draw.Image, r image.Rectangle, lw int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lw), // top
		image.Rect(r.Min.X, r.Max.Y-lw, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y), // left
		image.Rect(r.Max.X-lw, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Over)
	}
}

// drawLabel draws text on a filled tag above (x, y), or just inside the box when
// there is no room above. basicfont only covers ASCII; other runes render as
// placeholder glyphs.
func drawLabel(dst draw.Image, x, y int, text string, bg color.NRGBA) {
	if runes := []rune(text); len(runes) > maxLabelRunes {
		text = string(runes[:maxLabelRunes-1]) + "…"
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	w := d.MeasureString(text).Ceil() + 4
	h := face.Height + 2

	top := y - h
	if top < dst.Bounds().Min.Y {
		top = y
	}
	tag := image.Rect(x, top, x+w, top+h).Intersect(dst.Bounds())
	bg.A = 255
	draw.Draw(dst, tag, image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dst = dst
	d.Src = image.NewUniform(labelColor(bg))
	d.Dot = fixed.Point26_6{X: fixed.I(x + 2), Y: fixed.I(top + face.Ascent + 1)}
	d.DrawString(text)
}

// labelColor picks black or white text, whichever reads better on bg.
func labelColor(bg color.NRGBA) color.Color {
	c, _ := colorful.MakeColor(color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: 255})
	l, _, _ := c.Lab()
	if l > 0.6 {
		return color.Black
	}
	return color.White
}
