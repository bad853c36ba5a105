package ocr

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	// ErrDependencyMissing is returned when the OCR library is not available
	// in this binary or on this system.
	ErrDependencyMissing = errors.New("OCR engine dependency missing")

	// ErrInvalidLanguage is returned for a language code the engine does not know
	// or has no language data for.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrDeviceUnavailable is returned when the requested inference device
	// cannot be used by the engine.
	ErrDeviceUnavailable = errors.New("device unavailable")
)

// DeviceCPU is the only device served by the Tesseract backend.
const DeviceCPU = "cpu"

// DefaultLanguages is the language set used when none is configured.
var DefaultLanguages = []string{"ch_sim", "en"}

// InstallHint is the human-readable message reported when the engine is missing.
const InstallHint = "Tesseract OCR is not available. Install it with: " +
	"apt-get install tesseract-ocr (Debian/Ubuntu) or brew install tesseract (macOS), " +
	"then rebuild the plugin with CGO_ENABLED=1"

// Point is a corner of a detected text polygon in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is the four corner points of a detected text polygon.
// Corner order is not guaranteed and the polygon need not be axis-aligned.
type Quad [4]Point

// QuadFromRect returns the corners of an axis-aligned rectangle, clockwise from top-left.
func QuadFromRect(r image.Rectangle) Quad {
	return Quad{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}

// Detection is a single engine result: where the text is, what it says and
// how sure the engine is.
type Detection struct {
	Quad       Quad    `json:"quad"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Engine reads text from images.
type Engine interface {
	// Name identifies the backend (e.g. "tesseract").
	Name() string

	// ReadText runs detection and recognition on img and returns the
	// detections in engine order. An empty result is not an error.
	ReadText(img image.Image) ([]Detection, error)

	// Close releases the engine's native resources.
	Close() error
}

// Level selects the granularity at which text regions are reported.
type Level string

const (
	LevelBlock    Level = "block"
	LevelTextLine Level = "textline"
	LevelWord     Level = "word"
)

// ParseLevel parses a level name. The empty string selects LevelTextLine.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelTextLine, "line":
		return LevelTextLine, nil
	case LevelWord:
		return LevelWord, nil
	case LevelBlock:
		return LevelBlock, nil
	default:
		return "", fmt.Errorf("unknown level %q (must be one of: block, textline, word)", s)
	}
}

// Options configures engine construction.
type Options struct {
	// Device is "cpu" or an accelerator identifier.
	Device string

	// Languages is the ordered language set; empty means DefaultLanguages.
	Languages []string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// PageSegMode is the Tesseract page segmentation mode; 0 keeps Tesseract's default.
	PageSegMode int

	// Level is the region granularity; empty means LevelTextLine.
	Level Level

	// Grayscale converts images to grayscale before recognition.
	Grayscale bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Device:    DeviceCPU,
		Languages: append([]string(nil), DefaultLanguages...),
		Level:     LevelTextLine,
	}
}

// validateDevice checks that the backend can serve the requested device.
func validateDevice(device string) error {
	d := strings.ToLower(strings.TrimSpace(device))
	if d == "" || d == DeviceCPU {
		return nil
	}
	return fmt.Errorf("%w: %q (the tesseract backend runs on cpu only)", ErrDeviceUnavailable, device)
}

// clampConfidence keeps a score inside [0, 1].
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// NewEngine builds the engine backend configured by opts.
func NewEngine(opts Options) (Engine, error) {
	e, err := NewTesseractEngine(opts)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// EngineInfo describes the OCR subsystem for diagnostics.
type EngineInfo struct {
	Available bool     `json:"available"`
	Backend   string   `json:"backend"`
	Version   string   `json:"version,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Error     string   `json:"error,omitempty"`
}
