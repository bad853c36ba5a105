package plugin

import (
	"errors"
	"image"
)

var (
	// ErrInitialization is returned by constructors when the engine cannot be loaded.
	ErrInitialization = errors.New("plugin initialization failed")

	// ErrNotInitialized is returned when detection runs without a loaded engine.
	ErrNotInitialized = errors.New("OCR engine not initialized")

	// ErrDetectionFailed wraps errors raised by the engine during detection.
	ErrDetectionFailed = errors.New("text detection failed")

	// ErrUnsupported is returned for capabilities a plugin does not provide.
	ErrUnsupported = errors.New("operation not supported by this plugin")
)

// MinRegionSize is the smallest width and height, in pixels, of a returned region.
const MinRegionSize = 5

// BBox is an axis-aligned rectangle in image pixels. (X, Y) is the top-left corner.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TextRegion is one detected text instance.
type TextRegion struct {
	ID         string  `json:"id"`
	BBox       BBox    `json:"bbox"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// RunPluginRequest carries the host's per-call parameters for generation plugins.
type RunPluginRequest struct {
	Name   string   `json:"name"`
	Image  string   `json:"image,omitempty"`
	Clicks [][3]int `json:"clicks,omitempty"`
	Scale  float64  `json:"scale,omitempty"`
}

// Plugin is the capability set the host expects from every plugin.
type Plugin interface {
	Name() string
	SupportGenImage() bool
	SupportGenMask() bool

	// CheckDependency returns nil when the plugin's external dependencies are
	// installed, otherwise an error whose message tells the user how to install them.
	CheckDependency() error

	GenImage(img image.Image, req RunPluginRequest) (image.Image, error)
	GenMask(img image.Image, req RunPluginRequest) (*image.Gray, error)
	SwitchModel(name string) error
}

// TextDetector is implemented by plugins that find text in images.
type TextDetector interface {
	Plugin
	DetectText(img image.Image) ([]TextRegion, error)
}
