package plugin

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/ocr-plugin/internal/ocr"
)

// PluginName is the name the host registers the OCR plugin under.
const PluginName = "OCR"

// EngineFactory builds an engine from options.
type EngineFactory func(opts ocr.Options) (ocr.Engine, error)

// Option configures an OCRPlugin.
type Option func(*OCRPlugin)

// WithEngineFactory replaces the engine constructor (default ocr.NewEngine).
func WithEngineFactory(f EngineFactory) Option {
	return func(p *OCRPlugin) {
		p.factory = f
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(p *OCRPlugin) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDependencyCheck replaces the dependency probe (default ocr.CheckDependency).
func WithDependencyCheck(f func() error) Option {
	return func(p *OCRPlugin) {
		p.checkDep = f
	}
}

// OCRPlugin detects text regions with an OCR engine it owns.
type OCRPlugin struct {
	mu        sync.Mutex
	engine    ocr.Engine
	device    string
	languages []string

	factory  EngineFactory
	checkDep func() error
	logger   *slog.Logger
}

// NewOCRPlugin loads the engine described by opts and returns a ready plugin.
//
// An empty device means "cpu" and empty languages mean ocr.DefaultLanguages.
// Any engine construction error is returned wrapped in ErrInitialization; the
// original cause (ocr.ErrInvalidLanguage, ocr.ErrDeviceUnavailable,
// ocr.ErrDependencyMissing) stays reachable with errors.Is.
func NewOCRPlugin(opts ocr.Options, options ...Option) (*OCRPlugin, error) {
	p := &OCRPlugin{
		factory:  ocr.NewEngine,
		checkDep: ocr.CheckDependency,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range options {
		o(p)
	}

	if opts.Device == "" {
		opts.Device = ocr.DeviceCPU
	}
	if len(opts.Languages) == 0 {
		opts.Languages = append([]string(nil), ocr.DefaultLanguages...)
	}
	p.device = opts.Device
	p.languages = append([]string(nil), opts.Languages...)

	p.logger.Info("initializing OCR engine", "languages", p.languages, "device", p.device)

	engine, err := p.factory(opts)
	if err != nil {
		p.logger.Error("failed to initialize OCR engine", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: engine factory returned no engine", ErrInitialization)
	}
	p.engine = engine

	p.logger.Info("OCR engine initialized", "backend", engine.Name())
	return p, nil
}

// Name returns PluginName.
func (p *OCRPlugin) Name() string { return PluginName }

// SupportGenImage reports false.
func (p *OCRPlugin) SupportGenImage() bool { return false }

// SupportGenMask reports false.
func (p *OCRPlugin) SupportGenMask() bool { return false }

// Device returns the configured inference device.
func (p *OCRPlugin) Device() string { return p.device }

// Languages returns the configured language codes.
func (p *OCRPlugin) Languages() []string {
	return append([]string(nil), p.languages...)
}

// Ready reports whether the plugin holds a loaded engine.
func (p *OCRPlugin) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine != nil
}

// Backend returns the engine's name, or "" once closed.
func (p *OCRPlugin) Backend() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return ""
	}
	return p.engine.Name()
}

// CheckDependency reports whether the OCR library is available. It does not
// touch the loaded engine.
func (p *OCRPlugin) CheckDependency() error {
	return p.checkDep()
}

// DetectText finds text regions in img.
//
// Results keep the engine's order. Regions smaller than MinRegionSize in
// either dimension are dropped. If the engine fails, no regions are returned
// and the error wraps both ErrDetectionFailed and the engine's error.
func (p *OCRPlugin) DetectText(img image.Image) ([]TextRegion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		detectRequestsTotal.WithLabelValues("not_initialized").Inc()
		return nil, ErrNotInitialized
	}
	if img == nil {
		detectRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: nil image", ErrDetectionFailed)
	}

	b := img.Bounds()
	p.logger.Info("starting text detection", "width", b.Dx(), "height", b.Dy())

	start := time.Now()
	detections, err := p.engine.ReadText(img)
	detectDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		detectRequestsTotal.WithLabelValues("error").Inc()
		p.logger.Error("text detection failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	regions := make([]TextRegion, 0, len(detections))
	for i, d := range detections {
		box, ok := boundingBox(d.Quad)
		if !ok {
			p.logger.Warn("skipping text region with invalid coordinates", "index", i)
			regionsDiscarded.Inc()
			continue
		}
		if box.Width < MinRegionSize || box.Height < MinRegionSize {
			p.logger.Warn("skipping too small text region", "width", box.Width, "height", box.Height)
			regionsDiscarded.Inc()
			continue
		}

		region := TextRegion{
			ID:         uuid.New().String(),
			BBox:       box,
			Text:       d.Text,
			Confidence: clamp01(d.Confidence),
		}
		regions = append(regions, region)
		p.logger.Debug("detected text region", "index", i, "text", d.Text,
			"x", box.X, "y", box.Y, "width", box.Width, "height", box.Height)
	}

	detectRequestsTotal.WithLabelValues("success").Inc()
	regionsReturned.Observe(float64(len(regions)))
	p.logger.Info("text detection complete", "regions", len(regions),
		"discarded", len(detections)-len(regions), "duration", time.Since(start))
	return regions, nil
}

// GenImage is not provided by the OCR plugin.
func (p *OCRPlugin) GenImage(img image.Image, req RunPluginRequest) (image.Image, error) {
	unsupportedCallsTotal.WithLabelValues("gen_image").Inc()
	return nil, fmt.Errorf("%w: OCR plugin does not generate images", ErrUnsupported)
}

// GenMask is not provided by the OCR plugin.
func (p *OCRPlugin) GenMask(img image.Image, req RunPluginRequest) (*image.Gray, error) {
	unsupportedCallsTotal.WithLabelValues("gen_mask").Inc()
	return nil, fmt.Errorf("%w: OCR plugin does not generate masks", ErrUnsupported)
}

// SwitchModel accepts any name and leaves the engine unchanged.
func (p *OCRPlugin) SwitchModel(name string) error {
	p.logger.Warn("model switching not implemented for OCR plugin", "model", name)
	return nil
}

// Close releases the engine. Subsequent DetectText calls fail with
// ErrNotInitialized. Close is safe to call more than once.
func (p *OCRPlugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return nil
	}
	err := p.engine.Close()
	p.engine = nil
	return err
}

// boundingBox returns the floored axis-aligned rectangle enclosing q.
// It reports false if any coordinate is NaN, infinite, or outside the int range.
func boundingBox(q ocr.Quad) (BBox, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range q {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return BBox{}, false
		}
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}

	x0, y0 := math.Floor(minX), math.Floor(minY)
	x1, y1 := math.Floor(maxX), math.Floor(maxY)
	for _, v := range []float64{x0, y0, x1, y1, x1 - x0, y1 - y0} {
		if !fitsInt(v) {
			return BBox{}, false
		}
	}

	return BBox{
		X:      int(x0),
		Y:      int(y0),
		Width:  int(x1 - x0),
		Height: int(y1 - y0),
	}, true
}

// fitsInt reports whether the integral value v converts to int exactly.
// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
func fitsInt(v float64) bool {
	return v >= math.MinInt && v < math.MaxInt
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ TextDetector = (*OCRPlugin)(nil)
