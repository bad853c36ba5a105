//go:build cgo

package ocr

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/ocr-plugin/internal/imaging"
)

const backendName = "tesseract"

// TesseractEngine reads text with a long-lived gosseract client.
type TesseractEngine struct {
	client    *gosseract.Client
	languages []string
	level     gosseract.PageIteratorLevel
	grayscale bool
}

// NewTesseractEngine creates a Tesseract client configured from opts.
//
// Construction validates everything that can be validated up front:
//   - the device must be "cpu"
//   - every language must resolve to a Tesseract code with installed language data
//   - the page segmentation mode must be accepted by Tesseract
//
// Returns ErrDeviceUnavailable, ErrInvalidLanguage or ErrDependencyMissing
// (wrapped) when one of these checks fails.
func NewTesseractEngine(opts Options) (*TesseractEngine, error) {
	if err := validateDevice(opts.Device); err != nil {
		return nil, err
	}

	langs, err := ResolveLanguages(opts.Languages)
	if err != nil {
		return nil, err
	}

	level, err := ParseLevel(string(opts.Level))
	if err != nil {
		return nil, err
	}

	installed, err := installedLanguages(opts.TessdataPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyMissing, err)
	}
	if missing := missingLanguages(langs, installed); len(missing) > 0 {
		return nil, fmt.Errorf("%w: no language data installed for %s",
			ErrInvalidLanguage, strings.Join(missing, ", "))
	}

	client := gosseract.NewClient()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if opts.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}

	return &TesseractEngine{
		client:    client,
		languages: langs,
		level:     iteratorLevel(level),
		grayscale: opts.Grayscale,
	}, nil
}

// Name returns "tesseract".
func (e *TesseractEngine) Name() string { return backendName }

// Languages returns the resolved Tesseract language codes.
func (e *TesseractEngine) Languages() []string {
	return append([]string(nil), e.languages...)
}

// ReadText runs Tesseract on img and returns one detection per non-empty box
// at the configured iterator level.
//
// Tesseract reports axis-aligned boxes; each is returned as a four-corner quad
// in the coordinate space of img (offset by img.Bounds().Min). Confidence is
// rescaled from Tesseract's 0-100 range to 0.0-1.0.
func (e *TesseractEngine) ReadText(img image.Image) ([]Detection, error) {
	if e.client == nil {
		return nil, errors.New("tesseract engine is closed")
	}

	src := img
	if e.grayscale {
		src = imaging.Grayscale(img)
	}

	data, err := imaging.EncodePNG(src)
	if err != nil {
		return nil, err
	}

	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(e.level)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	origin := img.Bounds().Min
	detections := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		detections = append(detections, Detection{
			Quad:       QuadFromRect(box.Box.Add(origin)),
			Text:       text,
			Confidence: clampConfidence(box.Confidence / 100.0),
		})
	}

	return detections, nil
}

// Close releases the Tesseract client. It is safe to call more than once.
func (e *TesseractEngine) Close() error {
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

// CheckDependency reports whether the Tesseract library is linked and usable.
// It returns nil when available, otherwise an error carrying InstallHint.
func CheckDependency() error {
	if gosseract.Version() == "" {
		return fmt.Errorf("%w: %s", ErrDependencyMissing, InstallHint)
	}
	return nil
}

// Info returns information about OCR availability and installed languages.
func Info(tessdataPrefix string) EngineInfo {
	info := EngineInfo{Backend: "gosseract"}

	if err := CheckDependency(); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	info.Version = gosseract.Version()

	langs, err := installedLanguages(tessdataPrefix)
	if err != nil {
		info.Error = fmt.Sprintf("language data: %v", err)
		return info
	}
	info.Languages = langs
	return info
}

// installedLanguages lists the traineddata files Tesseract can load.
func installedLanguages(tessdataPrefix string) ([]string, error) {
	if tessdataPrefix == "" {
		langs, err := gosseract.GetAvailableLanguages()
		if err != nil {
			return nil, fmt.Errorf("failed to list language data: %w", err)
		}
		sort.Strings(langs)
		return langs, nil
	}

	matches, err := filepath.Glob(filepath.Join(tessdataPrefix, "*.traineddata"))
	if err != nil {
		return nil, fmt.Errorf("failed to list language data: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no traineddata files in %s", tessdataPrefix)
	}
	langs := make([]string, 0, len(matches))
	for _, m := range matches {
		langs = append(langs, strings.TrimSuffix(filepath.Base(m), ".traineddata"))
	}
	sort.Strings(langs)
	return langs, nil
}

func iteratorLevel(l Level) gosseract.PageIteratorLevel {
	switch l {
	case LevelWord:
		return gosseract.RIL_WORD
	case LevelBlock:
		return gosseract.RIL_BLOCK
	default:
		return gosseract.RIL_TEXTLINE
	}
}
