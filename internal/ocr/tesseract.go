//go:build !cgo

package ocr

import (
	"fmt"
	"image"
)

// TesseractEngine is the engine placeholder for binaries built without cgo.
// It cannot be constructed; every method reports ErrDependencyMissing.
type TesseractEngine struct{}

// NewTesseractEngine validates opts and then fails with ErrDependencyMissing,
// since gosseract requires cgo.
func NewTesseractEngine(opts Options) (*TesseractEngine, error) {
	if err := validateDevice(opts.Device); err != nil {
		return nil, err
	}
	if _, err := ResolveLanguages(opts.Languages); err != nil {
		return nil, err
	}
	if _, err := ParseLevel(string(opts.Level)); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrDependencyMissing, InstallHint)
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Languages() []string { return nil }

func (e *TesseractEngine) ReadText(img image.Image) ([]Detection, error) {
	return nil, fmt.Errorf("%w: %s", ErrDependencyMissing, InstallHint)
}

func (e *TesseractEngine) Close() error { return nil }

// CheckDependency always reports the install hint in non-cgo builds.
func CheckDependency() error {
	return fmt.Errorf("%w: %s", ErrDependencyMissing, InstallHint)
}

// Info reports the engine as unavailable.
func Info(tessdataPrefix string) EngineInfo {
	return EngineInfo{
		Available: false,
		Backend:   "gosseract (disabled: built without cgo)",
		Error:     CheckDependency().Error(),
	}
}
