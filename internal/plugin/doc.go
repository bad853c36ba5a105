// Package plugin adapts an OCR engine to the host editor's plugin contract.
//
// The host dispatches to plugins through a fixed capability set: text
// detection, image generation, mask generation and model switching. OCRPlugin
// implements only text detection; the generation entry points always fail
// with ErrUnsupported and SwitchModel is accepted but has no effect.
//
// # Regions
//
// DetectText reduces each engine quadrilateral to its enclosing axis-aligned
// rectangle, floored to whole pixels:
//
//	x      = floor(min(xi))
//	y      = floor(min(yi))
//	width  = floor(max(xi)) - x
//	height = floor(max(yi)) - y
//
// Regions narrower or shorter than MinRegionSize pixels are dropped. Survivors
// keep the engine's order and each receives a fresh UUID.
//
// # Lifecycle
//
// NewOCRPlugin loads the engine immediately; a constructor error means no
// plugin exists. A constructed plugin stays ready until Close, after which
// DetectText fails with ErrNotInitialized.
//
// # Thread Safety
//
// OCR engines are not safe for concurrent use. OCRPlugin serializes calls to
// its engine, so one instance may be shared between goroutines; calls simply
// queue.
package plugin
