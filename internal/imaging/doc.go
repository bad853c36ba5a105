// Package imaging provides the image plumbing around text detection.
//
// It loads and decodes images (from disk or inline base64), normalizes them
// into opaque RGB rasters, prepares them for the OCR engine and renders
// detected regions back over the image for review.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For boxes, (X, Y) is the inclusive top-left corner and Width/Height extend
//     right and down
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Rasters returned from the
// cache are shared and must not be modified; Annotate and RenderRegions always
// draw on a copy.
//
// # Color Representation
//
// Overlay colors are hex strings: "#RRGGBB", "#RGB", or "#RRGGBBAA" where the
// last byte is opacity.
package imaging
