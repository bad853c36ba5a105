// Package ocr provides the text detection/recognition engine behind the OCR plugin.
//
// The package defines a small Engine interface and a Tesseract-backed
// implementation (via gosseract/v2). An engine reads an image and returns an
// ordered list of detections, each a quadrilateral, the recognized text and a
// confidence score.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-chi-sim
//   - macOS: brew install tesseract tesseract-lang
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Binaries built without cgo carry no engine: NewTesseractEngine returns
// ErrDependencyMissing and CheckDependency reports the install hint.
//
// # Language Codes
//
// Languages may be given either as short plugin codes or as Tesseract codes:
//   - "ch_sim" -> "chi_sim" (Chinese, Simplified)
//   - "ch_tra" -> "chi_tra" (Chinese, Traditional)
//   - "en" -> "eng"
//   - "ja" -> "jpn", "ko" -> "kor", "de" -> "deu", ...
//
// The default language set is ["ch_sim", "en"]. Unknown codes fail with
// ErrInvalidLanguage.
//
// # Devices
//
// The Tesseract backend only runs on the CPU. Requesting any other device
// ("cuda", "mps", ...) fails with ErrDeviceUnavailable.
//
// # Thread Safety
//
// Engines are NOT safe for concurrent use. Callers sharing an engine must
// serialize ReadText calls.
package ocr
