package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ironsheep/ocr-plugin/internal/imaging"
	"github.com/ironsheep/ocr-plugin/internal/ocr"
)

// Config is the complete plugin configuration. It is loaded from a
// configuration file, OCR_PLUGIN_* environment variables and command-line flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Overlay OverlayConfig `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
}

// OCRConfig configures the OCR engine.
type OCRConfig struct {
	Device         string   `mapstructure:"device" yaml:"device" json:"device"`
	Languages      []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
	PageSegMode    int      `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`
	Level          string   `mapstructure:"level" yaml:"level" json:"level"`
	Grayscale      bool     `mapstructure:"grayscale" yaml:"grayscale" json:"grayscale"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	// MetricsAddr is the listen address for /metrics; empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
}

// OverlayConfig configures region overlays.
type OverlayConfig struct {
	BoxColor string `mapstructure:"box_color" yaml:"box_color" json:"box_color"`
	ShowText bool   `mapstructure:"show_text" yaml:"show_text" json:"show_text"`
}

// maxPageSegMode is the highest Tesseract page segmentation mode (PSM_RAW_LINE).
const maxPageSegMode = 13

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	opts := ocr.DefaultOptions()
	return Config{
		LogLevel: "info",
		OCR: OCRConfig{
			Device:    opts.Device,
			Languages: opts.Languages,
			Level:     string(opts.Level),
		},
		Overlay: OverlayConfig{
			BoxColor: "#FF0000",
			ShowText: true,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if strings.TrimSpace(c.OCR.Device) == "" {
		return fmt.Errorf("invalid ocr.device: must not be empty")
	}

	if _, err := ocr.ResolveLanguages(c.OCR.Languages); err != nil {
		return fmt.Errorf("invalid ocr.languages: %w", err)
	}

	if _, err := ocr.ParseLevel(c.OCR.Level); err != nil {
		return fmt.Errorf("invalid ocr.level: %w", err)
	}

	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > maxPageSegMode {
		return fmt.Errorf("invalid ocr.page_seg_mode: %d (must be between 0 and %d)", c.OCR.PageSegMode, maxPageSegMode)
	}

	if _, err := imaging.ParseColor(c.Overlay.BoxColor); err != nil {
		return fmt.Errorf("invalid overlay.box_color: %w", err)
	}

	return nil
}

// EffectiveLogLevel returns "debug" when Verbose is set, otherwise LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

// ToOCROptions converts the config into engine options.
func (c *Config) ToOCROptions() ocr.Options {
	level, _ := ocr.ParseLevel(c.OCR.Level)
	return ocr.Options{
		Device:         c.OCR.Device,
		Languages:      append([]string(nil), c.OCR.Languages...),
		TessdataPrefix: c.OCR.TessdataPrefix,
		PageSegMode:    c.OCR.PageSegMode,
		Level:          level,
		Grayscale:      c.OCR.Grayscale,
	}
}

// ToOverlayOptions converts the config into overlay drawing options.
func (c *Config) ToOverlayOptions() imaging.OverlayOptions {
	return imaging.OverlayOptions{
		BoxColor:   c.Overlay.BoxColor,
		ShowLabels: c.Overlay.ShowText,
	}
}
