package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/ocr-plugin/internal/config"
	"github.com/ironsheep/ocr-plugin/internal/imaging"
	"github.com/ironsheep/ocr-plugin/internal/ocr"
)

type fakeEngine struct {
	detections []ocr.Detection
	err        error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) ReadText(img image.Image) ([]ocr.Detection, error) {
	return f.detections, f.err
}

func (f *fakeEngine) Close() error { return nil }

// isolate keeps config files and OCR_PLUGIN_* variables on the host from leaking into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

// run executes the command tree with args and returns stdout and stderr.
func run(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	root := a.rootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func testApp(engine ocr.Engine) *app {
	a := newApp(BuildInfo{Version: "1.0.0", BuildTime: "today", GitCommit: "abc123"})
	a.factory = func(ocr.Options) (ocr.Engine, error) { return engine, nil }
	return a
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	path := filepath.Join(dir, "input.png")
	require.NoError(t, imaging.SavePNG(img, path))
	return path
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand(BuildInfo{Version: "1.0.0"})
	assert.Equal(t, "ocr-plugin", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"serve", "detect", "check", "config"} {
		assert.Contains(t, names, expected)
	}
}

func TestRootCommand_Version(t *testing.T) {
	isolate(t)
	stdout, _, err := run(t, testApp(&fakeEngine{}), "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1.0.0")
	assert.Contains(t, stdout, "abc123")
}

func TestRootCommand_Help(t *testing.T) {
	isolate(t)
	stdout, _, err := run(t, testApp(&fakeEngine{}), "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Available Commands:")
	assert.Contains(t, stdout, "detect")
}

func TestDetectCommand(t *testing.T) {
	dir := isolate(t)
	imgPath := writePNG(t, dir, 100, 60)
	overlayPath := filepath.Join(dir, "overlay.png")

	engine := &fakeEngine{detections: []ocr.Detection{
		{Quad: ocr.Quad{{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 60, Y: 40}, {X: 10, Y: 40}}, Text: "Hello", Confidence: 0.9},
		{Quad: ocr.Quad{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 20}, {X: 0, Y: 20}}, Text: "tiny", Confidence: 0.9},
	}}

	stdout, _, err := run(t, testApp(engine), "detect", imgPath, "--overlay", overlayPath, "--box-color", "#00FF00")
	require.NoError(t, err)

	var out detectOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 60, out.Height)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Hello", out.Regions[0].Text)
	assert.Equal(t, 50, out.Regions[0].BBox.Width)
	assert.Equal(t, overlayPath, out.Overlay)

	overlay, err := imaging.LoadFile(overlayPath)
	require.NoError(t, err)
	c := overlay.NRGBAAt(30, 10)
	assert.Equal(t, uint8(0), c.R)
	assert.Equal(t, uint8(255), c.G)
}

func TestDetectCommand_Errors(t *testing.T) {
	dir := isolate(t)
	imgPath := writePNG(t, dir, 20, 20)

	_, _, err := run(t, testApp(&fakeEngine{}), "detect", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	_, _, err = run(t, testApp(&fakeEngine{err: errors.New("engine crashed")}), "detect", imgPath)
	assert.ErrorContains(t, err, "engine crashed")

	_, _, err = run(t, testApp(&fakeEngine{}), "detect")
	assert.Error(t, err, "detect requires an image argument")

	_, _, err = run(t, testApp(&fakeEngine{}), "detect", imgPath, "--overlay", filepath.Join(dir, "o.png"), "--box-color", "nope")
	assert.Error(t, err)
}

func TestDetectCommand_InitializationFailure(t *testing.T) {
	dir := isolate(t)
	imgPath := writePNG(t, dir, 20, 20)

	a := newApp(BuildInfo{})
	_, _, err := run(t, a, "detect", imgPath, "--device", "cuda")
	require.Error(t, err)
	assert.ErrorIs(t, err, ocr.ErrDeviceUnavailable)
}

func TestCheckCommand(t *testing.T) {
	isolate(t)
	stdout, _, err := run(t, testApp(&fakeEngine{}), "check", "--languages", "en,ja")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Plugin: ready")
	assert.Contains(t, stdout, "en, ja")
}

func TestCheckCommand_InitializationFailure(t *testing.T) {
	isolate(t)
	a := newApp(BuildInfo{})
	a.factory = func(ocr.Options) (ocr.Engine, error) { return nil, ocr.ErrInvalidLanguage }

	_, stderr, err := run(t, a, "check")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, stderr, "cannot initialize")
}

func TestConfigShow(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ocr-plugin.yaml"), []byte("ocr:\n  level: word\n"), 0o600))
	t.Setenv("OCR_PLUGIN_OVERLAY_BOX_COLOR", "#123456")

	stdout, _, err := run(t, testApp(&fakeEngine{}), "config", "show", "--languages", "ko")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, "word", cfg.OCR.Level)
	assert.Equal(t, []string{"ko"}, cfg.OCR.Languages)
	assert.Equal(t, "#123456", cfg.Overlay.BoxColor)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfigShow_InvalidConfig(t *testing.T) {
	isolate(t)
	_, _, err := run(t, testApp(&fakeEngine{}), "config", "show", "--level", "paragraph")
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestConfigPath(t *testing.T) {
	isolate(t)
	stdout, _, err := run(t, testApp(&fakeEngine{}), "config", "path")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Config file: (none)")
	assert.Contains(t, stdout, "OCR_PLUGIN_")
}

func TestServeCommand_EOF(t *testing.T) {
	isolate(t)
	a := testApp(&fakeEngine{})
	root := a.rootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n"))
	root.SetArgs([]string{"serve"})

	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), `"id":7`)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "ERROR", parseLogLevel("error").String())
	assert.Equal(t, "INFO", parseLogLevel("info").String())
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
}
