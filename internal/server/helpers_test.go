package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/ocr-plugin/internal/imaging"
	"github.com/ironsheep/ocr-plugin/internal/ocr"
	"github.com/ironsheep/ocr-plugin/internal/plugin"
)

var colorWhite = color.RGBA{255, 255, 255, 255}

// fakeEngine returns canned detections.
type fakeEngine struct {
	detections []ocr.Detection
	err        error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) ReadText(img image.Image) ([]ocr.Detection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detections, nil
}

func (f *fakeEngine) Close() error { return nil }

// helloDetections is one readable region plus one too small to keep.
func helloDetections() []ocr.Detection {
	return []ocr.Detection{
		{
			Quad:       ocr.Quad{{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 60, Y: 40}, {X: 10, Y: 40}},
			Text:       "Hello",
			Confidence: 0.9,
		},
		{
			Quad:       ocr.Quad{{X: 70, Y: 10}, {X: 73, Y: 10}, {X: 73, Y: 30}, {X: 70, Y: 30}},
			Text:       "|",
			Confidence: 0.4,
		},
	}
}

// newTestServer returns a server backed by engine.
func newTestServer(t *testing.T, engine ocr.Engine) *Server {
	t.Helper()
	p, err := plugin.NewOCRPlugin(ocr.Options{}, plugin.WithEngineFactory(func(ocr.Options) (ocr.Engine, error) {
		return engine, nil
	}))
	if err != nil {
		t.Fatalf("NewOCRPlugin failed: %v", err)
	}
	return New(p, Options{
		Version: "1.2.3",
		Overlay: imaging.OverlayOptions{BoxColor: "#FF0000"},
	})
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unpacks the JSON text content of a successful tool call into v.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content should hold one item, got %v", result["content"])
	}
	text, ok := content[0]["text"].(string)
	if !ok {
		t.Fatal("content text should be a string")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
}

// toolError extracts the ToolError from a failed tool call.
func toolError(t *testing.T, resp *MCPResponse) ToolError {
	t.Helper()

	if resp.Error == nil {
		t.Fatal("expected error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("error code: got %d, want -32000", resp.Error.Code)
	}
	te, ok := resp.Error.Data.(ToolError)
	if !ok {
		t.Fatalf("error data should be ToolError, got %T", resp.Error.Data)
	}
	return te
}
