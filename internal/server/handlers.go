package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/ocr-plugin/internal/imaging"
	"github.com/ironsheep/ocr-plugin/internal/ocr"
	"github.com/ironsheep/ocr-plugin/internal/plugin"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detect_text", "check_dependency").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolError is the data attached to a failed tools/call response.
type ToolError struct {
	// Kind classifies the failure: dependency_missing, initialization_failure,
	// not_initialized, detection_failure, unsupported_operation, invalid_input
	// or internal.
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and a ToolError as data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	label := params.Name
	if !knownTools[label] {
		label = "unknown"
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	toolDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		kind := errorKind(err)
		toolCallsTotal.WithLabelValues(label, kind).Inc()
		s.logger.Warn("tool failed", "tool", params.Name, "kind", kind, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", ToolError{Kind: kind, Error: err.Error()})
	}
	toolCallsTotal.WithLabelValues(label, "success").Inc()

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Text detection
	case "detect_text":
		return s.handleDetectText(args)
	case "render_regions":
		return s.handleRenderRegions(args)

	// Plugin contract
	case "check_dependency":
		return s.handleCheckDependency()
	case "plugin_info":
		return s.handlePluginInfo()
	case "gen_image":
		return s.handleGenImage()
	case "gen_mask":
		return s.handleGenMask()
	case "switch_model":
		return s.handleSwitchModel(args)

	// Housekeeping
	case "clear_cache":
		return s.handleClearCache(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidInput, name)
	}
}

var errInvalidInput = errors.New("invalid input")

// errorKind maps an error to its ToolError kind.
func errorKind(err error) string {
	switch {
	case errors.Is(err, plugin.ErrUnsupported):
		return "unsupported_operation"
	case errors.Is(err, plugin.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, plugin.ErrDetectionFailed):
		return "detection_failure"
	case errors.Is(err, plugin.ErrInitialization):
		return "initialization_failure"
	case errors.Is(err, ocr.ErrDependencyMissing):
		return "dependency_missing"
	case errors.Is(err, errInvalidInput), errors.Is(err, imaging.ErrNoImage):
		return "invalid_input"
	default:
		return "internal"
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Missing arguments decode as the zero value.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	return nil
}

// === Image input ===

type imageArgs struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// load returns the requested image as an RGB raster. Files go through the cache;
// inline images are decoded per call.
func (s *Server) load(a imageArgs) (*image.NRGBA, error) {
	switch {
	case a.Path != "" && a.ImageBase64 != "":
		return nil, fmt.Errorf("%w: set either path or image_base64, not both", errInvalidInput)
	case a.Path != "":
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidInput, err)
		}
		return img, nil
	case a.ImageBase64 != "":
		img, err := imaging.DecodeBase64(a.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidInput, err)
		}
		return img, nil
	default:
		return nil, imaging.ErrNoImage
	}
}

// === Text detection handlers ===

// DetectTextResult is the detect_text response.
type DetectTextResult struct {
	Width   int                 `json:"width"`
	Height  int                 `json:"height"`
	Count   int                 `json:"count"`
	Regions []plugin.TextRegion `json:"regions"`
}

func (s *Server) handleDetectText(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a)
	if err != nil {
		return nil, err
	}

	regions, err := s.plugin.DetectText(img)
	if err != nil {
		return nil, err
	}
	return &DetectTextResult{
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
		Count:   len(regions),
		Regions: regions,
	}, nil
}

type renderRegionsArgs struct {
	imageArgs
	BoxColor  string `json:"box_color"`
	ShowText  *bool  `json:"show_text"`
	LineWidth int    `json:"line_width"`
}

// RenderRegionsResult is the render_regions response.
type RenderRegionsResult struct {
	*imaging.OverlayResult
	Regions []plugin.TextRegion `json:"regions"`
}

func (s *Server) handleRenderRegions(args json.RawMessage) (interface{}, error) {
	var a renderRegionsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	opts := s.opts.Overlay
	if a.BoxColor != "" {
		if _, err := imaging.ParseColor(a.BoxColor); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidInput, err)
		}
		opts.BoxColor = a.BoxColor
	}
	if a.ShowText != nil {
		opts.ShowLabels = *a.ShowText
	}
	if a.LineWidth > 0 {
		opts.LineWidth = a.LineWidth
	}

	img, err := s.load(a.imageArgs)
	if err != nil {
		return nil, err
	}

	regions, err := s.plugin.DetectText(img)
	if err != nil {
		return nil, err
	}

	overlay, err := imaging.RenderRegions(img, RegionBoxes(regions), opts)
	if err != nil {
		return nil, err
	}
	return &RenderRegionsResult{OverlayResult: overlay, Regions: regions}, nil
}

// RegionBoxes converts detected regions into overlay boxes labelled with their text.
func RegionBoxes(regions []plugin.TextRegion) []imaging.Box {
	boxes := make([]imaging.Box, len(regions))
	for i, r := range regions {
		boxes[i] = imaging.Box{
			X:      r.BBox.X,
			Y:      r.BBox.Y,
			Width:  r.BBox.Width,
			Height: r.BBox.Height,
			Label:  r.Text,
		}
	}
	return boxes
}

// === Plugin contract handlers ===

// DependencyResult is the check_dependency response.
type DependencyResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

func (s *Server) handleCheckDependency() (interface{}, error) {
	if err := s.plugin.CheckDependency(); err != nil {
		return &DependencyResult{Available: false, Message: err.Error()}, nil
	}
	return &DependencyResult{Available: true}, nil
}

// PluginInfo is the plugin_info response.
type PluginInfo struct {
	Name            string         `json:"name"`
	Version         string         `json:"version"`
	SupportGenImage bool           `json:"support_gen_image"`
	SupportGenMask  bool           `json:"support_gen_mask"`
	Ready           bool           `json:"ready"`
	Device          string         `json:"device"`
	Languages       []string       `json:"languages"`
	Backend         string         `json:"backend,omitempty"`
	MinRegionSize   int            `json:"min_region_size"`
	Engine          ocr.EngineInfo `json:"engine"`
}

func (s *Server) handlePluginInfo() (interface{}, error) {
	return &PluginInfo{
		Name:            s.plugin.Name(),
		Version:         s.opts.Version,
		SupportGenImage: s.plugin.SupportGenImage(),
		SupportGenMask:  s.plugin.SupportGenMask(),
		Ready:           s.plugin.Ready(),
		Device:          s.plugin.Device(),
		Languages:       s.plugin.Languages(),
		Backend:         s.plugin.Backend(),
		MinRegionSize:   plugin.MinRegionSize,
		Engine:          ocr.Info(s.opts.TessdataPrefix),
	}, nil
}

// gen_image and gen_mask take no arguments; the plugin rejects them regardless.

func (s *Server) handleGenImage() (interface{}, error) {
	return s.plugin.GenImage(nil, plugin.RunPluginRequest{})
}

func (s *Server) handleGenMask() (interface{}, error) {
	return s.plugin.GenMask(nil, plugin.RunPluginRequest{})
}

type switchModelArgs struct {
	Name string `json:"name"`
}

// SwitchModelResult is the switch_model response.
type SwitchModelResult struct {
	Model    string `json:"model"`
	Switched bool   `json:"switched"`
	Message  string `json:"message"`
}

func (s *Server) handleSwitchModel(args json.RawMessage) (interface{}, error) {
	var a switchModelArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.plugin.SwitchModel(a.Name); err != nil {
		return nil, err
	}
	return &SwitchModelResult{
		Model:    a.Name,
		Switched: false,
		Message:  "model switching is not supported by the OCR plugin; the current engine is unchanged",
	}, nil
}

// === Housekeeping ===

type clearCacheArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleClearCache(args json.RawMessage) (interface{}, error) {
	var a clearCacheArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	before := s.cache.Len()
	if a.Path != "" {
		s.cache.Evict(a.Path)
	} else {
		s.cache.Clear()
	}
	return map[string]interface{}{
		"evicted":   before - s.cache.Len(),
		"remaining": s.cache.Len(),
	}, nil
}
