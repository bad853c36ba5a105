package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageInputProperties are the two ways a tool receives an image.
func imageInputProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file. Mutually exclusive with image_base64.",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Inline image as base64 or a data URL (data:image/png;base64,...). Mutually exclusive with path.",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Text detection
		{
			Name: "detect_text",
			Description: "Detect text regions in an image. Returns each region's id, axis-aligned bounding box " +
				"{x, y, width, height}, recognized text and confidence (0.0-1.0), in engine order. " +
				"Regions smaller than 5 pixels in either dimension are omitted.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageInputProperties(),
			},
		},
		{
			Name:        "render_regions",
			Description: "Detect text regions and return the image with each region outlined, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(imageInputProperties(), map[string]interface{}{
					"box_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (#RRGGBB or #RRGGBBAA). Default from configuration.",
					},
					"show_text": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the recognized text above each box. Default from configuration.",
					},
					"line_width": map[string]interface{}{
						"type":        "integer",
						"description": "Outline width in pixels. Default 2.",
						"default":     2,
					},
				}),
			},
		},

		// Plugin contract
		{
			Name:        "check_dependency",
			Description: "Check whether the OCR engine is installed. Returns an installation hint when it is not.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "plugin_info",
			Description: "Describe the plugin: name, supported capabilities, device, languages and engine details.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "gen_image",
			Description: "Not supported by the OCR plugin; always fails. Present for plugin contract compatibility.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "gen_mask",
			Description: "Not supported by the OCR plugin; always fails. Present for plugin contract compatibility.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "switch_model",
			Description: "Accepted for plugin contract compatibility. The OCR plugin does not switch models; the call has no effect.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Requested model name",
					},
				},
				"required": []string{"name"},
			},
		},

		// Housekeeping
		{
			Name:        "clear_cache",
			Description: "Drop cached images so changed files are re-read. Clears one path, or the whole cache when path is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to evict. Omit to clear everything.",
					},
				},
			},
		},
	}
}

// knownTools bounds the tool label on metrics.
var knownTools = func() map[string]bool {
	m := make(map[string]bool)
	for _, t := range GetToolDefinitions() {
		m[t.Name] = true
	}
	return m
}()
