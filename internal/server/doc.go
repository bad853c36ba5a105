// Package server exposes the OCR plugin to a host over MCP (Model Context Protocol).
//
// The server speaks JSON-RPC 2.0 over stdio, so a host editor can spawn the
// plugin as a subprocess and call it without linking against it.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Text detection:
//   - detect_text: Find text regions with bounding boxes, text and confidence
//   - render_regions: Detect and return the image with regions outlined
//
// Plugin contract:
//   - check_dependency: Report whether the OCR engine is installed
//   - plugin_info: Name, capabilities, device, languages, engine details
//   - gen_image, gen_mask: Always fail (unsupported_operation)
//   - switch_model: Accepted, no effect
//
// Housekeeping:
//   - clear_cache: Forget cached images
//
// Images are passed either as a file path or inline as base64 (image_base64).
//
// # Image Caching
//
// Images loaded by path are cached and reused across tool calls. Use
// clear_cache after a file changes on disk. Inline images are never cached.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: "Tool execution failed"
//   - data: {"kind": ..., "error": ...} where kind is one of
//     dependency_missing, initialization_failure, not_initialized,
//     detection_failure, unsupported_operation, invalid_input, internal
//
// # Usage
//
//	p, err := plugin.NewOCRPlugin(ocr.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	srv := server.New(p, server.Options{Version: version})
//	return srv.Run(ctx)
package server
