// Package server implements the MCP (Model Context Protocol) server for the vehicle detector.
//
// The server is started after training: it holds one trained pipeline.Model
// for its whole lifetime and answers detection requests against it, so a
// client can scan many images without retraining.
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
//   - detect_vehicles: Sliding-window scan of an image, optional annotated output
//   - image_info: Dimensions, format and size of an image file
//   - dataset_summary: Labels, sample counts and split sizes
//   - classifier_evaluate: Held-out accuracy, overall and per label
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	model, err := pipeline.Prepare(cfg, ext)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(model, cfg).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
