// Package server implements the MCP (Model Context Protocol) server for image
// annotation.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - initialize: protocol handshake
//   - tools/list: enumerate available tools
//   - tools/call: execute a tool with arguments
//   - ping: health check
//
// Tool results are returned as a single text content item holding JSON. Tool
// failures are JSON-RPC errors with code -32000 and the error text as data.
//
// # Workflow
//
// A client opens (or creates) a project, adds images to it and edits one image
// at a time through a session:
//
//	project_open   {"name": "street", "type": "bbox", "image_dir": "/data/street",
//	                "classes": [{"id": 0, "name": "car"}]}
//	image_load     {"project": "street", "path": "frame-001.jpg"}
//	session_open   {"project": "street", "image": "frame-001", "tool": "bbox"}
//	session_event  {"session": "street/frame-001", "gesture": "press", "x": 10, "y": 12}
//	session_event  {"session": "street/frame-001", "gesture": "release", "x": 80, "y": 64}
//	project_save   {"name": "street"}
//	export_dataset {"project": "street", "format": "yolo", "output": "/tmp/street.zip"}
//
// Session events carry viewport coordinates; session_viewport pans and zooms.
// Every other tool takes image pixel coordinates.
//
// # State
//
// Open projects and sessions live in memory until the process exits. Edits
// mark images unsaved; only project_save writes them to the store. Requests
// are handled one at a time in arrival order.
//
// # Logging
//
// Stdout carries protocol traffic only. Diagnostics go to the zerolog logger
// passed to New, which the command writes to stderr.
package server
