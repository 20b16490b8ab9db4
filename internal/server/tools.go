package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Images
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. With a project, adds the image (path relative to the project's image directory) as a new record with an empty annotation list.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the image file",
					},
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Optional open project to add the image to",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the colour and 8-bit luminance of one pixel. Useful for choosing a mask_to_polygon threshold.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the image file",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Projects
		{
			Name:        "project_list",
			Description: "List stored projects and the projects open in this server.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "project_open",
			Description: "Open a stored project, or create it when none exists and a type is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Project name",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"bbox", "obb", "polygon", "mask", "point", "range", "keypoints", "landmark"},
						"description": "Annotation type of a new project",
					},
					"classes": map[string]interface{}{
						"type":        "array",
						"description": "Classes of a new project: [{\"id\": 0, \"name\": \"car\", \"color\": \"#ff0000\"}]",
					},
					"keypoint_names": map[string]interface{}{
						"type":        "array",
						"description": "Keypoint slot names of a new keypoints project",
					},
					"skeleton": map[string]interface{}{
						"type":        "array",
						"description": "Keypoint skeleton edges as 1-based index pairs",
					},
					"image_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory image file names are relative to",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "project_save",
			Description: "Persist an open project to the store and clear its unsaved flags.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Project name",
					},
				},
				"required": []string{"name"},
			},
		},

		// Editing sessions
		{
			Name:        "session_open",
			Description: "Start an interactive editing session on one image. Returns the session id used by session_event and session_viewport.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Open project name",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image id",
					},
					"tool": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"bbox", "obb", "polygon", "point", "landmark", "range", "keypoints", "select"},
						"description": "Active tool. Default select",
					},
					"class": map[string]interface{}{
						"type":        "integer",
						"description": "Class id assigned to new annotations",
					},
				},
				"required": []string{"project", "image"},
			},
		},
		{
			Name:        "session_event",
			Description: "Apply a pointer gesture at a viewport position and return the outcome, interaction state and affected annotation. Tool, class and selection changes are applied first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session": map[string]interface{}{
						"type":        "string",
						"description": "Session id",
					},
					"gesture": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"press", "move", "release", "close", "cancel", "delete", "insert-vertex", "delete-vertex"},
						"description": "Gesture to apply",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Viewport X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Viewport Y coordinate",
					},
					"tool": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"bbox", "obb", "polygon", "point", "landmark", "range", "keypoints", "select"},
						"description": "Switch tool; discards a shape in progress",
					},
					"class": map[string]interface{}{
						"type":        "integer",
						"description": "Class id for new annotations",
					},
					"select": map[string]interface{}{
						"type":        "integer",
						"description": "Select the annotation at this index",
					},
				},
				"required": []string{"session"},
			},
		},
		{
			Name:        "session_viewport",
			Description: "Pan or zoom a session's viewport. Zoom is a factor applied around (at_x, at_y).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session": map[string]interface{}{
						"type":        "string",
						"description": "Session id",
					},
					"pan_x": map[string]interface{}{
						"type":        "number",
						"description": "Horizontal pan in viewport units",
					},
					"pan_y": map[string]interface{}{
						"type":        "number",
						"description": "Vertical pan in viewport units",
					},
					"zoom": map[string]interface{}{
						"type":        "number",
						"description": "Zoom factor, e.g. 2 to zoom in",
					},
					"at_x": map[string]interface{}{
						"type":        "number",
						"description": "Viewport X kept fixed while zooming",
					},
					"at_y": map[string]interface{}{
						"type":        "number",
						"description": "Viewport Y kept fixed while zooming",
					},
					"device_pixel_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Device pixels per viewport unit",
					},
					"reset": map[string]interface{}{
						"type":        "boolean",
						"description": "Reset to zoom 1 with no pan",
					},
				},
				"required": []string{"session"},
			},
		},

		// Annotations
		{
			Name:        "annotations_list",
			Description: "Return the annotation list of an image in z-order (last is topmost).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Open project name",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image id",
					},
				},
				"required": []string{"project", "image"},
			},
		},
		{
			Name:        "annotation_hit_test",
			Description: "Find the topmost annotation at an image point, or a handle of the selected annotation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Open project name",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image id",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Image X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Image Y coordinate",
					},
					"zoom": map[string]interface{}{
						"type":        "number",
						"description": "Current zoom; scales grab radii. Default 1",
					},
					"selected": map[string]interface{}{
						"type":        "integer",
						"description": "Selected annotation index to test for handles",
					},
				},
				"required": []string{"project", "image", "x", "y"},
			},
		},
		{
			Name:        "annotation_crop",
			Description: "Crop the bounds of one annotation from its source image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Open project name",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image id",
					},
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Annotation index",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the bounds. Default 0",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
					},
				},
				"required": []string{"project", "image", "index"},
			},
		},
		{
			Name:        "mask_to_polygon",
			Description: "Trace the outer boundary of a mask image and simplify it into a polygon. Optionally append it to an open polygon project.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the mask image",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Luminance (0-255) at or above which pixels are foreground. Without it the alpha channel is used",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Simplification tolerance (squared pixel distance)",
					},
					"max_points": map[string]interface{}{
						"type":        "integer",
						"description": "Cap on traced boundary pixels",
					},
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Open polygon project to append to",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image id to append to",
					},
					"class": map[string]interface{}{
						"type":        "integer",
						"description": "Class id of the new polygon",
					},
				},
				"required": []string{"path"},
			},
		},

		// Output
		{
			Name:        "render_overlay",
			Description: "Render an image's annotations over the source image and return a base64-encoded PNG preview.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Open project name",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Image id",
					},
					"selected": map[string]interface{}{
						"type":        "integer",
						"description": "Annotation index whose handles are drawn",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw class name captions. Default true",
					},
					"fill_alpha": map[string]interface{}{
						"type":        "integer",
						"description": "Fill opacity 0-255. Default 64",
					},
				},
				"required": []string{"project", "image"},
			},
		},
		{
			Name:        "export_dataset",
			Description: "Export an open project as a training dataset into a directory, or a zip archive when output ends in .zip.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "Open project name",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"yolo", "yolo-seg", "yolo-pose", "yolo-obb", "coco", "voc", "csv", "json"},
						"description": "Dataset format",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Output directory or .zip path",
					},
					"train_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Share of images in the train split. Default 0.8",
					},
					"copy_images": map[string]interface{}{
						"type":        "boolean",
						"description": "Copy source images into the dataset. Default true",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Images converted concurrently",
					},
				},
				"required": []string{"project", "format", "output"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
