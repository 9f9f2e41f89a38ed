package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/vehicle-detect/internal/classifier"
	"github.com/ironsheep/vehicle-detect/internal/detection"
	"github.com/ironsheep/vehicle-detect/internal/imaging"
	"github.com/ironsheep/vehicle-detect/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detect_vehicles").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
	case "detect_vehicles":
		return s.handleDetectVehicles(args)
	case "image_info":
		return s.handleImageInfo(args)
	case "dataset_summary":
		return s.handleDatasetSummary()
	case "classifier_evaluate":
		return s.handleClassifierEvaluate()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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

// === Detection ===

type detectVehiclesArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	StepSize   int    `json:"step_size"`
}

// DetectVehiclesResult is the detect_vehicles tool result.
type DetectVehiclesResult struct {
	Path        string             `json:"path"`
	TargetLabel string             `json:"target_label"`
	Count       int                `json:"count"`
	Boxes       []detection.Window `json:"boxes"`
	Windows     int                `json:"windows"`
	Skipped     int                `json:"skipped"`
	OutputPath  string             `json:"output_path,omitempty"`
}

func (s *Server) handleDetectVehicles(args json.RawMessage) (interface{}, error) {
	var a detectVehiclesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.StepSize < 0 {
		return nil, fmt.Errorf("step_size must be positive, got %d", a.StepSize)
	}

	opts, err := pipeline.DetectionOptions(s.cfg)
	if err != nil {
		return nil, err
	}
	if a.StepSize > 0 {
		opts.Step = a.StepSize
	}

	result, err := s.model.DetectFile(s.cache, a.Path, opts)
	if err != nil {
		return nil, err
	}

	out := DetectVehiclesResult{
		Path:        a.Path,
		TargetLabel: opts.TargetLabel,
		Count:       result.Count,
		Boxes:       result.Boxes,
		Windows:     result.Windows,
		Skipped:     result.Skipped,
	}
	if out.Boxes == nil {
		out.Boxes = []detection.Window{}
	}
	if a.OutputPath != "" {
		if err := imaging.Save(result.Image, a.OutputPath, s.cfg.JPEGQuality); err != nil {
			return nil, err
		}
		out.OutputPath = a.OutputPath
	}
	return out, nil
}

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Model Introspection ===

// DatasetSummaryResult is the dataset_summary tool result.
type DatasetSummaryResult struct {
	Labels    map[string]int `json:"labels"`
	Samples   int            `json:"samples"`
	Train     int            `json:"train"`
	Test      int            `json:"test"`
	Extractor string         `json:"extractor"`
	Dim       int            `json:"dim"`
}

func (s *Server) handleDatasetSummary() (interface{}, error) {
	m := s.model
	return DatasetSummaryResult{
		Labels:    m.Labels,
		Samples:   len(m.Split.Train) + len(m.Split.Test),
		Train:     len(m.Split.Train),
		Test:      len(m.Split.Test),
		Extractor: m.Extractor.Name(),
		Dim:       m.Extractor.Dim(),
	}, nil
}

// ClassifierEvaluateResult is the classifier_evaluate tool result.
type ClassifierEvaluateResult struct {
	Labels []string `json:"labels"`
	classifier.Metrics
}

func (s *Server) handleClassifierEvaluate() (interface{}, error) {
	return ClassifierEvaluateResult{
		Labels:  s.model.Classifier.Labels(),
		Metrics: s.model.Metrics,
	}, nil
}
