// Package tools exposes warden's capabilities as a tool surface an AI
// assistant (or a human via the HTTP API) can enumerate and invoke. The wire
// types follow the MCP tool shapes.
package tools

import (
	"encoding/json"
	"fmt"
)

// ControlLevel gates which tools a session may call.
type ControlLevel string

const (
	// ControlLevelReadOnly exposes only tools that observe state.
	ControlLevelReadOnly ControlLevel = "read-only"
	// ControlLevelFull additionally exposes tools that modify state.
	ControlLevelFull ControlLevel = "full"
)

// ParseControlLevel maps a configuration string to a ControlLevel,
// defaulting to read-only for anything unrecognized.
func ParseControlLevel(s string) ControlLevel {
	if s == string(ControlLevelFull) {
		return ControlLevelFull
	}
	return ControlLevelReadOnly
}

// Tool describes an available tool.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema describes the expected input for a tool.
type InputSchema struct {
	Type       string                    `json:"type"` // Always "object"
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema describes a property in the input schema.
type PropertySchema struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// ListToolsResult is the result of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams are the params for tools/call.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult is the result of tools/call.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content represents content in a tool result.
type Content struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// NewTextContent creates a text content object.
func NewTextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// NewErrorResult creates an error tool result.
func NewErrorResult(err error) CallToolResult {
	return CallToolResult{
		Content: []Content{NewTextContent(err.Error())},
		IsError: true,
	}
}

// NewTextResult creates a successful text tool result.
func NewTextResult(text string) CallToolResult {
	return CallToolResult{
		Content: []Content{NewTextContent(text)},
	}
}

// NewJSONResult creates a successful tool result with data marshaled to
// indented JSON text content.
func NewJSONResult(data any) CallToolResult {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return NewErrorResult(fmt.Errorf("encode tool result: %w", err))
	}
	return NewTextResult(string(encoded))
}
