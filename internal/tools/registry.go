package tools

import (
	"context"
	"fmt"
	"sync"
)

// ToolHandler executes one tool call against the executor's providers.
type ToolHandler func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error)

// RegisteredTool bundles a tool definition with its handler.
type RegisteredTool struct {
	Definition Tool
	Handler    ToolHandler
	// RequireControl marks tools that modify state; they are hidden and
	// refused unless the executor runs at full control level.
	RequireControl bool
}

// ToolRegistry holds the registered tools in registration order.
type ToolRegistry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]RegisteredTool
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]RegisteredTool)}
}

// Register adds a tool. Re-registering a name replaces the handler but keeps
// the original position.
func (r *ToolRegistry) Register(tool RegisteredTool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Definition.Name]; !exists {
		r.order = append(r.order, tool.Definition.Name)
	}
	r.tools[tool.Definition.Name] = tool
}

// ListTools returns the tool definitions visible at the given control level,
// in registration order.
func (r *ToolRegistry) ListTools(level ControlLevel) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		if tool.RequireControl && level != ControlLevelFull {
			continue
		}
		definitions = append(definitions, tool.Definition)
	}
	return definitions
}

// Get returns the registered tool by name.
func (r *ToolRegistry) Get(name string) (RegisteredTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Execute runs the named tool's handler.
func (r *ToolRegistry) Execute(ctx context.Context, exec *Executor, name string, args map[string]any) (CallToolResult, error) {
	tool, ok := r.Get(name)
	if !ok {
		return NewErrorResult(fmt.Errorf("unknown tool: %s", name)), nil
	}
	if tool.RequireControl && exec.controlLevel != ControlLevelFull {
		return NewErrorResult(fmt.Errorf("tool %s requires full control level", name)), nil
	}
	return tool.Handler(ctx, exec, args)
}
