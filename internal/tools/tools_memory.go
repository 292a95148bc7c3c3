package tools

import (
	"context"
	"fmt"
	"strings"
)

// registerMemoryTool registers the warden_memory tool. The save and forget
// actions modify state and are gated behind full control.
func (e *Executor) registerMemoryTool() {
	e.registry.Register(RegisteredTool{
		Definition: Tool{
			Name: "warden_memory",
			Description: `Recall operator notes saved in earlier sessions.

Examples:
- Everything known: action="recall"
- Disk-related notes: action="recall", category="disks"`,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"action": {
						Type:        "string",
						Description: "Memory action",
						Enum:        []string{"recall"},
						Default:     "recall",
					},
					"category": {
						Type:        "string",
						Description: "Filter notes by category",
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of notes (default: all)",
					},
				},
			},
		},
		Handler: func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error) {
			return exec.executeMemoryRecall(ctx, args)
		},
	})

	e.registry.Register(RegisteredTool{
		Definition: Tool{
			Name: "warden_memory_write",
			Description: `Save or delete operator notes for future sessions.

Examples:
- Save a note: action="save", content="sda spins down after 20m", category="disks"
- Delete a note: action="forget", id="<note id>"`,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"action": {
						Type:        "string",
						Description: "Memory action",
						Enum:        []string{"save", "forget"},
					},
					"content": {
						Type:        "string",
						Description: "Note text (for save)",
					},
					"category": {
						Type:        "string",
						Description: "Note category (for save, default: general)",
					},
					"id": {
						Type:        "string",
						Description: "Note ID (for forget)",
					},
				},
				Required: []string{"action"},
			},
		},
		Handler: func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error) {
			return exec.executeMemoryWrite(ctx, args)
		},
		RequireControl: true,
	})
}

func (e *Executor) executeMemoryRecall(ctx context.Context, args map[string]any) (CallToolResult, error) {
	if e.memory == nil {
		return NewErrorResult(fmt.Errorf("memory store is not configured")), nil
	}

	category, _ := args["category"].(string)
	limit := 0
	if raw, ok := args["limit"].(float64); ok && raw > 0 {
		limit = int(raw)
	}

	notes, err := e.memory.Recall(ctx, category, limit)
	if err != nil {
		return NewErrorResult(fmt.Errorf("recall notes: %w", err)), nil
	}
	if len(notes) == 0 {
		return NewTextResult("No notes saved yet."), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%d note%s:\n", len(notes), pluralSuffix(len(notes)))
	for _, note := range notes {
		fmt.Fprintf(&out, "  - [%s] %s (id=%s, %s)\n",
			note.Category, note.Content, note.ID, note.CreatedAt.Format("2006-01-02"))
	}
	return NewTextResult(out.String()), nil
}

func (e *Executor) executeMemoryWrite(ctx context.Context, args map[string]any) (CallToolResult, error) {
	if e.memory == nil {
		return NewErrorResult(fmt.Errorf("memory store is not configured")), nil
	}

	action, _ := args["action"].(string)
	switch action {
	case "save":
		content, _ := args["content"].(string)
		category, _ := args["category"].(string)
		note, err := e.memory.Remember(ctx, category, content)
		if err != nil {
			return NewErrorResult(fmt.Errorf("save note: %w", err)), nil
		}
		return NewTextResult(fmt.Sprintf("Saved note %s in category %q.", note.ID, note.Category)), nil
	case "forget":
		id, _ := args["id"].(string)
		deleted, err := e.memory.Forget(ctx, id)
		if err != nil {
			return NewErrorResult(fmt.Errorf("forget note: %w", err)), nil
		}
		if !deleted {
			return NewErrorResult(fmt.Errorf("no note with id %q", id)), nil
		}
		return NewTextResult(fmt.Sprintf("Deleted note %s.", id)), nil
	default:
		return NewErrorResult(fmt.Errorf("unknown action: %s. Use: save, forget", action)), nil
	}
}
