package focusread

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/bionic/focusread/internal/kit"
	"github.com/hazyhaar/bionic/focusread/internal/settings"
)

// RegisterMCP registers the focusread tools on an MCP server.
func (r *Reader) RegisterMCP(srv *mcp.Server) {
	eps := r.endpoints()

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focusread_transform",
		Description: "Apply bionic-reading emphasis to plain text. Returns HTML with each word's head wrapped in a bold span.",
		InputSchema: inputSchema(withOverrides(map[string]any{
			"text": map[string]any{"type": "string", "description": "Plain text to transform"},
		}), []string{"text"}),
	}, eps.transform, kit.DecodeJSON[textRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focusread_preview",
		Description: "Render a preview of text (a sample sentence when empty) with the reader settings and typography applied.",
		InputSchema: inputSchema(withOverrides(map[string]any{
			"text": map[string]any{"type": "string", "description": "Text to preview (optional)"},
		}), nil),
	}, eps.preview, kit.DecodeJSON[textRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focusread_settings_get",
		Description: "Return the stored reader settings.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps.settingsGet, kit.DecodeJSON[struct{}]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focusread_settings_set",
		Description: "Update reader settings. Omitted fields are left unchanged; the running reader applies the change immediately.",
		InputSchema: inputSchema(withOverrides(map[string]any{
			"enabled": map[string]any{"type": "boolean", "description": "Apply the emphasis transform to the page"},
		}), nil),
	}, eps.settingsSet, kit.DecodeJSON[settings.Patch]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focusread_settings_reset",
		Description: "Restore the default reader settings.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps.settingsReset, kit.DecodeJSON[struct{}]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focusread_stats",
		Description: "Return reconciliation pass counters and settings watcher state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps.stats, kit.DecodeJSON[struct{}]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "focusread_rescan",
		Description: "Queue a full pass over the page. queued is false when no page is being read.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps.rescan, kit.DecodeJSON[struct{}]())
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// withOverrides adds the settings properties a call may override.
func withOverrides(props map[string]any) map[string]any {
	props["boldRatio"] = map[string]any{"type": "integer", "minimum": 0, "maximum": 100, "description": "Percent of each word to embolden"}
	props["fontWeight"] = map[string]any{"type": "integer", "minimum": 100, "maximum": 900, "description": "CSS font weight of the emphasis"}
	props["fontFamily"] = map[string]any{"type": "string", "description": "Font family, or \"default\" to keep the page font"}
	props["lineHeight"] = map[string]any{"type": "number", "description": "Unitless line height"}
	props["letterSpacing"] = map[string]any{"type": "number", "description": "Letter spacing in px"}
	props["wordSpacing"] = map[string]any{"type": "number", "description": "Word spacing in px"}
	return props
}
