package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/botan/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"palette", "prompt", "llm", "format", "events"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"palette_select": {
		def:     paletteSelectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePaletteSelect },
	},
	"palette_catalog": {
		def:     paletteCatalogToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePaletteCatalog },
	},
	"prompt_compact": {
		def:     promptCompactToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptCompact },
	},
	"prompt_estimate": {
		def:     promptEstimateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptEstimate },
	},
	"prompt_template": {
		def:     promptTemplateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptTemplate },
	},
	"llm_generate": {
		def:     llmGenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLLMGenerate },
	},
	"llm_bridge": {
		def:     llmBridgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLLMBridge },
	},
	"llm_optimize": {
		def:     llmOptimizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLLMOptimize },
	},
	"format_convert": {
		def:     formatConvertToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFormatConvert },
	},
	"format_validate": {
		def:     formatValidateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFormatValidate },
	},
	"events_list": {
		def:     eventsListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEventsList },
	},
	"events_stats": {
		def:     eventsStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEventsStats },
	},
	"events_rate": {
		def:     eventsRateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEventsRate },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "palette_select" → "palette").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with botan tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"botan",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(env)
	cfg := h.cfg()

	// Expand types first, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport. Transport errors go to
// the env logger.
func Run(env *ops.Env, version string) error {
	s := NewServer(env, version)
	logger := NewHandlers(env).logger()
	logger.Info("mcp server starting", zap.String("version", version), zap.Int("tools", len(s.ListTools())))
	return server.ServeStdio(s, server.WithErrorLogger(zap.NewStdLog(logger)))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
