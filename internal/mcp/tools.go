package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/botan/internal/compact"
)

// Tool definitions. Parameter names match the request structs in handlers.go.

var paletteSelectToolDef = mcp.NewTool("palette_select",
	mcp.WithDescription("Select a small plant palette whose combined bloom covers the requested seasons. "+
		"Returns the chosen plants, covered and uncovered seasons, a text analysis and a 12-month nectar profile."),
	mcp.WithArray("seasons", mcp.WithStringItems(),
		mcp.Description("Target seasons: winter, spring, summer, autumn (French names accepted). Default: all four.")),
	mcp.WithArray("exposures", mcp.WithStringItems(),
		mcp.Description("Accepted exposures: sun, partial_shade, shade. Default from config.")),
	mcp.WithNumber("height_min_cm", mcp.Min(1), mcp.Description("Minimum mature height in cm")),
	mcp.WithNumber("height_max_cm", mcp.Min(1), mcp.Description("Maximum mature height in cm")),
	mcp.WithNumber("max_plants", mcp.Min(1), mcp.Description("Palette size limit (default 6)")),
	mcp.WithString("strategy", mcp.Enum("greedy", "balanced"), mcp.DefaultString("greedy"),
		mcp.Description("greedy maximizes season coverage; balanced fills per-stratum quotas")),
	mcp.WithObject("quotas",
		mcp.Properties(map[string]any{
			"low":    map[string]any{"type": "integer", "minimum": 0},
			"medium": map[string]any{"type": "integer", "minimum": 0},
			"high":   map[string]any{"type": "integer", "minimum": 0},
		}),
		mcp.Description("Explicit per-stratum quotas (balanced only)")),
	mcp.WithArray("strata", mcp.WithStringEnumItems([]string{"low", "medium", "high"}),
		mcp.Description("Strata to split max_plants over when balanced without quotas")),
	mcp.WithString("class", mcp.Enum("shrub", "perennial"), mcp.Description("Restrict to one plant class")),
	mcp.WithBoolean("low_maintenance_only", mcp.Description("Keep only low-maintenance plants")),
	mcp.WithBoolean("require_draining_soil", mcp.Description("Keep only plants tolerating draining soil")),
	mcp.WithBoolean("drought_tolerant_only", mcp.Description("Keep only drought-tolerant plants")),
	mcp.WithBoolean("avoid_spreading_roots", mcp.Description("Drop suckering or spreading root systems")),
	mcp.WithBoolean("avoid_invasive", mcp.Description("Drop plants matching the invasive markers (default true)")),
	mcp.WithArray("exclude", mcp.WithStringItems(), mcp.Description("Plant names to exclude")),
	mcp.WithString("tone", mcp.Enum("neutral", "enthusiastic", "short"), mcp.Description("Analysis tone")),
	mcp.WithNumber("detail", mcp.Min(1), mcp.Max(5), mcp.Description("Analysis detail level 1-5 (default 3)")),
	mcp.WithString("nectar_mode", mcp.Enum("equal", "height", "class", "custom"),
		mcp.Description("How each plant weighs in the nectar profile")),
	mcp.WithString("format", mcp.Enum("json", "csv", "markdown", "html"),
		mcp.Description("Report rendering; json returns the structured report only")),
	mcp.WithString("output_path", mcp.Description("Write the rendered report to this file")),
	mcp.WithString("nectar_path", mcp.Description("Write the monthly nectar profile to this .csv file")),
)

var paletteCatalogToolDef = mcp.NewTool("palette_catalog",
	mcp.WithDescription("List the plant catalog, optionally filtered by class, season or stratum."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("name", mcp.Description("Return only this plant (case-insensitive)")),
	mcp.WithString("class", mcp.Enum("shrub", "perennial"), mcp.Description("Plant class filter")),
	mcp.WithString("season", mcp.Description("Keep plants blooming in this season")),
	mcp.WithString("stratum", mcp.Enum("low", "medium", "high"), mcp.Description("Height stratum filter")),
)

var promptCompactToolDef = mcp.NewTool("prompt_compact",
	mcp.WithDescription("Shrink a prompt with deterministic rules (politeness, fillers, redundancy) "+
		"and report the token estimate before and after."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Prompt to compact")),
	mcp.WithString("model", mcp.Enum(compact.Models()...), mcp.Description("Token profile")),
	mcp.WithNumber("budget_tokens", mcp.Min(0), mcp.Description("Keep cutting until under this estimate; 0 disables")),
	mcp.WithBoolean("aggressive", mcp.Description("Also strip greetings and sign-offs")),
	mcp.WithBoolean("lite_spell_fix", mcp.Description("Fix common typos")),
	mcp.WithBoolean("diff", mcp.Description("Include a word diff of the change")),
	mcp.WithBoolean("add_constraint", mcp.Description("Append an answer-shape constraint")),
	mcp.WithBoolean("structured", mcp.Description("Wrap the result in a role/task frame asking for a JSON answer")),
	mcp.WithArray("fields", mcp.WithStringItems(),
		mcp.Description("JSON keys for the structured frame (default: objective, constraints, output_format)")),
)

var promptEstimateToolDef = mcp.NewTool("prompt_estimate",
	mcp.WithDescription("Estimate tokens and cost for a prompt and optional context."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("prompt", mcp.Required(), mcp.Description("Prompt text")),
	mcp.WithString("context", mcp.Description("Context text")),
	mcp.WithString("model", mcp.Enum(compact.Models()...), mcp.Description("Token profile")),
)

var promptTemplateToolDef = mcp.NewTool("prompt_template",
	mcp.WithDescription("Render a built-in prompt template (summary, qa, translation, explain, simplify)."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
	mcp.WithObject("vars",
		mcp.AdditionalProperties(map[string]any{"type": "string"}),
		mcp.Description("Placeholder values")),
)

var llmGenerateToolDef = mcp.NewTool("llm_generate",
	mcp.WithDescription("Send one prompt to a text-generation provider and record the run."),
	mcp.WithString("provider", mcp.Enum("mock", "ollama", "openai", "anthropic"), mcp.DefaultString("mock"),
		mcp.Description("Provider to call")),
	mcp.WithString("model", mcp.Description("Model override for the provider")),
	mcp.WithString("prompt", mcp.Description("Prompt text (required unless template is set)")),
	mcp.WithString("context", mcp.Description("Background context")),
	mcp.WithString("system", mcp.Description("System prompt")),
	mcp.WithString("template", mcp.Description("Built-in template rendered with vars")),
	mcp.WithObject("vars",
		mcp.AdditionalProperties(map[string]any{"type": "string"}),
		mcp.Description("Template placeholder values")),
	mcp.WithNumber("max_tokens", mcp.Min(1), mcp.Description("Completion limit (default 256)")),
	mcp.WithNumber("temperature", mcp.Min(0), mcp.Max(2), mcp.Description("Sampling temperature (default 0.2)")),
	mcp.WithBoolean("compact", mcp.Description("Compact the prompt before sending")),
	mcp.WithBoolean("add_constraint", mcp.Description("Append an answer-shape constraint (default from config)")),
	mcp.WithNumber("max_chars", mcp.Min(0), mcp.Description("Clip the answer to this many characters")),
)

var llmBridgeToolDef = mcp.NewTool("llm_bridge",
	mcp.WithDescription("Chain the two hosted providers: one drafts, the other edits."),
	mcp.WithString("prompt", mcp.Required(), mcp.Description("Prompt text")),
	mcp.WithString("mode", mcp.Enum("claude_then_gpt", "gpt_then_claude", "solo_gpt", "solo_claude"),
		mcp.DefaultString("claude_then_gpt"), mcp.Description("Chain order")),
	mcp.WithString("system_first", mcp.Description("System prompt for the first step")),
	mcp.WithString("system_second", mcp.Description("System prompt for the second step")),
	mcp.WithNumber("max_tokens", mcp.Min(1), mcp.Description("Completion limit per step")),
	mcp.WithNumber("temperature", mcp.Min(0), mcp.Max(2), mcp.Description("Sampling temperature")),
)

var llmOptimizeToolDef = mcp.NewTool("llm_optimize",
	mcp.WithDescription("Ask a provider to rewrite a prompt shorter and report the word gain."),
	mcp.WithString("prompt", mcp.Required(), mcp.Description("Prompt to rewrite")),
	mcp.WithString("provider", mcp.Enum("mock", "ollama", "openai", "anthropic"), mcp.Description("Provider to call")),
	mcp.WithString("model", mcp.Description("Model override for the provider")),
	mcp.WithNumber("target_tokens", mcp.Min(1), mcp.Description("Desired length of the rewrite")),
	mcp.WithNumber("max_words", mcp.Min(1), mcp.Description("Word limit suggested in the rewrite")),
)

var formatConvertToolDef = mcp.NewTool("format_convert",
	mcp.WithDescription("Convert a JSON document to YAML or back. Give src to convert a file, "+
		"or data to convert inline text."),
	mcp.WithString("src", mcp.Description("Source file (.json, .yaml, .yml)")),
	mcp.WithString("dst", mcp.Description("Destination file (default: src with the new extension)")),
	mcp.WithString("data", mcp.Description("Inline document (instead of src)")),
	mcp.WithString("from", mcp.Enum("json", "yaml"), mcp.Description("Format of data")),
	mcp.WithString("to", mcp.Enum("json", "yaml"), mcp.Description("Target format (default: the other one)")),
)

var formatValidateToolDef = mcp.NewTool("format_validate",
	mcp.WithDescription("Validate a JSON or YAML document against a JSON Schema. "+
		"Defaults to the plant catalog schema."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("path", mcp.Description("Document file")),
	mcp.WithString("data", mcp.Description("Inline document (instead of path)")),
	mcp.WithString("format", mcp.Enum("json", "yaml"), mcp.Description("Format of data (sniffed when omitted)")),
	mcp.WithString("schema_path", mcp.Description("Schema file")),
	mcp.WithObject("schema", mcp.Description("Inline schema")),
)

var eventsListToolDef = mcp.NewTool("events_list",
	mcp.WithDescription("List the most recent recorded events, oldest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit", mcp.Min(1), mcp.Max(1000), mcp.Description("Max events (default 20)")),
	mcp.WithString("kind", mcp.Enum("generate", "bridge", "optimize", "compact", "palette", "feedback"),
		mcp.Description("Event kind filter")),
)

var eventsStatsToolDef = mcp.NewTool("events_stats",
	mcp.WithDescription("Compute run counts, feedback, token averages and runs over time from the event log."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("bucket", mcp.Enum("day", "hour"), mcp.DefaultString("day"), mcp.Description("Time bucket")),
)

var eventsRateToolDef = mcp.NewTool("events_rate",
	mcp.WithDescription("Rate an earlier run. The rating is appended as a feedback event."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Event ID of the run")),
	mcp.WithNumber("rating", mcp.Required(), mcp.Min(-1), mcp.Max(1), mcp.Description("-1, 0 or 1")),
)
