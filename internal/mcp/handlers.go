package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/botan/internal/config"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/logging"
	"github.com/hpungsan/botan/internal/ops"
	"github.com/hpungsan/botan/internal/palette"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	if env == nil {
		env = &ops.Env{}
	}
	return &Handlers{env: env}
}

func (h *Handlers) cfg() *config.Config {
	if h.env.Config == nil {
		return config.DefaultConfig()
	}
	return h.env.Config
}

func (h *Handlers) logger() *zap.Logger {
	return logging.OrNop(h.env.Logger)
}

// Request types for each tool

// PaletteSelectRequest represents the arguments for palette_select.
type PaletteSelectRequest struct {
	Seasons             []string        `json:"seasons,omitempty"`
	Exposures           []string        `json:"exposures,omitempty"`
	HeightMinCm         *int            `json:"height_min_cm,omitempty"`
	HeightMaxCm         *int            `json:"height_max_cm,omitempty"`
	MaxPlants           *int            `json:"max_plants,omitempty"`
	Strategy            string          `json:"strategy,omitempty"`
	Quotas              *palette.Quotas `json:"quotas,omitempty"`
	Strata              []string        `json:"strata,omitempty"`
	Class               string          `json:"class,omitempty"`
	LowMaintenanceOnly  bool            `json:"low_maintenance_only,omitempty"`
	RequireDrainingSoil bool            `json:"require_draining_soil,omitempty"`
	DroughtTolerantOnly bool            `json:"drought_tolerant_only,omitempty"`
	AvoidSpreadingRoots bool            `json:"avoid_spreading_roots,omitempty"`
	AvoidInvasive       *bool           `json:"avoid_invasive,omitempty"`
	Exclude             []string        `json:"exclude,omitempty"`
	Tone                string          `json:"tone,omitempty"`
	Detail              int             `json:"detail,omitempty"`
	NectarMode          string          `json:"nectar_mode,omitempty"`
	Format              string          `json:"format,omitempty"`
	OutputPath          string          `json:"output_path,omitempty"`
	NectarPath          string          `json:"nectar_path,omitempty"`
}

// PaletteCatalogRequest represents the arguments for palette_catalog.
type PaletteCatalogRequest struct {
	Name    string `json:"name,omitempty"`
	Class   string `json:"class,omitempty"`
	Season  string `json:"season,omitempty"`
	Stratum string `json:"stratum,omitempty"`
}

// PromptCompactRequest represents the arguments for prompt_compact.
type PromptCompactRequest struct {
	Text          string   `json:"text"`
	Model         string   `json:"model,omitempty"`
	BudgetTokens  *int     `json:"budget_tokens,omitempty"`
	Aggressive    *bool    `json:"aggressive,omitempty"`
	LiteSpellFix  *bool    `json:"lite_spell_fix,omitempty"`
	Diff          bool     `json:"diff,omitempty"`
	AddConstraint bool     `json:"add_constraint,omitempty"`
	Structured    bool     `json:"structured,omitempty"`
	Fields        []string `json:"fields,omitempty"`
}

// PromptEstimateRequest represents the arguments for prompt_estimate.
type PromptEstimateRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
	Model   string `json:"model,omitempty"`
}

// PromptTemplateRequest represents the arguments for prompt_template.
type PromptTemplateRequest struct {
	Name string            `json:"name"`
	Vars map[string]string `json:"vars,omitempty"`
}

// LLMGenerateRequest represents the arguments for llm_generate.
type LLMGenerateRequest struct {
	Provider      string            `json:"provider,omitempty"`
	Model         string            `json:"model,omitempty"`
	Prompt        string            `json:"prompt,omitempty"`
	Context       string            `json:"context,omitempty"`
	System        string            `json:"system,omitempty"`
	Template      string            `json:"template,omitempty"`
	Vars          map[string]string `json:"vars,omitempty"`
	MaxTokens     int               `json:"max_tokens,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	Compact       bool              `json:"compact,omitempty"`
	AddConstraint *bool             `json:"add_constraint,omitempty"`
	MaxChars      int               `json:"max_chars,omitempty"`
}

// LLMBridgeRequest represents the arguments for llm_bridge.
type LLMBridgeRequest struct {
	Prompt       string   `json:"prompt"`
	Mode         string   `json:"mode,omitempty"`
	SystemFirst  string   `json:"system_first,omitempty"`
	SystemSecond string   `json:"system_second,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

// LLMOptimizeRequest represents the arguments for llm_optimize.
type LLMOptimizeRequest struct {
	Prompt       string `json:"prompt"`
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	TargetTokens int    `json:"target_tokens,omitempty"`
	MaxWords     int    `json:"max_words,omitempty"`
}

// FormatConvertRequest represents the arguments for format_convert.
type FormatConvertRequest struct {
	Src  string `json:"src,omitempty"`
	Dst  string `json:"dst,omitempty"`
	Data string `json:"data,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// FormatValidateRequest represents the arguments for format_validate.
type FormatValidateRequest struct {
	Path       string         `json:"path,omitempty"`
	Data       string         `json:"data,omitempty"`
	Format     string         `json:"format,omitempty"`
	SchemaPath string         `json:"schema_path,omitempty"`
	Schema     map[string]any `json:"schema,omitempty"`
}

// EventsListRequest represents the arguments for events_list.
type EventsListRequest struct {
	Limit int    `json:"limit,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// EventsStatsRequest represents the arguments for events_stats.
type EventsStatsRequest struct {
	Bucket string `json:"bucket,omitempty"`
}

// EventsRateRequest represents the arguments for events_rate.
type EventsRateRequest struct {
	ID     string `json:"id"`
	Rating *int   `json:"rating"`
}

// Handler implementations

// HandlePaletteSelect handles the palette_select tool call.
func (h *Handlers) HandlePaletteSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PaletteSelectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PaletteSelect(ctx, h.env, ops.PaletteInput{
		Seasons:             input.Seasons,
		Exposures:           input.Exposures,
		HeightMinCm:         input.HeightMinCm,
		HeightMaxCm:         input.HeightMaxCm,
		MaxPlants:           input.MaxPlants,
		Strategy:            input.Strategy,
		Quotas:              input.Quotas,
		Strata:              input.Strata,
		Class:               input.Class,
		LowMaintenanceOnly:  input.LowMaintenanceOnly,
		RequireDrainingSoil: input.RequireDrainingSoil,
		DroughtTolerantOnly: input.DroughtTolerantOnly,
		AvoidSpreadingRoots: input.AvoidSpreadingRoots,
		AvoidInvasive:       input.AvoidInvasive,
		Exclude:             input.Exclude,
		Tone:                input.Tone,
		Detail:              input.Detail,
		NectarMode:          input.NectarMode,
		Format:              input.Format,
		OutputPath:          input.OutputPath,
		NectarPath:          input.NectarPath,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePaletteCatalog handles the palette_catalog tool call.
func (h *Handlers) HandlePaletteCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PaletteCatalogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CatalogList(h.env, ops.CatalogListInput{
		Name:    input.Name,
		Class:   input.Class,
		Season:  input.Season,
		Stratum: input.Stratum,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePromptCompact handles the prompt_compact tool call.
func (h *Handlers) HandlePromptCompact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptCompactRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Text) == "" {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}

	result, err := ops.Compact(ctx, h.env, ops.CompactInput{
		Text:             input.Text,
		Model:            input.Model,
		BudgetTokens:     input.BudgetTokens,
		Aggressive:       input.Aggressive,
		LiteSpellFix:     input.LiteSpellFix,
		Diff:             input.Diff,
		AddConstraint:    input.AddConstraint,
		Structured:       input.Structured,
		StructuredFields: input.Fields,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePromptEstimate handles the prompt_estimate tool call.
func (h *Handlers) HandlePromptEstimate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptEstimateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Estimate(h.env, ops.EstimateInput{
		Prompt:  input.Prompt,
		Context: input.Context,
		Model:   input.Model,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePromptTemplate handles the prompt_template tool call.
func (h *Handlers) HandlePromptTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptTemplateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RenderTemplate(ops.TemplateInput{Name: input.Name, Vars: input.Vars})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLLMGenerate handles the llm_generate tool call.
func (h *Handlers) HandleLLMGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LLMGenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Generate(ctx, h.env, ops.GenerateInput{
		Provider:      input.Provider,
		Model:         input.Model,
		Prompt:        input.Prompt,
		Context:       input.Context,
		System:        input.System,
		Template:      input.Template,
		Vars:          input.Vars,
		MaxTokens:     input.MaxTokens,
		Temperature:   input.Temperature,
		Compact:       input.Compact,
		AddConstraint: input.AddConstraint,
		MaxChars:      input.MaxChars,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLLMBridge handles the llm_bridge tool call.
func (h *Handlers) HandleLLMBridge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LLMBridgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Bridge(ctx, h.env, ops.BridgeInput{
		Prompt:       input.Prompt,
		Mode:         input.Mode,
		SystemFirst:  input.SystemFirst,
		SystemSecond: input.SystemSecond,
		MaxTokens:    input.MaxTokens,
		Temperature:  input.Temperature,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLLMOptimize handles the llm_optimize tool call.
func (h *Handlers) HandleLLMOptimize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LLMOptimizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Optimize(ctx, h.env, ops.OptimizeInput{
		Prompt:       input.Prompt,
		Provider:     input.Provider,
		Model:        input.Model,
		TargetTokens: input.TargetTokens,
		MaxWords:     input.MaxWords,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFormatConvert handles the format_convert tool call.
func (h *Handlers) HandleFormatConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FormatConvertRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var result any
	switch {
	case input.Src != "" && input.Data != "":
		return errorResult(errors.NewInvalidRequest("give either src or data, not both")), nil
	case input.Src != "":
		result, err = ops.ConvertFile(ops.ConvertInput{Src: input.Src, Dst: input.Dst, To: input.To})
	case input.Data != "":
		result, err = ops.ConvertText(ops.ConvertTextInput{Data: input.Data, From: input.From, To: input.To})
	default:
		return errorResult(errors.NewInvalidRequest("src or data is required")), nil
	}
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFormatValidate handles the format_validate tool call.
func (h *Handlers) HandleFormatValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FormatValidateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ValidateDocument(ops.ValidateInput{
		Path:       input.Path,
		Data:       input.Data,
		Format:     input.Format,
		SchemaPath: input.SchemaPath,
		Schema:     input.Schema,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEventsList handles the events_list tool call.
func (h *Handlers) HandleEventsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.EventsList(ctx, h.env, ops.EventsListInput{Limit: input.Limit, Kind: input.Kind})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEventsStats handles the events_stats tool call.
func (h *Handlers) HandleEventsStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsStatsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.EventsStats(ctx, h.env, ops.EventsStatsInput{Bucket: input.Bucket})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEventsRate handles the events_rate tool call.
func (h *Handlers) HandleEventsRate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsRateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Rating == nil {
		return errorResult(errors.NewInvalidRequest("rating is required")), nil
	}

	result, err := ops.EventsRate(ctx, h.env, ops.EventsRateInput{ID: input.ID, Rating: *input.Rating})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var bErr *errors.BotanError
	if stderrors.As(err, &bErr) {
		// Keep wrapper context such as "items[2]: " in front of the message.
		message := bErr.Message
		if prefix := strings.TrimSuffix(err.Error(), bErr.Error()); prefix != err.Error() {
			message = prefix + message
		}
		errorObj := map[string]any{
			"code":    bErr.Code,
			"message": message,
			"status":  bErr.Status,
		}
		if bErr.Code != errors.ErrInternal && bErr.Details != nil {
			errorObj["details"] = bErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
