package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/botan/internal/config"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
	"github.com/hpungsan/botan/internal/ops"
)

// testSetup creates an Env with a JSONL event log in a temp dir.
func testSetup(t *testing.T) *ops.Env {
	t.Helper()

	sink, err := eventlog.NewJSONLSink(filepath.Join(t.TempDir(), "events.jsonl"), nil)
	if err != nil {
		t.Fatalf("failed to open sink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })

	return &ops.Env{Config: config.DefaultConfig(), Sink: sink}
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

type handlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

type handlerCase struct {
	name      string
	args      map[string]any
	wantError bool
	errorCode string
}

func runHandlerCases(t *testing.T, handler handlerFunc, tests []handlerCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandlePaletteSelect(t *testing.T) {
	h := NewHandlers(testSetup(t))

	runHandlerCases(t, h.HandlePaletteSelect, []handlerCase{
		{name: "defaults", args: map[string]any{}},
		{
			name: "balanced with quotas",
			args: map[string]any{
				"strategy":      "balanced",
				"quotas":        map[string]any{"low": 1, "medium": 2, "high": 1},
				"max_plants":    4,
				"height_min_cm": 1,
				"height_max_cm": 1000,
			},
		},
		{name: "french season", args: map[string]any{"seasons": []any{"hiver", "été"}}},
		{name: "zero max plants", args: map[string]any{"max_plants": 0}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "unknown season", args: map[string]any{"seasons": []any{"monsoon"}}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "unknown argument", args: map[string]any{"colour": "blue"}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "wrong type", args: map[string]any{"seasons": "winter"}, wantError: true, errorCode: "INVALID_REQUEST"},
	})
}

func TestHandlePaletteSelect_Output(t *testing.T) {
	env := testSetup(t)
	h := NewHandlers(env)

	result, err := h.HandlePaletteSelect(context.Background(), makeRequest(map[string]any{
		"seasons":    []any{"winter"},
		"max_plants": 2,
		"format":     "csv",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	report := output["report"].(map[string]any)
	rows := report["rows"].([]any)
	if len(rows) == 0 || len(rows) > 2 {
		t.Errorf("rows = %d, want 1..2", len(rows))
	}
	covered := report["covered"].([]any)
	hasWinter := false
	for _, s := range covered {
		hasWinter = hasWinter || s == "winter"
	}
	if !hasWinter {
		t.Errorf("covered = %v, want it to include winter", covered)
	}
	if uncovered := report["uncovered"].([]any); len(uncovered) != 0 {
		t.Errorf("uncovered = %v, want []", uncovered)
	}
	if rendered, _ := output["rendered"].(string); !strings.Contains(rendered, ",") {
		t.Errorf("expected csv rendering, got %q", rendered)
	}
	if id, _ := output["event_id"].(string); id == "" {
		t.Error("expected an event id")
	}
}

func TestHandlePaletteSelect_WritesFile(t *testing.T) {
	h := NewHandlers(testSetup(t))
	path := filepath.Join(t.TempDir(), "palette.md")

	result, _ := h.HandlePaletteSelect(context.Background(), makeRequest(map[string]any{"output_path": path}))
	output := parseOutput(t, result)
	if output["format"] != "markdown" {
		t.Errorf("format = %v, want markdown", output["format"])
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestHandlePaletteCatalog(t *testing.T) {
	h := NewHandlers(testSetup(t))

	runHandlerCases(t, h.HandlePaletteCatalog, []handlerCase{
		{name: "all", args: map[string]any{}},
		{name: "perennials in winter", args: map[string]any{"class": "perennial", "season": "winter"}},
		{name: "bad class", args: map[string]any{"class": "tree"}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "by name", args: map[string]any{"name": "sarcococca confusa"}},
		{name: "unknown name", args: map[string]any{"name": "Monstera"}, wantError: true, errorCode: "NOT_FOUND"},
	})

	result, _ := h.HandlePaletteCatalog(context.Background(), makeRequest(nil))
	output := parseOutput(t, result)
	if output["source"] != "builtin" {
		t.Errorf("source = %v, want builtin", output["source"])
	}
	if n := output["count"].(float64); n == 0 {
		t.Error("expected a non-empty catalog")
	}
}

func TestHandlePromptCompact(t *testing.T) {
	h := NewHandlers(testSetup(t))

	runHandlerCases(t, h.HandlePromptCompact, []handlerCase{
		{name: "compact", args: map[string]any{"text": "Hello, could you please explain photosynthesis? Thanks!"}},
		{name: "with budget and diff", args: map[string]any{"text": "please explain bees in detail", "budget_tokens": 3, "diff": true}},
		{name: "structured", args: map[string]any{"text": "explain bees", "structured": true, "fields": []any{"answer"}}},
		{name: "empty text", args: map[string]any{"text": "  "}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "missing text", args: map[string]any{}, wantError: true, errorCode: "INVALID_REQUEST"},
	})

	result, _ := h.HandlePromptCompact(context.Background(), makeRequest(map[string]any{
		"text":           "Hello! Could you please make a summary of this text? Thanks",
		"lite_spell_fix": false,
	}))
	output := parseOutput(t, result)
	if output["text"] != "summarize this text?" {
		t.Errorf("text = %q, want %q", output["text"], "summarize this text?")
	}
}

func TestHandlePromptEstimate(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, _ := h.HandlePromptEstimate(context.Background(), makeRequest(map[string]any{
		"prompt":  "abcdefgh",
		"context": "abcd",
		"model":   "llama3",
	}))
	output := parseOutput(t, result)
	tokens := output["tokens"].(map[string]any)
	if tokens["total"] != float64(3) {
		t.Errorf("total tokens = %v, want 3", tokens["total"])
	}
}

func TestHandlePromptTemplate(t *testing.T) {
	h := NewHandlers(testSetup(t))

	runHandlerCases(t, h.HandlePromptTemplate, []handlerCase{
		{name: "explain", args: map[string]any{"name": "explain", "vars": map[string]any{"topic": "pollination"}}},
		{name: "missing vars", args: map[string]any{"name": "explain"}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "unknown template", args: map[string]any{"name": "haiku"}, wantError: true, errorCode: "NOT_FOUND"},
	})
}

func TestHandleLLMGenerate(t *testing.T) {
	h := NewHandlers(testSetup(t))

	runHandlerCases(t, h.HandleLLMGenerate, []handlerCase{
		{name: "mock", args: map[string]any{"prompt": "Why do bees dance?"}},
		{name: "mock template", args: map[string]any{"template": "summary", "vars": map[string]any{"n_sentences": "1", "context": "Bees. Honey."}}},
		{name: "empty prompt", args: map[string]any{}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "unknown provider", args: map[string]any{"prompt": "x", "provider": "bard"}, wantError: true, errorCode: "INVALID_REQUEST"},
	})
}

func TestHandleLLMGenerate_Output(t *testing.T) {
	env := testSetup(t)
	h := NewHandlers(env)

	result, _ := h.HandleLLMGenerate(context.Background(), makeRequest(map[string]any{
		"prompt":         "Why do bees dance?",
		"add_constraint": false,
	}))
	output := parseOutput(t, result)
	if output["provider"] != "mock" {
		t.Errorf("provider = %v, want mock", output["provider"])
	}
	if text := output["text"].(string); !strings.Contains(text, "Keywords: bees, dance, do, why") {
		t.Errorf("unexpected mock text %q", text)
	}

	events, err := env.Sink.Read(context.Background(), 0)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(events) != 1 || events[0].Kind != eventlog.KindGenerate {
		t.Errorf("events = %v, want one generate event", events)
	}
}

func TestHandleLLMGenerate_CancelledContext(t *testing.T) {
	h := NewHandlers(testSetup(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := h.HandleLLMGenerate(ctx, makeRequest(map[string]any{"prompt": "x"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "CANCELLED")
}

func TestHandleLLMBridge_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	h := NewHandlers(testSetup(t))

	runHandlerCases(t, h.HandleLLMBridge, []handlerCase{
		{name: "missing key", args: map[string]any{"prompt": "x"}, wantError: true, errorCode: "PROVIDER_FAILED"},
		{name: "bad mode", args: map[string]any{"prompt": "x", "mode": "relay"}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "missing prompt", args: map[string]any{}, wantError: true, errorCode: "INVALID_REQUEST"},
	})
}

func TestHandleLLMOptimize(t *testing.T) {
	h := NewHandlers(testSetup(t))

	runHandlerCases(t, h.HandleLLMOptimize, []handlerCase{
		{name: "mock", args: map[string]any{"prompt": "Could you please kindly explain how bees make honey"}},
		{name: "missing prompt", args: map[string]any{}, wantError: true, errorCode: "INVALID_REQUEST"},
	})
}

func TestHandleFormatConvert(t *testing.T) {
	h := NewHandlers(testSetup(t))
	src := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(src, []byte(`{"a": 1}`), 0600); err != nil {
		t.Fatalf("write src: %v", err)
	}

	runHandlerCases(t, h.HandleFormatConvert, []handlerCase{
		{name: "file", args: map[string]any{"src": src}},
		{name: "inline", args: map[string]any{"data": "a: 1\n", "from": "yaml"}},
		{name: "both", args: map[string]any{"src": src, "data": "{}"}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "neither", args: map[string]any{}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "missing file", args: map[string]any{"src": filepath.Join(t.TempDir(), "nope.yaml")}, wantError: true, errorCode: "FILE_NOT_FOUND"},
		{name: "bad yaml", args: map[string]any{"data": "a: [", "from": "yaml"}, wantError: true, errorCode: "PARSE_ERROR"},
	})

	if _, err := os.Stat(strings.TrimSuffix(src, ".json") + ".yaml"); err != nil {
		t.Errorf("converted file missing: %v", err)
	}
}

func TestHandleFormatValidate(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, _ := h.HandleFormatValidate(context.Background(), makeRequest(map[string]any{
		"data":   `{"plants": [{"name": ""}]}`,
		"format": "json",
	}))
	output := parseOutput(t, result)
	if output["valid"] != false {
		t.Errorf("valid = %v, want false", output["valid"])
	}
	if v := output["violations"].([]any); len(v) == 0 {
		t.Error("expected violations")
	}

	result, _ = h.HandleFormatValidate(context.Background(), makeRequest(map[string]any{
		"data":   "3",
		"schema": map[string]any{"type": "integer"},
	}))
	output = parseOutput(t, result)
	if output["valid"] != true {
		t.Errorf("valid = %v, want true", output["valid"])
	}
}

func TestHandleEvents(t *testing.T) {
	env := testSetup(t)
	h := NewHandlers(env)
	ctx := context.Background()

	result, _ := h.HandlePromptCompact(ctx, makeRequest(map[string]any{"text": "please explain bees"}))
	id := parseOutput(t, result)["event_id"].(string)

	result, _ = h.HandleEventsList(ctx, makeRequest(map[string]any{"kind": "compact"}))
	if n := parseOutput(t, result)["count"].(float64); n != 1 {
		t.Errorf("count = %v, want 1", n)
	}

	result, _ = h.HandleEventsRate(ctx, makeRequest(map[string]any{"id": id, "rating": 1}))
	if fb := parseOutput(t, result); fb["target"] != id {
		t.Errorf("target = %v, want %s", fb["target"], id)
	}

	result, _ = h.HandleEventsStats(ctx, makeRequest(nil))
	kpis := parseOutput(t, result)["kpis"].(map[string]any)
	if fb := kpis["feedback"].(map[string]any); fb["positive"] != float64(1) {
		t.Errorf("positive feedback = %v, want 1", fb["positive"])
	}

	runHandlerCases(t, h.HandleEventsRate, []handlerCase{
		{name: "missing rating", args: map[string]any{"id": id}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "rating out of range", args: map[string]any{"id": id, "rating": 5}, wantError: true, errorCode: "INVALID_REQUEST"},
		{name: "unknown id", args: map[string]any{"id": "nope", "rating": 1}, wantError: true, errorCode: "NOT_FOUND"},
	})
	runHandlerCases(t, h.HandleEventsStats, []handlerCase{
		{name: "bad bucket", args: map[string]any{"bucket": "week"}, wantError: true, errorCode: "INVALID_REQUEST"},
	})
}

func TestHandleEvents_NoSink(t *testing.T) {
	h := NewHandlers(&ops.Env{Config: config.DefaultConfig()})

	runHandlerCases(t, h.HandleEventsList, []handlerCase{
		{name: "list", args: map[string]any{}, wantError: true, errorCode: "INVALID_REQUEST"},
	})

	// Operations still succeed without a sink; they just record nothing.
	result, _ := h.HandlePromptCompact(context.Background(), makeRequest(map[string]any{"text": "hi"}))
	if id, ok := parseOutput(t, result)["event_id"]; ok {
		t.Errorf("event_id = %v, want none", id)
	}
}

func TestServerRegistration(t *testing.T) {
	s := NewServer(testSetup(t), "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"palette_select",
		"palette_catalog",
		"prompt_compact",
		"prompt_estimate",
		"prompt_template",
		"llm_generate",
		"llm_bridge",
		"llm_optimize",
		"format_convert",
		"format_validate",
		"events_list",
		"events_stats",
		"events_rate",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	env := testSetup(t)
	env.Config.DisabledTools = []string{"llm_bridge", "events_rate", "format_convert"}
	tools := NewServer(env, "test").ListTools()

	if len(tools) != 10 {
		t.Errorf("registered tool count = %d, want 10", len(tools))
	}
	for _, name := range env.Config.DisabledTools {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	for _, name := range []string{"palette_select", "prompt_compact", "llm_generate"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("core tool %q should be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	env := testSetup(t)
	env.Config.DisabledTypes = []string{"llm"}
	env.Config.DisabledTools = []string{"events_rate"}
	tools := NewServer(env, "test").ListTools()

	// 13 - 3 llm tools - events_rate
	if len(tools) != 9 {
		t.Errorf("registered tool count = %d, want 9", len(tools))
	}
	for name := range tools {
		if GetTypeForTool(name) == "llm" {
			t.Errorf("tool %q of a disabled type should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	env := testSetup(t)
	env.Config.DisabledTools = AllToolNames()
	tools := NewServer(env, "test").ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestServerRegistration_NilEnv(t *testing.T) {
	tools := NewServer(nil, "test").ListTools()
	if len(tools) != len(toolRegistry) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"llm_bridge", "events_rate"}, wantLen: 0},
		{name: "one unknown", input: []string{"llm_bridge", "capsule_store"}, wantLen: 1},
		{name: "all unknown", input: []string{"foo", "bar", "baz"}, wantLen: 3},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes(KnownTypes); len(unknown) != 0 {
		t.Errorf("known types reported unknown: %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"palette", "capsule"}); len(unknown) != 1 || unknown[0] != "capsule" {
		t.Errorf("unknown = %v, want [capsule]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 13 {
		t.Errorf("AllToolNames() returned %d names, want 13", len(names))
	}

	unknown := ValidateDisabledTools(names)
	if len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}

	// Every tool belongs to a known type.
	for _, name := range names {
		if unknown := ValidateDisabledTypes([]string{GetTypeForTool(name)}); len(unknown) != 0 {
			t.Errorf("tool %q has unknown type %q", name, GetTypeForTool(name))
		}
	}
}

func TestToolDefinitionsMatchRegistry(t *testing.T) {
	for name, entry := range toolRegistry {
		if entry.def.Name != name {
			t.Errorf("registry key %q holds tool %q", name, entry.def.Name)
		}
		if entry.def.Description == "" {
			t.Errorf("tool %q has no description", name)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("open /home/user/.botan/botan.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrappedErr := fmt.Errorf("plants[2]: %w", errors.NewInvalidRequest("height range is inverted"))

	errObj := errorObject(t, errorResult(wrappedErr))
	if errObj["code"] != string(errors.ErrInvalidRequest) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrInvalidRequest)
	}
	msg := errObj["message"].(string)
	if msg != "plants[2]: height range is inverted" {
		t.Errorf("message = %q, want wrapper context kept", msg)
	}
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != "INTERNAL" || errObj["message"] != "an internal error occurred" {
		t.Errorf("unexpected payload %v", errObj)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound("event", "abc")))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
