package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/llm"
	"github.com/hpungsan/botan/internal/logging"
	"github.com/hpungsan/botan/internal/ops"
	"github.com/hpungsan/botan/internal/palette"
	"github.com/hpungsan/botan/internal/report"
)

// newCLIApp creates the CLI application with all commands.
// env may be nil for --help/--version; baseDir is where exports land.
func newCLIApp(env *ops.Env, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "botan",
		Usage:   "Bloom-coverage plant palettes and prompt compaction",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Debug logging on stderr"},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool("verbose") || env == nil {
				return nil
			}
			logger, err := logging.New(true)
			if err != nil {
				return err
			}
			env.Logger = logger
			return nil
		},
		Commands: []*cli.Command{
			paletteCmd(env, baseDir),
			catalogCmd(env),
			compactCmd(env),
			estimateCmd(env),
			templateCmd(),
			generateCmd(env),
			bridgeCmd(env),
			optimizeCmd(env),
			convertCmd(),
			validateCmd(),
			eventsCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// paletteCmd creates the palette command.
func paletteCmd(env *ops.Env, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "palette",
		Usage: "Select a plant palette covering the requested bloom seasons",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "season", Aliases: []string{"s"}, Usage: "Target seasons (default: all four)"},
			&cli.StringSliceFlag{Name: "exposure", Aliases: []string{"e"}, Usage: "Accepted exposures: sun, partial_shade, shade"},
			&cli.IntFlag{Name: "height-min", Usage: "Minimum mature height in cm"},
			&cli.IntFlag{Name: "height-max", Usage: "Maximum mature height in cm"},
			&cli.IntFlag{Name: "max", Aliases: []string{"n"}, Usage: "Palette size limit"},
			&cli.StringFlag{Name: "strategy", Value: "greedy", Usage: "Selection strategy: greedy|balanced"},
			&cli.IntFlag{Name: "quota-low", Usage: "Balanced quota for low plants"},
			&cli.IntFlag{Name: "quota-medium", Usage: "Balanced quota for medium plants"},
			&cli.IntFlag{Name: "quota-high", Usage: "Balanced quota for high plants"},
			&cli.StringSliceFlag{Name: "strata", Usage: "Strata to split --max over when balanced without quotas"},
			&cli.StringFlag{Name: "class", Usage: "Restrict to shrub or perennial"},
			&cli.BoolFlag{Name: "low-maintenance", Usage: "Keep only low-maintenance plants"},
			&cli.BoolFlag{Name: "draining-soil", Usage: "Keep only plants tolerating draining soil"},
			&cli.BoolFlag{Name: "drought-tolerant", Usage: "Keep only drought-tolerant plants"},
			&cli.BoolFlag{Name: "avoid-spreading-roots", Usage: "Drop suckering or spreading root systems"},
			&cli.BoolFlag{Name: "allow-invasive", Usage: "Keep plants matching the invasive markers"},
			&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Plant names to exclude"},
			&cli.StringFlag{Name: "tone", Usage: "Analysis tone: neutral|enthusiastic|short"},
			&cli.IntFlag{Name: "detail", Usage: "Analysis detail level 1-5"},
			&cli.StringFlag{Name: "nectar-mode", Usage: "Nectar weighting: equal|height|class|custom"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output: json|csv|markdown|html"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the report to this file"},
			&cli.BoolFlag{Name: "export", Usage: "Write the report under ~/.botan/exports"},
			&cli.StringFlag{Name: "nectar-out", Usage: "Write the monthly nectar profile to this .csv file"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PaletteInput{
				Seasons:             c.StringSlice("season"),
				Exposures:           c.StringSlice("exposure"),
				Strategy:            c.String("strategy"),
				Strata:              c.StringSlice("strata"),
				Class:               c.String("class"),
				LowMaintenanceOnly:  c.Bool("low-maintenance"),
				RequireDrainingSoil: c.Bool("draining-soil"),
				DroughtTolerantOnly: c.Bool("drought-tolerant"),
				AvoidSpreadingRoots: c.Bool("avoid-spreading-roots"),
				Exclude:             c.StringSlice("exclude"),
				Tone:                c.String("tone"),
				Detail:              c.Int("detail"),
				NectarMode:          c.String("nectar-mode"),
				Format:              c.String("format"),
				OutputPath:          c.String("output"),
				NectarPath:          c.String("nectar-out"),
			}
			if c.IsSet("height-min") {
				v := c.Int("height-min")
				input.HeightMinCm = &v
			}
			if c.IsSet("height-max") {
				v := c.Int("height-max")
				input.HeightMaxCm = &v
			}
			if c.IsSet("max") {
				v := c.Int("max")
				input.MaxPlants = &v
			}
			if c.IsSet("quota-low") || c.IsSet("quota-medium") || c.IsSet("quota-high") {
				input.Quotas = &palette.Quotas{
					Low:    c.Int("quota-low"),
					Medium: c.Int("quota-medium"),
					High:   c.Int("quota-high"),
				}
			}
			if c.Bool("allow-invasive") {
				avoid := false
				input.AvoidInvasive = &avoid
			}

			if c.Bool("export") && input.OutputPath == "" {
				if baseDir == "" {
					return outputError(errors.NewInvalidRequest("--export needs a home directory; use --output"))
				}
				format, err := report.ParseFormat(input.Format)
				if err != nil {
					return outputError(err)
				}
				label := strings.Join(input.Seasons, "-")
				if label == "" {
					label = "all-seasons"
				}
				input.OutputPath = ops.DefaultReportPath(baseDir, label, format, time.Now())
			}

			output, err := ops.PaletteSelect(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}

			// Rendered formats go to stdout as-is unless written to a file.
			if output.Rendered != "" && output.Path == "" {
				_, err := io.WriteString(os.Stdout, output.Rendered)
				return err
			}
			output.Rendered = ""
			return outputJSON(output)
		},
	}
}

// catalogCmd creates the catalog command and its subcommands.
func catalogCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the plant catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List catalog plants with derived attributes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Show only this plant"},
					&cli.StringFlag{Name: "class", Usage: "Filter by class: shrub|perennial"},
					&cli.StringFlag{Name: "season", Usage: "Keep plants blooming in this season"},
					&cli.StringFlag{Name: "stratum", Usage: "Filter by stratum: low|medium|high"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.CatalogList(env, ops.CatalogListInput{
						Name:    c.String("name"),
						Class:   c.String("class"),
						Season:  c.String("season"),
						Stratum: c.String("stratum"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "schema",
				Usage: "Print the JSON Schema of catalog files",
				Action: func(_ *cli.Context) error {
					schema, err := ops.CatalogSchema()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(schema)
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a catalog file against the catalog schema",
				ArgsUsage: "<path>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("catalog path is required"))
					}
					return runValidate(ops.ValidateInput{Path: c.Args().First()})
				},
			},
		},
	}
}

// compactCmd creates the compact command.
func compactCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "compact",
		Usage:     "Compact a prompt (reads text from args or stdin)",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Token profile: mistral|llama3|gpt-4o-mini"},
			&cli.IntFlag{Name: "budget", Aliases: []string{"b"}, Usage: "Token budget; 0 disables"},
			&cli.BoolFlag{Name: "aggressive", Usage: "Also strip greetings and sign-offs"},
			&cli.BoolFlag{Name: "spell-fix", Usage: "Fix common typos"},
			&cli.BoolFlag{Name: "diff", Usage: "Include a word diff"},
			&cli.BoolFlag{Name: "constraint", Usage: "Append an answer-shape constraint"},
			&cli.BoolFlag{Name: "structured", Usage: "Wrap the result in a role/task frame asking for JSON"},
			&cli.StringSliceFlag{Name: "field", Usage: "JSON key for --structured (repeatable)"},
			&cli.BoolFlag{Name: "text-only", Aliases: []string{"q"}, Usage: "Print only the compacted text"},
		},
		Action: func(c *cli.Context) error {
			text, err := promptText(c)
			if err != nil {
				return outputError(err)
			}
			if text == "" {
				return outputError(errors.NewInvalidRequest("text is required (args or stdin)"))
			}

			input := ops.CompactInput{
				Text:             text,
				Model:            c.String("model"),
				Diff:             c.Bool("diff"),
				AddConstraint:    c.Bool("constraint"),
				Structured:       c.Bool("structured"),
				StructuredFields: c.StringSlice("field"),
			}
			if c.IsSet("budget") {
				v := c.Int("budget")
				input.BudgetTokens = &v
			}
			if c.IsSet("aggressive") {
				v := c.Bool("aggressive")
				input.Aggressive = &v
			}
			if c.IsSet("spell-fix") {
				v := c.Bool("spell-fix")
				input.LiteSpellFix = &v
			}

			output, err := ops.Compact(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("text-only") {
				_, err := fmt.Fprintln(os.Stdout, output.Text)
				return err
			}
			return outputJSON(output)
		},
	}
}

// estimateCmd creates the estimate command.
func estimateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "estimate",
		Usage:     "Estimate tokens and cost (reads prompt from args or stdin)",
		ArgsUsage: "[prompt]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "context", Aliases: []string{"c"}, Usage: "Context text"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Token profile: mistral|llama3|gpt-4o-mini"},
		},
		Action: func(c *cli.Context) error {
			prompt, err := promptText(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Estimate(env, ops.EstimateInput{
				Prompt:  prompt,
				Context: c.String("context"),
				Model:   c.String("model"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// templateCmd creates the template command.
func templateCmd() *cli.Command {
	return &cli.Command{
		Name:      "template",
		Usage:     "Render a built-in prompt template",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "var", Usage: "Placeholder value as key=value (repeatable)"},
			&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "List template names"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("list") {
				return outputJSON(map[string]any{"templates": llm.TemplateNames()})
			}
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("template name is required"))
			}
			vars, err := parseVars(c.StringSlice("var"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			output, err := ops.RenderTemplate(ops.TemplateInput{Name: c.Args().First(), Vars: vars})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// generateCmd creates the generate command.
func generateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Send a prompt to a provider (reads prompt from args or stdin)",
		ArgsUsage: "[prompt]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Value: "mock", Usage: "mock|ollama|openai|anthropic"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Model override"},
			&cli.StringFlag{Name: "context", Aliases: []string{"c"}, Usage: "Background context"},
			&cli.StringFlag{Name: "system", Usage: "System prompt"},
			&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Built-in template name"},
			&cli.StringSliceFlag{Name: "var", Usage: "Template value as key=value (repeatable)"},
			&cli.IntFlag{Name: "max-tokens", Usage: "Completion limit"},
			&cli.Float64Flag{Name: "temperature", Usage: "Sampling temperature"},
			&cli.BoolFlag{Name: "compact", Usage: "Compact the prompt before sending"},
			&cli.BoolFlag{Name: "constraint", Usage: "Append an answer-shape constraint (default from config)"},
			&cli.IntFlag{Name: "max-chars", Usage: "Clip the answer to this many characters"},
		},
		Action: func(c *cli.Context) error {
			prompt, err := promptText(c)
			if err != nil {
				return outputError(err)
			}
			vars, err := parseVars(c.StringSlice("var"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			input := ops.GenerateInput{
				Provider:  c.String("provider"),
				Model:     c.String("model"),
				Prompt:    prompt,
				Context:   c.String("context"),
				System:    c.String("system"),
				Template:  c.String("template"),
				Vars:      vars,
				MaxTokens: c.Int("max-tokens"),
				Compact:   c.Bool("compact"),
				MaxChars:  c.Int("max-chars"),
			}
			if c.IsSet("temperature") {
				v := c.Float64("temperature")
				input.Temperature = &v
			}
			if c.IsSet("constraint") {
				v := c.Bool("constraint")
				input.AddConstraint = &v
			}

			output, err := ops.Generate(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// bridgeCmd creates the bridge command.
func bridgeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "bridge",
		Usage:     "Chain the hosted providers: one drafts, the other edits",
		ArgsUsage: "[prompt]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: string(llm.ClaudeThenGPT), Usage: "claude_then_gpt|gpt_then_claude|solo_gpt|solo_claude"},
			&cli.StringFlag{Name: "system-first", Usage: "System prompt for the first step"},
			&cli.StringFlag{Name: "system-second", Usage: "System prompt for the second step"},
			&cli.IntFlag{Name: "max-tokens", Usage: "Completion limit per step"},
			&cli.Float64Flag{Name: "temperature", Usage: "Sampling temperature"},
		},
		Action: func(c *cli.Context) error {
			prompt, err := promptText(c)
			if err != nil {
				return outputError(err)
			}
			input := ops.BridgeInput{
				Prompt:       prompt,
				Mode:         c.String("mode"),
				SystemFirst:  c.String("system-first"),
				SystemSecond: c.String("system-second"),
				MaxTokens:    c.Int("max-tokens"),
			}
			if c.IsSet("temperature") {
				v := c.Float64("temperature")
				input.Temperature = &v
			}

			output, err := ops.Bridge(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// optimizeCmd creates the optimize command.
func optimizeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "optimize",
		Usage:     "Ask a provider to rewrite a prompt shorter",
		ArgsUsage: "[prompt]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "mock|ollama|openai|anthropic"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Model override"},
			&cli.IntFlag{Name: "target-tokens", Usage: "Desired length of the rewrite"},
			&cli.IntFlag{Name: "max-words", Usage: "Word limit suggested in the rewrite"},
			&cli.IntFlag{Name: "max-tokens", Usage: "Completion limit"},
			&cli.Float64Flag{Name: "temperature", Usage: "Sampling temperature"},
		},
		Action: func(c *cli.Context) error {
			prompt, err := promptText(c)
			if err != nil {
				return outputError(err)
			}
			input := ops.OptimizeInput{
				Provider:     c.String("provider"),
				Model:        c.String("model"),
				Prompt:       prompt,
				TargetTokens: c.Int("target-tokens"),
				MaxWords:     c.Int("max-words"),
				MaxTokens:    c.Int("max-tokens"),
			}
			if c.IsSet("temperature") {
				v := c.Float64("temperature")
				input.Temperature = &v
			}

			output, err := ops.Optimize(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// convertCmd creates the convert command.
func convertCmd() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert JSON to YAML or back (file argument, or stdin with --from)",
		ArgsUsage: "[src]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dst", Aliases: []string{"o"}, Usage: "Destination file"},
			&cli.StringFlag{Name: "from", Usage: "Format of stdin: json|yaml"},
			&cli.StringFlag{Name: "to", Usage: "Target format: json|yaml"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				output, err := ops.ConvertFile(ops.ConvertInput{
					Src: c.Args().First(),
					Dst: c.String("dst"),
					To:  c.String("to"),
				})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("a source file or piped input is required"))
			}
			data, err := readStdin(ops.MaxPromptChars)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			output, err := ops.ConvertText(ops.ConvertTextInput{
				Data: data,
				From: c.String("from"),
				To:   c.String("to"),
			})
			if err != nil {
				return outputError(err)
			}
			_, err = io.WriteString(os.Stdout, output.Output)
			return err
		},
	}
}

// validateCmd creates the validate command.
func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a JSON or YAML document against a JSON Schema (default: the catalog schema)",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "schema", Usage: "Schema file"},
			&cli.StringFlag{Name: "format", Usage: "Format of stdin: json|yaml"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ValidateInput{
				SchemaPath: c.String("schema"),
				Format:     c.String("format"),
			}
			if c.NArg() > 0 {
				input.Path = c.Args().First()
			} else if stdinHasData() {
				data, err := readStdin(ops.MaxPromptChars)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.Data = data
			}
			return runValidate(input)
		},
	}
}

// runValidate prints the validation result and fails when the document
// does not conform.
func runValidate(input ops.ValidateInput) error {
	output, err := ops.ValidateDocument(input)
	if err != nil {
		return outputError(err)
	}
	if err := outputJSON(output); err != nil {
		return err
	}
	if !output.Valid {
		return outputError(errors.NewSchemaViolation(len(output.Violations), output.Violations))
	}
	return nil
}

// eventsCmd creates the events command and its subcommands.
func eventsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Inspect and rate recorded runs",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the most recent events",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: ops.DefaultEventLimit, Usage: "Max events"},
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Event kind filter"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.EventsList(c.Context, env, ops.EventsListInput{
						Limit: c.Int("limit"),
						Kind:  c.String("kind"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "stats",
				Usage: "Summarize runs, feedback and token use",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "bucket", Value: "day", Usage: "Time bucket: day|hour"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.EventsStats(c.Context, env, ops.EventsStatsInput{Bucket: c.String("bucket")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "rate",
				Usage:     "Rate a run: up, neutral or down",
				ArgsUsage: "<id> <up|neutral|down>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: botan events rate <id> <up|neutral|down>"))
					}
					rating, err := parseRating(c.Args().Get(1))
					if err != nil {
						return outputError(errors.NewInvalidRequest(err.Error()))
					}
					output, err := ops.EventsRate(c.Context, env, ops.EventsRateInput{
						ID:     c.Args().First(),
						Rating: rating,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var botanErr *errors.BotanError
	if stderrors.As(err, &botanErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", botanErr.Code, botanErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin, failing past limit bytes.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("input exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// promptText joins positional args, or reads stdin when there are none.
func promptText(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", nil
	}
	text, err := readStdin(ops.MaxPromptChars)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return text, nil
}

// parseVars turns key=value pairs into a map. The slice flag splits values
// on commas, so a piece without "=" is glued back onto the previous value.
func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	last := ""
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			if last == "" {
				return nil, fmt.Errorf("invalid --var %q (want key=value)", p)
			}
			vars[last] += "," + p
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid --var %q (empty key)", p)
		}
		vars[key] = value
		last = key
	}
	return vars, nil
}

// parseRating accepts up/neutral/down or 1/0/-1.
func parseRating(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "+":
		return 1, nil
	case "neutral":
		return 0, nil
	case "down":
		return -1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < -1 || n > 1 {
		return 0, fmt.Errorf("invalid rating %q (want up, neutral, down or -1..1)", s)
	}
	return n, nil
}
