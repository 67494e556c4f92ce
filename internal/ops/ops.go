// Package ops holds the operations shared by the CLI and the MCP server.
// Each operation validates its input, calls into the pure core packages and
// records an event when a sink is configured.
package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/botan/internal/catalog"
	"github.com/hpungsan/botan/internal/config"
	"github.com/hpungsan/botan/internal/db"
	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
	"github.com/hpungsan/botan/internal/llm"
	"github.com/hpungsan/botan/internal/logging"
)

// Event listing limits
const (
	DefaultEventLimit = 20
	MaxEventLimit     = 1000
)

// Env carries the collaborators every operation may need.
type Env struct {
	Config *config.Config
	// Sink receives one event per operation; nil disables recording.
	Sink   eventlog.Sink
	Logger *zap.Logger
	// NewProvider overrides provider construction. Nil uses llm.New.
	NewProvider func(name, model string) (llm.Provider, error)
	// Now overrides the clock used for latency. Nil uses time.Now.
	Now func() time.Time
}

func (e *Env) config() *config.Config {
	if e == nil || e.Config == nil {
		return config.DefaultConfig()
	}
	return e.Config
}

func (e *Env) logger() *zap.Logger {
	if e == nil {
		return zap.NewNop()
	}
	return logging.OrNop(e.Logger)
}

func (e *Env) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) provider(name, model string) (llm.Provider, error) {
	if e != nil && e.NewProvider != nil {
		return e.NewProvider(name, model)
	}
	p, err := llm.New(name, model, e.config(), e.logger())
	if err != nil {
		if _, ok := llm.AsFailure(err); ok {
			return nil, llm.ToBotanError(err)
		}
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return p, nil
}

// record appends e to the sink. A failing sink is logged, never fatal:
// the operation already produced its result.
func (e *Env) record(ctx context.Context, ev *eventlog.Event) string {
	if e == nil || e.Sink == nil {
		return ""
	}
	eventlog.Stamp(ev, e.now())
	if err := e.Sink.Append(ctx, ev); err != nil {
		e.logger().Warn("event not recorded",
			zap.String("kind", ev.Kind),
			zap.String("id", ev.ID),
			zap.Error(err))
		return ""
	}
	return ev.ID
}

// loadCatalog returns the configured catalog, or the built-in one.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg == nil || cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	if err := ValidatePath(cfg.CatalogPath, PathCheckRead, catalogExts); err != nil {
		return nil, err
	}
	c, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// OpenSink opens the event log backend selected by cfg.LogBackend.
// baseDir is the application directory (~/.botan).
func OpenSink(cfg *config.Config, baseDir string, logger *zap.Logger) (eventlog.Sink, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogBackend)) {
	case "", "jsonl":
		path := cfg.LogPath
		if path == "" {
			path = filepath.Join(baseDir, "events.jsonl")
		}
		if containsTraversal(path) {
			return nil, errors.NewInvalidRequest("log_path must not contain directory traversal (..)")
		}
		s, err := eventlog.NewJSONLSink(path, logger)
		if err != nil {
			return nil, err
		}
		logging.OrNop(logger).Debug("event log opened", zap.String("backend", "jsonl"), zap.String("path", s.Path()))
		return s, nil
	case "sqlite":
		s, err := db.OpenEventSink(baseDir, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown log_backend %q (want jsonl or sqlite)", cfg.LogBackend))
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultEventLimit
	}
	return min(limit, MaxEventLimit)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
