package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports pipeline and cache events as debug log lines.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to the default logger
// when logger is nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnPointsStart(context.Context) {
	h.logger.Debug("laying out points")
}

func (h *LogHooks) OnPointsComplete(_ context.Context, keys int, d time.Duration, err error) {
	h.done("points", err, "keys", keys, "duration", d)
}

func (h *LogHooks) OnOutlineStart(_ context.Context, name string) {
	h.logger.Debug("building outline", "outline", name)
}

func (h *LogHooks) OnOutlineComplete(_ context.Context, name string, rings int, d time.Duration, err error) {
	h.done("outline", err, "outline", name, "rings", rings, "duration", d)
}

func (h *LogHooks) OnExportStart(_ context.Context, name, format string) {
	h.logger.Debug("exporting", "outline", name, "format", format)
}

func (h *LogHooks) OnExportComplete(_ context.Context, name, format string, size int, d time.Duration, err error) {
	h.done("export", err, "outline", name, "format", format, "bytes", size, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) done(stage string, err error, kv ...any) {
	if err != nil {
		h.logger.Debug(stage+" failed", append(kv, "err", err)...)
		return
	}
	h.logger.Debug(stage+" done", kv...)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
)
