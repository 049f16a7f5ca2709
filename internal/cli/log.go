package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Read 1200 points (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() when
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Log-backed Hooks
// =============================================================================

// logHooks implements every observability hook interface by writing debug
// lines. It is registered in verbose mode only.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnPlaceStart(ctx context.Context, points int) {
	h.logger.Debug("place start", "points", points)
}

func (h logHooks) OnPlaceComplete(ctx context.Context, placed, dropped int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("place failed", "err", err, "duration", d)
		return
	}
	h.logger.Debug("place complete", "placed", placed, "dropped", dropped, "duration", d)
}

func (h logHooks) OnExportStart(ctx context.Context, formats []string) {
	h.logger.Debug("export start", "formats", formats)
}

func (h logHooks) OnExportComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("export failed", "formats", formats, "err", err)
		return
	}
	h.logger.Debug("export complete", "formats", formats, "duration", d)
}

func (h logHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRequest(ctx context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h logHooks) OnResponse(ctx context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h logHooks) OnError(ctx context.Context, method, path string, err error) {
	h.logger.Debug("request error", "method", method, "path", path, "err", err)
}
