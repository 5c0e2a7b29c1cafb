// Package logx provides the slog.Handler the CLI drivers install as
// the process-wide default, so their diagnostics (and those of
// config.ReadConfig) share one line format instead of each reaching
// for fmt.Println/log.Printf on its own. The core packages (comps,
// customize, query, ioformat) do not log.
package logx

import (
	"context"
	"io"
	"strings"
	"sync"

	"golang.org/x/exp/slog"
)

// Handler formats records as "time level message attrs" lines,
// following the teacher's LogHandler: a slog.NewTextHandler wrapped
// just enough to control the line shape, guarded by a mutex since one
// Handler (and those derived from it) may be called from several
// goroutines at once.
type Handler struct {
	h   slog.Handler
	mu  *sync.Mutex
	out io.Writer
}

// New wraps out in a Handler. A nil opts uses slog's defaults.
func New(out io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out: out,
		h: slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}),
		mu: &sync.Mutex{},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{h: h.h.WithAttrs(attrs), out: h.out, mu: h.mu}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h: h.h.WithGroup(name), out: h.out, mu: h.mu}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	formattedTime := r.Time.Format("2006/01/02 15:04:05")

	strs := []string{formattedTime, r.Level.String(), r.Message}
	if r.NumAttrs() != 0 {
		r.Attrs(func(a slog.Attr) bool {
			strs = append(strs, a.Key+"="+a.Value.String())
			return true
		})
	}
	strs = append(strs, "\n")

	b := []byte(strings.Join(strs, " "))

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.out.Write(b)
	return err
}

// Default installs a Handler over out as the process-wide slog
// default, the way the teacher's main wires NewLogHandler into
// slog.SetDefault before touching any other package.
func Default(out io.Writer, opts *slog.HandlerOptions) {
	slog.SetDefault(slog.New(New(out, opts)))
}
