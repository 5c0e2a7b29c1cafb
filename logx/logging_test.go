package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestHandlerWritesLevelMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(New(&buf, nil))
	logger.Info("reading base graph", "file", "base.graph")

	out := buf.String()
	require.True(t, strings.Contains(out, "INFO"), out)
	require.True(t, strings.Contains(out, "reading base graph"), out)
	require.True(t, strings.Contains(out, "file=base.graph"), out)
	require.True(t, strings.HasSuffix(out, "\n"), out)
}

func TestHandlerRespectsLevelOption(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(New(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger.Info("should be filtered out")
	require.Empty(t, buf.String())

	logger.Warn("should appear")
	require.Contains(t, buf.String(), "should appear")
}
