package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureSlog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return buf
}

func TestSlogAPI(t *testing.T) {
	buf := captureSlog(t)

	tel := NewScopedAPI("bookprice", SlogAPI{})
	tel.ReportBroken("store", errors.New("disk full"), "search")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "ERROR", line["level"])
	require.Equal(t, "bookprice: store", line["id"])
	require.Equal(t, "disk full", line["err"])
	require.Equal(t, "search", line["params.1"])

	buf.Reset()
	tel.ReportDebug("scraped", "query", "1984", "records", 3)
	line = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "1984", line["query"])
	require.EqualValues(t, 3, line["records"])
}
