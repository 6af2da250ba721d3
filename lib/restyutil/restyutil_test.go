package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	out, err := NewFilesystemOutput(dir, true)
	require.NoError(t, err)

	out.Write("amazon/search?q=1984", "<html></html>")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "amazon_search_q_1984", entries[0].Name())
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>hello</p>"))
	}))
	defer server.Close()

	dir := t.TempDir()
	out, err := NewFilesystemOutput(dir, false)
	require.NoError(t, err)

	client := resty.New()
	InstrumentClient(client, "test", out)

	_, err = client.R().Get(server.URL + "/page")
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, "test-1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "GET "+server.URL+"/page")
	require.Contains(t, string(contents), "200")
	require.Contains(t, string(contents), "<p>hello</p>")
}
