package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSection struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type testConfig struct {
	Port    int         `json:"port"`
	Secret  string      `json:"secret"`
	Section testSection `json:"section"`
}

func (c testConfig) Validate() error {
	if c.Port < 0 {
		return errors.New("port must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, name, `{
		// comments are allowed
		port: 8000,
		secret: "${BOOKBARGAIN_TEST_SECRET}",
		section: { name: "default", count: 1 },
	}`)
	t.Setenv("BOOKBARGAIN_TEST_SECRET", "hunter2")

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, "hunter2", cfg.Secret)
	require.Equal(t, "default", cfg.Section.Name)

	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ section: { count: 5 } }`)
	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, "default", cfg.Section.Name)
	require.Equal(t, 5, cfg.Section.Count)

	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ port: -1 }`)
	_, err = ReadConfig[testConfig](name)
	require.Error(t, err)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	writeFile(t, filepath.Join(root, "recursive.json5"), `{ port: 1234 }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("recursive.json5")
	require.NoError(t, err)
	require.Equal(t, 1234, cfg.Port)

	_, err = ReadRecursively[testConfig]("does-not-exist.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "BOOKBARGAIN_TEST_DSN=postgres://localhost/books\n")
	os.Unsetenv("BOOKBARGAIN_TEST_DSN")
	t.Cleanup(func() { os.Unsetenv("BOOKBARGAIN_TEST_DSN") })

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	require.Equal(t, "postgres://localhost/books", os.Getenv("BOOKBARGAIN_TEST_DSN"))
}
