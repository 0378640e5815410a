package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSeeds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "constellation.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_OrderPreserved(t *testing.T) {
	path := writeSeeds(t, `
constellation:
  - repo: signal-archive
    module: The Signal
  - repo: gambler-model
    module: The Gambler
    url: https://mirror.example.test/latest.json
`)
	sources, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	require.Equal(t, "signal-archive", sources[0].Repo)
	require.Equal(t, "gambler-model", sources[1].Repo)
	require.Equal(t, "https://mirror.example.test/latest.json", sources[1].URL)
}

func TestLoad_SkipsNamelessEntries(t *testing.T) {
	path := writeSeeds(t, `
constellation:
  - module: orphan
  - repo: kept
`)
	sources, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "kept", sources[0].Repo)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := writeSeeds(t, "constellation: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EmptyFileIsEmptyRegistry(t *testing.T) {
	path := writeSeeds(t, "")
	sources, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, sources)
}
