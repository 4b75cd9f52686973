// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package packagecounter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/hookhost/pkg/plugin"
)

func makePrefix(t *testing.T, files ...string) string {
	t.Helper()
	prefix := t.TempDir()
	meta := filepath.Join(prefix, MetadataDir)
	require.NoError(t, os.MkdirAll(meta, 0o755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(meta, f), []byte("{}"), 0o600))
	}
	return prefix
}

func TestCount(t *testing.T) {
	prefix := makePrefix(t, "python-3.12.0-h1.json", "numpy-2.0.0-py312.json", "history")
	require.NoError(t, os.Mkdir(filepath.Join(prefix, MetadataDir, "dir.json"), 0o755))

	n, err := Count(prefix)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCount_IncludesPipInstalls(t *testing.T) {
	prefix := makePrefix(t)
	record := `{"name": "requests", "files": ["lib/python3.12/site-packages/requests-2.32.0.dist-info/METADATA"]}`
	require.NoError(t, os.WriteFile(filepath.Join(prefix, MetadataDir, "requests-2.32.0-py_0.json"), []byte(record), 0o600))

	site := filepath.Join(prefix, "lib", "python3.12", "site-packages")
	for _, d := range []string{"requests-2.32.0.dist-info", "rich-13.7.1.dist-info", "legacy-0.1-py3.12.egg-info", "rich"} {
		require.NoError(t, os.MkdirAll(filepath.Join(site, d), 0o755))
	}

	n, err := Count(prefix)

	require.NoError(t, err)
	// One conda record plus rich and legacy from pip; requests is owned.
	assert.Equal(t, 3, n)
}

func TestCount_CorruptRecord(t *testing.T) {
	prefix := makePrefix(t)
	require.NoError(t, os.WriteFile(filepath.Join(prefix, MetadataDir, "broken-1.0-0.json"), []byte("{"), 0o600))

	_, err := Count(prefix)

	assert.Error(t, err)
}

func TestCount_NoMetadataDir(t *testing.T) {
	n, err := Count(t.TempDir())

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCount_NoPrefix(t *testing.T) {
	_, err := Count("")

	assert.ErrorContains(t, err, "no target environment")
}

func TestPostCommand(t *testing.T) {
	var posts []plugin.PostCommand
	for post := range New().PostCommands() {
		posts = append(posts, post)
	}
	require.Len(t, posts, 1)
	assert.Equal(t, PostCommandName, posts[0].Name)
	assert.ElementsMatch(t, []string{"install", "remove", "update"}, posts[0].RunFor)

	var out bytes.Buffer
	env := &plugin.Env{Stdout: &out, Prefix: makePrefix(t, "a-1.0-0.json", "b-1.0-0.json", "c-1.0-0.json")}
	require.NoError(t, posts[0].Action(context.Background(), env, "install"))

	assert.Equal(t, "There are 3 packages in this environment.\n", out.String())
}
