//go:build cgo

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureRoot = "../../testdata/fixtures/py_project"

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"CODEGRAPH_STORE", "CODEGRAPH_DB_PATH", "CODEGRAPH_WORKERS", "CODEGRAPH_VERBOSE"} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestBuild_MemoryStore(t *testing.T) {
	out, _, err := execute(t, "build", fixtureRoot, "--store", "memory")
	require.NoError(t, err)

	assert.Contains(t, out, "files:         5")
	assert.Contains(t, out, "syntax errors: 1")
	assert.Contains(t, out, "  broken.py")
	assert.Contains(t, out, "edges:         11")
}

func TestBuild_SQLiteStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "graph.db")
	out, _, err := execute(t, "build", fixtureRoot, "--store", "sqlite", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "nodes:         17 (2 placeholders)")

	_, err = os.Stat(db)
	assert.NoError(t, err, "the database file is created")
}

func TestBuild_UnknownStore(t *testing.T) {
	_, _, err := execute(t, "build", fixtureRoot, "--store", "neo4j")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neo4j")
}

func TestBuild_RequiresRoot(t *testing.T) {
	_, _, err := execute(t, "build")
	assert.Error(t, err)
}

func TestBuild_ConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codegraph.yml"),
		[]byte("store: memory\nexcludeDirs: [shapes]\n"), 0o644))

	out, _, err := execute(t, "build", fixtureRoot, "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "files:         3")
}

func TestExport_JSON(t *testing.T) {
	out, _, err := execute(t, "export", fixtureRoot)
	require.NoError(t, err)

	var doc struct {
		Complete bool             `json:"complete"`
		Nodes    []map[string]any `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.True(t, doc.Complete)
	assert.Len(t, doc.Nodes, 17)
}

func TestExport_MermaidToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.mmd")
	out, _, err := execute(t, "export", fixtureRoot, "--format", "mermaid", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "graph TD\n"))
	assert.Contains(t, string(data), `["shapes/square.py_Square"]`)
}

func TestExport_BadFormat(t *testing.T) {
	_, _, err := execute(t, "export", fixtureRoot, "--format", "dot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dot")
}

func TestDump(t *testing.T) {
	out, _, err := execute(t, "dump", filepath.Join(fixtureRoot, "base.py"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "(module"))

	_, _, err = execute(t, "dump", filepath.Join(fixtureRoot, "README.txt"))
	assert.Error(t, err)
}

func TestStatus_AfterBuild(t *testing.T) {
	db := filepath.Join(t.TempDir(), "graph.db")

	out, _, err := execute(t, "status", fixtureRoot, "--store", "sqlite", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "(not built)")

	_, _, err = execute(t, "build", fixtureRoot, "--store", "sqlite", "--db", db)
	require.NoError(t, err)

	out, _, err = execute(t, "status", fixtureRoot, "--store", "sqlite", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "nodes: 17 (2 placeholders)")
	assert.Contains(t, out, "edges: 11")
}
