package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/flowcharts"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
nodes:
  - id: start
    label: Start
  - id: review
  - id: done
  - id: orphan
edges:
  - source: start
    target: review
  - source: review
    target: done
  - source: review
    target: start
`

// run executes the root command with args and resets every flag afterwards.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "flowchart version "+strings.TrimSpace(flowcharts.Version)+"\n", out)
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", writeDoc(t, "flow.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "Flowchart is valid!")
	assert.Contains(t, out, "4 nodes, 3 edges")
}

func TestValidate_Invalid(t *testing.T) {
	doc := writeDoc(t, "bad.json", `{"nodes": [{"id": "a"}, {"id": "a"}], "edges": [{"source": "a", "target": "b"}]}`)

	_, stderr, err := run(t, "validate", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problem(s)")
	assert.Contains(t, stderr, "duplicate node id")
	assert.Contains(t, stderr, "edge 0 target")
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := run(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGraph(t *testing.T) {
	out, _, err := run(t, "graph", writeDoc(t, "flow.yaml", sampleYAML), "--focus", "done")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "review --> done")
	assert.Contains(t, out, "class done current;")
	assert.Contains(t, out, "class start visited;")
	assert.NotContains(t, out, "class orphan")
}

func TestQuery(t *testing.T) {
	doc := writeDoc(t, "flow.yaml", sampleYAML)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"Outgoing JSON", []string{"query", doc, "outgoing", "review", "--json"}, `[
  {
    "source": "review",
    "target": "done"
  },
  {
    "source": "review",
    "target": "start"
  }
]
`},
		{"Connected JSON", []string{"query", doc, "connected", "done", "--json"}, "[\n  \"done\",\n  \"review\",\n  \"start\"\n]\n"},
		{"Connected Isolated JSON", []string{"query", doc, "connected", "orphan", "--json"}, "[\n  \"orphan\"\n]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestQuery_Markdown(t *testing.T) {
	doc := writeDoc(t, "flow.yaml", sampleYAML)

	out, _, err := run(t, "query", doc, "outgoing", "done")
	require.NoError(t, err)
	assert.Contains(t, out, "_none_")

	out, _, err = run(t, "query", doc, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "| `start` | Start |")
}

func TestQuery_Errors(t *testing.T) {
	doc := writeDoc(t, "flow.yaml", sampleYAML)

	_, _, err := run(t, "query", doc, "outgoing")
	assert.ErrorContains(t, err, "needs a node id")

	_, _, err = run(t, "query", doc, "shortest", "a")
	assert.ErrorContains(t, err, "unknown query")
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	t.Setenv("FLOWCHART_ADDR", ":7000")
	t.Setenv("FLOWCHART_STORE_BACKEND", "file")

	require.NoError(t, serveCmd.Flags().Set("addr", ":9999"))
	require.NoError(t, rootCmd.PersistentFlags().Set("env-file", ""))
	t.Cleanup(func() { resetFlags(rootCmd) })

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "file", cfg.Store.Backend)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("FLOWCHART_STORE_BACKEND", "mongo")
	require.NoError(t, rootCmd.PersistentFlags().Set("env-file", ""))
	t.Cleanup(func() { resetFlags(rootCmd) })

	_, err := loadConfig(serveCmd)
	assert.ErrorContains(t, err, "unknown store backend")
}
