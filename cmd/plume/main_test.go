package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/crypto"
)

type harness struct {
	t       *testing.T
	file    string
	answers []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gokeyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PLUME_KDF_ITERATIONS", "1000")
	t.Setenv(PasswordEnv, "")
	return &harness{t: t, file: filepath.Join(t.TempDir(), "notes.fnx")}
}

// run executes one CLI invocation against the harness file.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	a := newApp()
	a.prompt = func(string) (string, error) {
		if len(h.answers) == 0 {
			return "", core.ErrPasswordRequired
		}
		pw := h.answers[0]
		h.answers = h.answers[1:]
		return pw, nil
	}
	var out, errOut bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--file", h.file}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) must(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "plume %s", strings.Join(args, " "))
	return out
}

func TestCLI_NewAndTree(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.must("new"), "Created")
	_, err := h.run("new")
	assert.Error(t, err, "new must not overwrite")

	h.must("add", "Groceries", "--tag", "home")
	h.must("add", "Milk", "--under", "Groceries")
	h.must("add", "Eggs", "--after", "Groceries/Milk", "--body", "a dozen")

	out := h.must("tree")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "New Node", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Groceries")
	assert.Contains(t, lines[1], "[home]")
	assert.True(t, strings.HasPrefix(lines[2], "  "), "children are indented: %q", lines[2])
	assert.Contains(t, lines[2], "Milk")
	assert.Contains(t, lines[3], "Eggs")
}

func TestCLI_EditCommands(t *testing.T) {
	h := newHarness(t)
	h.must("new")
	h.must("add", "A")
	h.must("add", "B")

	h.must("move", "B", "right")
	out := h.must("tree")
	assert.Contains(t, out, "\n  B")

	h.must("move", "A/B", "left")
	h.must("rename", "B", "Bee")
	h.must("tag", "Bee", "+x", "y")
	h.must("tag", "Bee", "-x")
	assert.Equal(t, "y\n", h.must("tag", "Bee"))

	h.must("rm", "A")
	out = h.must("tree")
	assert.NotContains(t, out, "A\n")
	assert.Contains(t, out, "Bee")

	_, err := h.run("rm", "nothing-like-this")
	assert.ErrorIs(t, err, core.ErrNodeNotFound)
	_, err = h.run("move", "Bee", "sideways")
	assert.Error(t, err)
	_, err = h.run("add", "X", "--under", "Bee", "--after", "Bee")
	assert.Error(t, err)
}

func TestCLI_AmbiguousReference(t *testing.T) {
	h := newHarness(t)
	h.must("new")
	h.must("add", "Twin")
	h.must("add", "Twin")
	_, err := h.run("rename", "Twin", "One")
	assert.ErrorContains(t, err, "matches 2 nodes")
}

func TestCLI_SearchReplace(t *testing.T) {
	h := newHarness(t)
	h.must("new")
	h.must("add", "Alpha", "--body", "hello world")
	h.must("add", "Beta", "--body", "hello there", "--tag", "project")

	out := h.must("search", "hello")
	assert.Contains(t, out, "Alpha\tbody\t[hello] world")
	assert.Contains(t, out, "2 Matches")

	assert.Equal(t, "No Match\n", h.must("search", "hello", "--scope", "titles", "--count"))
	assert.Equal(t, "One Match\n", h.must("search", "alpha", "--scope", "titles,tags", "--count"))
	assert.Contains(t, h.must("search", "--tagged", "proj*"), "Beta\t[project]")

	assert.Equal(t, "2 Replacements\n", h.must("replace", "hello", "hi"))
	assert.Equal(t, "No Match\n", h.must("search", "hello", "--count"))
	assert.Contains(t, h.must("show", "Alpha", "--raw"), "hi world")

	_, err := h.run("search", "x", "--scope", "nowhere")
	assert.Error(t, err)
}

func TestCLI_Export(t *testing.T) {
	h := newHarness(t)
	h.must("new")
	h.must("add", "Projects")
	h.must("add", "Plume", "--under", "Projects", "--body", "notes app")

	dir := t.TempDir()
	html := filepath.Join(dir, "out.html")
	h.must("export", html)
	data, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(data), "notes app")

	md := filepath.Join(dir, "plume.md")
	h.must("export", md, "--node", "Projects/Plume", "--extent", "node")
	data, err = os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "notes app")
	assert.NotContains(t, string(data), "New Node")

	txt := filepath.Join(dir, "match.txt")
	h.must("export", txt, "--match", "Projects/**")
	data, err = os.ReadFile(txt)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Projects > Plume")

	_, err = h.run("export", filepath.Join(dir, "out.pdf"))
	assert.Error(t, err)
}

func TestCLI_Password(t *testing.T) {
	h := newHarness(t)
	h.must("new")

	h.answers = []string{"abc123", "abc124"}
	_, err := h.run("passwd")
	assert.ErrorIs(t, err, core.ErrPasswordMismatch)

	h.answers = []string{"abc123", "abc123"}
	assert.Contains(t, h.must("passwd"), "Password set")
	data, err := os.ReadFile(h.file)
	require.NoError(t, err)
	assert.True(t, crypto.IsEncrypted(data))

	// no password available
	_, err = h.run("tree")
	assert.ErrorIs(t, err, core.ErrPasswordRequired)

	h.answers = []string{"wrong"}
	_, err = h.run("tree")
	assert.ErrorIs(t, err, crypto.ErrWrongPassword)

	t.Setenv(PasswordEnv, "abc123")
	assert.Contains(t, h.must("info"), "Encrypted:  true")

	// --remember stores the password; later runs need neither env nor prompt
	h.must("--remember", "tree")
	t.Setenv(PasswordEnv, "")
	h.must("--remember", "tree")

	h.must("--remember", "passwd", "--remove")
	data, err = os.ReadFile(h.file)
	require.NoError(t, err)
	assert.False(t, crypto.IsEncrypted(data))
}

func TestCLI_InfoJSON(t *testing.T) {
	h := newHarness(t)
	h.must("new")
	out := h.must("info", "--json")
	assert.Contains(t, out, `"component": "notebook"`)
	assert.Contains(t, out, `"nodes": 1`)
}

func TestCLI_Config(t *testing.T) {
	h := newHarness(t)
	cfg := filepath.Join(t.TempDir(), "plume.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("node_font: \"Mono,11\"\n"), 0600))

	h.must("--config", cfg, "new")
	out := h.must("--config", cfg, "info", "--json")
	assert.Contains(t, out, `"nodes": 1`)

	_, err := h.run("--config", filepath.Join(t.TempDir(), "missing.yaml"), "tree")
	assert.Error(t, err)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "say [hi] there", snippet("say hi there", 4, 6))
	long := strings.Repeat("a", 30) + "X" + strings.Repeat("b", 30)
	assert.Equal(t, "…"+strings.Repeat("a", 20)+"[X]"+strings.Repeat("b", 20)+"…", snippet(long, 30, 31))
}
