package rootcmd_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	rootcmd "github.com/go-ports/idelink/cmd/idelink/root"
	"github.com/go-ports/idelink/internal/selection"
	"github.com/go-ports/idelink/internal/store"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(c *qt.C, stdin string, args ...string) string {
	root := rootcmd.New()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if stdin != "" {
		root.SetIn(strings.NewReader(stdin))
	}
	root.SetArgs(args)
	c.Assert(root.Execute(), qt.IsNil)
	return out.String()
}

func TestSendStatusClear_EndToEnd(t *testing.T) {
	c := qt.New(t)
	home := t.TempDir()

	// Writer side: publish a selection.
	out := runCLI(c, "", "send",
		"--link-home", home,
		"--file", "/p/x.py",
		"--text", "print(1)",
		"--start", "3",
		"--ide", "vscode",
	)
	c.Assert(out, qt.Equals, "Sent: /p/x.py\n")

	// Reader side: the reference is surfaced after staleness filtering.
	out = runCLI(c, "", "status", "--link-home", home)
	c.Assert(out, qt.Equals, "/p/x.py:3\n")

	// The record round-trips intact through the shared file.
	raw, err := store.New(home).Read()
	c.Assert(err, qt.IsNil)
	rec, err := selection.Decode(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(rec.File, qt.Equals, "/p/x.py")
	c.Assert(rec.Selection, qt.Equals, "print(1)")
	c.Assert(*rec.StartLine, qt.Equals, 3)
	c.Assert(*rec.EndLine, qt.Equals, 3)
	c.Assert(rec.IDE, qt.Equals, "vscode")

	// Clear, twice: idempotent.
	c.Assert(runCLI(c, "", "clear", "--link-home", home), qt.Equals, "Cleared.\n")
	c.Assert(runCLI(c, "", "clear", "--link-home", home), qt.Equals, "Cleared.\n")

	out = runCLI(c, "", "status", "--link-home", home)
	c.Assert(out, qt.Equals, "No current selection.\n")
}

func TestSend_TextFromStdin(t *testing.T) {
	c := qt.New(t)
	home := t.TempDir()

	runCLI(c, "x := 1\ny := 2\n", "send",
		"--link-home", home,
		"--file", "/p/a.go",
		"--text-from-stdin",
		"--start", "10",
		"--end", "11",
	)

	raw, err := store.New(home).Read()
	c.Assert(err, qt.IsNil)
	rec, err := selection.Decode(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(rec.Selection, qt.Equals, "x := 1\ny := 2\n")
	c.Assert(*rec.StartLine, qt.Equals, 10)
	c.Assert(*rec.EndLine, qt.Equals, 11)
	c.Assert(rec.IDE, qt.Equals, "shell")
}

func TestStatus_JSONAndJSONPath(t *testing.T) {
	c := qt.New(t)
	home := t.TempDir()

	runCLI(c, "", "send",
		"--link-home", home,
		"--file", "/a/b.ts",
		"--text", "sel",
		"--start", "10",
		"--end", "15",
	)

	c.Run("json output", func(c *qt.C) {
		out := runCLI(c, "", "status", "--link-home", home, "--json")
		var rec selection.Record
		c.Assert(json.Unmarshal([]byte(out), &rec), qt.IsNil)
		c.Assert(rec.File, qt.Equals, "/a/b.ts")
		c.Assert(rec.Ref(), qt.Equals, "/a/b.ts:10-15")
	})

	c.Run("jsonpath extraction", func(c *qt.C) {
		out := runCLI(c, "", "status", "--link-home", home, "--jsonpath", "$.file")
		c.Assert(out, qt.Equals, "/a/b.ts\n")
	})
}

func TestStatus_StaleRecordReadsAsAbsent(t *testing.T) {
	c := qt.New(t)
	home := t.TempDir()

	st := store.New(home)
	stale := selection.New("vscode", "/p/old.go", "x", 1, 1)
	stale.Timestamp = time.Now().Add(-2 * time.Hour).UnixMilli()
	c.Assert(st.Write(stale), qt.IsNil)

	out := runCLI(c, "", "status", "--link-home", home)
	c.Assert(out, qt.Equals, "No current selection.\n")
}

func TestConfigShow_ReportsResolvedPaths(t *testing.T) {
	c := qt.New(t)
	home := t.TempDir()

	out := runCLI(c, "", "config", "--link-home", home)
	c.Assert(out, qt.Contains, "link_home: "+home)
	c.Assert(out, qt.Contains, "link_home_source: flag")
	c.Assert(out, qt.Contains, "ide: shell")
	c.Assert(out, qt.Contains, store.FileName)
}
