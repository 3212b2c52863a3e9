package mcp

// White-box testing required: currentPayload and pollInterval are unexported
// helpers shaping tool output and reader cadence. They are not reachable
// through the public NewServer API, so direct access is required to cover
// their edge cases.

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/idelink/internal/config"
	"github.com/go-ports/idelink/internal/selection"
)

// ---------------------------------------------------------------------------
// currentPayload
// ---------------------------------------------------------------------------

func TestCurrentPayload_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("full record", func(c *qt.C) {
		rec := selection.New("vscode", "/p/x.py", "print(1)", 3, 3)
		got := currentPayload(rec)

		c.Assert(got["present"], qt.Equals, true)
		c.Assert(got["file"], qt.Equals, "/p/x.py")
		c.Assert(got["ide"], qt.Equals, "vscode")
		c.Assert(got["ref"], qt.Equals, "/p/x.py:3")
		c.Assert(got["selection"], qt.Equals, "print(1)")
		c.Assert(got["startLine"], qt.Equals, 3)
		c.Assert(got["endLine"], qt.Equals, 3)
	})

	c.Run("focus without selection omits range keys", func(c *qt.C) {
		rec := selection.New("neovim", "/p/x.py", "", 0, 0)
		got := currentPayload(rec)

		c.Assert(got["present"], qt.Equals, true)
		c.Assert(got["ref"], qt.Equals, "/p/x.py")
		_, hasSelection := got["selection"]
		_, hasStart := got["startLine"]
		_, hasEnd := got["endLine"]
		c.Assert(hasSelection, qt.IsFalse)
		c.Assert(hasStart, qt.IsFalse)
		c.Assert(hasEnd, qt.IsFalse)
	})
}

// ---------------------------------------------------------------------------
// pollInterval
// ---------------------------------------------------------------------------

func TestPollInterval_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name   string
		pollMs int
		want   time.Duration
	}{
		{"default config", 500, 500 * time.Millisecond},
		{"custom cadence", 2000, 2 * time.Second},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			cfg := config.Default()
			cfg.PollMs = tc.pollMs
			c.Assert(pollInterval(cfg), qt.Equals, tc.want)
		})
	}
}
