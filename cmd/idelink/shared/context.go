// Package shared holds the context passed to all CLI commands.
package shared

import "github.com/go-ports/idelink/internal/config"

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// LinkHome overrides the link home directory.
	// When empty, resolution falls through to IDELINK_HOME env var → persisted config → ~/.idelink.
	LinkHome string
}

// ResolveHome returns the effective link home for a command run.
func (c *Context) ResolveHome() string {
	if c.LinkHome != "" {
		return c.LinkHome
	}
	return config.GetLinkHome()
}
