// Package skilldata embeds the built-in specialist instruction templates for
// distribution inside the quorum binary. The embedded filesystem is rooted at
// "roster/" and contains one markdown file per built-in role.
package skilldata

import (
	"embed"
	"fmt"
)

// RosterFS contains the embedded instruction templates. Walk from "roster"
// to iterate over all files.
//
//go:embed roster
var RosterFS embed.FS

// Instructions returns the instruction template for a built-in role.
func Instructions(role string) (string, error) {
	data, err := RosterFS.ReadFile("roster/" + role + ".md")
	if err != nil {
		return "", fmt.Errorf("skilldata: no built-in instructions for role %q: %w", role, err)
	}
	return string(data), nil
}
