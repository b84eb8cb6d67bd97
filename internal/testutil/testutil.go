// Package testutil holds helpers shared by the report and application
// tests.
package testutil

import (
	"regexp"
	"strings"
)

// csi matches ANSI control sequences such as the theme colours.
var csi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape sequences from s.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}

// NonEmptyLines splits s into lines, dropping blank ones and trailing
// spaces.
func NonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
