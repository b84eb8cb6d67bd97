// Package ui holds the terminal color themes shared by the report and
// error printers.
package ui

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/mattn/go-isatty"
)

// Theme is a set of ANSI escape codes, one per kind of output.
type Theme struct {
	Name string
	// Accent marks headings and the parallelism column.
	Accent string
	// Muted is used for secondary figures such as means.
	Muted string
	// Good marks the best cutoff and successful status lines.
	Good string
	// Warn marks timings and partial results.
	Warn string
	// Bad marks failures.
	Bad       string
	Bold      string
	Underline string
	Reset     string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Accent:    "\033[38;5;39m",
		Muted:     "\033[38;5;245m",
		Good:      "\033[38;5;82m",
		Warn:      "\033[38;5;220m",
		Bad:       "\033[38;5;196m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme uses darker tones for light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Accent:    "\033[38;5;27m",
		Muted:     "\033[38;5;240m",
		Good:      "\033[38;5;28m",
		Warn:      "\033[38;5;130m",
		Bad:       "\033[38;5;124m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// PlainTheme emits no escape codes.
	PlainTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:  DarkTheme,
		LightTheme.Name: LightTheme,
		PlainTheme.Name: PlainTheme,
	}

	mu      sync.RWMutex
	current = DarkTheme
)

// Current returns the active theme.
func Current() Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Use makes t the active theme.
func Use(t Theme) {
	mu.Lock()
	current = t
	mu.Unlock()
}

// UseNamed activates a registered theme by name.
func UseNamed(name string) error {
	t, ok := themes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", name, Names())
	}
	Use(t)
	return nil
}

// Names lists the registered themes.
func Names() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// isTerminal reports whether standard output is a terminal.
var isTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Init picks the startup theme. Colors are off when noColor is set, when
// NO_COLOR is present in the environment (https://no-color.org/), when
// TERM is "dumb", or when standard output is not a terminal.
func Init(noColor bool) {
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	if noColor || noColorEnv || os.Getenv("TERM") == "dumb" || !isTerminal() {
		Use(PlainTheme)
		return
	}
	Use(DarkTheme)
}

// YellowReset adapts the active theme to the error handler's color needs.
type YellowReset struct{}

func (YellowReset) Yellow() string { return Current().Warn }
func (YellowReset) Reset() string  { return Current().Reset }
