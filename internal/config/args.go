package config

import (
	"flag"
	"strings"
)

type boolFlag interface {
	IsBoolFlag() bool
}

// filterUnknown removes arguments naming flags fs does not define, along
// with a following bare value. The values of known non-boolean flags are
// passed through untouched, so "-warmup -1" keeps its negative value.
func filterUnknown(fs *flag.FlagSet, args []string) (kept, ignored []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			kept = append(kept, args[i:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			kept = append(kept, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		name, _, hasValue := strings.Cut(name, "=")

		if name == "h" || name == "help" {
			kept = append(kept, arg)
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			ignored = append(ignored, arg)
			if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				ignored = append(ignored, args[i])
			}
			continue
		}
		kept = append(kept, arg)
		if bf, ok := f.Value.(boolFlag); ok && bf.IsBoolFlag() {
			continue
		}
		if !hasValue && i+1 < len(args) {
			i++
			kept = append(kept, args[i])
		}
	}
	return kept, ignored
}
