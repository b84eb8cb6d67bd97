package config

import (
	"flag"
	"os"
	"strings"

	apperrors "github.com/agbru/parsort/internal/errors"
)

// envNames maps flags whose variable name is not derived from the flag
// name. An empty name means the flag has no variable: aliases share their
// primary flag's variable, and -P only makes sense on the command line.
var envNames = map[string]string{
	"n": "",
	"q": "",
	"P": "",
	"v": "VERBOSE",
}

// EnvName returns the environment variable for a flag, or "" if it has none.
func EnvName(flagName string) string {
	if name, ok := envNames[flagName]; ok {
		if name == "" {
			return ""
		}
		return EnvPrefix + name
	}
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// aliases groups flags that share a destination; setting any of them on the
// command line suppresses the environment variable.
var aliases = map[string][]string{
	"N":     {"N", "n"},
	"quiet": {"quiet", "q"},
}

// applyEnvOverrides fills flags not given on the command line from their
// PARSORT_* variables, giving CLI > environment > default. Flags set this
// way count as explicit for plan-file merging. A malformed value is a
// configuration error.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil {
			return
		}
		names := aliases[f.Name]
		if names == nil {
			names = []string{f.Name}
		}
		if config.IsSet(names...) {
			return
		}
		key := EnvName(f.Name)
		if key == "" {
			return
		}
		val, ok := os.LookupEnv(key)
		if !ok || val == "" {
			return
		}
		if setErr := fs.Set(f.Name, normalizeBool(f, val)); setErr != nil {
			err = apperrors.NewConfigError("invalid value %q for %s: %v", val, key, setErr)
			return
		}
		config.explicit[f.Name] = true
	})
	return err
}

// normalizeBool accepts yes/no for boolean flags on top of what
// strconv.ParseBool understands.
func normalizeBool(f *flag.Flag, val string) string {
	if bf, ok := f.Value.(boolFlag); !ok || !bf.IsBoolFlag() {
		return val
	}
	switch strings.ToLower(val) {
	case "yes", "on":
		return "true"
	case "no", "off":
		return "false"
	}
	return val
}
