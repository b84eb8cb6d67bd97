package config

import (
	"flag"
	"fmt"

	"github.com/agbru/parsort/internal/ui"
)

func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.Current()
		out := fs.Output()

		fmt.Fprintf(out, "\n%sparsort%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Sweeps the sequential cutoff of a parallel merge sort across pool sizes.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warn, t.Reset, fs.Name(), t.Warn, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s%-26s%s %s", t.Accent, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" && f.DefValue != "0s" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Muted, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEvery flag can also be set through %s<NAME>, e.g. %sRUNS=5.\n\n", EnvPrefix, EnvPrefix)
	}
}
