// Package flagx holds helpers for picking individual flags out of the
// command line before the main flag set is parsed.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// ConfigEnvName is consulted when no config flag is given.
const ConfigEnvName = "CONFIG"

// FilterArgs keeps only the allowed flags from args, together with their
// values. Both "-c file" and "--config=file" forms are recognised. The
// result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// a following token that is not itself a flag is the value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFileFlag returns the config file path given via -c or -config in
// args, falling back to the CONFIG environment variable. Other flags are
// ignored so the caller's own flag set is left untouched.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file (.json, .yaml)")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--c", "--config"}))

	if path == "" {
		path = os.Getenv(ConfigEnvName)
	}
	return path
}
