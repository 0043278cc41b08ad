package config

import (
	"flag"
	"io"
	"strings"
)

// knownFlags lists every flag parseFlags understands; anything else in args
// (subcommands and their own flags) is ignored.
var knownFlags = []string{
	"-dir", "-lock-timeout", "-log-level", "-log-format",
	"-audit-max-age", "-breach-check", "-breach-api", "-length",
}

// boolFlags never consume the following argument.
var boolFlags = map[string]bool{"-breach-check": true}

// parseFlags populates Config fields from command-line flags.
//
//	-dir string            vault directory
//	-lock-timeout duration bounded wait for the vault lock
//	-log-level string      debug|info|warn|error
//	-log-format string     text|json
//	-audit-max-age dur     entries older than this are reported stale
//	-breach-check          query the breach API during audits
//	-breach-api string     breach API base URL
//	-length int            default generated password length
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("pm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.VaultDir, "dir", cfg.VaultDir, "vault directory")
	fs.DurationVar(&cfg.LockTimeout, "lock-timeout", cfg.LockTimeout, "vault lock timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format")
	fs.DurationVar(&cfg.AuditMaxAge, "audit-max-age", cfg.AuditMaxAge, "stale entry age")
	fs.BoolVar(&cfg.BreachCheck, "breach-check", cfg.BreachCheck, "enable breach lookups")
	fs.StringVar(&cfg.BreachAPIURL, "breach-api", cfg.BreachAPIURL, "breach API URL")
	fs.IntVar(&cfg.GeneratorLength, "length", cfg.GeneratorLength, "generated password length")

	return fs.Parse(FilterArgs(args, knownFlags))
}

// jsonConfigPath extracts the -c/-config value from args.
func jsonConfigPath(args []string) string {
	var path string
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))
	return path
}

// FilterArgs keeps only the allowed flags and their values. Both "-f value" and
// "-f=value" forms are recognised, with a single or double leading dash. Flags
// listed in boolFlags never take the following argument.
func FilterArgs(args []string, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		set[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, _, hasValue := strings.Cut(arg, "=")
		name = normalizeFlag(name)
		if _, ok := set[name]; !ok || !strings.HasPrefix(arg, "-") {
			continue
		}

		filtered = append(filtered, arg)
		if hasValue || boolFlags[name] {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

func normalizeFlag(name string) string {
	if strings.HasPrefix(name, "--") {
		return name[1:]
	}
	return name
}
