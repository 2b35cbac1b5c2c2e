// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"maps"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/watchbind/watchbind/internal/config"
)

// rootFlagValues holds the persistent flags shared by the root command and
// its subcommands. Only flags the user set override the config file.
type rootFlagValues struct {
	configPath string
	verbose    bool
	interval   time.Duration
	bindings   []string
	runtime    string
	shell      string
	envFile    string
	watch      []string
	watchDir   string
	header     []string
	logFile    string
	logLevel   string
}

// flagKeys maps flag names to config paths.
var flagKeys = map[string]string{
	"interval":  "interval",
	"runtime":   "runtime",
	"shell":     "shell",
	"env-file":  "env_file",
	"watch":     "watch.patterns",
	"watch-dir": "watch.dir",
	"header":    "header",
	"log-file":  "log.file",
	"log-level": "log.level",
}

func (f *rootFlagValues) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/watchbind/config.cue or ./watchbind.cue)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show error details and log at debug level")
	fs.DurationVarP(&f.interval, "interval", "i", 5*time.Second, "wait between runs (0 re-runs on reload only)")
	fs.StringArrayVarP(&f.bindings, "bind", "b", nil, "bind KEY:OP[+OP]* (repeatable)")
	fs.StringVar(&f.runtime, "runtime", string(config.RuntimeNative), "command runtime: native or virtual")
	fs.StringVar(&f.shell, "shell", "sh", "shell used by the native runtime")
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file exported to every command")
	fs.StringArrayVarP(&f.watch, "watch", "w", nil, "reload when files matching GLOB change (repeatable)")
	fs.StringVar(&f.watchDir, "watch-dir", "", "root directory for --watch (default is the working directory)")
	fs.StringArrayVar(&f.header, "header", nil, "line shown above the output (repeatable)")
	fs.StringVar(&f.logFile, "log-file", "", `write logs to this file ("-" for stderr)`)
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
}

// overrides returns the config values set on the command line, keyed by
// config path.
func (f *rootFlagValues) overrides(fs *pflag.FlagSet) map[string]any {
	values := map[string]any{
		"interval":  f.interval,
		"runtime":   f.runtime,
		"shell":     f.shell,
		"env-file":  f.envFile,
		"watch":     f.watch,
		"watch-dir": f.watchDir,
		"header":    f.header,
		"log-file":  f.logFile,
		"log-level": f.logLevel,
	}

	out := make(map[string]any)
	for flag, key := range flagKeys {
		if fs.Changed(flag) {
			out[key] = values[flag]
		}
	}
	if f.verbose && !fs.Changed("log-level") {
		out["log.level"] = string(config.LogLevelDebug)
	}
	return out
}

// loadConfig loads the configuration with the command-line overrides of cmd
// applied, followed by extra.
func loadConfig(cmd *cobra.Command, app *App, flags *rootFlagValues, extra map[string]any) (*config.Config, error) {
	overrides := flags.overrides(cmd.Flags())
	maps.Copy(overrides, extra)
	return app.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: flags.configPath,
		Overrides:      overrides,
	})
}
