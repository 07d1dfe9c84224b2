package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/autopeer-io/rentfleet/pkg/log"
)

const (
	configFlagName = "config"
	envPrefix      = "RENTFLEET"
)

func addConfigFlag(basename string, fs *pflag.FlagSet) {
	fs.StringP(configFlagName, "c", "", fmt.Sprintf("Read configuration from the specified file (e.g. /etc/rentfleet/%s.yaml). Flags override file values.", basename))
}

// loadConfig merges config file, environment and explicitly set flags into
// the options struct. Precedence: flag > env > file > default.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := a.viper

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	cfgFile := ""
	if f := cmd.Flags().Lookup(configFlagName); f != nil {
		cfgFile = f.Value.String()
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
		}
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfgFile != "" {
		a.watchConfig(filepath.Clean(cfgFile))
	}
	return nil
}

// watchConfig re-applies the log level whenever the config file changes.
// Everything else requires a restart.
func (a *App) watchConfig(file string) {
	v := a.viper
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := v.GetString("log.level")
		if err := log.SetLevel(level); err != nil {
			log.Error(err, "Ignoring invalid log level from config file", "file", file)
			return
		}
		log.Info("Configuration reloaded", "file", e.Name, "log.level", level)
	})
	v.WatchConfig()
}
