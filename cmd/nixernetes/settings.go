package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variables that override settings.
const envPrefix = "NIXERNETES"

// defaultSettingsFile is looked up in the home directory when --settings is
// not given. A missing default file is not an error.
const defaultSettingsFile = ".nixernetes.yaml"

type settingsKey struct{}

func withSettings(ctx context.Context, v *viper.Viper) context.Context {
	return context.WithValue(ctx, settingsKey{}, v)
}

// settingsFromContext returns the settings of the running command. Outside
// a command run it returns settings with defaults only.
func settingsFromContext(ctx context.Context) *viper.Viper {
	if v, ok := ctx.Value(settingsKey{}).(*viper.Viper); ok {
		return v
	}
	return viper.New()
}

// loadSettings merges, from highest precedence: flags set on the command
// line, NIXERNETES_* environment variables, the settings file and flag
// defaults. Setting keys are flag names; dashes become underscores in
// environment variable names.
func loadSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	path, _ := cmd.Flags().GetString("settings")
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return v, nil
		}
		path = filepath.Join(home, defaultSettingsFile)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	return v, nil
}
