// Package cli implements the macrosync command line tool.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pageza/macrosync/backend/config"
	"github.com/pageza/macrosync/backend/internal/app"
)

// NewRootCmd builds the command tree. Each call gets its own viper
// instance so flags and config files never leak between runs.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "macrosync",
		Short: "AI meal plans, workouts and food scans that keep working offline",
		Long: `macrosync generates daily meal plans and workout suggestions with a generative
model, caches every successful answer and falls back to built-in content when the
model cannot be reached.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.macrosync.yaml)")
	flags.String("cache", "", "cache backend: redis or memory")
	flags.String("api-key", "", "Gemini API key")
	flags.String("model", "", "Gemini model name")
	flags.Duration("timeout", 0, "timeout of a single AI request")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("json", false, "print results as JSON")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newPlanCmd(v),
		newSwapCmd(v),
		newWorkoutCmd(v),
		newScanCmd(v),
		newImageCmd(v),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".macrosync")
	}

	v.SetEnvPrefix("MACROSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// loadConfig reads the service configuration and applies flag, config file
// and MACROSYNC_* overrides on top.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if s := v.GetString("cache"); s != "" {
		cfg.CacheBackend = strings.ToLower(s)
	}
	if s := v.GetString("api-key"); s != "" {
		cfg.APIKey = s
	}
	if s := v.GetString("model"); s != "" {
		cfg.Model = s
	}
	if d := v.GetDuration("timeout"); d > 0 {
		cfg.RequestTimeout = d
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.LogLevel = strings.ToLower(s)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the application for one command and closes it afterwards
func withApp(cmd *cobra.Command, v *viper.Viper, fn func(*app.App) error) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
