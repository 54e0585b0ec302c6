// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the exam-schedule CLI. Each stage is a
// subcommand: fetch downloads handouts, convert turns them into page text,
// extract runs the reconciliation pipeline, and schedule manages the store.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/exam-schedule/internal/secrets"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the exam-schedule CLI.
var rootCmd = &cobra.Command{
	Use:   "exam-schedule",
	Short: "Extract exam schedules from course handouts",
	Long: `exam-schedule reads course handouts (PDF or text), asks a structured
extraction service for dated assessments and their format and weightage, and
reconciles the two into a schedule with concrete start and end times.

Entries whose time cannot be determined are kept as all-day events and
flagged for review.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("config.dotenv.error", "error", err)
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("secrets.loaded", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./exam-schedule.yaml or ~/.config/exam-schedule/exam-schedule.yaml)")
	rootCmd.PersistentFlags().String("work-dir", "", "base directory for handouts (contains raw/, text/, metadata/)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	_ = viper.BindPFlag("conversion.work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))
	_ = viper.BindPFlag("fetch.work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))

	setDefaults(types.DefaultConfig())
}

// setDefaults registers every config key so env overrides and Unmarshal see it.
func setDefaults(d types.Config) {
	viper.SetDefault("ai.model", d.AI.Model)
	viper.SetDefault("ai.api_key", d.AI.APIKey)
	viper.SetDefault("ai.base_url", d.AI.BaseURL)
	viper.SetDefault("ai.max_retries", d.AI.MaxRetries)
	viper.SetDefault("ai.timeout", d.AI.Timeout)
	viper.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	viper.SetDefault("pipeline.skip_title", d.Pipeline.SkipTitle)
	viper.SetDefault("conversion.backend", string(d.Conversion.Backend))
	viper.SetDefault("conversion.work_dir", d.Conversion.WorkDir)
	viper.SetDefault("fetch.timeout", d.Fetch.Timeout)
	viper.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	viper.SetDefault("fetch.work_dir", d.Fetch.WorkDir)
	viper.SetDefault("store.data_dir", d.Store.DataDir)
	viper.SetDefault("store.max_results", d.Store.MaxResults)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("exam-schedule")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "exam-schedule"))
		}
	}

	viper.SetEnvPrefix("EXAM_SCHEDULE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment, and bound flags.
// OPENAI_API_BASE and MODEL_NAME, common in .env files for OpenAI-compatible
// tools, apply only while the setting is still at its default.
func loadConfig() (types.Config, error) {
	defaults := types.DefaultConfig()
	cfg := defaults
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = secrets.APIKey(loadedSecrets)
	}
	if v := os.Getenv("OPENAI_API_BASE"); v != "" && cfg.AI.BaseURL == defaults.AI.BaseURL {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" && cfg.AI.Model == defaults.AI.Model {
		cfg.AI.Model = v
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	format, _ := cmd.Flags().GetString("log-format")

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unsupported log format %q: use text or json", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bindFlags binds config keys to the running command's flags. Binding at run
// time lets several commands share a key without the last init winning.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q for %s", name, key)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}
