package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/riskform/internal/model"
)

// Version is the riskform release
const Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
	timeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "riskform",
	Short: "riskform - Human evaluation questionnaires for risk assessment agents",
	Long: `riskform turns per-image risk assessments written by several agents into a
questionnaire for human evaluators, and turns the submitted answers back into
spreadsheets for analysis.

  verify     check that the storage folder is readable
  build      create the questionnaire from the manifest and images
  link       attach a response spreadsheet to the questionnaire
  export     write the flat and per-participant summaries
  translate  translate a Japanese manifest to English before upload

Run 'riskform guide' for the full workflow.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of riskform and the question title format it writes.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("riskform %s (title format v%d)\n", Version, model.TitleFormatVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.riskform/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.DurationVar(&timeout, "timeout", 30*time.Minute, "overall command timeout")
	flags.String("backend", "", "host backend: google or local")
	flags.String("folder", "", "storage folder id (Drive folder id or local directory)")
	flags.String("credentials", "", "service account credentials file for the google backend")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("storage.folder_id", flags.Lookup("folder"))
	_ = viper.BindPFlag("google.credentials_file", flags.Lookup("credentials"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.riskform")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match RISKFORM_*, e.g. RISKFORM_STORAGE_FOLDER_ID
	viper.SetEnvPrefix("RISKFORM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to v, so environment
// variables apply to keys that appear in no config file
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)

	// omitempty keys are absent from the marshalled tree
	_ = v.BindEnv("llm.api_key")
	_ = v.BindEnv("llm.base_url")
	_ = v.BindEnv("llm.proxy")
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		// display_names is a user map, not a config section
		if sub, ok := val.(map[string]any); ok && key != "raters.display_names" {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// decodeConfig returns the effective configuration held by v
func decodeConfig(v *viper.Viper) (*model.Config, error) {
	// Decode into a zero value: mapstructure keeps the tail of a prefilled
	// slice when the configured one is shorter
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Backend {
	case "google", "local":
	default:
		return nil, fmt.Errorf("unknown backend %q (want google or local)", cfg.Backend)
	}
	return cfg, nil
}

func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

// newLogger builds the console logger shared by every component
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// commandContext is cancelled by the timeout flag or an interrupt
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	return ctx, func() {
		stop()
		cancel()
	}
}
