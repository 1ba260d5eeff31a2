// Package cmd implements the command-line interface for pricewatch.
// It provides the root command and subcommands for running scrapes,
// scheduling, and inspecting operational state.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/pricewatch/cmd/health"
	"github.com/jonesrussell/pricewatch/cmd/httpd"
	"github.com/jonesrussell/pricewatch/cmd/migrate"
	"github.com/jonesrussell/pricewatch/cmd/ops"
	cmdschedule "github.com/jonesrussell/pricewatch/cmd/schedule"
	"github.com/jonesrussell/pricewatch/cmd/scrape"
	"github.com/jonesrussell/pricewatch/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the pricewatch CLI.
	rootCmd = &cobra.Command{
		Use:   "pricewatch",
		Short: "A retail price scraping and reconciliation engine",
		Long:  `An engine that scrapes retail store listings, reconciles them against a product catalog, and tracks per-store price history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get debug flag before creating logger
	_ = rootCmd.ParseFlags(os.Args[1:])

	// Initialize configuration
	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Execute the root command with a fresh context
	return rootCmd.ExecuteContext(context.Background())
}

// init initializes the root command and its subcommands.
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pricewatch version %s\n", viper.GetString("app.version"))
		},
	})

	// Add subcommands
	rootCmd.AddCommand(scrape.Command())
	rootCmd.AddCommand(cmdschedule.Command())
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(ops.Command())
	rootCmd.AddCommand(health.Command())
	rootCmd.AddCommand(migrate.Command())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	// Set config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Enable automatic environment variable reading BEFORE setting defaults
	// so environment variables take precedence over defaults
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults (only used if environment variables or config file don't provide values)
	config.SetDefaults()

	// Read config file
	// Config file is optional; defaults and environment variables cover the rest
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Config file not found: %v (using defaults and environment variables)\n", err)
	}

	// Bind command-line flags to viper
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}

	// Map environment variables to config keys
	if err := bindEnvVars(); err != nil {
		return err
	}

	return nil
}

// bindEnvVars binds well-known environment variables to config keys.
func bindEnvVars() error {
	bindings := map[string][]string{
		"app.environment":   {"APP_ENV"},
		"logger.level":      {"LOG_LEVEL"},
		"logger.encoding":   {"LOG_FORMAT"},
		"database.host":     {"POSTGRES_HOST", "DATABASE_HOST"},
		"database.port":     {"POSTGRES_PORT", "DATABASE_PORT"},
		"database.user":     {"POSTGRES_USER", "DATABASE_USER"},
		"database.password": {"POSTGRES_PASSWORD", "DATABASE_PASSWORD"},
		"database.dbname":   {"POSTGRES_DB", "DATABASE_NAME"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := viper.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	return nil
}
