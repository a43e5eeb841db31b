package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cuongbtq/scanhub/internal/config"
	"github.com/cuongbtq/scanhub/internal/params"
	"github.com/cuongbtq/scanhub/shared/database"
	"github.com/cuongbtq/scanhub/shared/logger"
)

// app carries the state shared by every subcommand
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	defaultConfigPath := os.Getenv("SCANCTL_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}

	rootCmd := &cobra.Command{
		Use:          "scanctl",
		Short:        "Operate the scanhub job queue",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env file is fine
			_ = godotenv.Load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		a.newValidateCmd(),
		a.newEnqueueCmd(),
		a.newJobsCmd(),
		a.newImportCmd(),
		a.newMigrateCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration file and sets up logging on stderr
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:      a.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.Kitchen,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = appLogger
	return cfg, nil
}

// openDatabase connects to the configured datastore
func (a *app) openDatabase() (*database.Client, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := database.NewClient(cfg.Database.ClientConfig(), a.logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return client, nil
}

// parseKeyValues turns key=value arguments into validator input. Repeated
// keys become lists and bracketed keys such as lfi[os]=unix become nested
// maps.
func parseKeyValues(args []string) (map[string]any, error) {
	form := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", arg)
		}
		form.Add(key, value)
	}
	return params.FormInput(form), nil
}
