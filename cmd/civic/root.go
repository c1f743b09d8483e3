package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/civic-client/internal/app"
	"github.com/heartmarshall/civic-client/internal/config"
)

// cli carries state shared by all subcommands.
type cli struct {
	configPath string
	envFile    string
	output     string
	logLevel   string

	app *app.App
}

func rootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "civic",
		Short:         "Report and follow civic issues",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return c.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&c.configPath, "config", "c", "", "config file (default ./config.yaml, or $CONFIG_PATH)")
	f.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	f.StringVarP(&c.output, "output", "o", "table", "output format: table, json or yaml")
	f.StringVar(&c.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.sessionCmd(),
		c.submitCmd(),
		c.mineCmd(),
		c.allCmd(),
		c.getCmd(),
		c.statusCmd(),
		c.nearbyCmd(),
		c.statsCmd(),
		c.categoriesCmd(),
		c.healthCmd(),
		versionCmd(),
	)
	return cmd
}

func (c *cli) open(cmd *cobra.Command) error {
	switch c.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", c.output)
	}

	if err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}
	if c.configPath != "" {
		if err := os.Setenv("CONFIG_PATH", c.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}

	logger := app.NewLogger(cfg.Log)
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("initialize client", slog.String("error", err.Error()))
		return err
	}
	c.app = a
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"offline": "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "civic %s\n", app.BuildVersion())
		},
	}
}
