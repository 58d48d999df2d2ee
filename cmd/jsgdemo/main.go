package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	jsg "github.com/jerbob92/wazero-jsg"
)

func main() {
	var logFile string

	newLogger := func() (*zap.Logger, error) {
		if logFile == "" {
			return zap.NewNop(), nil
		}
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
		return cfg.Build()
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Run the allocate/wrap/collect scenarios and print destructor counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()
			jsg.SetLogger(logger)

			results, err := runScenarios(logger)
			if err != nil {
				return err
			}
			printScenarios(cmd.OutOrStdout(), results)
			return nil
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Manipulate resources in an isolate interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()
			jsg.SetLogger(logger)

			return runInspect(newSession(logger))
		},
	}

	root := &cobra.Command{
		Use:   "jsgdemo",
		Short: "Shows how wrapped resources move between Go and the collector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return inspectCmd.RunE(cmd, args)
			}
			return scenariosCmd.RunE(cmd, args)
		},
	}

	root.PersistentFlags().StringVar(&logFile, "log", "", "write debug logs to this file")
	root.AddCommand(scenariosCmd, inspectCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
