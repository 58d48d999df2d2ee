package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jerbob92/wazero-jsg/generator/generator"
)

// Meant to be used with go:generate:
//
//	//go:generate go run github.com/jerbob92/wazero-jsg/generator
func main() {
	var (
		fileName string
		output   string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "jsg-gen [flags] [dir]",
		Short: "Generates jsg resource members from //jsg: annotations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			if fileName == "" {
				return fmt.Errorf("no file given, set --file or run through go generate")
			}
			if output == "" {
				output = strings.TrimSuffix(filepath.Base(fileName), ".go") + "_jsg.go"
			}

			logger := zap.NewNop()
			if verbose {
				logger, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer logger.Sync()
			}

			return generator.Generate(logger, dir, fileName, output)
		},
	}

	cmd.Flags().StringVar(&fileName, "file", os.Getenv("GOFILE"), "a file of the package to process")
	cmd.Flags().StringVarP(&output, "output", "o", "", "the file to write, defaults to <file>_jsg.go")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
