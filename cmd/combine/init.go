package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/combine/internal/config"
	"github.com/vango-dev/combine/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default configuration file",
		Long: `Write combine.json (or combine.yaml) with the default settings.

Examples:
  combine init
  combine init site --format=yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			var name string
			switch format {
			case "json":
				name = config.ConfigFileNames[0]
			case "yaml":
				name = config.ConfigFileNames[1]
			default:
				return errors.New("E501").WithDetailf("unknown format %q", format).
					WithSuggestion("Use --format=json or --format=yaml")
			}

			if config.Exists(dir) && !force {
				return errors.New("E103").WithDetailf("%s already has a configuration file", dir).
					WithSuggestion("Pass --force to overwrite it")
			}

			path := filepath.Join(dir, name)
			if err := config.New().SaveTo(path); err != nil {
				return err
			}

			success(cmd.OutOrStdout(), "wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "File format: json or yaml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	return cmd
}
