package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/minify"
)

func minifyCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minify <js|css> [file]",
		Short: "Minify a script or stylesheet",
		Long: `Minify a file, or standard input when no file is given, with the
minifier configured for the kind. Minification runs even when it is
disabled in the configuration.

Examples:
  combine minify js app.js > app.min.js
  cat site.css | combine minify css`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := minify.ParseKind(args[0])
			if err != nil {
				return errors.New("E501").WithDetail("kind").Wrap(err)
			}

			var src io.Reader = cmd.InOrStdin()
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return errors.New("E501").WithDetailf("open %s", args[1]).Wrap(err)
				}
				defer f.Close()
				src = f
			}
			data, err := io.ReadAll(src)
			if err != nil {
				return errors.New("E501").WithDetail("read input").Wrap(err)
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			dcfg := cfg.DispatcherConfig()
			dcfg.Enabled = true
			d, err := minify.NewDispatcher(minify.NewRegistry(), dcfg)
			if err != nil {
				return err
			}

			out, err := d.Minify(kind, string(data))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	return cmd
}
