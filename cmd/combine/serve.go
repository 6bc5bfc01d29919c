package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/combine/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		address string
		prefix  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bundle server",
		Long: `Start the HTTP server that builds and serves bundles.

Routes (under the configured prefix, default /combine):
  GET  /combine/js?f=/js/a.js&f=/js/b.js   build and serve a bundle
  GET  /combine/b/<name>                   serve a cached bundle
  POST /combine/minify/css                 minify the request body

Examples:
  combine serve
  combine serve --address=127.0.0.1:9000
  combine serve --config=/etc/combine.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			if prefix != "" {
				cfg.Server.Prefix = prefix
			}

			srv, err := server.New(cfg, server.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printBanner(out)
			info(out, "listening on %s", cfg.Server.Address)
			info(out, "bundles under %s", cfg.Server.Prefix)

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "URL prefix of the bundle routes (default from config)")

	return cmd
}
