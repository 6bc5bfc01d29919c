package main

import (
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/bundle"
	"github.com/vango-dev/combine/pkg/minify"
	"github.com/vango-dev/combine/pkg/server"
)

func bundleCmd(flags *globalFlags) *cobra.Command {
	var (
		kind      string
		bucket    string
		keyPrefix string
	)

	cmd := &cobra.Command{
		Use:   "bundle <ref>...",
		Short: "Build a bundle ahead of time",
		Long: `Build a bundle into the cache directory and print its path. With
--bucket the bundle is also uploaded to S3 using the default AWS
credential chain.

Examples:
  combine bundle /js/jquery.js /js/app.js
  combine bundle --kind css /css/reset.css /css/site.css
  combine bundle --bucket my-assets --key-prefix bundles/ /js/app.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := minify.ParseKind(kind)
			if err != nil {
				return errors.New("E501").WithDetail("--kind").Wrap(err)
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cfg.Server.Metrics = false

			srv, err := server.New(cfg, server.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := srv.Builder().Build(ctx, bundle.Request{
				Kind:       k,
				Refs:       args,
				Exclusions: cfg.Exclusions(k),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if b.Cached {
				success(out, "%s (cached, %d bytes)", b.Path, b.Size)
			} else {
				success(out, "%s (%d bytes)", b.Path, b.Size)
			}
			for _, s := range b.Skipped {
				warn(out, "skipped %s: %s", s.Ref, s.Decision)
			}

			if bucket == "" {
				return nil
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return errors.New("E304").WithDetail("load AWS configuration").Wrap(err)
			}
			pub := bundle.NewS3Publisher(s3.NewFromConfig(awsCfg), bucket, keyPrefix).WithCache(cfg.CacheConfig())
			loc, err := pub.Publish(ctx, b)
			if err != nil {
				return err
			}
			info(out, "published %s", loc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(minify.KindJS), "Asset kind: js or css")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Upload the bundle to this S3 bucket")
	cmd.Flags().StringVar(&keyPrefix, "key-prefix", "", "Key prefix for uploaded bundles")

	return cmd
}
