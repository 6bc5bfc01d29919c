package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/assets"
	"github.com/vango-dev/combine/pkg/minify"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	var (
		kind    string
		exclude []string
	)

	cmd := &cobra.Command{
		Use:   "check <ref>...",
		Short: "Report whether references can be combined",
		Long: `Report the eligibility decision for each reference: combinable, remote,
excluded or missing. The configured exclusions for --kind apply, plus any
given with --exclude.

Examples:
  combine check /js/app.js /js/tinymce.js?v=4
  combine check --kind css --exclude print.css /css/print.css`,
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

			exclusions := append(append([]string{}, cfg.Exclusions(k)...), exclude...)
			resolver := cfg.Resolver()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, ref := range args {
				fmt.Fprintf(tw, "%s\t%s\n", resolver.Check(ref, exclusions), ref)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(minify.KindJS), "Asset kind: js or css")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "x", nil, "Additional exclusion entry (repeatable)")

	return cmd
}

func resolveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <ref>...",
		Short: "Print the file behind each reference",
		Long: `Print the filesystem path each reference resolves to, probing the web
root first and the data directory's web folder second. Unresolved
references print "-".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			resolver := cfg.Resolver()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, ref := range args {
				path, ok := resolver.FilePath(assets.StripQuery(ref))
				if !ok {
					path = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\n", ref, path)
			}
			return tw.Flush()
		},
	}
}

func mtimeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mtime <ref>...",
		Short: "Print the cache-busting timestamp of each reference",
		Long: `Print the modification time, in epoch seconds, of the file behind each
reference after applying the configured manifest or asset prefix. Remote
and unresolvable references print 0.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			mapper, err := cfg.Mapper()
			if err != nil {
				return err
			}
			resolver := cfg.Resolver()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, ref := range args {
				fmt.Fprintf(tw, "%d\t%s\n", resolver.ModifiedTimestamp(ref, mapper), ref)
			}
			return tw.Flush()
		},
	}
}

func normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <path>...",
		Short: "Collapse . and .. segments",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range args {
				fmt.Fprintln(cmd.OutOrStdout(), assets.NormalizePath(p))
			}
		},
	}
}
