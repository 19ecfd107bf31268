package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/sitegen"
	"github.com/eringen/sitegen/views"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the site into the output directory",
	Long: `Build loads every Markdown article from the content directory, validates
it, and writes listing pages, article pages, rss.xml, feed.json, sitemap.xml
and robots.txt to the output directory. The previous output is only replaced
when the whole build succeeds.

Examples:
  sitegen build
  sitegen build --content ./posts --output ./public_html`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	ctx := cmd.Context()

	contentFS := os.DirFS(cfg.ContentDir)
	articles, err := sitegen.LoadDirectory(ctx, contentFS, ".")
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.ContentDir, err)
	}
	log.WithField("articles", len(articles)).WithField("content", cfg.ContentDir).Info("content loaded")

	gen := sitegen.NewGenerator(cfg, views.Default(cfg), log, sitegen.WithContentFS(contentFS))
	res, err := gen.Build(ctx, articles)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Built %d articles on %d pages into %s\n", res.Articles, res.Pages, res.OutputDir)
	return nil
}
