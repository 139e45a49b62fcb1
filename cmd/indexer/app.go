package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tweet-indexer/config"
	"tweet-indexer/langdetect"
	"tweet-indexer/scraper"
	"tweet-indexer/search"
	"tweet-indexer/services"
)

type options struct {
	location   string
	languages  []string
	maxTweets  int
	configPath string
}

// deps builds the backends of a run. Tests swap them for fakes.
type deps struct {
	newIndexer func(cfg *config.ElasticsearchConfig) (search.Indexer, error)
	// newSource also returns a release func for the resources behind the source.
	newSource func(cfg config.ScraperConfig) (scraper.Source, func(), error)
}

func defaultDeps() deps {
	return deps{
		newIndexer: func(cfg *config.ElasticsearchConfig) (search.Indexer, error) {
			c, err := search.NewClient(cfg)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		newSource: func(cfg config.ScraperConfig) (scraper.Source, func(), error) {
			r, err := scraper.NewRenderer(cfg)
			if err != nil {
				return nil, nil, err
			}
			release := func() {
				if c, ok := r.(io.Closer); ok {
					if err := c.Close(); err != nil {
						config.Logger.Warnf("close renderer: %v", err)
					}
				}
			}
			src, err := scraper.New(cfg, r)
			if err != nil {
				release()
				return nil, nil, err
			}
			return src, release, nil
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "tweet-indexer",
		Short: "Scrape tweets posted near a location and index them into Elasticsearch",
		// "--languages fr en": values after the first one arrive as positional args
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && !cmd.Flags().Changed("languages") {
				return fmt.Errorf("unexpected arguments %q", args)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.languages = append(opts.languages, args...)
			out := cmd.OutOrStdout()
			if err := run(cmd.Context(), out, d, opts); err != nil {
				report(out, err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.location, "location", "", "location to search tweets near")
	flags.StringSliceVar(&opts.languages, "languages", []string{"fr", "en"}, "ISO 639-1 codes of the languages to keep (comma or space separated)")
	flags.IntVar(&opts.maxTweets, "max-tweets", 20, "maximum number of tweets to consider")
	flags.StringVar(&opts.configPath, "config", config.DEFAULT_CREDENTIALS_FILE, "path of the INI file holding the [elasticsearch] section")

	return cmd
}

func run(ctx context.Context, out io.Writer, d deps, opts options) error {
	if err := config.InitApp(); err != nil {
		return err
	}
	appCfg := config.GetConfig()
	config.InitLogger(appCfg.Logging)

	esCfg, err := config.LoadElasticsearch(opts.configPath)
	if err != nil {
		return err
	}
	indexer, err := d.newIndexer(esCfg)
	if err != nil {
		return err
	}
	source, release, err := d.newSource(appCfg.Scraper)
	if err != nil {
		return err
	}
	defer release()

	svc := services.NewIngestService(indexer, source, langdetect.NewDetector())
	res, err := svc.Run(ctx, services.IngestRequest{
		Location:  opts.location,
		Languages: opts.languages,
		MaxTweets: opts.maxTweets,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "indexed %d tweets near %q (examined %d, matched %d, failed %d)\n",
		res.Indexed, opts.location, res.Examined, res.Matched, res.Failed)
	return nil
}

func report(out io.Writer, err error) {
	if errors.Is(err, services.ErrEmptyLocation) {
		fmt.Fprintln(out, err.Error())
		return
	}
	config.Logger.Errorf("run failed: %v", err)
	fmt.Fprintf(out, "an error occurred while indexing tweets into Elasticsearch: %v\n", err)
}
