package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/internal/types"
	"github.com/xhad/topics/pkg/cluster"
	cfgPkg "github.com/xhad/topics/pkg/config"
	"github.com/xhad/topics/pkg/feed"
	"github.com/xhad/topics/pkg/llm"
	"github.com/xhad/topics/pkg/pipeline"
	"github.com/xhad/topics/pkg/report"
	"github.com/xhad/topics/pkg/scraper"
	"github.com/xhad/topics/pkg/store"
)

func progressWriter(quiet bool) io.Writer {
	if quiet {
		return io.Discard
	}
	return os.Stderr
}

func getProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("restarts"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// spinnerFetcher stops the spinner once fetching is over.
type spinnerFetcher struct {
	fetcher types.Fetcher
	spinner *progressbar.ProgressBar
	out     io.Writer
}

func (s *spinnerFetcher) Fetch(ctx context.Context, url string) ([]models.Document, error) {
	docs, err := s.fetcher.Fetch(ctx, url)
	s.spinner.Finish()
	if err == nil {
		fmt.Fprint(s.out, color.GreenString("\n✓ Fetched %d documents\n", len(docs)))
	}
	return docs, err
}

func newFetcher(config *cfgPkg.Config, spinner *progressbar.ProgressBar) (types.Fetcher, error) {
	switch config.Source.Type {
	case cfgPkg.SourceRSS:
		return feed.NewReader(config.FeedConfig()), nil
	default:
		sc := config.ScraperConfig()
		sc.OnProgress = func(url string) {
			spinner.Describe(color.CyanString("Fetching %s", url))
			spinner.Add(1)
		}
		return scraper.NewWithConfig(sc)
	}
}

func run(ctx context.Context, config *cfgPkg.Config) error {
	out := progressWriter(config.UI.Quiet)

	spinner := getSpinner(out, "Fetching "+config.Source.URL)
	fetcher, err := newFetcher(config, spinner)
	if err != nil {
		return fmt.Errorf("failed to initialize fetcher: %w", err)
	}

	var opts []pipeline.Option
	opts = append(opts,
		pipeline.WithTopTerms(config.Report.TopTerms),
		pipeline.WithHeadlines(*config.Report.Headlines),
	)

	if config.LLM.Enabled {
		labeler, err := llm.NewLabelerWithConfig(config.LabelerConfig())
		if err != nil {
			return fmt.Errorf("failed to initialize labeler: %w", err)
		}
		opts = append(opts, pipeline.WithLabeler(labeler))
	}

	if config.Database.URL != "" {
		vectorStore, err := store.NewWithConfig(ctx, config.StoreConfig())
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %w", err)
		}
		defer vectorStore.Close()
		opts = append(opts, pipeline.WithStore(vectorStore))
	}

	clusterConfig := config.ClusterConfig()
	bar := getProgressBar(out, clusterConfig.Restarts, "Clustering")
	clusterConfig.OnRestart = func(s cluster.RestartSummary) {
		bar.Add(1)
	}

	p := pipeline.New(
		&spinnerFetcher{fetcher: fetcher, spinner: spinner, out: out},
		config.VectorizerOptions(),
		clusterConfig,
		opts...,
	)

	outcome, err := p.Run(ctx, config.Source.URL)
	bar.Finish()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)

	if config.Clusterer.Seed == nil {
		log.Debug().Uint64("seed", outcome.Clusters.Seed).Msg("Random seed")
	}

	if config.Report.Format == cfgPkg.FormatJSON {
		return report.WriteJSON(os.Stdout, outcome.Report)
	}
	return report.WriteText(os.Stdout, outcome.Report)
}
