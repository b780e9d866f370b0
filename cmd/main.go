package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	cfgPkg "github.com/xhad/topics/pkg/config"
)

type flags struct {
	configPath string
	url        string
	sourceType string
	k          int
	restarts   int
	maxIter    int
	seed       uint64
	workers    int
	top        int
	headlines  int
	json       bool
	label      bool
	model      string
	ollamaURL  string
	dbURL      string
	debug      bool
	quiet      bool
}

func main() {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.StringVar(&f.url, "url", "", "News listing or feed URL")
	flag.StringVar(&f.sourceType, "source-type", cfgPkg.SourceHTML, "Source type: html or rss")
	flag.IntVar(&f.k, "k", 8, "Number of topic clusters")
	flag.IntVar(&f.restarts, "restarts", 10, "Number of k-means restarts")
	flag.IntVar(&f.maxIter, "max-iter", 300, "Maximum iterations per restart")
	flag.Uint64Var(&f.seed, "seed", 0, "Random seed for reproducible clustering")
	flag.IntVar(&f.workers, "workers", 1, "Restarts run in parallel")
	flag.IntVar(&f.top, "top", 8, "Top terms per topic")
	flag.IntVar(&f.headlines, "headlines", 3, "Headlines listed per topic")
	flag.BoolVar(&f.json, "json", false, "Print the report as JSON")
	flag.BoolVar(&f.label, "label", false, "Name topics with the LLM")
	flag.StringVar(&f.model, "model", "mistral", "LLM model used for labels")
	flag.StringVar(&f.ollamaURL, "ollama-url", "", "Ollama server URL")
	flag.StringVar(&f.dbURL, "db-url", "", "PostgreSQL connection string for exporting the run")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&f.quiet, "quiet", false, "Hide progress output")
	flag.Parse()

	setupLogging(f.debug, f.quiet)

	config, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	applyFlags(config, f)

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config error: %s", e.Error())
		}
		os.Exit(2)
	}
	if config.UI.NoColor {
		color.NoColor = true
	}
	if config.UI.Quiet && !f.debug {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config); err != nil {
		stop()
		log.Fatal().Err(err).Msg("Run failed")
	}
}

func setupLogging(debug, quiet bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch {
	case debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// applyFlags overrides config values with the flags set on the command line.
func applyFlags(config *cfgPkg.Config, f flags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "url":
			config.Source.URL = f.url
		case "source-type":
			config.Source.Type = f.sourceType
		case "k":
			config.Clusterer.K = f.k
		case "restarts":
			config.Clusterer.Restarts = f.restarts
		case "max-iter":
			config.Clusterer.MaxIterations = f.maxIter
		case "seed":
			seed := f.seed
			config.Clusterer.Seed = &seed
		case "workers":
			config.Clusterer.Workers = f.workers
		case "top":
			config.Report.TopTerms = f.top
		case "headlines":
			headlines := f.headlines
			config.Report.Headlines = &headlines
		case "json":
			if f.json {
				config.Report.Format = cfgPkg.FormatJSON
			} else {
				config.Report.Format = cfgPkg.FormatText
			}
		case "label":
			config.LLM.Enabled = f.label
		case "model":
			config.LLM.Model = f.model
		case "ollama-url":
			config.LLM.BaseURL = f.ollamaURL
		case "db-url":
			config.Database.URL = f.dbURL
		case "quiet":
			config.UI.Quiet = f.quiet
		}
	})
}
